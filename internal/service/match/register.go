package match

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/middleware"
)

// Registrar ties the match service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
	rule   CompatibilityRule
}

// NewRegistrar creates a new Registrar for the match service
func NewRegistrar(appCtx *app.AppContext, rule CompatibilityRule) *Registrar {
	return &Registrar{appCtx: appCtx, rule: rule}
}

// RegisterRoutes attaches the match endpoints; all of them require a token.
func (r *Registrar) RegisterRoutes(api *gin.RouterGroup) {
	h := NewHandler(NewMatchService(r.appCtx, r.rule))

	matches := api.Group("/matches", middleware.Auth(r.appCtx.Tokens))
	matches.GET("", h.Matches)
	matches.GET("/count", h.Count)
	matches.GET("/candidates", h.Candidates)
	matches.POST("/swipe", h.Swipe)
}
