package user

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/middleware"
)

// Registrar ties the account endpoints into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the user service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// RegisterRoutes attaches /auth (public) and /users (token required).
func (r *Registrar) RegisterRoutes(api *gin.RouterGroup) {
	h := NewHandler(NewUserService(r.appCtx))

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)

	users := api.Group("/users", middleware.Auth(r.appCtx.Tokens))
	users.GET("/me", h.Me)
	users.PUT("/me", h.UpdateMe)
	users.POST("/checkin", h.CheckIn)
}
