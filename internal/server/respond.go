package server

import (
	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// RespondError writes err as {"message": ...} with the status of its kind.
// Internal causes never reach the client.
func RespondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(svcErr.HTTPStatus(err), gin.H{"message": svcErr.PublicMessage(err)})
}

// RespondBadRequest answers a request whose body or query failed binding.
func RespondBadRequest(c *gin.Context, msg string) {
	RespondError(c, svcErr.InvalidArgument(msg))
}
