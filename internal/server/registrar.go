package server

import (
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// RouteRegistrar attaches a service's HTTP routes under the /api group.
type RouteRegistrar interface {
	RegisterRoutes(api *gin.RouterGroup)
}
