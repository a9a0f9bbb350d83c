package router

import (
	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/internal/api/http/handler"
	"github.com/authgate/authgate/internal/api/http/middleware"
	"github.com/authgate/authgate/internal/logger"
)

// Router assembles the gin engine: recovery, request logging, the request
// classifier, then routes.
type Router struct {
	authHandler  *handler.Auth
	authenticate *middleware.Authenticate
	logger       *logger.Logger
}

func New(authHandler *handler.Auth, authenticate *middleware.Authenticate, logger *logger.Logger) *Router {
	return &Router{
		authHandler:  authHandler,
		authenticate: authenticate,
		logger:       logger,
	}
}

func (r *Router) Register() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Logging(r.logger))
	engine.Use(r.authenticate.Handler())

	engine.GET("/healthz", handler.Health)
	engine.POST("/login/callback/:provider", r.authHandler.LoginCallback)
	engine.GET("/me", middleware.RequireAuthenticated(), r.authHandler.Me)

	return engine
}
