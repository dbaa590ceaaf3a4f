package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"policyvault-backend/internal/documents"
	"policyvault-backend/internal/extraction"
	"policyvault-backend/internal/policies"
	"policyvault-backend/internal/shared/config"
	"policyvault-backend/internal/shared/metrics"
	"policyvault-backend/internal/shared/server/middleware"
	"policyvault-backend/internal/shared/server/respond"
)

// RouterDeps collects the handlers the router wires up.
type RouterDeps struct {
	Config            config.Config
	PolicyHandler     *policies.Handler
	DocumentHandler   *documents.Handler
	ExtractionHandler *extraction.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	api.Use(middleware.Auth(deps.Config.Env))
	registerMeRoutes(api)
	if deps.PolicyHandler != nil {
		deps.PolicyHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.ExtractionHandler != nil {
		deps.ExtractionHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
