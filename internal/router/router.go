package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Recipes    *api.RecipeHandler
	Users      *api.UserHandler
	Reference  *api.ReferenceHandler
	ShortLinks *api.ShortLinkHandler
}

// New assembles the gin engine: recovery, request logging, CORS, the /api
// route groups, the short-link redirect and static media.
func New(cfg *config.Config, h Handlers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	apiGroup := r.Group("/api")
	h.Recipes.RegisterRoutes(apiGroup)
	h.Users.RegisterRoutes(apiGroup)
	h.Reference.RegisterRoutes(apiGroup)
	h.ShortLinks.RegisterRoutes(r)

	// Uploaded images are served straight from disk when no object store is
	// configured.
	if cfg.Media.S3Bucket == "" && cfg.Media.Dir != "" {
		r.Static(cfg.Media.URLPrefix, cfg.Media.Dir)
	}
	return r
}
