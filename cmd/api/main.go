package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/server"
	"github.com/foodgram/backend/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := database.NewRedisClient(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	var images service.ImageStore
	if cfg.Media.S3Bucket != "" {
		images, err = service.NewS3ImageStore(context.Background(), cfg.Media.S3Bucket)
	} else {
		images, err = service.NewDiskImageStore(cfg.Media.Dir, cfg.Media.URLPrefix)
	}
	if err != nil {
		logger.Fatal("failed to initialize image store", zap.Error(err))
	}

	auth := service.NewAuthService(db, cfg.JWTSecret)
	recipes := service.NewRecipeService(db, cfg.API.MaxCookingTime)
	relations := service.NewRelationService(db)
	shopping := service.NewShoppingListService(db)
	shortLinks := service.NewShortLinkService(db, rdb, logger)
	users := service.NewUserService(db)
	refs := service.NewReferenceService(db)

	handlers := router.Handlers{
		Recipes:    api.NewRecipeHandler(recipes, relations, shopping, shortLinks, auth, images, logger, cfg),
		Users:      api.NewUserHandler(users, relations, auth, images, logger, cfg),
		Reference:  api.NewReferenceHandler(refs, logger),
		ShortLinks: api.NewShortLinkHandler(shortLinks, logger),
	}

	engine := router.New(cfg, handlers, logger)
	srv := server.New(cfg.Addr(), engine, logger)
	if err := srv.Run(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
