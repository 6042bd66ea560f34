package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

type UserHandler struct {
	users     *service.UserService
	relations *service.RelationService
	auth      *service.AuthService
	images    service.ImageStore
	logger    *zap.Logger
	cfg       *config.Config
}

func NewUserHandler(
	users *service.UserService,
	relations *service.RelationService,
	auth *service.AuthService,
	images service.ImageStore,
	logger *zap.Logger,
	cfg *config.Config,
) *UserHandler {
	return &UserHandler{
		users:     users,
		relations: relations,
		auth:      auth,
		images:    images,
		logger:    logger,
		cfg:       cfg,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.Use(middleware.OptionalAuthMiddleware(h.auth))
	{
		users.GET("", h.List)
		users.GET("/:id", h.Get)
	}

	protected := router.Group("/users")
	protected.Use(middleware.AuthMiddleware(h.auth))
	{
		protected.GET("/me", h.Me)
		protected.PUT("/me/avatar", h.SetAvatar)
		protected.DELETE("/me/avatar", h.ClearAvatar)
		protected.GET("/subscriptions", h.Subscriptions)
		protected.POST("/:id/subscribe", h.Subscribe)
		protected.DELETE("/:id/subscribe", h.Unsubscribe)
	}
}

func (h *UserHandler) List(c *gin.Context) {
	var requester *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		requester = &id
	}

	p := parsePageParams(c, h.cfg.API.PageSize, h.cfg.API.MaxPageSize)
	users, count, err := h.users.List(c.Request.Context(), p.offset(), p.limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subs, err := h.users.IsSubscribed(c.Request.Context(), requester, ids)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	results := make([]UserResponse, len(users))
	for i, u := range users {
		results[i] = newUserResponse(u, subs[u.ID])
	}
	c.JSON(http.StatusOK, newPageResponse(c, count, p, results))
}

func (h *UserHandler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var requester *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		requester = &id
	}
	subs, err := h.users.IsSubscribed(c.Request.Context(), requester, []uuid.UUID{user.ID})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user, subs[user.ID]))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user, false))
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Avatar == "" {
		c.JSON(http.StatusBadRequest, gin.H{"avatar": []string{"avatar is required"}})
		return
	}

	url, err := h.images.SaveDataURI(c.Request.Context(), req.Avatar)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.users.SetAvatar(c.Request.Context(), userID, url); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": url})
}

func (h *UserHandler) ClearAvatar(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	if err := h.users.ClearAvatar(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := h.relations.Follow(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	target, err := h.users.Get(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	resp, err := h.userWithRecipes(c, target, true)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := h.relations.Unfollow(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	p := parsePageParams(c, h.cfg.API.PageSize, h.cfg.API.MaxPageSize)
	authors, count, err := h.users.Subscriptions(c.Request.Context(), userID, p.offset(), p.limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	results := make([]UserWithRecipesResponse, len(authors))
	for i, author := range authors {
		resp, err := h.userWithRecipes(c, author, true)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		results[i] = resp
	}
	c.JSON(http.StatusOK, newPageResponse(c, count, p, results))
}

// userWithRecipes builds the subscription projection: profile plus a sample
// of the author's recipes capped by the recipes_limit query parameter.
func (h *UserHandler) userWithRecipes(c *gin.Context, user *models.User, subscribed bool) (UserWithRecipesResponse, error) {
	limit := 0
	if v, err := strconv.Atoi(c.Query("recipes_limit")); err == nil && v > 0 {
		limit = v
	}

	recipes, count, err := h.users.RecipesByAuthor(c.Request.Context(), user.ID, limit)
	if err != nil {
		return UserWithRecipesResponse{}, err
	}
	short := make([]RecipeShortResponse, len(recipes))
	for i, r := range recipes {
		short[i] = newRecipeShortResponse(r)
	}
	return UserWithRecipesResponse{
		UserResponse: newUserResponse(user, subscribed),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}
