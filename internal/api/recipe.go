package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

type RecipeHandler struct {
	recipes    *service.RecipeService
	relations  *service.RelationService
	shopping   *service.ShoppingListService
	shortLinks *service.ShortLinkService
	auth       *service.AuthService
	images     service.ImageStore
	logger     *zap.Logger
	cfg        *config.Config
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	relations *service.RelationService,
	shopping *service.ShoppingListService,
	shortLinks *service.ShortLinkService,
	auth *service.AuthService,
	images service.ImageStore,
	logger *zap.Logger,
	cfg *config.Config,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:    recipes,
		relations:  relations,
		shopping:   shopping,
		shortLinks: shortLinks,
		auth:       auth,
		images:     images,
		logger:     logger,
		cfg:        cfg,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	recipes.Use(middleware.OptionalAuthMiddleware(h.auth))
	{
		recipes.GET("", h.List)
		recipes.GET("/:id", h.Get)
		recipes.GET("/:id/get-link", h.GetLink)
	}

	protected := router.Group("/recipes")
	protected.Use(middleware.AuthMiddleware(h.auth))
	{
		protected.POST("", h.Create)
		protected.PATCH("/:id", h.Update)
		protected.DELETE("/:id", h.Delete)
		protected.POST("/:id/favorite", h.AddFavorite)
		protected.DELETE("/:id/favorite", h.RemoveFavorite)
		protected.POST("/:id/shopping_cart", h.AddToCart)
		protected.DELETE("/:id/shopping_cart", h.RemoveFromCart)
		protected.GET("/download_shopping_cart", h.DownloadShoppingCart)
	}
}

type ingredientLineRequest struct {
	ID     uint    `json:"id"`
	Amount float64 `json:"amount"`
}

type recipeRequest struct {
	Name        string                  `json:"name"`
	Text        string                  `json:"text"`
	Image       string                  `json:"image"`
	CookingTime int                     `json:"cooking_time"`
	Tags        []uint                  `json:"tags"`
	Ingredients []ingredientLineRequest `json:"ingredients"`
}

// composeInput converts the request body, uploading the image when the client
// sent a base64 data URI.
func (h *RecipeHandler) composeInput(c *gin.Context, req recipeRequest) (service.ComposeInput, error) {
	image := req.Image
	if strings.HasPrefix(image, "data:") {
		url, err := h.images.SaveDataURI(c.Request.Context(), image)
		if err != nil {
			return service.ComposeInput{}, err
		}
		image = url
	}

	lines := make([]service.IngredientLine, len(req.Ingredients))
	for i, l := range req.Ingredients {
		lines[i] = service.IngredientLine{ID: l.ID, Amount: l.Amount}
	}
	return service.ComposeInput{
		Name:        req.Name,
		Image:       image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Ingredients: lines,
		TagIDs:      req.Tags,
	}, nil
}

func (h *RecipeHandler) List(c *gin.Context) {
	var requester *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		requester = &id
	}

	p := parsePageParams(c, h.cfg.API.PageSize, h.cfg.API.MaxPageSize)
	filter := service.RecipeFilter{
		TagSlugs:  c.QueryArray("tags"),
		Favorited: isTruthy(c.Query("is_favorited")),
		InCart:    isTruthy(c.Query("is_in_shopping_cart")),
		Offset:    p.offset(),
		Limit:     p.limit,
	}
	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"author": []string{"invalid author id"}})
			return
		}
		filter.AuthorID = &id
	}

	views, count, err := h.recipes.List(c.Request.Context(), requester, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	results := make([]RecipeResponse, len(views))
	for i, v := range views {
		results[i] = newRecipeResponse(v)
	}
	c.JSON(http.StatusOK, newPageResponse(c, count, p, results))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	var requester *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		requester = &id
	}

	view, err := h.recipes.Get(c.Request.Context(), recipeID, requester)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newRecipeResponse(view))
}

func (h *RecipeHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}
	in, err := h.composeInput(c, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	view, err := h.recipes.Create(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeResponse(view))
}

func (h *RecipeHandler) Update(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMalformed(c)
		return
	}
	in, err := h.composeInput(c, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	view, err := h.recipes.Update(c.Request.Context(), actor, recipeID, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newRecipeResponse(view))
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), actor, recipeID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addRelation(c, h.relations.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addRelation(c, h.relations.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveFromCart)
}

// addRelation is the shared favorite/cart add flow: toggle, then respond
// with the recipe's relation-view projection.
func (h *RecipeHandler) addRelation(c *gin.Context, add func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := add(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	view, err := h.recipes.Get(c.Request.Context(), recipeID, &userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeShortResponse(view.Recipe))
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := remove(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	items, err := h.shopping.Build(c.Request.Context(), userID)
	if err != nil {
		if err == service.ErrCartEmpty {
			c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("Your shopping cart is empty.\n"))
			return
		}
		respondError(c, h.logger, err)
		return
	}

	body := formatShoppingList(user.FullName(), items, time.Now())
	filename := fmt.Sprintf("%s_shopping_list.txt", user.Username)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

func (h *RecipeHandler) GetLink(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	// The link must point at an existing recipe.
	if _, err := h.recipes.Get(c.Request.Context(), recipeID, nil); err != nil {
		respondError(c, h.logger, err)
		return
	}

	originalURL := fmt.Sprintf("%s/api/recipes/%s", h.cfg.Server.BaseURL, recipeID)
	link, err := h.shortLinks.GetOrCreate(c.Request.Context(), originalURL)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"short-link": fmt.Sprintf("%s/s/%s", h.cfg.Server.BaseURL, link.Token),
	})
}

// actor resolves the authenticated principal to its user row.
func (h *RecipeHandler) actor(c *gin.Context) (*models.User, bool) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	return user, true
}

// formatShoppingList renders the aggregated items as the downloadable
// plain-text report.
func formatShoppingList(fullName string, items []service.ShoppingListItem, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for: %s\n\n", fullName)
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format("2006-01-02"))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s) - %s\n", item.Name, item.MeasurementUnit, item.Amount.String())
	}
	fmt.Fprintf(&b, "\nFoodgram (%d)\n", now.Year())
	return b.String()
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
