package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foodgram/backend/internal/service"
)

// ReferenceHandler serves the unpaginated ingredient and tag reference reads.
type ReferenceHandler struct {
	refs   *service.ReferenceService
	logger *zap.Logger
}

func NewReferenceHandler(refs *service.ReferenceService, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{refs: refs, logger: logger}
}

func (h *ReferenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ingredients", h.ListIngredients)
	router.GET("/ingredients/:id", h.GetIngredient)
	router.GET("/tags", h.ListTags)
	router.GET("/tags/:id", h.GetTag)
}

func (h *ReferenceHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.refs.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	results := make([]IngredientResponse, len(ingredients))
	for i, ing := range ingredients {
		results[i] = newIngredientResponse(ing)
	}
	c.JSON(http.StatusOK, results)
}

func (h *ReferenceHandler) GetIngredient(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	ingredient, err := h.refs.GetIngredient(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newIngredientResponse(*ingredient))
}

func (h *ReferenceHandler) ListTags(c *gin.Context) {
	tags, err := h.refs.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	results := make([]TagResponse, len(tags))
	for i, t := range tags {
		results[i] = newTagResponse(t)
	}
	c.JSON(http.StatusOK, results)
}

func (h *ReferenceHandler) GetTag(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, h.logger, service.ErrNotFound)
		return
	}
	tag, err := h.refs.GetTag(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTagResponse(*tag))
}
