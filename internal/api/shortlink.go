package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foodgram/backend/internal/service"
)

// ShortLinkHandler redirects short tokens to their original recipe URLs.
type ShortLinkHandler struct {
	shortLinks *service.ShortLinkService
	logger     *zap.Logger
}

func NewShortLinkHandler(shortLinks *service.ShortLinkService, logger *zap.Logger) *ShortLinkHandler {
	return &ShortLinkHandler{shortLinks: shortLinks, logger: logger}
}

func (h *ShortLinkHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/s/:token", h.Redirect)
}

func (h *ShortLinkHandler) Redirect(c *gin.Context) {
	url, err := h.shortLinks.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}
