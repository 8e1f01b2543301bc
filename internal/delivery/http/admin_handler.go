package http

import (
	"net/http"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/internal/dto"
	"github.com/vsheahan/local-story-weaver/internal/news"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AdminHandler handles administrative triggers.
type AdminHandler struct {
	cfg         *config.Config
	newsService news.Service
	logger      *logger.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg *config.Config, newsService news.Service, log *logger.Logger) *AdminHandler {
	return &AdminHandler{cfg: cfg, newsService: newsService, logger: log}
}

// RegisterRoutes registers the admin routes to the Echo group, guarded by
// the API key middleware.
func (h *AdminHandler) RegisterRoutes(g *echo.Group) {
	g.Use(APIKeyMiddleware(h.cfg.Admin.APIKey))
	g.POST("/refresh-news", h.RefreshNews)
}

// RefreshNews triggers one feed ingestion pass.
func (h *AdminHandler) RefreshNews(c echo.Context) error {
	items, err := h.newsService.Ingest(c.Request().Context())
	if err != nil {
		h.logger.Error("News refresh failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to refresh news"})
	}
	return c.JSON(http.StatusOK, dto.FromIngest(items))
}

// APIKeyMiddleware requires a matching X-API-Key header when an admin key is
// configured. With no key configured, requests pass through (development
// mode).
func APIKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return next(c)
			}
			provided := c.Request().Header.Get("X-API-Key")
			if provided == "" {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Missing X-API-Key header"})
			}
			if provided != apiKey {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid API key"})
			}
			return next(c)
		}
	}
}
