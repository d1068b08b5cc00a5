// Package v1 provides the versioned HTTP handlers of the session service.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Conversation API
	e.POST("/v1/chat", h.Chat)
	e.POST("/v1/chat/clear", h.ClearHistory)

	// Single-turn generation
	e.POST("/v1/cocktails", h.GenerateCocktail)
	e.POST("/v1/recipes", h.GenerateRecipe)
	e.POST("/v1/drinks/recommend", h.RecommendDrink)
	e.GET("/v1/brands", h.GetBrands)
	e.POST("/v1/alcohol-info", h.AlcoholInfo)

	// Read-only API
	e.GET("/v1/sessions/:session_id/messages", h.GetSessionMessages)
	e.GET("/v1/sessions/:session_id/stats", h.GetSessionStats)
	e.GET("/v1/analytics", h.GetAnalytics)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// statusFor maps chat flow errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrMissingInput), errors.Is(err, domain.ErrImageDecode):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
