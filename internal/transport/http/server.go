// Package http provides the HTTP server of the session service.
package http

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/config"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/service"
	v1 "github.com/Joint-Venture-AI/MIX-MASTER-API/internal/transport/http/v1"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/transport/ws"
)

// NewServer creates and configures the public HTTP server: REST API,
// WebSocket endpoint and Prometheus metrics.
func NewServer(svc *service.Service, metrics *observability.Metrics, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, requestID string) {
			req := c.Request()
			c.SetRequest(req.WithContext(observability.WithRequestID(req.Context(), requestID)))
		},
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes)))

	// Handlers
	v1Handler := v1.NewHandler(svc)
	wsServer := ws.NewServer(svc, cfg)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	wsServer.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return e
}

// bodyLimit leaves room for base64 expansion and form overhead around the
// largest accepted image.
func bodyLimit(maxUploadBytes int64) string {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	limit := maxUploadBytes*4/3 + 1<<20
	return fmt.Sprintf("%dK", limit/1024+1)
}
