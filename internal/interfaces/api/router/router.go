package router

import (
	"fmt"
	"medreminder/internal/interfaces/api/handler"
	"medreminder/internal/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the dependencies for the router.
type Config struct {
	MedicationHandler *handler.MedicationHandler
	DeviceHandler     *handler.DeviceHandler
	LineHandler       *handler.LineHandler // nil when LINE is not configured
	Logger            logger.Logger
	// ReadOnly registers only the GET routes. Replica nodes set it because
	// reminder triggers live on the primary.
	ReadOnly bool
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogHost:      true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Info(fmt.Sprintf("REQUEST: method=%s, uri=%s, status=%d, latency=%s, req_id=%s",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID,
			))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, handler.OwnerHeader, "X-Line-Signature"},
		MaxAge:       300,
	}))

	// Routes
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	v1 := e.Group("/v1")

	medications := v1.Group("/medications")
	medications.GET("", cfg.MedicationHandler.List)
	medications.GET("/stream", cfg.MedicationHandler.Stream)

	devices := v1.Group("/devices")
	devices.GET("", cfg.DeviceHandler.List)

	if cfg.ReadOnly {
		cfg.Logger.Info("Router initialized with read-only routes.")
		return e
	}

	medications.POST("", cfg.MedicationHandler.Create)
	medications.PUT("/:id", cfg.MedicationHandler.Update)
	medications.PATCH("/:id/active", cfg.MedicationHandler.SetActive)
	medications.DELETE("/:id", cfg.MedicationHandler.Delete)

	devices.POST("", cfg.DeviceHandler.Register)
	devices.DELETE("", cfg.DeviceHandler.Unregister)

	// LINE Webhook Endpoint
	if cfg.LineHandler != nil {
		e.POST("/callback", cfg.LineHandler.HandleWebhook)
	}

	cfg.Logger.Info("Router initialized with routes.")
	return e
}
