package api

import (
	"github.com/gin-gonic/gin"

	"inventory-alert-service/internal/config"
	"inventory-alert-service/internal/logging"
)

func NewRouter(h *Handler, logger *logging.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	r.GET("/healthz", h.Health)

	api := r.Group(cfg.API.BasePath)
	{
		api.GET("/alerts", h.ListAlerts)
		api.GET("/alerts/:id", h.GetAlert)
		api.POST("/alerts/:id/read", h.MarkRead)
		api.POST("/alerts/:id/done", h.MarkDone)
		api.GET("/alerts/ws", h.AlertFeed)

		api.POST("/sweep", h.TriggerSweep)
	}
	return r
}
