package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"inventory-alert-service/internal/engine"
	"inventory-alert-service/internal/logging"
	"inventory-alert-service/internal/models"
	"inventory-alert-service/internal/store"
)

type Handler struct {
	store  *store.Store
	engine *engine.Engine
	logger *logging.Logger
	hub    *Hub
}

func NewHandler(st *store.Store, eng *engine.Engine, logger *logging.Logger, hub *Hub) *Handler {
	return &Handler{store: st, engine: eng, logger: logger, hub: hub}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListAlerts(c *gin.Context) {
	var f store.AlertFilter

	if doneStr := c.Query("done"); doneStr != "" {
		done, err := strconv.ParseBool(doneStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid done filter"})
			return
		}
		f.Done = &done
	}
	f.Condition = models.ConditionType(c.Query("condition"))
	f.SubjectID = c.Query("subject_id")
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	alerts, total, err := h.store.ListAlerts(c.Request.Context(), f)
	if err != nil {
		h.logger.Errorf("Failed to list alerts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "total": total})
}

func (h *Handler) GetAlert(c *gin.Context) {
	id := c.Param("id")
	alert, err := h.store.GetAlert(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		h.logger.Errorf("Failed to get alert %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get alert"})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		h.logger.Errorf("Failed to mark alert %s read: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark alert read"})
		return
	}
	h.logger.Infof("Alert %s marked read", id)
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func (h *Handler) MarkDone(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.MarkDone(c.Request.Context(), id, models.ReasonMarkedDone); err != nil {
		h.logger.Errorf("Failed to mark alert %s done: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark alert done"})
		return
	}
	h.logger.Infof("Alert %s marked done", id)
	c.JSON(http.StatusOK, gin.H{"status": "done"})
}

// TriggerSweep runs a full re-evaluation pass out of schedule.
func (h *Handler) TriggerSweep(c *gin.Context) {
	res, err := h.engine.HandleSweepTick(c.Request.Context(), models.SweepTick{AsOf: time.Now()})
	if err != nil {
		h.logger.Errorf("Manual sweep failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subjects": res.Subjects,
		"created":  res.Created,
		"resolved": res.Resolved,
		"failed":   res.Failed,
	})
}
