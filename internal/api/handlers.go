package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"proptracker/server/internal/engine"
	"proptracker/server/internal/geometry"
	"proptracker/server/internal/models"
	"proptracker/server/internal/queue"
	"proptracker/server/internal/recompute"
)

const defaultHistoryLimit = 30

// RecomputeService is the orchestrator surface exposed over HTTP
type RecomputeService interface {
	RecomputeProperty(ctx context.Context, id int64) (engine.Metrics, error)
	RecomputeAll(ctx context.Context) (recompute.BatchResult, error)
	ComputeEntityRollup(ctx context.Context, entity string) (recompute.EntityRollup, error)
	History(ctx context.Context, id int64, limit int) ([]models.MetricSnapshot, error)
}

// Enqueuer accepts property ids for background recomputation
type Enqueuer interface {
	Push(ids []int64) error
}

type Handler struct {
	service RecomputeService
	queue   Enqueuer
	logger  *logrus.Logger
}

func NewHandler(service RecomputeService, queue Enqueuer, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		service: service,
		queue:   queue,
		logger:  logger,
	}
}

func propertyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property id"})
		return 0, false
	}
	return id, true
}

// RecomputeProperty recomputes one property and returns its metrics. With
// async=true the property is queued instead and 202 is returned.
func (h *Handler) RecomputeProperty(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		h.enqueue(c, id)
		return
	}

	metrics, err := h.service.RecomputeProperty(c.Request.Context(), id)
	if err != nil {
		var nf *recompute.NotFoundError
		var pe *recompute.PersistenceError
		switch {
		case errors.As(err, &nf):
			c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
		case errors.As(err, &pe):
			h.logger.WithError(err).WithField("property_id", id).Error("Failed to store recomputed metrics")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to store recomputed metrics",
				"metrics": metrics,
			})
		default:
			h.logger.WithError(err).WithField("property_id", id).Error("Failed to recompute property")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recompute property"})
		}
		return
	}

	c.JSON(http.StatusOK, metrics)
}

func (h *Handler) enqueue(c *gin.Context, id int64) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Background recompute is disabled"})
		return
	}

	if err := h.queue.Push([]int64{id}); err != nil {
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
			h.logger.WithError(err).WithField("property_id", id).Warn("Recompute request rejected")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to queue recompute")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue recompute"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":      "queued",
		"property_id": id,
	})
}

func (h *Handler) RecomputeAll(c *gin.Context) {
	result, err := h.service.RecomputeAll(c.Request.Context())
	if err != nil && !result.Canceled {
		h.logger.WithError(err).Error("Failed to recompute all properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recompute all properties"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}

	snapshots, err := h.service.History(c.Request.Context(), id, limit)
	if err != nil {
		var nf *recompute.NotFoundError
		if errors.As(err, &nf) {
			c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
			return
		}
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to get history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get history"})
		return
	}

	c.JSON(http.StatusOK, snapshots)
}

func (h *Handler) rollup(c *gin.Context) (recompute.EntityRollup, bool) {
	entity := c.Param("name")
	rollup, err := h.service.ComputeEntityRollup(c.Request.Context(), entity)
	if err != nil {
		var nf *recompute.NotFoundError
		if errors.As(err, &nf) {
			c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
			return rollup, false
		}
		h.logger.WithError(err).WithField("entity", entity).Error("Failed to compute entity rollup")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute entity rollup"})
		return rollup, false
	}
	return rollup, true
}

func (h *Handler) GetEntityRollup(c *gin.Context) {
	if rollup, ok := h.rollup(c); ok {
		c.JSON(http.StatusOK, rollup)
	}
}

// GetEntityFootprint returns the located properties of an entity as GeoJSON
func (h *Handler) GetEntityFootprint(c *gin.Context) {
	if rollup, ok := h.rollup(c); ok {
		c.JSON(http.StatusOK, geometry.Footprint(rollup.Entity, rollup.Locations))
	}
}
