package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"webhook-service/internal/models"
	"webhook-service/internal/service"
	"webhook-service/internal/store"
	"webhook-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	events     *service.EventService
	orders     *service.OrderService
	readiness  Pinger
	hmacSecret string
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(events *service.EventService, orders *service.OrderService, readiness Pinger, hmacSecret string) *Handler {
	useJSONFieldNames()
	return &Handler{
		events:     events,
		orders:     orders,
		readiness:  readiness,
		hmacSecret: hmacSecret,
		logger:     util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/v1/webhooks/events/create/", hmacAuth(h.hmacSecret), h.createEvent)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/events/:event_id", h.getEvent)
		v1.POST("/events/:event_id/replay", h.replayEvent)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the repository answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.readiness.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindErrorBody(err))
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if errors.Is(err, service.ErrInvalidAmount) {
		c.JSON(http.StatusBadRequest, gin.H{"amount": []string{"Ensure this value is greater than 0."}})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	idStr := c.Param("id")
	orderID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	order, ops, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get order",
			"details": err.Error(),
		})
		return
	}

	if ops == nil {
		ops = []models.Operation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"order":      order,
		"operations": ops,
	})
}

// getEvent returns a stored provider event
func (h *Handler) getEvent(c *gin.Context) {
	event, err := h.events.GetEvent(c.Request.Context(), c.Param("event_id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get event",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, event)
}

// replayEvent schedules another dispatch of an event still in NEW
func (h *Handler) replayEvent(c *gin.Context) {
	eventID := c.Param("event_id")

	_, err := h.events.Replay(c.Request.Context(), eventID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, service.ErrEventNotReplayable):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Event is not replayable",
			"details": err.Error(),
		})
	case err != nil:
		h.logger.Error("Failed to replay event", zap.String("provider_event_id", eventID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to replay event",
			"details": err.Error(),
		})
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"message":  "Event re-enqueued.",
			"event_id": eventID,
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
