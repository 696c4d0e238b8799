package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"webhook-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookRequest is the provider notification body
type WebhookRequest struct {
	EventID   string          `json:"event_id" binding:"required,max=255"`
	EventType string          `json:"event_type" binding:"required,max=50"`
	OrderID   string          `json:"order_id" binding:"required,max=32"`
	Date      string          `json:"date" binding:"required"`
	Data      json.RawMessage `json:"data" binding:"required"`
}

const msgDatetimeFormat = "Datetime has wrong format. Use one of these formats instead: " +
	"YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// parseEventTime accepts ISO 8601 timestamps with a T or space separator.
// Values without an offset are taken as UTC.
func parseEventTime(s string) (time.Time, bool) {
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (r *WebhookRequest) validate() FieldErrors {
	errs := FieldErrors{}
	if _, ok := parseEventTime(r.Date); !ok {
		errs.add("date", msgDatetimeFormat)
	}
	if bytes.Equal(bytes.TrimSpace(r.Data), []byte("null")) {
		errs.add("data", "This field may not be null.")
	}
	return errs
}

// createEvent handles provider webhook deliveries
func (h *Handler) createEvent(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindErrorBody(err))
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, errs.body())
		return
	}

	_, err := h.events.Intake(c.Request.Context(), service.IntakeRequest{
		ProviderEventID: req.EventID,
		EventType:       req.EventType,
		OrderID:         req.OrderID,
		Payload:         req.Data,
	})
	if err != nil {
		h.logger.Error("Failed to accept event",
			zap.String("provider_event_id", req.EventID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to store event."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Event received.",
		"event_id": req.EventID,
	})
}
