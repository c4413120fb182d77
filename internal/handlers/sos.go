package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/observability"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/tasks"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/telemetry"
)

// SOSHandler records emergency alerts. Recording the alert is the primary
// action; responder fan-out happens in the background and its failure
// never fails the request.
type SOSHandler struct {
	sos        repositories.SOSRepository
	dispatcher tasks.Dispatcher
	audit      *telemetry.AuditEmitter
}

// NewSOSHandler builds a SOSHandler.
func NewSOSHandler(sos repositories.SOSRepository, dispatcher tasks.Dispatcher, audit *telemetry.AuditEmitter) *SOSHandler {
	return &SOSHandler{sos: sos, dispatcher: dispatcher, audit: audit}
}

// Create stores an alert. Anonymous alerts are accepted: a caller in
// danger is not asked to log in first. All location fields are optional
// since the geolocation capture can fail or be denied.
func (h *SOSHandler) Create(c *gin.Context) {
	var req struct {
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
		AccuracyM *float64 `json:"accuracy_m"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID *int
	if id, ok := c.Get("userID"); ok {
		if v, ok := id.(int); ok && v != 0 {
			userID = &v
		}
	}

	event, err := h.sos.CreateSOS(c.Request.Context(), userID, req.Lat, req.Lng, req.AccuracyM)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record alert"})
		return
	}
	observability.IncSOSAlert()

	if h.dispatcher != nil {
		if err := h.dispatcher.DispatchSOS(c.Request.Context(), event.ID); err != nil {
			// the alert row exists, responders can still poll it
			log.Printf("sos dispatch enqueue failed for event %d: %v", event.ID, err)
		}
	}

	h.audit.Emit(c.Request.Context(), "critical",
		fmt.Sprintf("sos alert %d recorded", event.ID), requestIDFromContext(c), userIDFromContext(c))

	c.JSON(http.StatusCreated, event)
}
