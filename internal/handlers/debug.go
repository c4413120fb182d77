package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/rabbitmq"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints. They stay off in
// production; elsewhere they let an operator confirm the audit trail
// and the broker connection without raising a real alert.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, publisher rabbitmq.Publisher, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/publisher", func(c *gin.Context) {
		if publisher == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "publisher not configured"})
			return
		}
		resp := gin.H{"mode": rabbitmq.PublisherMode(publisher)}
		if reason := rabbitmq.PublisherNoopReason(publisher); reason != "" {
			resp["noop_reason"] = reason
		}
		c.JSON(http.StatusOK, resp)
	})
}
