package main

import (
	"path/filepath"

	"dental-reception/internal/auth"
	"dental-reception/internal/config"
	"dental-reception/internal/httpapi"
	"dental-reception/internal/session"
	"dental-reception/internal/telephony"
	"dental-reception/pkg/logger"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic.
func registerRoutes(
	r *gin.Engine,
	cfg config.Config,
	h telephony.WebhookHandler,
	store *session.Store,
	ring *logger.Ring,
	authManager *auth.Manager,
	sigValidator *telephony.SignatureValidator,
) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Twilio webhooks. Signature validation is optional but recommended;
	// config refuses to start if it is enabled without the auth token.
	webhooks := r.Group("/")
	if sigValidator != nil {
		webhooks.Use(telephony.RequireSignature(sigValidator))
	}
	{
		webhooks.POST("/voice", h.HandleVoice)
		webhooks.POST("/gather-intent", h.HandleGatherIntent)
		webhooks.POST("/gather-booking", h.HandleGatherBooking)
		webhooks.POST("/status", h.HandleStatus)
	}

	// Read-only introspection, token-gated, disabled entirely when no
	// secret is configured. Not meant for production exposure.
	if authManager != nil {
		dbg := httpapi.DebugHandlers{
			Store:    store,
			Ring:     ring,
			CallsLog: filepath.Join(cfg.Storage.DataDir, "calls.jsonl"),
		}
		debug := r.Group("/debug")
		debug.Use(auth.RequireDebugToken(authManager))
		{
			debug.GET("/sessions", dbg.Sessions)
			debug.GET("/logs", dbg.Logs)
			debug.GET("/transcript/:call_id", dbg.Transcript)
			debug.GET("/stats", dbg.Stats)
		}
	}
}
