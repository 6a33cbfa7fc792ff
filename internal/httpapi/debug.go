// Package httpapi holds the read-only introspection handlers. Everything
// here is non-authoritative: it peeks at live state but never drives the
// dialogue or mutates storage.
package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"dental-reception/internal/reporting"
	"dental-reception/internal/session"
	"dental-reception/pkg/logger"

	"github.com/gin-gonic/gin"
)

type DebugHandlers struct {
	Store    *session.Store
	Ring     *logger.Ring
	CallsLog string
}

// Sessions returns a transcript-free snapshot of the live session table.
func (h DebugHandlers) Sessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count":    h.Store.Len(),
		"sessions": h.Store.Snapshot(),
	})
}

// Logs returns the last n log lines from the in-memory ring.
func (h DebugHandlers) Logs(c *gin.Context) {
	n := 50
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "n must be 1-500"})
			return
		}
		n = parsed
	}
	lines := h.Ring.Tail(n)
	if len(lines) == 0 {
		c.String(http.StatusOK, "No logs yet.")
		return
	}
	c.String(http.StatusOK, strings.Join(lines, "\n"))
}

// Transcript returns one live session's transcript.
func (h DebugHandlers) Transcript(c *gin.Context) {
	callID := c.Param("call_id")
	sess, ok := h.Store.Get(callID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no such session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"call_id":    sess.CallID,
		"state":      sess.State,
		"transcript": sess.Transcript,
	})
}

// Stats aggregates the persisted call summaries.
func (h DebugHandlers) Stats(c *gin.Context) {
	report, err := reporting.SummarizeFile(h.CallsLog)
	if err != nil {
		logger.FromGin(c).Error("stats aggregation failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}
