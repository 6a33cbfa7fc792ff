package telephony

import (
	"net/http"
	"time"

	"dental-reception/internal/dialogue"
	"dental-reception/internal/persistence"
	"dental-reception/internal/session"
	"dental-reception/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookHandler converts Twilio webhooks to dialogue turns and writes
// TwiML. Business rules live in internal/dialogue; this layer only parses,
// locks the session for the turn, and renders.
type WebhookHandler struct {
	Store     *session.Store
	Machine   *dialogue.Machine
	Persister *persistence.Persister
	Guard     persistence.CompletionGuard
	Render    PromptRenderer

	Now func() time.Time
}

func (h WebhookHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// HandleVoice answers the call-start event with the greeting gather.
func (h WebhookHandler) HandleVoice(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoiceForm(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		log.Warn("CallSid missing on /voice")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}

	var reply dialogue.Reply
	h.Store.Update(form.CallSid, func(s *session.Session) {
		if s.Meta.StartedAt.IsZero() {
			s.Meta = session.CallMeta{
				From:       form.From,
				To:         form.To,
				Direction:  form.Direction,
				AccountSid: form.AccountSid,
				StartedAt:  h.now(),
			}
		}
		reply = h.Machine.Start(s)
	})

	log.Info("incoming call", "call_sid", form.CallSid, "from", form.From)
	h.respond(c, reply)
}

// HandleGatherIntent processes the recognized utterance (or DTMF digit)
// from the intent and follow-up gathers.
func (h WebhookHandler) HandleGatherIntent(c *gin.Context) {
	h.handleGather(c, func(s *session.Session, form VoiceForm) dialogue.Reply {
		return h.Machine.HandleIntentTurn(s, form.SpeechResult, form.Digits)
	})
}

// HandleGatherBooking processes utterances during name and time collection.
func (h WebhookHandler) HandleGatherBooking(c *gin.Context) {
	h.handleGather(c, func(s *session.Session, form VoiceForm) dialogue.Reply {
		return h.Machine.HandleBookingTurn(s, form.SpeechResult)
	})
}

func (h WebhookHandler) handleGather(c *gin.Context, turn func(*session.Session, VoiceForm) dialogue.Reply) {
	log := logger.FromGin(c)

	form, err := ParseVoiceForm(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		log.Warn("CallSid missing on gather")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}

	var reply dialogue.Reply
	h.Store.Update(form.CallSid, func(s *session.Session) {
		reply = turn(s, form)
	})
	h.respond(c, reply)
}

// HandleStatus processes status callbacks. A completed status triggers the
// persister exactly once: the completion guard filters duplicate callbacks
// and the atomic store removal backs it up in-process.
func (h WebhookHandler) HandleStatus(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoiceForm(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		log.Warn("CallSid missing on /status")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "CallSid required"})
		return
	}

	log.Info("status callback", "call_sid", form.CallSid, "status", form.CallStatus)

	if _, ok := h.Store.Get(form.CallSid); ok {
		h.Store.Update(form.CallSid, func(s *session.Session) {
			if form.Direction != "" {
				s.Meta.Direction = form.Direction
			}
			if form.From != "" {
				s.Meta.From = form.From
			}
			if form.To != "" {
				s.Meta.To = form.To
			}
			if d := form.DurationSec(); d > 0 {
				s.DurationSec = d
			}
		})
	}

	if form.CallStatus != "completed" {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	first, err := h.Guard.MarkCompleted(c.Request.Context(), form.CallSid)
	if err != nil {
		// Guard backend trouble: the store removal below still keeps
		// this process idempotent.
		log.Warn("completion guard failed", "call_sid", form.CallSid, "err", err)
		first = true
	}
	if !first {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	sess, ok := h.Store.Remove(form.CallSid)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	if err := h.Persister.PersistCall(sess, h.now()); err != nil {
		// Already logged with the payload; the caller-facing flow is done
		// either way.
		log.Error("persistence failed", "call_sid", form.CallSid, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h WebhookHandler) respond(c *gin.Context, reply dialogue.Reply) {
	twiml, err := h.Render.Render(reply)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
