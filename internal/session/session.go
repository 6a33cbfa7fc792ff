package session

import (
	"time"

	"dental-reception/internal/speech"
)

// State is the dialogue position a call session is in.
type State string

const (
	StateGreeting       State = "greeting"
	StateCollectIntent  State = "collect_intent"
	StateCollectName    State = "collect_name"
	StateCollectTime    State = "collect_time"
	StateConfirmBooking State = "confirm_booking"
	StateAnythingElse   State = "anything_else"
	StateFarewell       State = "farewell"
	StateDone           State = "done"
)

type Speaker string

const (
	SpeakerAgent  Speaker = "agent"
	SpeakerCaller Speaker = "caller"
)

// Line is one transcript entry. Insertion order is significant.
type Line struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// CallMeta holds telephony metadata copied from webhook payloads.
type CallMeta struct {
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Direction  string    `json:"direction,omitempty"`
	AccountSid string    `json:"account_sid,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
}

// Session is the mutable state for one phone call, from the first webhook
// to the completion callback (or the reaper, if that never arrives).
// All mutation goes through Store.Update; handlers never share pointers.
type Session struct {
	CallID     string
	State      State
	Transcript []Line

	CallerName string
	Intent     speech.Intent

	// RequestedDay/RequestedTime are normalized (YYYY-MM-DD, HH:MM);
	// RequestedPhrase keeps the caller's own wording for the records.
	RequestedDay    string
	RequestedTime   string
	RequestedPhrase string
	ApptType        string

	// BookedDay/BookedTime are set once a reservation succeeded. They make
	// duplicate confirm turns idempotent: the same slot is never recorded twice.
	BookedDay  string
	BookedTime string

	Retries  int
	Silences int

	Greeted    bool
	Reprompted bool

	FarewellLine string
	Meta         CallMeta
	DurationSec  int

	LastTouched time.Time
}

// AddAgentLine appends an agent line, skipping consecutive duplicates
// (retried webhooks can replay the same prompt).
func (s *Session) AddAgentLine(text string) {
	if text == "" {
		return
	}
	if n := len(s.Transcript); n > 0 {
		last := s.Transcript[n-1]
		if last.Speaker == SpeakerAgent && last.Text == text {
			return
		}
	}
	s.Transcript = append(s.Transcript, Line{Speaker: SpeakerAgent, Text: text})
}

// AddCallerLine appends a caller utterance.
func (s *Session) AddCallerLine(text string) {
	if text == "" {
		return
	}
	s.Transcript = append(s.Transcript, Line{Speaker: SpeakerCaller, Text: text})
}

// ResetRetries clears the per-prompt retry counter. Called whenever the
// prompt changes, per the clarifier ladder.
func (s *Session) ResetRetries() { s.Retries = 0 }

// ResetSilences clears the consecutive-no-input counter after real speech.
func (s *Session) ResetSilences() { s.Silences = 0 }

// Done reports whether the dialogue reached its terminal state.
func (s *Session) Done() bool { return s.State == StateDone }
