// Package dialogue is the turn-by-turn controller for one call: given the
// current session and a caller utterance it decides the next prompt, the
// next state, and whether to end the call. Each webhook is one turn; no
// method blocks waiting for the caller.
package dialogue

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"dental-reception/internal/config"
	"dental-reception/internal/persistence"
	"dental-reception/internal/schedule"
	"dental-reception/internal/session"
	"dental-reception/internal/speech"
)

// GatherKind tells the telephony layer which gather to render next.
type GatherKind string

const (
	GatherIntent   GatherKind = "intent"
	GatherFollowUp GatherKind = "followup"
	GatherName     GatherKind = "name"
	GatherTime     GatherKind = "time"
	GatherNone     GatherKind = "none" // speak and hang up
)

// Reply is the voice-prompt directive for one turn.
type Reply struct {
	Prompt string
	Gather GatherKind
}

// Ledger is the slice of the booking ledger the machine needs.
type Ledger interface {
	FindSlots(day string) ([]schedule.Slot, error)
	SuggestNext(day string) (schedule.Slot, bool, error)
	Book(day, start, patient, apptType string) (schedule.BookResult, error)
}

// BookingRecorder appends confirmed bookings to the durable ledger file.
type BookingRecorder interface {
	AppendBooking(rec persistence.BookingRecord) error
}

const maxRetries = 2

// Machine drives the scripted conversation. It mutates sessions only inside
// transition methods; callers hold the session lock for the whole turn.
type Machine struct {
	practice config.Practice
	ledger   Ledger
	recorder BookingRecorder
	log      *slog.Logger

	// pick selects a phrase index in [0,n); now supplies "today" for date
	// parsing. Both are injected so tests are deterministic.
	pick func(n int) int
	now  func() time.Time
}

func NewMachine(practice config.Practice, ledger Ledger, recorder BookingRecorder, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		practice: practice,
		ledger:   ledger,
		recorder: recorder,
		log:      log,
		pick:     rand.Intn,
		now:      time.Now,
	}
}

// WithPicker overrides phrase selection (tests).
func (m *Machine) WithPicker(pick func(n int) int) *Machine {
	m.pick = pick
	return m
}

// WithClock overrides the reference time (tests).
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

/* ===================== call start ===================== */

// Start handles the call-start webhook. The greeting is spoken exactly once
// per call; duplicate start events get one gentle reprompt and then fall
// into the silence ladder. A finished call just hears the farewell again.
func (m *Machine) Start(s *session.Session) Reply {
	if s.Done() {
		return m.repeatFarewell(s)
	}

	if !s.Greeted {
		s.Greeted = true
		s.State = session.StateCollectIntent
		greet := m.pickFrom(m.greetings())
		if strings.Contains(greet, "%s") {
			greet = fmt.Sprintf(greet, m.practice.PracticeName)
		}
		prompt := greet + " " + menuOptionsLine
		s.AddAgentLine(prompt)
		m.log.Info("call greeted", "call_sid", s.CallID)
		return Reply{Prompt: prompt, Gather: GatherIntent}
	}

	if !s.Reprompted && s.State == session.StateCollectIntent {
		s.Reprompted = true
		s.AddAgentLine(silenceReprompt)
		return Reply{Prompt: silenceReprompt, Gather: GatherIntent}
	}

	return m.HandleSilence(s)
}

/* ===================== silence ladder ===================== */

// HandleSilence advances the consecutive-no-input counter: first silence
// repeats the stage clarifier, the second asks "anything else?", the third
// says goodbye.
func (m *Machine) HandleSilence(s *session.Session) Reply {
	if s.Done() {
		return m.repeatFarewell(s)
	}
	s.Silences++

	if s.State == session.StateAnythingElse || s.Silences >= 3 {
		return m.Farewell(s)
	}
	if s.Silences >= 2 {
		s.State = session.StateAnythingElse
		prompt := m.pickFrom(holders) + " " + anythingElseLine
		s.AddAgentLine(prompt)
		return Reply{Prompt: prompt, Gather: GatherFollowUp}
	}

	switch s.State {
	case session.StateCollectName:
		return m.sayAgain(s, m.pickFrom(nameClarifiers), GatherName)
	case session.StateCollectTime:
		return m.sayAgain(s, m.pickFrom(timeClarifiers), GatherTime)
	default:
		return m.sayAgain(s, m.pickFrom(intentClarifiers), GatherIntent)
	}
}

/* ===================== intent turns ===================== */

// HandleIntentTurn processes a gather result while the call is collecting
// an intent (or answering "anything else?"). digits carries an optional
// DTMF shortcut.
func (m *Machine) HandleIntentTurn(s *session.Session, input, digits string) Reply {
	if s.Done() {
		return m.repeatFarewell(s)
	}
	if strings.TrimSpace(input) == "" && digits == "" {
		return m.HandleSilence(s)
	}

	intent := speech.ClassifyDigit(digits)
	if intent == speech.IntentUnknown {
		intent = speech.Classify(input)
	}
	if input != "" {
		s.AddCallerLine(input)
	} else {
		s.AddCallerLine("[pressed " + digits + "]")
	}
	s.ResetSilences()

	m.log.Info("caller intent parsed", "call_sid", s.CallID, "intent", intent, "state", s.State)

	if s.State == session.StateAnythingElse {
		return m.handleAnythingElse(s, intent, input)
	}
	s.State = session.StateCollectIntent
	return m.handleIntent(s, intent, input)
}

func (m *Machine) handleIntent(s *session.Session, intent speech.Intent, input string) Reply {
	switch {
	case intent == speech.IntentGoodbye:
		return m.Farewell(s)

	case intent == speech.IntentAffirm:
		prompt := m.pickFrom(holders) + " " + continuationLine
		s.AddAgentLine(prompt)
		return Reply{Prompt: prompt, Gather: GatherIntent}

	case intent.IsInfo():
		return m.infoReply(s, intent)

	case intent == speech.IntentBooking:
		return m.startBooking(s, input)

	case intent == speech.IntentAvailability:
		return m.availabilityReply(s, input)

	default:
		return m.bumpRetry(s, m.pickFrom(intentClarifiers), GatherIntent)
	}
}

// infoReply speaks the configured line verbatim and asks "anything else?".
func (m *Machine) infoReply(s *session.Session, intent speech.Intent) Reply {
	m.setIntent(s, intent)
	s.ResetRetries()
	s.State = session.StateAnythingElse

	prompt := m.pickFrom(holders) + " " + m.infoLine(intent) + " " + anythingElseLine
	s.AddAgentLine(prompt)
	m.log.Info("info provided", "call_sid", s.CallID, "intent", intent)
	return Reply{Prompt: prompt, Gather: GatherFollowUp}
}

func (m *Machine) infoLine(intent speech.Intent) string {
	switch intent {
	case speech.IntentHours:
		return m.practice.Hours
	case speech.IntentAddress:
		return m.practice.Address
	case speech.IntentPrices:
		return m.practice.Prices
	default:
		return ""
	}
}

// handleAnythingElse resolves the follow-up question after an info reply or
// a confirmed booking.
func (m *Machine) handleAnythingElse(s *session.Session, intent speech.Intent, input string) Reply {
	lowered := strings.ToLower(strings.TrimSpace(input))
	switch lowered {
	case "no", "no thanks", "nah", "nope", "that's all", "nothing else":
		return m.Farewell(s)
	}
	if intent == speech.IntentGoodbye {
		return m.Farewell(s)
	}

	if intent == speech.IntentAffirm {
		s.State = session.StateCollectIntent
		s.ResetRetries()
		prompt := m.pickFrom(holders) + " " + continuationLine
		s.AddAgentLine(prompt)
		return Reply{Prompt: prompt, Gather: GatherIntent}
	}

	if intent.IsInfo() || intent == speech.IntentBooking || intent == speech.IntentAvailability {
		s.State = session.StateCollectIntent
		return m.handleIntent(s, intent, input)
	}

	s.State = session.StateCollectIntent
	return m.bumpRetry(s, m.pickFrom(intentClarifiers), GatherIntent)
}

/* ===================== booking flow ===================== */

// startBooking enters the booking flow, capturing any details the caller
// volunteered inline ("book me a hygiene visit on Friday at 2pm").
func (m *Machine) startBooking(s *session.Session, input string) Reply {
	m.setIntent(s, speech.IntentBooking)
	s.ResetRetries()

	if t, ok := speech.ExtractApptType(input); ok {
		s.ApptType = t
	}
	if day, ok := speech.ParseDayPhrase(input, m.now()); ok {
		s.RequestedDay = day
	}
	if tm, ok := speech.NormalizeTime(input); ok {
		s.RequestedTime = tm
		s.RequestedPhrase = strings.TrimSpace(input)
	}

	s.State = session.StateCollectName
	prompt := m.pickFrom(holders) + " Who should I put the booking under?"
	s.AddAgentLine(prompt)
	m.log.Info("booking flow started", "call_sid", s.CallID)
	return Reply{Prompt: prompt, Gather: GatherName}
}

// availabilityReply answers "what do you have on Wednesday?" by listing the
// free times for the day and sliding into the booking flow.
func (m *Machine) availabilityReply(s *session.Session, input string) Reply {
	day, ok := speech.ParseDayPhrase(input, m.now())
	if !ok {
		prompt := "Sure, which day are you thinking of? You can say tomorrow or a weekday like Wednesday."
		return m.bumpRetry(s, prompt, GatherIntent)
	}

	slots, err := m.ledger.FindSlots(day)
	if err != nil {
		m.log.Error("schedule lookup failed", "call_sid", s.CallID, "day", day, "err", err)
		return m.scheduleTrouble(s)
	}

	m.setIntent(s, speech.IntentBooking)
	s.RequestedDay = day
	s.ResetRetries()
	s.State = session.StateCollectName

	if len(slots) == 0 {
		next, found, err := m.ledger.SuggestNext(day)
		if err != nil || !found {
			prompt := nothingAvailableLine + " " + anythingElseLine
			s.State = session.StateAnythingElse
			s.AddAgentLine(prompt)
			return Reply{Prompt: prompt, Gather: GatherFollowUp}
		}
		s.RequestedDay = next.Day
		s.RequestedTime = next.Start
		s.RequestedPhrase = speech.SpokenDay(next.Day) + " at " + speech.SpokenTime(next.Start)
		prompt := fmt.Sprintf("That day looks full. The next available is %s. If you'd like it, who should I put the booking under?", s.RequestedPhrase)
		s.AddAgentLine(prompt)
		return Reply{Prompt: prompt, Gather: GatherName}
	}

	prompt := fmt.Sprintf("On %s we have %s. Who should I put the booking under?",
		speech.SpokenDay(day), spokenTimes(slots, 4))
	s.AddAgentLine(prompt)
	return Reply{Prompt: prompt, Gather: GatherName}
}

// HandleBookingTurn processes a gather result during name or time
// collection. Info questions and goodbyes still escape the flow.
func (m *Machine) HandleBookingTurn(s *session.Session, input string) Reply {
	if s.Done() {
		return m.repeatFarewell(s)
	}
	if strings.TrimSpace(input) == "" {
		return m.HandleSilence(s)
	}
	s.AddCallerLine(input)
	s.ResetSilences()

	intent := speech.Classify(input)

	switch s.State {
	case session.StateCollectName:
		return m.collectName(s, intent, input)
	case session.StateCollectTime:
		return m.collectTime(s, intent, input)
	default:
		return m.handleIntent(s, intent, input)
	}
}

func (m *Machine) collectName(s *session.Session, intent speech.Intent, input string) Reply {
	if intent == speech.IntentGoodbye {
		return m.Farewell(s)
	}
	if intent.IsInfo() {
		s.State = session.StateCollectIntent
		return m.handleIntent(s, intent, input)
	}
	if intent == speech.IntentAffirm {
		return m.sayAgain(s, m.pickFrom(nameClarifiers), GatherName)
	}

	name, ok := speech.ExtractName(input)
	if !ok {
		return m.bumpRetry(s, m.pickFrom(nameClarifiers), GatherName)
	}
	if s.CallerName == "" {
		s.CallerName = name
	}
	s.ResetRetries()
	m.log.Info("caller name captured", "call_sid", s.CallID, "caller_name", s.CallerName)

	if s.RequestedDay != "" && s.RequestedTime != "" {
		return m.confirmBooking(s)
	}

	s.State = session.StateCollectTime
	prompt := fmt.Sprintf("Thanks %s. %s What day and time works for you?", s.CallerName, m.pickFrom(holders))
	s.AddAgentLine(prompt)
	return Reply{Prompt: prompt, Gather: GatherTime}
}

func (m *Machine) collectTime(s *session.Session, intent speech.Intent, input string) Reply {
	if intent == speech.IntentGoodbye {
		return m.Farewell(s)
	}
	if intent.IsInfo() {
		s.State = session.StateCollectIntent
		return m.handleIntent(s, intent, input)
	}
	if intent == speech.IntentAffirm {
		// A pending suggestion ("would Friday at 11 work?") is accepted here.
		if s.RequestedDay != "" && s.RequestedTime != "" {
			return m.confirmBooking(s)
		}
		return m.sayAgain(s, m.pickFrom(timeClarifiers), GatherTime)
	}

	day, hasDay := speech.ParseDayPhrase(input, m.now())
	tm, hasTime := speech.NormalizeTime(input)
	if hasDay {
		s.RequestedDay = day
	}
	if hasTime {
		s.RequestedTime = tm
	}
	if !hasDay && !hasTime {
		return m.bumpRetry(s, m.pickFrom(timeClarifiers), GatherTime)
	}

	if s.RequestedDay == "" {
		prompt := "Which day works best for you? You can say tomorrow or a weekday like Wednesday."
		return m.bumpRetry(s, prompt, GatherTime)
	}

	if s.RequestedTime == "" {
		slots, err := m.ledger.FindSlots(s.RequestedDay)
		if err != nil {
			m.log.Error("schedule lookup failed", "call_sid", s.CallID, "day", s.RequestedDay, "err", err)
			return m.scheduleTrouble(s)
		}
		if len(slots) == 0 {
			return m.offerNext(s, s.RequestedDay)
		}
		s.ResetRetries()
		prompt := fmt.Sprintf("On %s we have %s. Which time works for you?",
			speech.SpokenDay(s.RequestedDay), spokenTimes(slots, 4))
		s.AddAgentLine(prompt)
		return Reply{Prompt: prompt, Gather: GatherTime}
	}

	s.RequestedPhrase = strings.TrimSpace(input)
	return m.confirmBooking(s)
}

// confirmBooking reserves the requested slot. Reservation is compare-and-set
// in the ledger; a duplicate confirm for the slot this call already booked
// repeats the confirmation without writing a second record.
func (m *Machine) confirmBooking(s *session.Session) Reply {
	s.State = session.StateConfirmBooking

	if s.BookedDay == s.RequestedDay && s.BookedTime == s.RequestedTime && s.BookedDay != "" {
		return m.speakConfirmation(s)
	}

	res, err := m.ledger.Book(s.RequestedDay, s.RequestedTime, s.CallerName, s.ApptType)
	if err != nil {
		m.log.Error("slot reservation failed", "call_sid", s.CallID, "day", s.RequestedDay, "time", s.RequestedTime, "err", err)
		return m.scheduleTrouble(s)
	}

	switch res {
	case schedule.BookResultBooked:
		s.BookedDay = s.RequestedDay
		s.BookedTime = s.RequestedTime
		if s.RequestedPhrase == "" {
			s.RequestedPhrase = speech.SpokenDay(s.BookedDay) + " at " + speech.SpokenTime(s.BookedTime)
		}
		rec := persistence.BookingRecord{
			Timestamp:     m.now(),
			CallID:        s.CallID,
			CallerName:    s.CallerName,
			RequestedTime: s.RequestedPhrase,
			Intent:        string(speech.IntentBooking),
		}
		if err := m.recorder.AppendBooking(rec); err != nil {
			m.log.Error("booking record append failed", "call_sid", s.CallID, "requested_time", rec.RequestedTime, "err", err)
		}
		m.log.Info("booking confirmed", "call_sid", s.CallID, "day", s.BookedDay, "time", s.BookedTime, "caller_name", s.CallerName)
		return m.speakConfirmation(s)

	default:
		// Slot contention or an unknown slot: offer an alternative, never an error.
		return m.offerNext(s, s.RequestedDay)
	}
}

func (m *Machine) speakConfirmation(s *session.Session) Reply {
	s.State = session.StateAnythingElse
	s.ResetRetries()
	when := speech.SpokenDay(s.BookedDay) + " at " + speech.SpokenTime(s.BookedTime)
	line := fmt.Sprintf(m.pickFrom(confirmations), when, s.CallerName)
	prompt := fmt.Sprintf("Thanks %s. %s %s", s.CallerName, line, anythingElseLine)
	s.AddAgentLine(prompt)
	return Reply{Prompt: prompt, Gather: GatherFollowUp}
}

// offerNext proposes the earliest free slot on or after the requested day
// and re-enters time collection with that suggestion pending.
func (m *Machine) offerNext(s *session.Session, day string) Reply {
	next, found, err := m.ledger.SuggestNext(day)
	if err != nil {
		m.log.Error("slot suggestion failed", "call_sid", s.CallID, "day", day, "err", err)
		return m.scheduleTrouble(s)
	}
	if !found {
		s.State = session.StateAnythingElse
		prompt := nothingAvailableLine + " " + anythingElseLine
		s.AddAgentLine(prompt)
		return Reply{Prompt: prompt, Gather: GatherFollowUp}
	}

	s.State = session.StateCollectTime
	s.ResetRetries()
	s.RequestedDay = next.Day
	s.RequestedTime = next.Start
	s.RequestedPhrase = speech.SpokenDay(next.Day) + " at " + speech.SpokenTime(next.Start)
	prompt := fmt.Sprintf("Sorry, that time isn't free. The next available is %s. Would that work?", s.RequestedPhrase)
	s.AddAgentLine(prompt)
	return Reply{Prompt: prompt, Gather: GatherTime}
}

func (m *Machine) scheduleTrouble(s *session.Session) Reply {
	s.State = session.StateAnythingElse
	prompt := "Sorry, I'm having trouble with the diary right now. " + anythingElseLine
	s.AddAgentLine(prompt)
	return Reply{Prompt: prompt, Gather: GatherFollowUp}
}

/* ===================== farewell ===================== */

// Farewell speaks a goodbye and moves the call to its terminal state.
func (m *Machine) Farewell(s *session.Session) Reply {
	if s.FarewellLine == "" {
		s.FarewellLine = m.pickFrom(m.goodbyes())
	}
	s.State = session.StateDone
	s.AddAgentLine(s.FarewellLine)
	m.log.Info("call ending", "call_sid", s.CallID, "goodbye", s.FarewellLine)
	return Reply{Prompt: s.FarewellLine, Gather: GatherNone}
}

// escalate ends the call after repeated recognition failures, handing the
// caller off to staff.
func (m *Machine) escalate(s *session.Session) Reply {
	s.FarewellLine = escalationLine + " " + m.pickFrom(m.goodbyes())
	m.log.Warn("escalating to staff", "call_sid", s.CallID, "state", s.State)
	return m.Farewell(s)
}

func (m *Machine) repeatFarewell(s *session.Session) Reply {
	line := s.FarewellLine
	if line == "" {
		line = m.pickFrom(m.goodbyes())
	}
	return Reply{Prompt: line, Gather: GatherNone}
}

/* ===================== helpers ===================== */

// bumpRetry advances the per-prompt retry counter: up to maxRetries
// clarifying re-prompts, then escalation. Never loops indefinitely.
func (m *Machine) bumpRetry(s *session.Session, clarifier string, gather GatherKind) Reply {
	s.Retries++
	if s.Retries > maxRetries {
		return m.escalate(s)
	}
	s.AddAgentLine(clarifier)
	return Reply{Prompt: clarifier, Gather: gather}
}

// sayAgain re-prompts without burning a retry (affirmations, silences).
func (m *Machine) sayAgain(s *session.Session, prompt string, gather GatherKind) Reply {
	s.AddAgentLine(prompt)
	return Reply{Prompt: prompt, Gather: gather}
}

// setIntent records the caller's goal. The first confident classification
// wins, except booking, which always reflects the call's real purpose.
func (m *Machine) setIntent(s *session.Session, intent speech.Intent) {
	if s.Intent == "" || s.Intent == speech.IntentUnknown || intent == speech.IntentBooking {
		s.Intent = intent
	}
}

func (m *Machine) greetings() []string {
	if len(m.practice.Greetings) > 0 {
		return m.practice.Greetings
	}
	return defaultGreetings
}

func (m *Machine) goodbyes() []string {
	if len(m.practice.Goodbyes) > 0 {
		return m.practice.Goodbyes
	}
	return defaultGoodbyes
}

func (m *Machine) pickFrom(table []string) string {
	if len(table) == 0 {
		return ""
	}
	return table[m.pick(len(table))%len(table)]
}

func spokenTimes(slots []schedule.Slot, limit int) string {
	if limit > len(slots) {
		limit = len(slots)
	}
	parts := make([]string, 0, limit)
	for _, s := range slots[:limit] {
		parts = append(parts, speech.SpokenTime(s.Start))
	}
	return strings.Join(parts, ", ")
}
