package persistence

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"dental-reception/internal/session"
)

// BookingRecord is an append-only fact: one row per confirmed booking.
// Rows are never updated or deleted.
type BookingRecord struct {
	Timestamp     time.Time
	CallID        string
	CallerName    string
	RequestedTime string
	Intent        string
}

// CallSummary is the structured record written once per completed call.
type CallSummary struct {
	CallID        string `json:"call_id"`
	FinishedAt    string `json:"finished_at"`
	Direction     string `json:"direction,omitempty"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	DurationSec   int    `json:"duration_sec"`
	CallerName    string `json:"caller_name,omitempty"`
	Intent        string `json:"intent"`
	RequestedTime string `json:"requested_time,omitempty"`
	TranscriptRef string `json:"transcript_file,omitempty"`
}

const (
	bookingsFile = "bookings.csv"
	callsFile    = "calls.jsonl"
)

var bookingsHeader = []string{"timestamp", "call_sid", "caller_name", "requested_time", "intent"}

// Persister owns the durable outputs: one transcript file per call plus the
// append-only bookings CSV and call-summary JSONL.
type Persister struct {
	transcriptsDir string
	dataDir        string
	log            *slog.Logger

	mu  sync.Mutex
	seq int
}

// New creates the storage directories and seeds the transcript sequence by
// scanning what is already on disk, so restarts keep numbering monotonic.
func New(transcriptsDir, dataDir string, log *slog.Logger) (*Persister, error) {
	if log == nil {
		log = slog.Default()
	}
	for _, dir := range []string{transcriptsDir, dataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("persistence: create %s: %w", dir, err)
		}
	}
	p := &Persister{transcriptsDir: transcriptsDir, dataDir: dataDir, log: log}
	p.seq = scanMaxIndex(transcriptsDir)
	return p, nil
}

// scanMaxIndex finds the highest index among existing call-NNNN-*.txt files.
func scanMaxIndex(dir string) int {
	max := 0
	matches, _ := filepath.Glob(filepath.Join(dir, "call-*.txt"))
	for _, m := range matches {
		stem := strings.TrimSuffix(filepath.Base(m), ".txt")
		parts := strings.SplitN(stem, "-", 3)
		if len(parts) < 2 {
			continue
		}
		if n, err := strconv.Atoi(parts[1]); err == nil && n > max {
			max = n
		}
	}
	return max
}

// SaveTranscript writes the ordered agent/caller lines for one call.
// The filename carries a monotonically increasing index plus the call id,
// never wall-clock time alone, so concurrent completions cannot collide.
func (p *Persister) SaveTranscript(callID string, lines []session.Line) (string, error) {
	p.mu.Lock()
	p.seq++
	idx := p.seq
	p.mu.Unlock()

	name := fmt.Sprintf("call-%04d-%s.txt", idx, callID)
	path := filepath.Join(p.transcriptsDir, name)

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(formatLine(line))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("persistence: write transcript %s: %w", path, err)
	}
	return path, nil
}

func formatLine(line session.Line) string {
	role := "Agent"
	if line.Speaker == session.SpeakerCaller {
		role = "Caller"
	}
	return fmt.Sprintf("[%s] %s", role, line.Text)
}

// ParseTranscript reads a transcript file back into the ordered
// (speaker, text) sequence it was written from.
func ParseTranscript(r io.Reader) ([]session.Line, error) {
	var out []session.Line
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		text := sc.Text()
		if text == "" {
			continue
		}
		speaker := session.SpeakerAgent
		switch {
		case strings.HasPrefix(text, "[Agent] "):
			text = strings.TrimPrefix(text, "[Agent] ")
		case strings.HasPrefix(text, "[Caller] "):
			speaker = session.SpeakerCaller
			text = strings.TrimPrefix(text, "[Caller] ")
		}
		out = append(out, session.Line{Speaker: speaker, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendBooking appends one row to the bookings CSV, writing the header on
// first use.
func (p *Persister) AppendBooking(rec BookingRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := filepath.Join(p.dataDir, bookingsFile)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("persistence: open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(bookingsHeader); err != nil {
			return err
		}
	}
	row := []string{
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.CallID,
		rec.CallerName,
		rec.RequestedTime,
		rec.Intent,
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// AppendCallSummary appends one JSON line to the call-summary log.
func (p *Persister) AppendCallSummary(sum CallSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := filepath.Join(p.dataDir, callsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("persistence: open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("persistence: append %s: %w", path, err)
	}
	return nil
}

// PersistCall flushes a finished session: transcript file first, then the
// summary record. Failures are logged with the full payload so the record
// can be reconstructed by hand; the caller never blocks the spoken flow on
// this.
func (p *Persister) PersistCall(sess *session.Session, finishedAt time.Time) error {
	ref, err := p.SaveTranscript(sess.CallID, sess.Transcript)
	if err != nil {
		p.log.Error("transcript save failed",
			"call_sid", sess.CallID,
			"lines", len(sess.Transcript),
			"err", err,
		)
	}

	intent := string(sess.Intent)
	if intent == "" {
		intent = "unknown"
	}
	sum := CallSummary{
		CallID:        sess.CallID,
		FinishedAt:    finishedAt.UTC().Format(time.RFC3339),
		Direction:     sess.Meta.Direction,
		From:          sess.Meta.From,
		To:            sess.Meta.To,
		DurationSec:   sess.DurationSec,
		CallerName:    sess.CallerName,
		Intent:        intent,
		RequestedTime: sess.RequestedPhrase,
		TranscriptRef: ref,
	}
	if err := p.AppendCallSummary(sum); err != nil {
		payload, _ := json.Marshal(sum)
		p.log.Error("call summary append failed",
			"call_sid", sess.CallID,
			"summary", string(payload),
			"err", err,
		)
		return err
	}
	p.log.Info("call persisted", "call_sid", sess.CallID, "transcript", ref)
	return nil
}
