package persistence

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dental-reception/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPersister(t *testing.T) (*Persister, string, string) {
	t.Helper()
	root := t.TempDir()
	transcripts := filepath.Join(root, "transcripts")
	data := filepath.Join(root, "data")
	p, err := New(transcripts, data, discardLogger())
	if err != nil {
		t.Fatalf("new persister: %v", err)
	}
	return p, transcripts, data
}

func TestTranscript_RoundTrip(t *testing.T) {
	p, _, _ := newTestPersister(t)

	lines := []session.Line{
		{Speaker: session.SpeakerAgent, Text: "Hi, Oak Dental. How can I help today?"},
		{Speaker: session.SpeakerCaller, Text: "what are your prices"},
		{Speaker: session.SpeakerAgent, Text: "A routine check-up is forty five pounds."},
		{Speaker: session.SpeakerCaller, Text: "no thanks"},
	}
	path, err := p.SaveTranscript("CA123", lines)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	got, err := ParseTranscript(f)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != len(lines) {
		t.Fatalf("got %d lines, want %d", len(got), len(lines))
	}
	for i := range lines {
		if got[i] != lines[i] {
			t.Fatalf("line %d = %+v, want %+v", i, got[i], lines[i])
		}
	}
}

func TestTranscript_FilenameCarriesIndexAndCallID(t *testing.T) {
	p, _, _ := newTestPersister(t)

	first, _ := p.SaveTranscript("CAaaa", []session.Line{{Speaker: session.SpeakerAgent, Text: "hi"}})
	second, _ := p.SaveTranscript("CAbbb", []session.Line{{Speaker: session.SpeakerAgent, Text: "hi"}})

	if filepath.Base(first) != "call-0001-CAaaa.txt" {
		t.Fatalf("first = %s", first)
	}
	if filepath.Base(second) != "call-0002-CAbbb.txt" {
		t.Fatalf("second = %s", second)
	}
}

func TestTranscript_SequenceSurvivesRestart(t *testing.T) {
	p, transcripts, data := newTestPersister(t)
	if _, err := p.SaveTranscript("CAone", []session.Line{{Speaker: session.SpeakerAgent, Text: "hi"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	p2, err := New(transcripts, data, discardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	path, err := p2.SaveTranscript("CAtwo", []session.Line{{Speaker: session.SpeakerAgent, Text: "hi"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "call-0002-CAtwo.txt" {
		t.Fatalf("restarted sequence produced %s", path)
	}
}

func TestAppendBooking_HeaderOnce(t *testing.T) {
	p, _, data := newTestPersister(t)

	ts := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	for _, name := range []string{"Jane", "Tom"} {
		err := p.AppendBooking(BookingRecord{
			Timestamp:     ts,
			CallID:        "CA-" + name,
			CallerName:    name,
			RequestedTime: "Wednesday at 2pm",
			Intent:        "booking",
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	f, err := os.Open(filepath.Join(data, "bookings.csv"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "timestamp" {
		t.Fatalf("header missing, first row %v", rows[0])
	}
	if rows[1][2] != "Jane" || rows[2][2] != "Tom" {
		t.Fatalf("rows out of order: %v", rows)
	}
	if rows[1][0] != "2026-09-01T10:30:00Z" {
		t.Fatalf("timestamp = %s, want RFC3339 UTC", rows[1][0])
	}
}

func TestPersistCall_WritesSummaryAndTranscript(t *testing.T) {
	p, transcripts, data := newTestPersister(t)

	sess := &session.Session{
		CallID: "CA555",
		State:  session.StateDone,
		Transcript: []session.Line{
			{Speaker: session.SpeakerAgent, Text: "hello"},
			{Speaker: session.SpeakerCaller, Text: "bye"},
		},
		CallerName:      "Jane",
		Intent:          "booking",
		RequestedPhrase: "Wednesday at 2pm",
		DurationSec:     95,
		Meta:            session.CallMeta{From: "+447700900001", Direction: "inbound"},
	}
	finished := time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC)
	if err := p.PersistCall(sess, finished); err != nil {
		t.Fatalf("persist: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(data, "calls.jsonl"))
	if err != nil {
		t.Fatalf("read summaries: %v", err)
	}
	var sum CallSummary
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &sum); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sum.CallID != "CA555" || sum.Intent != "booking" || sum.DurationSec != 95 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.FinishedAt != "2026-09-01T11:00:00Z" {
		t.Fatalf("finished_at = %s", sum.FinishedAt)
	}
	if sum.TranscriptRef == "" {
		t.Fatalf("summary should reference the transcript file")
	}
	if _, err := os.Stat(filepath.Join(transcripts, filepath.Base(sum.TranscriptRef))); err != nil {
		t.Fatalf("transcript file missing: %v", err)
	}
}

func TestPersistCall_UnknownIntentDefault(t *testing.T) {
	p, _, data := newTestPersister(t)

	sess := &session.Session{CallID: "CA777", Transcript: []session.Line{{Speaker: session.SpeakerAgent, Text: "hello"}}}
	if err := p.PersistCall(sess, time.Now()); err != nil {
		t.Fatalf("persist: %v", err)
	}

	raw, _ := os.ReadFile(filepath.Join(data, "calls.jsonl"))
	if !strings.Contains(string(raw), `"intent":"unknown"`) {
		t.Fatalf("summary = %s", raw)
	}
}

func TestMemoryGuard_FirstWins(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	first, err := g.MarkCompleted(ctx, "CA1")
	if err != nil || !first {
		t.Fatalf("first = %v, %v", first, err)
	}
	second, err := g.MarkCompleted(ctx, "CA1")
	if err != nil || second {
		t.Fatalf("second = %v, %v, want false", second, err)
	}
	other, err := g.MarkCompleted(ctx, "CA2")
	if err != nil || !other {
		t.Fatalf("other call = %v, %v", other, err)
	}
}
