package reporting

import (
	"path/filepath"
	"strings"
	"testing"
)

const sampleLog = `{"call_id":"CA1","finished_at":"2026-09-01T10:00:00Z","duration_sec":90,"intent":"booking","requested_time":"Wednesday at 2pm"}
{"call_id":"CA2","finished_at":"2026-09-01T10:05:00Z","duration_sec":30,"intent":"hours"}
{"call_id":"CA3","finished_at":"2026-09-01T10:10:00Z","duration_sec":60,"intent":"booking"}
{"call_id":"CA4","torn line
`

func TestSummarize(t *testing.T) {
	rep, err := Summarize(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if rep.TotalCalls != 3 {
		t.Fatalf("total = %d, want 3 (torn line skipped)", rep.TotalCalls)
	}
	if rep.ByIntent["booking"] != 2 || rep.ByIntent["hours"] != 1 {
		t.Fatalf("by intent = %v", rep.ByIntent)
	}
	// Only calls that actually reserved a time count as bookings.
	if rep.Bookings != 1 {
		t.Fatalf("bookings = %d, want 1", rep.Bookings)
	}
	if rep.TotalDurationSec != 180 || rep.AvgDurationSec != 60 {
		t.Fatalf("durations = %d / %d", rep.TotalDurationSec, rep.AvgDurationSec)
	}
}

func TestSummarize_Empty(t *testing.T) {
	rep, err := Summarize(strings.NewReader(""))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if rep.TotalCalls != 0 || rep.AvgDurationSec != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestSummarizeFile_Missing(t *testing.T) {
	rep, err := SummarizeFile(filepath.Join(t.TempDir(), "calls.jsonl"))
	if err != nil {
		t.Fatalf("missing file should be empty, not an error: %v", err)
	}
	if rep.TotalCalls != 0 || rep.ByIntent == nil {
		t.Fatalf("report = %+v", rep)
	}
}
