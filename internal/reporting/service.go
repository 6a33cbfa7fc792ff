// Package reporting aggregates the append-only call-summary log into the
// simple counters the debug surface exposes. It reads the records the
// persister writes; nothing here mutates storage.
package reporting

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"dental-reception/internal/persistence"
)

type Report struct {
	TotalCalls       int            `json:"total_calls"`
	Bookings         int            `json:"bookings"`
	ByIntent         map[string]int `json:"by_intent"`
	TotalDurationSec int            `json:"total_duration_sec"`
	AvgDurationSec   int            `json:"avg_duration_sec"`
}

// Summarize folds call-summary JSONL records into a Report. Lines that do
// not parse are skipped; the log is append-only and a torn tail line after
// a crash should not break reporting.
func Summarize(r io.Reader) (Report, error) {
	out := Report{ByIntent: map[string]int{}}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var sum persistence.CallSummary
		if err := json.Unmarshal(line, &sum); err != nil {
			continue
		}
		out.TotalCalls++
		out.TotalDurationSec += sum.DurationSec
		intent := sum.Intent
		if intent == "" {
			intent = "unknown"
		}
		out.ByIntent[intent]++
		if intent == "booking" && sum.RequestedTime != "" {
			out.Bookings++
		}
	}
	if err := sc.Err(); err != nil {
		return Report{}, err
	}
	if out.TotalCalls > 0 {
		out.AvgDurationSec = out.TotalDurationSec / out.TotalCalls
	}
	return out, nil
}

// SummarizeFile is Summarize over the calls log on disk. A missing file is
// an empty report, not an error.
func SummarizeFile(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Report{ByIntent: map[string]int{}}, nil
		}
		return Report{}, err
	}
	defer f.Close()
	return Summarize(f)
}
