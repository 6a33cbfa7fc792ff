package speech

import (
	"testing"
	"time"
)

// monday is a fixed reference date so weekday math is deterministic.
var monday = time.Date(2026, time.August, 31, 9, 0, 0, 0, time.UTC)

func TestExtractName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"my name is jane smith", "Jane"},
		{"it's Tom", "Tom"},
		{"this is priya", "Priya"},
		{"I'm DAVE", "Dave"},
		{"jane", "Jane"},
	}
	for _, c := range cases {
		got, ok := ExtractName(c.in)
		if !ok || got != c.want {
			t.Fatalf("ExtractName(%q) = %q, %v; want %q", c.in, got, ok, c.want)
		}
	}
	if _, ok := ExtractName("   "); ok {
		t.Fatalf("expected no name from whitespace")
	}
}

func TestParseDayPhrase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"today if possible", "2026-08-31"},
		{"tomorrow morning", "2026-09-01"},
		{"wednesday at 2pm", "2026-09-02"},
		{"wed", "2026-09-02"},
		{"how about Friday", "2026-09-04"},
	}
	for _, c := range cases {
		got, ok := ParseDayPhrase(c.in, monday)
		if !ok || got != c.want {
			t.Fatalf("ParseDayPhrase(%q) = %q, %v; want %q", c.in, got, ok, c.want)
		}
	}
}

func TestParseDayPhrase_BareWeekdayMeansNextOccurrence(t *testing.T) {
	// Asking for "monday" on a Monday means next week, not right now.
	got, ok := ParseDayPhrase("monday", monday)
	if !ok || got != "2026-09-07" {
		t.Fatalf("got %q, %v; want 2026-09-07", got, ok)
	}
}

func TestParseDayPhrase_NoDay(t *testing.T) {
	for _, in := range []string{"", "sometime soon", "at 2pm"} {
		if got, ok := ParseDayPhrase(in, monday); ok {
			t.Fatalf("ParseDayPhrase(%q) = %q, want no match", in, got)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2pm", "14:00"},
		{"2 pm", "14:00"},
		{"2:30pm", "14:30"},
		{"14:30", "14:30"},
		{"9am", "09:00"},
		{"12am", "00:00"},
		{"12pm", "12:00"},
		{"half past 2", "02:30"},
		{"quarter past 10", "10:15"},
		{"quarter to 3", "02:45"},
	}
	for _, c := range cases {
		got, ok := NormalizeTime(c.in)
		if !ok || got != c.want {
			t.Fatalf("NormalizeTime(%q) = %q, %v; want %q", c.in, got, ok, c.want)
		}
	}
}

func TestNormalizeTime_Invalid(t *testing.T) {
	for _, in := range []string{"", "sometime", "25:00", "14:75"} {
		if got, ok := NormalizeTime(in); ok {
			t.Fatalf("NormalizeTime(%q) = %q, want no match", in, got)
		}
	}
}

func TestSpokenTime(t *testing.T) {
	cases := map[string]string{
		"14:00": "2 PM",
		"14:30": "2:30 PM",
		"09:15": "9:15 AM",
		"00:00": "12 AM",
		"12:00": "12 PM",
	}
	for in, want := range cases {
		if got := SpokenTime(in); got != want {
			t.Fatalf("SpokenTime(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSpokenDay(t *testing.T) {
	cases := map[string]string{
		"2026-09-02": "Wednesday, September 2nd",
		"2026-09-01": "Tuesday, September 1st",
		"2026-09-03": "Thursday, September 3rd",
		"2026-09-04": "Friday, September 4th",
	}
	for in, want := range cases {
		if got := SpokenDay(in); got != want {
			t.Fatalf("SpokenDay(%q) = %q, want %q", in, got, want)
		}
	}
	if got := SpokenDay("not-a-date"); got != "not-a-date" {
		t.Fatalf("unparseable dates should pass through, got %q", got)
	}
}

func TestExtractApptType(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"I'd like to book a check-up", "Check-up"},
		{"a checkup please", "Check-up"},
		{"hygiene visit", "Hygiene"},
		{"need a clean", "Hygiene"},
		{"whitening appointment", "Whitening"},
		{"it's urgent", "Emergency"},
	}
	for _, c := range cases {
		got, ok := ExtractApptType(c.in)
		if !ok || got != c.want {
			t.Fatalf("ExtractApptType(%q) = %q, %v; want %q", c.in, got, ok, c.want)
		}
	}
	if got, ok := ExtractApptType("book me in on friday"); ok {
		t.Fatalf("expected no type, got %q", got)
	}
}
