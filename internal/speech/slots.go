package speech

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Slot extraction pulls the booking details (name, day, time) out of free
// speech. Everything here is pure; "today" is resolved against the caller
// supplied reference date so tests stay deterministic.

var nameLeadIns = []string{
	"my name is", "it's", "its", "this is", "i am", "i'm",
}

// ExtractName returns the caller's first name from phrases like
// "my name is jane smith". Only the first token is kept.
func ExtractName(utterance string) (string, bool) {
	cleaned := strings.TrimSpace(utterance)
	if cleaned == "" {
		return "", false
	}
	lowered := strings.ToLower(cleaned)
	for _, prefix := range nameLeadIns {
		if strings.HasPrefix(lowered, prefix+" ") {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
			break
		}
	}
	fields := strings.Fields(strings.ReplaceAll(cleaned, ",", " "))
	if len(fields) == 0 {
		return "", false
	}
	name := strings.ToLower(fields[0])
	return strings.ToUpper(name[:1]) + name[1:], true
}

var weekdayNames = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ParseDayPhrase resolves "today", "tomorrow" or a weekday name (prefix
// tolerant, so "wed" and "wednesday" both work) to a YYYY-MM-DD date.
// A bare weekday always means the next occurrence, never today.
func ParseDayPhrase(utterance string, today time.Time) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(utterance))
	if lowered == "" {
		return "", false
	}
	if strings.Contains(lowered, "today") {
		return today.Format("2006-01-02"), true
	}
	if strings.Contains(lowered, "tomorrow") {
		return today.AddDate(0, 0, 1).Format("2006-01-02"), true
	}
	tokens := strings.Fields(normalize(lowered))
	for _, wd := range weekdayNames {
		prefix := strings.ToLower(wd.String())[:3]
		for _, token := range tokens {
			if strings.HasPrefix(token, prefix) && len(token) >= 3 {
				delta := (int(wd) - int(today.Weekday()) + 7) % 7
				if delta == 0 {
					delta = 7
				}
				return today.AddDate(0, 0, delta).Format("2006-01-02"), true
			}
		}
	}
	return "", false
}

var (
	halfPastRe    = regexp.MustCompile(`half past (\d{1,2})`)
	quarterPastRe = regexp.MustCompile(`quarter past (\d{1,2})`)
	quarterToRe   = regexp.MustCompile(`quarter to (\d{1,2})`)
	clockRe       = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// NormalizeTime turns spoken time phrases ("2pm", "14:30", "half past two
// is not supported but half past 2 is") into HH:MM, 24-hour.
func NormalizeTime(utterance string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(utterance))
	if lowered == "" {
		return "", false
	}

	if m := halfPastRe.FindStringSubmatch(lowered); m != nil {
		if hour, err := strconv.Atoi(m[1]); err == nil && hour < 24 {
			return fmt.Sprintf("%02d:30", hour), true
		}
	}
	if m := quarterPastRe.FindStringSubmatch(lowered); m != nil {
		if hour, err := strconv.Atoi(m[1]); err == nil && hour < 24 {
			return fmt.Sprintf("%02d:15", hour), true
		}
	}
	if m := quarterToRe.FindStringSubmatch(lowered); m != nil {
		if hour, err := strconv.Atoi(m[1]); err == nil {
			hour--
			if hour < 0 {
				hour = 23
			}
			return fmt.Sprintf("%02d:45", hour), true
		}
	}

	m := clockRe.FindStringSubmatch(lowered)
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour >= 24 || minute >= 60 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// SpokenTime renders HH:MM as 12-hour speech ("2:30 PM", "2 PM").
func SpokenTime(hhmm string) string {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return hhmm
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return hhmm
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	if parts[1] == "00" {
		return fmt.Sprintf("%d %s", display, suffix)
	}
	return fmt.Sprintf("%d:%s %s", display, parts[1], suffix)
}

// SpokenDay renders YYYY-MM-DD as "Wednesday, September 24th".
func SpokenDay(date string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	day := parsed.Day()
	suffix := "th"
	switch day {
	case 1, 21, 31:
		suffix = "st"
	case 2, 22:
		suffix = "nd"
	case 3, 23:
		suffix = "rd"
	}
	return fmt.Sprintf("%s, %s %d%s", parsed.Weekday(), parsed.Month(), day, suffix)
}

var apptTypeKeywords = []struct {
	keyword   string
	canonical string
}{
	{"check-up", "Check-up"},
	{"check up", "Check-up"},
	{"checkup", "Check-up"},
	{"chekup", "Check-up"},
	{"hygiene", "Hygiene"},
	{"hygeine", "Hygiene"},
	{"clean", "Hygiene"},
	{"scale", "Hygiene"},
	{"whitening", "Whitening"},
	{"white", "Whitening"},
	{"filling", "Filling"},
	{"fillin", "Filling"},
	{"extraction", "Extraction"},
	{"emergency", "Emergency"},
	{"urgent", "Emergency"},
}

// ExtractApptType spots an appointment type mentioned inline
// ("I'd like to book a hygiene visit").
func ExtractApptType(utterance string) (string, bool) {
	lowered := normalize(utterance)
	if lowered == "" {
		return "", false
	}
	tokens := strings.Fields(lowered)
	for _, kw := range apptTypeKeywords {
		target := normalize(kw.keyword)
		if strings.Contains(target, " ") {
			if strings.Contains(lowered, target) {
				return kw.canonical, true
			}
			continue
		}
		for _, token := range tokens {
			if token == target {
				return kw.canonical, true
			}
		}
	}
	return "", false
}
