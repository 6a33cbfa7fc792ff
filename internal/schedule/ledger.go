// Package schedule is the availability and booking ledger. The slot table
// lives in a CSV file the practice staff edit by hand; this package is the
// only writer of the status column.
package schedule

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

type SlotStatus string

const (
	StatusFree   SlotStatus = "free"
	StatusBooked SlotStatus = "booked"
)

// Slot is one offerable appointment time. Day is YYYY-MM-DD, Start/End are
// HH:MM, so lexicographic order is chronological order.
type Slot struct {
	Day         string
	Weekday     string
	Start       string
	End         string
	Status      SlotStatus
	PatientName string
	ApptType    string
	Notes       string
}

type BookResult string

const (
	BookResultBooked        BookResult = "booked"
	BookResultAlreadyBooked BookResult = "already_booked"
	BookResultNotFound      BookResult = "not_found"
)

var csvHeader = []string{
	"date", "weekday", "start_time", "end_time", "status",
	"patient_name", "appointment_type", "notes",
}

// Ledger serializes every read-modify-write of the slot file. A booking is
// a compare-and-set on slot status under the ledger mutex, so two callers
// racing for the same slot cannot both win.
type Ledger struct {
	mu   sync.Mutex
	path string
}

func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// FindSlots returns the free slots for a day, earliest first.
func (l *Ledger) FindSlots(day string) ([]Slot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slots, err := l.load()
	if err != nil {
		return nil, err
	}
	var out []Slot
	for _, s := range slots {
		if s.Status == StatusFree && s.Day == day {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// SuggestNext returns the earliest free slot on or after day, or false when
// nothing is available at all.
func (l *Ledger) SuggestNext(day string) (Slot, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slots, err := l.load()
	if err != nil {
		return Slot{}, false, err
	}
	best := Slot{}
	found := false
	for _, s := range slots {
		if s.Status != StatusFree || s.Day < day {
			continue
		}
		if !found || s.Day < best.Day || (s.Day == best.Day && s.Start < best.Start) {
			best = s
			found = true
		}
	}
	return best, found, nil
}

// Book flips one slot free -> booked and records who it is for. The whole
// load-check-write cycle runs under the ledger mutex; a slot transitions
// exactly once and booked slots are never reused.
func (l *Ledger) Book(day, start, patient, apptType string) (BookResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slots, err := l.load()
	if err != nil {
		return BookResultNotFound, err
	}
	idx := -1
	for i, s := range slots {
		if s.Day == day && s.Start == start {
			idx = i
			break
		}
	}
	if idx < 0 {
		return BookResultNotFound, nil
	}
	if slots[idx].Status != StatusFree {
		return BookResultAlreadyBooked, nil
	}

	slots[idx].Status = StatusBooked
	slots[idx].PatientName = patient
	slots[idx].ApptType = apptType
	if err := l.save(slots); err != nil {
		return BookResultNotFound, fmt.Errorf("schedule: persist booking: %w", err)
	}
	return BookResultBooked, nil
}

func (l *Ledger) load() ([]Slot, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("schedule: open %s: %w", l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("schedule: parse %s: %w", l.path, err)
	}

	var out []Slot
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(row[0], "date") {
			continue
		}
		if len(row) < 5 {
			continue
		}
		s := Slot{
			Day:     strings.TrimSpace(row[0]),
			Weekday: strings.TrimSpace(row[1]),
			Start:   strings.TrimSpace(row[2]),
			End:     strings.TrimSpace(row[3]),
			Status:  parseStatus(row[4]),
		}
		if len(row) > 5 {
			s.PatientName = strings.TrimSpace(row[5])
		}
		if len(row) > 6 {
			s.ApptType = strings.TrimSpace(row[6])
		}
		if len(row) > 7 {
			s.Notes = strings.TrimSpace(row[7])
		}
		out = append(out, s)
	}
	return out, nil
}

func (l *Ledger) save(slots []Slot) error {
	f, err := os.Create(l.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range slots {
		row := []string{
			s.Day, s.Weekday, s.Start, s.End, string(s.Status),
			s.PatientName, s.ApptType, s.Notes,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// parseStatus accepts both our own values and the "Available"/"Booked"
// wording staff tend to type into the spreadsheet.
func parseStatus(raw string) SlotStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "free", "available":
		return StatusFree
	default:
		return StatusBooked
	}
}
