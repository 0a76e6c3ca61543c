// Package slots turns a schedule configuration into the day's bookable times.
package slots

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"barbershop/internal/models"
)

var (
	ErrInvalidSlotDuration = errors.New("slot duration must be at least 1 minute")
	ErrInvalidRange        = errors.New("start must be before end")
	ErrInvalidBreak        = errors.New("break must lie inside working hours and start before it ends")
)

// Generate returns the ordered slot list for cfg: every slotDuration step in
// [start, end) outside [breakStart, breakEnd), merged with the custom slots.
// Times are unique and sorted. start >= end yields only the custom slots.
func Generate(cfg models.ScheduleConfig) ([]models.TimeSlot, error) {
	if cfg.SlotDuration < 1 {
		return nil, ErrInvalidSlotDuration
	}

	start, err := ParseClock(cfg.WorkingHours.Start)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}
	end, err := ParseClock(cfg.WorkingHours.End)
	if err != nil {
		return nil, fmt.Errorf("parse end time: %w", err)
	}

	var breakStart, breakEnd int
	hasBreak := cfg.WorkingHours.HasBreak()
	if hasBreak {
		if breakStart, err = ParseClock(cfg.WorkingHours.BreakStart); err != nil {
			return nil, fmt.Errorf("parse break start: %w", err)
		}
		if breakEnd, err = ParseClock(cfg.WorkingHours.BreakEnd); err != nil {
			return nil, fmt.Errorf("parse break end: %w", err)
		}
	}

	seen := make(map[string]bool)
	var result []models.TimeSlot

	for cursor := start; cursor < end; cursor += cfg.SlotDuration {
		// Skip break
		if hasBreak && cursor >= breakStart && cursor < breakEnd {
			continue
		}
		label := FormatClock(cursor)
		seen[label] = true
		result = append(result, models.TimeSlot{Time: label, Available: true})
	}

	for _, custom := range cfg.CustomSlots {
		minutes, err := ParseClock(custom)
		if err != nil {
			return nil, fmt.Errorf("parse custom slot: %w", err)
		}
		label := FormatClock(minutes)
		if seen[label] {
			continue
		}
		seen[label] = true
		result = append(result, models.TimeSlot{Time: label, Available: true})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time < result[j].Time
	})

	return result, nil
}

// Validate checks the working hours invariants before a config is saved.
func Validate(cfg models.ScheduleConfig) error {
	if cfg.SlotDuration < 1 {
		return ErrInvalidSlotDuration
	}

	start, err := ParseClock(cfg.WorkingHours.Start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := ParseClock(cfg.WorkingHours.End)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if start >= end {
		return ErrInvalidRange
	}

	wh := cfg.WorkingHours
	if (wh.BreakStart == "") != (wh.BreakEnd == "") {
		return ErrInvalidBreak
	}
	if wh.HasBreak() {
		bs, err := ParseClock(wh.BreakStart)
		if err != nil {
			return fmt.Errorf("break start: %w", err)
		}
		be, err := ParseClock(wh.BreakEnd)
		if err != nil {
			return fmt.Errorf("break end: %w", err)
		}
		if bs >= be || bs < start || bs >= end || be < start || be >= end {
			return ErrInvalidBreak
		}
	}

	for _, custom := range cfg.CustomSlots {
		if _, err := ParseClock(custom); err != nil {
			return fmt.Errorf("custom slot: %w", err)
		}
	}
	return nil
}

// Available returns only the available slots.
func Available(list []models.TimeSlot) []models.TimeSlot {
	var available []models.TimeSlot
	for _, s := range list {
		if s.Available {
			available = append(available, s)
		}
	}
	return available
}

// Contains reports whether t is an available slot of list.
func Contains(list []models.TimeSlot, t string) bool {
	for _, s := range list {
		if s.Time == t {
			return s.Available
		}
	}
	return false
}

// MarkBooked returns a copy of list with the taken times marked unavailable.
func MarkBooked(list []models.TimeSlot, taken []string) []models.TimeSlot {
	busy := make(map[string]bool, len(taken))
	for _, t := range taken {
		busy[t] = true
	}
	out := make([]models.TimeSlot, len(list))
	for i, s := range list {
		out[i] = models.TimeSlot{Time: s.Time, Available: s.Available && !busy[s.Time]}
	}
	return out
}

// ParseClock parses "HH:MM" into minutes after midnight. Both fields must be
// exactly two ASCII digits.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}

	hour, ok := twoDigits(parts[0])
	if !ok || hour > 23 {
		return 0, fmt.Errorf("invalid hour: %q", s)
	}

	minute, ok := twoDigits(parts[1])
	if !ok || minute > 59 {
		return 0, fmt.Errorf("invalid minute: %q", s)
	}

	return hour*60 + minute, nil
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// FormatClock formats minutes after midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
