package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Working-day layout in minutes since midnight.
const (
	AMStart     = 540 // 09:00
	PMStart     = 780 // 13:00
	LunchCutoff = 720 // 12:00

	DefaultVisitDuration = 30
)

// Slot is the half-day partition a visit is constrained to.
type Slot string

const (
	SlotAM Slot = "AM"
	SlotPM Slot = "PM"
)

// SlotOf returns the half-day slot a minute offset falls into.
func SlotOf(minutes int) Slot {
	if minutes < LunchCutoff {
		return SlotAM
	}
	return SlotPM
}

// ToMinutes converts a clock string ("HH:MM", optionally prefixed by a date
// and a space) to minutes since midnight. Malformed input yields 0; callers
// that need a hard failure validate with ParseClock first.
func ToMinutes(clock string) int {
	m, err := ParseClock(clock)
	if err != nil {
		return 0
	}
	return m
}

// ParseClock is the strict variant of ToMinutes, used at the API boundary.
func ParseClock(clock string) (int, error) {
	s := strings.TrimSpace(clock)
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		s = s[i+1:]
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("parse clock %q: missing ':'", clock)
	}

	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: hour: %w", clock, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: minute: %w", clock, err)
	}

	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", clock)
	}

	return h*60 + m, nil
}

// FormatMinutes renders minutes since midnight as zero-padded "HH:MM".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
