// Package slot validates appointment times against the clinic's booking rules:
// 10-minute granularity inside the 09:00-12:00 and 13:00-16:00 windows.
package slot

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/hackgods/hospital-portal/internal/apperr"
)

const (
	// Granularity is the slot length in minutes.
	Granularity = 10

	morningStart   = 9 * 60
	morningEnd     = 12 * 60
	afternoonStart = 13 * 60
	afternoonEnd   = 16 * 60
)

var (
	ErrInvalidFormat        = apperr.New(apperr.KindInvalidRequest, "invalid_time_format", "Invalid time format. Use HH:MM (24-hour).")
	ErrNotOnSlotBoundary    = apperr.New(apperr.KindInvalidRequest, "not_on_slot_boundary", "Appointments must be on 10-minute boundaries (e.g., 09:00, 09:10).")
	ErrOutsideBookingWindow = apperr.New(apperr.KindInvalidRequest, "outside_booking_window", "Appointments can only be booked between 09:00-12:00 and 13:00-16:00.")
)

var timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)

// Validate checks t and returns its minutes since midnight.
// Seconds, when present, are ignored.
func Validate(t string) (int, error) {
	minutes, ok := parse(t)
	if !ok {
		return 0, ErrInvalidFormat
	}
	if minutes%Granularity != 0 {
		return 0, ErrNotOnSlotBoundary
	}
	if !InWindow(minutes) {
		return 0, ErrOutsideBookingWindow
	}
	return minutes, nil
}

// InWindow reports whether minutes falls in [09:00,12:00) or [13:00,16:00).
func InWindow(minutes int) bool {
	return (minutes >= morningStart && minutes < morningEnd) ||
		(minutes >= afternoonStart && minutes < afternoonEnd)
}

// Format renders minutes since midnight as HH:MM.
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// All returns every bookable slot in ascending order.
func All() []string {
	out := make([]string, 0, (morningEnd-morningStart+afternoonEnd-afternoonStart)/Granularity)
	for m := morningStart; m < morningEnd; m += Granularity {
		out = append(out, Format(m))
	}
	for m := afternoonStart; m < afternoonEnd; m += Granularity {
		out = append(out, Format(m))
	}
	return out
}

func parse(t string) (int, bool) {
	m := timePattern.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	hh, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}
