package timeentry

import (
	"math"
	"time"

	"github.com/timhq/tim/internal"
)

// MinimumHours is the smallest billable block. The check runs against the
// raw value before rounding: 0.4 computed hours is rejected even though it
// would round to 0.5.
const MinimumHours = 0.5

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ComputeHours derives the span between two HH:MM bounds on the given day.
// The end must be strictly after the start; same-day entries only.
func ComputeHours(date, startTime, endTime string) (float64, error) {
	start, err := time.Parse(dateLayout+"T"+timeLayout, date+"T"+startTime)
	if err != nil {
		return 0, internal.ErrInvertedRange.WithCause(err)
	}
	end, err := time.Parse(dateLayout+"T"+timeLayout, date+"T"+endTime)
	if err != nil {
		return 0, internal.ErrInvertedRange.WithCause(err)
	}

	if !end.After(start) {
		return 0, internal.ErrInvertedRange
	}
	return end.Sub(start).Hours(), nil
}

// RoundToHalfHour rounds to the nearest half hour, ties away from zero.
func RoundToHalfHour(hours float64) float64 {
	return math.Round(hours*2) / 2
}

// ValidateAndRound applies the raw minimum check, then rounds.
func ValidateAndRound(raw float64) (float64, error) {
	if raw < MinimumHours {
		return 0, internal.ErrMinimumHours
	}
	return RoundToHalfHour(raw), nil
}
