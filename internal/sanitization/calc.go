// Package sanitization holds the pure calendar math for sanitization
// processes: elapsed days, completion percentage, and days until expiry.
//
// All functions are pure and side-effect free. Callers must validate that
// durationDays is positive before calling the functions that divide by it;
// non-positive durations are an input-contract violation.
package sanitization

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// ElapsedDays returns the number of whole days between start and now,
// floored. It never returns a negative value: a start date in the future
// counts as zero elapsed days.
func ElapsedDays(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / day)
}

// ProgressPercent returns the elapsed-time fraction of the process duration
// as an integer percentage, rounded and clamped to [0, 100].
//
// durationDays must be > 0.
func ProgressPercent(start time.Time, durationDays int, now time.Time) int {
	elapsed := ElapsedDays(start, now)
	pct := math.Round(float64(elapsed) / float64(durationDays) * 100)
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return int(pct)
}

// RemainingDays returns the unclamped-to-zero count of days left in the
// process: max(0, durationDays - elapsed). It is always >= 0 and is the
// value shown on the client list.
func RemainingDays(start time.Time, durationDays int, now time.Time) int {
	remaining := durationDays - ElapsedDays(start, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DaysUntilExpiry returns the signed number of days until the process's
// nominal end, using the ceiling of the fractional difference. Once the
// process is past due the result is negative, which the alert projection
// relies on for ordering: an overdue record sorts before one that still has
// days left.
//
// This is deliberately a different formula from RemainingDays (ceiling and
// signed, versus floor and clamped); both views exist in the product.
func DaysUntilExpiry(start time.Time, durationDays int, now time.Time) int {
	expiry := start.AddDate(0, 0, durationDays)
	return int(math.Ceil(float64(expiry.Sub(now)) / float64(day)))
}
