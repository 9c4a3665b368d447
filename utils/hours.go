package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// MaxFilterHours caps an hours filter well below the point where the
// duration overflows. It still reaches back more than two centuries.
const MaxFilterHours = 2_000_000

var (
	ErrHoursNotInteger  = errors.New("hours must be an integer")
	ErrHoursNotPositive = errors.New("hours must be a positive integer")
)

// HoursAgo parses a positive whole number of hours and returns the instant
// that many hours before now. Larger values than MaxFilterHours are clamped.
func HoursAgo(raw string, now time.Time) (time.Time, error) {
	// out-of-range input saturates with its sign, so only syntax errors fail here
	hours, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return time.Time{}, ErrHoursNotInteger
	}
	if hours <= 0 {
		return time.Time{}, ErrHoursNotPositive
	}
	if hours > MaxFilterHours {
		hours = MaxFilterHours
	}
	return now.Add(-time.Duration(hours) * time.Hour), nil
}
