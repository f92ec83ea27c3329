package services

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
	"time"

	"github.com/huangang/shiftledger/internal/models"
)

const millisPerHour = int64(time.Hour / time.Millisecond)

// ShiftInterval is a worked period.
type ShiftInterval struct {
	Start time.Time
	End   time.Time
}

// IntervalsOf projects completed shifts onto their time intervals.
func IntervalsOf(shifts []models.CompletedShift) []ShiftInterval {
	out := make([]ShiftInterval, len(shifts))
	for i, s := range shifts {
		out[i] = ShiftInterval{Start: s.Start, End: s.End}
	}
	return out
}

// ShiftDuration is end minus start. It may be negative.
func ShiftDuration(start, end time.Time) time.Duration {
	return end.Sub(start)
}

// HoursWorked converts an interval to fractional hours, clamping negatives to zero.
func HoursWorked(start, end time.Time) float64 {
	ms := ShiftDuration(start, end).Milliseconds()
	if ms < 0 {
		return 0
	}
	return float64(ms) / float64(millisPerHour)
}

// TotalDuration sums the non-negative durations of shifts.
func TotalDuration(shifts []ShiftInterval) time.Duration {
	var total time.Duration
	for _, s := range shifts {
		if d := ShiftDuration(s.Start, s.End); d > 0 {
			total += d
		}
	}
	return total
}

func TotalHours(shifts []ShiftInterval) float64 {
	var total float64
	for _, s := range shifts {
		total += HoursWorked(s.Start, s.End)
	}
	return total
}

// AmountDue prices total worked time at hourlyRateCents, rounded half-up to the cent.
// Amounts beyond int64 cents are rejected rather than wrapped.
func AmountDue(total time.Duration, hourlyRateCents int64) (int64, error) {
	ms := total.Milliseconds()
	if ms <= 0 || hourlyRateCents <= 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(uint64(ms), uint64(hourlyRateCents))
	lo, carry := bits.Add64(lo, uint64(millisPerHour/2), 0)
	hi += carry
	if hi >= uint64(millisPerHour) {
		return 0, errAmountOverflow
	}
	q, _ := bits.Div64(hi, lo, uint64(millisPerHour))
	if q > math.MaxInt64 {
		return 0, errAmountOverflow
	}
	return int64(q), nil
}

var errAmountOverflow = &ValidationError{Field: "amount", Message: "is too large"}

// maxUnits keeps units*100 + 99 within int64.
const maxUnits = (math.MaxInt64 - 99) / 100

// FormatCents renders 30000 as "300.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseAmount parses a decimal amount such as "25" or "25.5" into cents.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "amount", Message: "is required"}
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, &ValidationError{Field: "amount", Message: "must have at most two decimal places"}
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 || strings.HasPrefix(whole, "+") {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, errAmountOverflow
		}
		return 0, &ValidationError{Field: "amount", Message: "must be a non-negative number"}
	}
	if units > maxUnits {
		return 0, errAmountOverflow
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		c, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || strings.HasPrefix(frac, "-") || strings.HasPrefix(frac, "+") {
			return 0, &ValidationError{Field: "amount", Message: "must be a non-negative number"}
		}
		cents = c
	}
	return units*100 + cents, nil
}
