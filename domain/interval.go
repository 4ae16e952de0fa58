package domain

import (
	"fmt"
	"math"
)

const (
	SecondsPerWorkday = 8 * 60 * 60
	SecondsPerDay     = 24 * 60 * 60
)

// WorkInterval is an amount of work measured in seconds of working time.
// Values compare equal when their seconds match.
type WorkInterval struct {
	seconds int64
}

// Seconds builds a WorkInterval from raw seconds.
func Seconds(seconds int64) WorkInterval {
	return WorkInterval{seconds: seconds}
}

// Workdays builds a WorkInterval from a number of eight hour workdays.
func Workdays(days float64) WorkInterval {
	return WorkInterval{seconds: int64(math.Round(days * SecondsPerWorkday))}
}

func (w WorkInterval) Seconds() int64 {
	return w.seconds
}

func (w WorkInterval) Workdays() float64 {
	return float64(w.seconds) / SecondsPerWorkday
}

func (w WorkInterval) String() string {
	return fmt.Sprintf("%.1f workdays", w.Workdays())
}

// TimeInterval is a calendar span measured in seconds.
type TimeInterval struct {
	seconds int64
}

func CalendarSeconds(seconds int64) TimeInterval {
	return TimeInterval{seconds: seconds}
}

func CalendarDays(days float64) TimeInterval {
	return TimeInterval{seconds: int64(math.Round(days * SecondsPerDay))}
}

func (t TimeInterval) Seconds() int64 {
	return t.seconds
}

func (t TimeInterval) Days() float64 {
	return float64(t.seconds) / SecondsPerDay
}

func (t TimeInterval) String() string {
	return fmt.Sprintf("%.1f days", t.Days())
}
