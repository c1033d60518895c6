package timetable

import (
	"strconv"
	"time"
)

// Clock is the time source used to build queries.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	now := time.Now()
	if c.Location != nil {
		return now.In(c.Location)
	}
	return now
}

// TimeSnapshot is an instant split into the string fields the search form expects.
type TimeSnapshot struct {
	YearMonth  string // 200601
	Day        string // no leading zero
	Hour       string // no leading zero, 24h
	MinuteTens string
	MinuteOnes string
}

// CaptureSnapshot reads c once and decomposes the result.
func CaptureSnapshot(c Clock) TimeSnapshot {
	return SnapshotOf(c.Now())
}

// SnapshotOf decomposes t without changing its location.
func SnapshotOf(t time.Time) TimeSnapshot {
	minute := t.Format("04")
	return TimeSnapshot{
		YearMonth:  t.Format("200601"),
		Day:        strconv.Itoa(t.Day()),
		Hour:       strconv.Itoa(t.Hour()),
		MinuteTens: minute[:1],
		MinuteOnes: minute[1:],
	}
}

// Minute returns the zero-padded two digit minute.
func (s TimeSnapshot) Minute() string {
	return s.MinuteTens + s.MinuteOnes
}

// Date returns the YYYYMMDD form used by the JSON API.
func (s TimeSnapshot) Date() string {
	if len(s.Day) == 1 {
		return s.YearMonth + "0" + s.Day
	}
	return s.YearMonth + s.Day
}

// ClockTime returns the HMM/HHMM form used by the JSON API.
func (s TimeSnapshot) ClockTime() string {
	return s.Hour + s.Minute()
}
