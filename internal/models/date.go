package models

import "time"

// DateFormat is the layout of a Date in the Calendar API and in logs.
const DateFormat = "2006-01-02"

// Date is a calendar day without a time component. The underlying time is
// always midnight UTC so dates compare with ==.
type Date struct {
	time.Time
}

// NewDate returns the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// NewDateFromTime keeps the calendar day of t in its own location.
func NewDateFromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD day.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		return Date{}, err
	}
	return NewDateFromTime(t), nil
}

// AddDays returns the day days after d.
func (d Date) AddDays(days int) Date {
	return NewDateFromTime(d.Time.AddDate(0, 0, days))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}
