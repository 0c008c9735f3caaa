package models

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-date format accepted by the booking flows.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar date without a time zone, e.g. "2026-10-24".
type Date string

func (d Date) IsZero() bool {
	return strings.TrimSpace(string(d)) == ""
}

func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(string(d)))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Before reports whether d falls on a calendar day before the day of now (in now's location).
func (d Date) Before(now time.Time) (bool, error) {
	t, err := d.Time()
	if err != nil {
		return false, err
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return t.Before(today), nil
}

func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}
