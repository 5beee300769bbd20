package core

import (
	"cmp"
	"fmt"
	"time"
)

// Date is a calendar date stored exactly as given. Day and month bounds are
// not checked, so 31/02 is a valid value here.
type Date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewDate creates a Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Day: day, Month: month, Year: year}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Day: d, Month: int(m), Year: y}
}

// Compare orders dates by (year, month, day).
func (d Date) Compare(other Date) int {
	if c := cmp.Compare(d.Year, other.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, other.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, other.Day)
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// SameMonth reports whether d falls in the given month and year.
func (d Date) SameMonth(month, year int) bool {
	return d.Month == month && d.Year == year
}

// PreviousMonth returns the calendar month before d's month.
func (d Date) PreviousMonth() (month, year int) {
	if d.Month == 1 {
		return 12, d.Year - 1
	}
	return d.Month - 1, d.Year
}

// String formats the date as DD/MM/YYYY.
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}
