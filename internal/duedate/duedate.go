// Package duedate computes loan due dates and remaining days on calendar
// day boundaries. Time of day never influences the result.
package duedate

import (
	"time"

	"github.com/baharkarakas/library-backend/internal/models"
)

const day = 24 * time.Hour

// DefaultDueSoonDays is the upper bound (inclusive) of the due-soon band.
const DefaultDueSoonDays = 3

// Calendar fixes the location whose midnight is the day boundary.
type Calendar struct {
	Loc         *time.Location
	DueSoonDays int
}

func New(loc *time.Location, dueSoonDays int) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if dueSoonDays < 0 {
		dueSoonDays = DefaultDueSoonDays
	}
	return Calendar{Loc: loc, DueSoonDays: dueSoonDays}
}

// civil maps t to midnight UTC of its calendar date in c.Loc, so that
// subtraction between two civil dates is always a whole number of days.
func (c Calendar) civil(t time.Time) time.Time {
	y, m, d := t.In(c.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (c Calendar) location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

// DueDate adds allowedDays calendar days to issued, keeping its clock time.
func (c Calendar) DueDate(issued time.Time, allowedDays int) time.Time {
	return issued.In(c.location()).AddDate(0, 0, allowedDays)
}

// DaysRemaining is the number of calendar days from today until due.
// Negative values mean the loan is overdue by that many days.
func (c Calendar) DaysRemaining(due, today time.Time) int {
	return int(c.civil(due).Sub(c.civil(today)) / day)
}

// ComputeDaysRemaining derives the due date from issued + allowedDays and
// returns the days left as of today.
func (c Calendar) ComputeDaysRemaining(issued time.Time, allowedDays int, today time.Time) int {
	return c.DaysRemaining(c.DueDate(issued, allowedDays), today)
}

// Status bands remaining days for presentation.
func (c Calendar) Status(remaining int) models.LoanStatus {
	switch {
	case remaining < 0:
		return models.StatusOverdue
	case remaining <= c.DueSoonDays:
		return models.StatusDueSoon
	default:
		return models.StatusOK
	}
}

// BeforeToday reports whether t falls on a calendar date earlier than today.
func (c Calendar) BeforeToday(t, today time.Time) bool {
	return c.civil(t).Before(c.civil(today))
}

// Format renders a due date the way reminders show it, e.g. "January 2, 2006".
func (c Calendar) Format(t time.Time) string {
	return t.In(c.location()).Format("January 2, 2006")
}
