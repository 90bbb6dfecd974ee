// Package timeutil provides timezone utilities for Pacific time (America/Los_Angeles).
// The Mariners play out of Seattle, so all user-facing times and the daily sync
// schedule are anchored to Pacific time while storage stays in UTC.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// PacificTZ is the Seattle timezone. Unlike a fixed offset this honors DST,
// which matters for a season that spans March through October.
var PacificTZ = mustLoadPacific()

func mustLoadPacific() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		// Containers without tzdata fall back to PST; first pitch times
		// will be off by an hour during DST but nothing breaks.
		return time.FixedZone("PST", -8*60*60)
	}
	return loc
}

// Now returns the current time in Pacific timezone.
func Now() time.Time {
	return time.Now().In(PacificTZ)
}

// ToPacific converts a time to Pacific timezone.
func ToPacific(t time.Time) time.Time {
	return t.In(PacificTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in Pacific timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, PacificTZ)
}

// DateTime creates a time in Pacific timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, PacificTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Pacific timezone.
func StartOfDay(t time.Time) time.Time {
	p := ToPacific(t)
	return time.Date(p.Year(), p.Month(), p.Day(), 0, 0, 0, 0, PacificTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Pacific timezone.
func EndOfDay(t time.Time) time.Time {
	p := ToPacific(t)
	return time.Date(p.Year(), p.Month(), p.Day(), 23, 59, 59, 999999999, PacificTZ)
}

// IsToday checks if the given time is today in Pacific timezone.
func IsToday(t time.Time) bool {
	now := Now()
	p := ToPacific(t)
	return p.Year() == now.Year() &&
		p.Month() == now.Month() &&
		p.Day() == now.Day()
}

// IsSameDay checks if two times are on the same day in Pacific timezone.
func IsSameDay(t1, t2 time.Time) bool {
	p1, p2 := ToPacific(t1), ToPacific(t2)
	return p1.Year() == p2.Year() && p1.YearDay() == p2.YearDay()
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	p1 := StartOfDay(t1)
	p2 := StartOfDay(t2)
	duration := p2.Sub(p1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Common date/time formats.
const (
	// FormatAPIDate is the date format the Stats API expects (YYYY-MM-DD).
	FormatAPIDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatHumanDate is a human-readable format (January 2, 2006).
	FormatHumanDate = "January 2, 2006"
	// FormatShortDate is a short format (Jan 2).
	FormatShortDate = "Jan 2"
	// FormatGameTime is the format used in reminder messages (3:40 PM PDT).
	FormatGameTime = "3:04 PM MST"
)

// FormatPacific formats a time in Pacific timezone with the given layout.
func FormatPacific(t time.Time, layout string) string {
	return ToPacific(t).Format(layout)
}

// FormatAPIDateStr formats a time as a Stats API date string (YYYY-MM-DD).
func FormatAPIDateStr(t time.Time) string {
	return FormatPacific(t, FormatAPIDate)
}

// FormatGameTimeStr formats a first pitch time for display (3:40 PM PDT).
func FormatGameTimeStr(t time.Time) string {
	return FormatPacific(t, FormatGameTime)
}

// FormatHumanDateStr formats a time for display (January 2, 2006).
func FormatHumanDateStr(t time.Time) string {
	return FormatPacific(t, FormatHumanDate)
}

// ParsePacific parses a time string in Pacific timezone.
func ParsePacific(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, PacificTZ)
}

// ParseAPIDate parses a Stats API date string (YYYY-MM-DD) in Pacific timezone.
func ParseAPIDate(value string) (time.Time, error) {
	return ParsePacific(FormatAPIDate, value)
}

// DateRange is an inclusive [Start, End] pair of days, as the Stats API
// schedule and transactions endpoints consume them.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// LastNDays returns the range covering the previous n days up to now.
// Used by the transaction poll to re-fetch a sliding window.
func LastNDays(now time.Time, n int) DateRange {
	return DateRange{
		Start: StartOfDay(now.AddDate(0, 0, -n)),
		End:   EndOfDay(now),
	}
}

// NextNDays returns the range covering now through n days ahead.
// Used by the schedule sync to look forward.
func NextNDays(now time.Time, n int) DateRange {
	return DateRange{
		Start: StartOfDay(now),
		End:   EndOfDay(now.AddDate(0, 0, n)),
	}
}

// SeasonRange returns the full range of a season year, spring training
// through the end of the postseason.
func SeasonRange(year int) DateRange {
	return DateRange{
		Start: Date(year, 2, 1),
		End:   Date(year, 11, 30),
	}
}

// FormatRelative returns a human-readable relative time string.
func FormatRelative(t time.Time) string {
	now := Now()
	p := ToPacific(t)
	duration := now.Sub(p)

	if duration < 0 {
		return formatFutureDuration(-duration)
	}

	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%dd ago", days)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("in %dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("in %dh", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "tomorrow"
		}
		return fmt.Sprintf("in %dd", days)
	}
}
