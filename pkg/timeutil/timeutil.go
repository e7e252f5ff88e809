// Package timeutil provides timezone utilities for the Kuala Lumpur timezone (UTC+8).
// All attendance is recorded against the school's local calendar day, so every
// "today" decision in the system goes through this package.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// KualaLumpurTZ is the Malaysia timezone (UTC+8, no DST).
// Malaysia has used a single UTC+8 zone since 1982, so this is constant year-round.
var KualaLumpurTZ = time.FixedZone("Asia/Kuala_Lumpur", 8*60*60)

// Now returns the current time in Kuala Lumpur timezone.
func Now() time.Time {
	return time.Now().In(KualaLumpurTZ)
}

// Today returns the start of the current school day in Kuala Lumpur timezone.
func Today() time.Time {
	return StartOfDay(Now())
}

// ToLocal converts a time to Kuala Lumpur timezone.
func ToLocal(t time.Time) time.Time {
	return t.In(KualaLumpurTZ)
}

// Date creates a time in Kuala Lumpur timezone with the given date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, KualaLumpurTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Kuala Lumpur timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToLocal(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, KualaLumpurTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Kuala Lumpur timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToLocal(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, KualaLumpurTZ)
}

// StartOfWeek returns the most recent Sunday (00:00:00) on or before t.
// The school week runs Ahad hingga Sabtu - Sunday through Saturday.
func StartOfWeek(t time.Time) time.Time {
	local := ToLocal(t)
	return StartOfDay(local.AddDate(0, 0, -int(local.Weekday())))
}

// EndOfWeek returns the Saturday (23:59:59) that closes the week containing t.
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

// WeekRange returns the Sunday-Saturday window containing t.
func WeekRange(t time.Time) (start, end time.Time) {
	start = StartOfWeek(t)
	return start, start.AddDate(0, 0, 6)
}

// TrailingDays returns the window covering the last n calendar days ending at t,
// inclusive of both endpoints. TrailingDays(t, 30) spans t-29d .. t.
func TrailingDays(t time.Time, n int) (start, end time.Time) {
	end = StartOfDay(t)
	return end.AddDate(0, 0, -(n - 1)), end
}

// IsToday checks if the given time is today in Kuala Lumpur timezone.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsSameDay checks if two times fall on the same Kuala Lumpur calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := ToLocal(t1), ToLocal(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Common date/time formats.
const (
	// FormatRecordDate is the storage date format used in the attendance sheet (DD/MM/YYYY).
	FormatRecordDate = "02/01/2006"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatISODate is the ISO date format (YYYY-MM-DD).
	FormatISODate = "2006-01-02"
)

// FormatRecord formats a time as an attendance record date (DD/MM/YYYY).
func FormatRecord(t time.Time) string {
	return ToLocal(t).Format(FormatRecordDate)
}

// ParseRecord parses an attendance record date (DD/MM/YYYY) in Kuala Lumpur timezone.
func ParseRecord(value string) (time.Time, error) {
	t, err := time.ParseInLocation(FormatRecordDate, value, KualaLumpurTZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse record date %q: %w", value, err)
	}
	return t, nil
}

// WeekdayName returns the English weekday name as stored in attendance records.
func WeekdayName(t time.Time) string {
	return ToLocal(t).Weekday().String()
}

// WeekdayNameMs returns the Malay name for a weekday, used in chat messages.
func WeekdayNameMs(t time.Time) string {
	switch ToLocal(t).Weekday() {
	case time.Sunday:
		return "Ahad"
	case time.Monday:
		return "Isnin"
	case time.Tuesday:
		return "Selasa"
	case time.Wednesday:
		return "Rabu"
	case time.Thursday:
		return "Khamis"
	case time.Friday:
		return "Jumaat"
	case time.Saturday:
		return "Sabtu"
	default:
		return ""
	}
}

// MonthNameMs returns the Malay name for a month, used in the calendar keyboard.
func MonthNameMs(m time.Month) string {
	names := []string{
		"", "Januari", "Februari", "Mac", "April", "Mei", "Jun",
		"Julai", "Ogos", "September", "Oktober", "November", "Disember",
	}
	if int(m) >= 1 && int(m) <= 12 {
		return names[m]
	}
	return ""
}

// IsSchoolDay checks if the given time is on a school day (Sunday-Thursday,
// the Kedah school week).
func IsSchoolDay(t time.Time) bool {
	weekday := ToLocal(t).Weekday()
	return weekday != time.Friday && weekday != time.Saturday
}

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	local := ToLocal(t)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, KualaLumpurTZ)
	return first.AddDate(0, 1, -1).Day()
}
