package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CRON EXPRESSION
// ══════════════════════════════════════════════════════════════════════════════

// CronExpression represents a parsed cron schedule.
// Format: minute hour day-of-month month day-of-week
// Supports: * (any), n (exact), n-m (range), */n (step), n,m,o (list).
// CronExpression implements the Schedule interface.
type CronExpression struct {
	raw        string
	minutes    map[int]bool
	hours      map[int]bool
	daysOfMon  map[int]bool
	months     map[int]bool
	daysOfWeek map[int]bool

	// anyDayOfMon and anyDayOfWeek record whether the day fields were "*".
	// Standard cron ORs the two day fields when both are restricted.
	anyDayOfMon  bool
	anyDayOfWeek bool
}

// ParseCronExpression parses a standard 5-field cron expression.
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidCronExpression, len(fields))
	}

	ce := &CronExpression{raw: expr}

	var err error
	if ce.minutes, err = parseField(fields[0], 0, 59); err != nil {
		return nil, fmt.Errorf("%w: minute field: %v", ErrInvalidCronExpression, err)
	}
	if ce.hours, err = parseField(fields[1], 0, 23); err != nil {
		return nil, fmt.Errorf("%w: hour field: %v", ErrInvalidCronExpression, err)
	}
	if ce.daysOfMon, err = parseField(fields[2], 1, 31); err != nil {
		return nil, fmt.Errorf("%w: day-of-month field: %v", ErrInvalidCronExpression, err)
	}
	if ce.months, err = parseField(fields[3], 1, 12); err != nil {
		return nil, fmt.Errorf("%w: month field: %v", ErrInvalidCronExpression, err)
	}
	if ce.daysOfWeek, err = parseField(fields[4], 0, 6); err != nil {
		return nil, fmt.Errorf("%w: day-of-week field: %v", ErrInvalidCronExpression, err)
	}
	ce.anyDayOfMon = fields[2] == "*"
	ce.anyDayOfWeek = fields[4] == "*"

	return ce, nil
}

// MustParseCronExpression parses a cron expression, panicking on error.
// Use only with compile-time constant expressions.
func MustParseCronExpression(expr string) *CronExpression {
	ce, err := ParseCronExpression(expr)
	if err != nil {
		panic(err)
	}
	return ce
}

// parseField parses a single cron field into a set of allowed values.
func parseField(field string, min, max int) (map[int]bool, error) {
	values := make(map[int]bool)

	for _, part := range strings.Split(field, ",") {
		var rangeStr string
		step := 1

		if idx := strings.Index(part, "/"); idx >= 0 {
			rangeStr = part[:idx]
			s, err := strconv.Atoi(part[idx+1:])
			if err != nil || s <= 0 {
				return nil, fmt.Errorf("invalid step %q", part)
			}
			step = s
		} else {
			rangeStr = part
		}

		lo, hi := min, max
		switch {
		case rangeStr == "*":
			// full range
		case strings.Contains(rangeStr, "-"):
			bounds := strings.SplitN(rangeStr, "-", 2)
			l, err1 := strconv.Atoi(bounds[0])
			h, err2 := strconv.Atoi(bounds[1])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("invalid range %q", rangeStr)
			}
			lo, hi = l, h
		default:
			n, err := strconv.Atoi(rangeStr)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q", rangeStr)
			}
			lo, hi = n, n
		}

		if lo < min || hi > max || lo > hi {
			return nil, fmt.Errorf("value out of range [%d,%d]: %q", min, max, part)
		}

		for v := lo; v <= hi; v += step {
			values[v] = true
		}
	}

	return values, nil
}

// Next returns the next time matching the expression strictly after t.
func (ce *CronExpression) Next(t time.Time) time.Time {
	// Start at the next whole minute.
	next := t.Truncate(time.Minute).Add(time.Minute)

	// Bounded search: a valid expression always matches within a few years.
	limit := next.AddDate(4, 0, 0)
	for next.Before(limit) {
		if !ce.months[int(next.Month())] {
			next = time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, next.Location()).AddDate(0, 1, 0)
			continue
		}
		if !ce.matchesDay(next) {
			next = time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location()).AddDate(0, 0, 1)
			continue
		}
		if !ce.hours[next.Hour()] {
			next = next.Truncate(time.Hour).Add(time.Hour)
			continue
		}
		if !ce.minutes[next.Minute()] {
			next = next.Add(time.Minute)
			continue
		}
		return next
	}

	return time.Time{}
}

// matchesDay checks the day-of-month and day-of-week fields with the
// standard cron rule: an unrestricted field defers to the other, and when
// both are restricted a day matching either one fires.
func (ce *CronExpression) matchesDay(t time.Time) bool {
	dom := ce.daysOfMon[t.Day()]
	dow := ce.daysOfWeek[int(t.Weekday())]
	switch {
	case ce.anyDayOfMon:
		return dow
	case ce.anyDayOfWeek:
		return dom
	default:
		return dom || dow
	}
}

// Matches reports whether t satisfies the expression, ignoring seconds.
func (ce *CronExpression) Matches(t time.Time) bool {
	return ce.minutes[t.Minute()] &&
		ce.hours[t.Hour()] &&
		ce.matchesDay(t) &&
		ce.months[int(t.Month())]
}

// String returns the original cron expression.
func (ce *CronExpression) String() string {
	return ce.raw
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMON SCHEDULES
// ══════════════════════════════════════════════════════════════════════════════

// Cron presets for the school calendar. The school week in Kedah runs
// Sunday through Thursday, so school-day schedules use day-of-week 0-4.
const (
	// CronSchoolMorning fires at 07:30 on school days, before assembly.
	CronSchoolMorning = "30 7 * * 0-4"

	// CronRecordingReminder fires at 09:30 on school days, after the
	// first teaching block, when attendance should already be in.
	CronRecordingReminder = "30 9 * * 0-4"

	// CronWeeklySummary fires Saturday at 10:00, once the week's last
	// school day has passed.
	CronWeeklySummary = "0 10 * * 6"

	// CronMonthlySummary fires on the first day of each month at 08:00.
	CronMonthlySummary = "0 8 1 * *"
)

// ErrInvalidCronExpression is returned for malformed cron expressions.
var ErrInvalidCronExpression = fmt.Errorf("invalid cron expression")
