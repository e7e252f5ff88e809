// Package attendance defines the attendance record entity and the store
// contract it persists through. A record is keyed by (class, date); the store
// itself does not enforce that uniqueness - the workflow's overwrite
// confirmation does.
package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/shared"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// AbsentSeparator joins absent names in storage ("Ali, Bee").
const AbsentSeparator = ", "

// Record is one day's attendance for one class - the six-column row shape of
// the attendance sheet.
type Record struct {
	// ID is the storage row identity (UUID). Domain identity stays
	// (ClassID, Date); the ID only exists so overwrites can target a row.
	ID string

	// Date is the school day, at midnight Kuala Lumpur time.
	Date time.Time

	// Weekday is the stored English weekday name ("Saturday").
	Weekday string

	// ClassID is the class name, e.g. "4 Amber".
	ClassID string

	// Present is the number of students present.
	Present int

	// Total is the class enrollment on the day of recording.
	Total int

	// Absent lists the names marked absent, in toggle order.
	Absent []string
}

// NewRecord builds a record for the given class and day from an absence list.
func NewRecord(classID string, date time.Time, total int, absent []string) Record {
	names := make([]string, len(absent))
	copy(names, absent)
	return Record{
		Date:    timeutil.StartOfDay(date),
		Weekday: timeutil.WeekdayName(date),
		ClassID: classID,
		Present: total - len(absent),
		Total:   total,
		Absent:  names,
	}
}

// DateString returns the storage form of the date (DD/MM/YYYY).
func (r Record) DateString() string {
	return timeutil.FormatRecord(r.Date)
}

// AbsentString returns the storage form of the absent list.
func (r Record) AbsentString() string {
	return strings.Join(r.Absent, AbsentSeparator)
}

// AllPresent reports whether nobody was marked absent.
func (r Record) AllPresent() bool {
	return len(r.Absent) == 0
}

// Rate returns the presence percentage (0-100). A zero total yields 0.
func (r Record) Rate() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Present) / float64(r.Total) * 100
}

// Validate checks the record invariants. The historical "all present via
// shortcut" shape (present == total, empty absent list) is a valid terminal
// state, not an error.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ClassID) == "" {
		return shared.NewDomainError("attendance", "Validate", shared.ErrEmptyValue, "class is required")
	}
	if r.Date.IsZero() {
		return shared.NewDomainError("attendance", "Validate", shared.ErrEmptyValue, "date is required")
	}
	if r.Total < 0 || r.Present < 0 {
		return shared.NewDomainError("attendance", "Validate", shared.ErrValidation, "counts cannot be negative")
	}
	if r.Present > r.Total {
		return shared.NewDomainError("attendance", "Validate", shared.ErrValidation,
			fmt.Sprintf("present %d exceeds total %d", r.Present, r.Total))
	}
	if r.Present+len(r.Absent) != r.Total {
		return shared.NewDomainError("attendance", "Validate", shared.ErrValidation,
			fmt.Sprintf("present %d + absent %d does not match total %d", r.Present, len(r.Absent), r.Total))
	}
	return nil
}

// SplitAbsent parses the storage form of an absent list back into names.
func SplitAbsent(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Store is the attendance system of record: append-only with whole-row
// overwrite, never partial update.
type Store interface {
	// Find returns the record for (classID, date), or ErrRecordNotFound.
	Find(ctx context.Context, classID string, date time.Time) (*Record, error)

	// Append adds a new row. It does not check for an existing
	// (classID, date) row; callers own the uniqueness invariant.
	Append(ctx context.Context, record Record) error

	// Delete removes the row for (classID, date). Deleting a missing row
	// is not an error.
	Delete(ctx context.Context, classID string, date time.Time) error

	// ScanAll returns every stored row. Statistics and the daily
	// completeness check work over this full snapshot.
	ScanAll(ctx context.Context) ([]Record, error)
}

// Domain errors.
var (
	ErrRecordNotFound = shared.NewDomainError("attendance", "Find", shared.ErrNotFound, "no record for class and date")
)

// WrapStoreError tags a backend failure so callers can match it with
// errors.Is(err, shared.ErrStoreUnavailable).
func WrapStoreError(op string, err error) error {
	return shared.WrapError("attendance", op, shared.ErrStoreUnavailable, "attendance store failed", err)
}
