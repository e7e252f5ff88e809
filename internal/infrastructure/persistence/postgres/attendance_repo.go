package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceRepository implements attendance.Store for PostgreSQL.
type AttendanceRepository struct {
	conn *Connection
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(conn *Connection) *AttendanceRepository {
	return &AttendanceRepository{conn: conn}
}

// Find returns the record for (classID, date), or ErrRecordNotFound.
// Class names match case- and whitespace-insensitively; the day's rows are
// filtered in the application because SQL cannot collapse interior spacing.
func (r *AttendanceRepository) Find(ctx context.Context, classID string, date time.Time) (*attendance.Record, error) {
	records, err := r.findByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	want := roster.NormalizeClass(classID)
	for i := range records {
		if roster.NormalizeClass(records[i].ClassID) == want {
			return &records[i], nil
		}
	}
	return nil, attendance.ErrRecordNotFound
}

// Append adds a new row. Uniqueness of (class, date) is the caller's
// invariant, not the store's.
func (r *AttendanceRepository) Append(ctx context.Context, record attendance.Record) error {
	query := `
		INSERT INTO attendance_records (
			id, record_date, weekday, class_name, present, total, absent_names
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := r.conn.Exec(ctx, query,
		id,
		record.Date,
		record.Weekday,
		record.ClassID,
		record.Present,
		record.Total,
		record.AbsentString(),
	)
	if err != nil {
		return fmt.Errorf("failed to append attendance record: %w", err)
	}
	return nil
}

// Delete removes every row for (classID, date). A missing row is not an error.
func (r *AttendanceRepository) Delete(ctx context.Context, classID string, date time.Time) error {
	records, err := r.findByDate(ctx, date)
	if err != nil {
		return err
	}

	want := roster.NormalizeClass(classID)
	for _, rec := range records {
		if roster.NormalizeClass(rec.ClassID) != want {
			continue
		}
		if _, err := r.conn.Exec(ctx, "DELETE FROM attendance_records WHERE id = $1", rec.ID); err != nil {
			return fmt.Errorf("failed to delete attendance record: %w", err)
		}
	}
	return nil
}

// ScanAll returns every stored row, oldest first.
func (r *AttendanceRepository) ScanAll(ctx context.Context) ([]attendance.Record, error) {
	query := `
		SELECT id, record_date, weekday, class_name, present, total, absent_names
		FROM attendance_records
		ORDER BY record_date, created_at
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *AttendanceRepository) findByDate(ctx context.Context, date time.Time) ([]attendance.Record, error) {
	query := `
		SELECT id, record_date, weekday, class_name, present, total, absent_names
		FROM attendance_records
		WHERE record_date = $1
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query, timeutil.StartOfDay(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanRecords(rows pgxRows) ([]attendance.Record, error) {
	var records []attendance.Record
	for rows.Next() {
		var (
			rec         attendance.Record
			recordDate  time.Time
			absentNames string
		)
		if err := rows.Scan(
			&rec.ID,
			&recordDate,
			&rec.Weekday,
			&rec.ClassID,
			&rec.Present,
			&rec.Total,
			&absentNames,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		// DATE columns come back at UTC midnight; re-anchor to the school day.
		rec.Date = timeutil.Date(recordDate.Year(), recordDate.Month(), recordDate.Day())
		rec.Absent = attendance.SplitAbsent(absentNames)
		records = append(records, rec)
	}
	return records, rows.Err()
}
