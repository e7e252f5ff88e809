package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RosterRepository implements roster.Provider for PostgreSQL.
type RosterRepository struct {
	conn *Connection
}

// NewRosterRepository creates a new RosterRepository.
func NewRosterRepository(conn *Connection) *RosterRepository {
	return &RosterRepository{conn: conn}
}

// ListClasses returns the distinct class names sorted by name.
func (r *RosterRepository) ListClasses(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT class_name
		FROM students
		ORDER BY class_name
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	var classes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan class row: %w", err)
		}
		classes = append(classes, name)
	}
	return classes, rows.Err()
}

// ListStudents returns the enrolled students of a class in roster order,
// or roster.ErrClassNotFound for an unknown class.
func (r *RosterRepository) ListStudents(ctx context.Context, classID string) ([]roster.Student, error) {
	// The lookup matches the normalized class name so "4 amber" finds
	// "4 Amber". Candidate rows are filtered in the application.
	query := `
		SELECT class_name, student_name, note
		FROM students
		ORDER BY class_name, position, student_name
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	want := roster.NormalizeClass(classID)
	classExists := false
	var students []roster.Student
	for rows.Next() {
		var className string
		var s roster.Student
		if err := rows.Scan(&className, &s.Name, &s.Note); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		if roster.NormalizeClass(className) != want {
			continue
		}
		classExists = true
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !classExists {
		return nil, roster.ErrClassNotFound
	}
	return students, nil
}

// AddStudent enrolls a student. Position controls roster order within the class.
func (r *RosterRepository) AddStudent(ctx context.Context, classID string, s roster.Student, position int) error {
	query := `
		INSERT INTO students (id, class_name, student_name, note, position)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query, uuid.New().String(), classID, s.Name, s.Note, position)
	if err != nil {
		return fmt.Errorf("failed to add student: %w", err)
	}
	return nil
}

// RemoveStudent removes a student from a class by name.
func (r *RosterRepository) RemoveStudent(ctx context.Context, classID, name string) error {
	query := `
		DELETE FROM students
		WHERE class_name = $1 AND student_name = $2
	`

	if _, err := r.conn.Exec(ctx, query, classID, name); err != nil {
		return fmt.Errorf("failed to remove student: %w", err)
	}
	return nil
}
