// Package sheet implements workbook-backed persistence: the roster lives on
// a "Senarai Murid" sheet and attendance records on a "Kehadiran" sheet,
// the same tabular layout the school has always kept. The workbook is the
// system of record for deployments without a database.
package sheet

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// Sheet and column layout.
const (
	// SheetRoster holds the student roster: Kelas | Nama | Catatan.
	SheetRoster = "Senarai Murid"

	// SheetAttendance holds the records:
	// Tarikh | Hari | Kelas | Hadir | Jumlah | Tidak Hadir.
	SheetAttendance = "Kehadiran"
)

var rosterHeader = []interface{}{"Kelas", "Nama", "Catatan"}

var attendanceHeader = []interface{}{"Tarikh", "Hari", "Kelas", "Hadir", "Jumlah", "Tidak Hadir"}

// Store persists the roster and attendance records in one workbook file.
// All access is serialized: the bot is the sole writer and the file format
// has no row-level locking.
type Store struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// Open loads the workbook at path, creating it with empty sheets when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return create(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("sheet: open workbook %s: %w", path, err)
	}

	s := &Store{path: path, file: f}
	if err := s.ensureSheets(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func create(path string) (*Store, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet(SheetRoster); err != nil {
		return nil, fmt.Errorf("sheet: create roster sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetAttendance); err != nil {
		return nil, fmt.Errorf("sheet: create attendance sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("sheet: remove default sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetRoster, "A1", &rosterHeader); err != nil {
		return nil, fmt.Errorf("sheet: write roster header: %w", err)
	}
	if err := f.SetSheetRow(SheetAttendance, "A1", &attendanceHeader); err != nil {
		return nil, fmt.Errorf("sheet: write attendance header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("sheet: save new workbook %s: %w", path, err)
	}
	return &Store{path: path, file: f}, nil
}

// ensureSheets adds any missing sheet to an existing workbook.
func (s *Store) ensureSheets() error {
	for _, name := range []string{SheetRoster, SheetAttendance} {
		idx, err := s.file.GetSheetIndex(name)
		if err != nil {
			return fmt.Errorf("sheet: inspect workbook: %w", err)
		}
		if idx >= 0 {
			continue
		}
		if _, err := s.file.NewSheet(name); err != nil {
			return fmt.Errorf("sheet: create sheet %s: %w", name, err)
		}
		header := rosterHeader
		if name == SheetAttendance {
			header = attendanceHeader
		}
		if err := s.file.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("sheet: write header for %s: %w", name, err)
		}
	}
	return nil
}

// Close releases the underlying workbook handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Path returns the workbook location on disk.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) save() error {
	if err := s.file.Save(); err != nil {
		return fmt.Errorf("sheet: save workbook %s: %w", s.path, err)
	}
	return nil
}

func cell(row [][]string, r, c int) string {
	if r >= len(row) || c >= len(row[r]) {
		return ""
	}
	return strings.TrimSpace(row[r][c])
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER PROVIDER
// ══════════════════════════════════════════════════════════════════════════════

// ListClasses returns the class names deduplicated and sorted. A class row
// with a blank student name declares the class without enrolling anyone.
func (s *Store) ListClasses(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.file.GetRows(SheetRoster)
	if err != nil {
		return nil, fmt.Errorf("sheet: read roster: %w", err)
	}

	seen := make(map[string]bool)
	var classes []string
	for r := 1; r < len(rows); r++ {
		class := cell(rows, r, 0)
		if class == "" {
			continue
		}
		key := roster.NormalizeClass(class)
		if !seen[key] {
			seen[key] = true
			classes = append(classes, class)
		}
	}
	sort.Strings(classes)
	return classes, nil
}

// ListStudents returns the students of a class in sheet order, or
// roster.ErrClassNotFound when no row names the class.
func (s *Store) ListStudents(ctx context.Context, classID string) ([]roster.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.file.GetRows(SheetRoster)
	if err != nil {
		return nil, fmt.Errorf("sheet: read roster: %w", err)
	}

	want := roster.NormalizeClass(classID)
	classExists := false
	var students []roster.Student
	for r := 1; r < len(rows); r++ {
		class := cell(rows, r, 0)
		if class == "" || roster.NormalizeClass(class) != want {
			continue
		}
		classExists = true
		name := cell(rows, r, 1)
		if name == "" {
			continue
		}
		students = append(students, roster.Student{
			Name: name,
			Note: cell(rows, r, 2),
		})
	}

	if !classExists {
		return nil, roster.ErrClassNotFound
	}
	return students, nil
}

// AddStudent appends a roster row.
func (s *Store) AddStudent(ctx context.Context, classID string, student roster.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.file.GetRows(SheetRoster)
	if err != nil {
		return fmt.Errorf("sheet: read roster: %w", err)
	}

	target := fmt.Sprintf("A%d", len(rows)+1)
	row := []interface{}{classID, student.Name, student.Note}
	if err := s.file.SetSheetRow(SheetRoster, target, &row); err != nil {
		return fmt.Errorf("sheet: append roster row: %w", err)
	}
	return s.save()
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE STORE
// ══════════════════════════════════════════════════════════════════════════════

// Find returns the record for (classID, date), or ErrRecordNotFound.
func (s *Store) Find(ctx context.Context, classID string, date time.Time) (*attendance.Record, error) {
	records, err := s.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	want := roster.NormalizeClass(classID)
	for i := range records {
		if roster.NormalizeClass(records[i].ClassID) == want &&
			timeutil.IsSameDay(records[i].Date, date) {
			return &records[i], nil
		}
	}
	return nil, attendance.ErrRecordNotFound
}

// Append adds a record row at the bottom of the attendance sheet.
func (s *Store) Append(ctx context.Context, record attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.file.GetRows(SheetAttendance)
	if err != nil {
		return fmt.Errorf("sheet: read attendance: %w", err)
	}

	target := fmt.Sprintf("A%d", len(rows)+1)
	row := []interface{}{
		record.DateString(),
		record.Weekday,
		record.ClassID,
		record.Present,
		record.Total,
		record.AbsentString(),
	}
	if err := s.file.SetSheetRow(SheetAttendance, target, &row); err != nil {
		return fmt.Errorf("sheet: append attendance row: %w", err)
	}
	return s.save()
}

// Delete removes every row matching (classID, date). Rows are removed bottom
// up so the remaining indexes stay valid.
func (s *Store) Delete(ctx context.Context, classID string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.file.GetRows(SheetAttendance)
	if err != nil {
		return fmt.Errorf("sheet: read attendance: %w", err)
	}

	want := roster.NormalizeClass(classID)
	wantDate := timeutil.FormatRecord(date)
	removed := false
	for r := len(rows) - 1; r >= 1; r-- {
		if cell(rows, r, 0) != wantDate || roster.NormalizeClass(cell(rows, r, 2)) != want {
			continue
		}
		if err := s.file.RemoveRow(SheetAttendance, r+1); err != nil {
			return fmt.Errorf("sheet: remove attendance row: %w", err)
		}
		removed = true
	}

	if !removed {
		return nil
	}
	return s.save()
}

// ScanAll returns every attendance row. Rows that fail to parse are returned
// as zero-total records; report code skips them as malformed instead of the
// whole scan failing.
func (s *Store) ScanAll(ctx context.Context) ([]attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.file.GetRows(SheetAttendance)
	if err != nil {
		return nil, fmt.Errorf("sheet: read attendance: %w", err)
	}

	var records []attendance.Record
	for r := 1; r < len(rows); r++ {
		if cell(rows, r, 0) == "" && cell(rows, r, 2) == "" {
			continue
		}
		records = append(records, parseRow(rows, r))
	}
	return records, nil
}

func parseRow(rows [][]string, r int) attendance.Record {
	rec := attendance.Record{
		Weekday: cell(rows, r, 1),
		ClassID: cell(rows, r, 2),
		Absent:  attendance.SplitAbsent(cell(rows, r, 5)),
	}

	if date, err := timeutil.ParseRecord(cell(rows, r, 0)); err == nil {
		rec.Date = date
	}

	// Bad counts leave the zero value; Validate flags the row downstream.
	fmt.Sscanf(cell(rows, r, 3), "%d", &rec.Present)
	fmt.Sscanf(cell(rows, r, 4), "%d", &rec.Total)

	return rec
}
