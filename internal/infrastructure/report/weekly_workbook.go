// Package report renders attendance reports into Excel workbooks for
// delivery over Telegram. The workbook mirrors the storage sheet layout so
// teachers see the same columns they know from the master file.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// SheetSummary holds the weekly ranking; the daily sheets are named after
// the Malay weekday they cover.
const SheetSummary = "Ringkasan"

// FileName returns the download name for a weekly report ending at end,
// e.g. "laporan_kehadiran_08-03-2025.xlsx".
func FileName(end time.Time) string {
	return fmt.Sprintf("laporan_kehadiran_%s.xlsx", timeutil.ToLocal(end).Format("02-01-2006"))
}

// WeeklyWorkbook renders a ranking and its underlying records into an xlsx
// workbook and returns the file bytes. An empty ranking still produces a
// workbook with an explicit no-data row, never a bare header.
func WeeklyWorkbook(ranking *stats.Ranking, records []attendance.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, ranking); err != nil {
		return nil, fmt.Errorf("render summary sheet: %w", err)
	}
	if err := writeDailySheets(f, ranking, records); err != nil {
		return nil, fmt.Errorf("render daily sheets: %w", err)
	}

	// The default sheet is replaced, not left empty alongside ours.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetSummary); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, ranking *stats.Ranking) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	title := fmt.Sprintf("Laporan Kehadiran Mingguan %s hingga %s",
		timeutil.FormatRecord(ranking.Start), timeutil.FormatRecord(ranking.End))
	if err := f.SetCellValue(SheetSummary, "A1", title); err != nil {
		return err
	}

	header := []interface{}{"Kedudukan", "Kelas", "Hadir", "Jumlah", "Hari Direkod", "Peratus (%)"}
	if err := f.SetSheetRow(SheetSummary, "A3", &header); err != nil {
		return err
	}

	if ranking.Empty() {
		return f.SetCellValue(SheetSummary, "A4", "Tiada data kehadiran untuk minggu ini.")
	}

	for i, st := range ranking.Standings {
		row := []interface{}{
			i + 1,
			st.ClassID,
			st.Present,
			st.Total,
			st.Days,
			fmt.Sprintf("%.1f", st.Rate),
		}
		if err := f.SetSheetRow(SheetSummary, fmt.Sprintf("A%d", i+4), &row); err != nil {
			return err
		}
	}

	if ranking.Skipped > 0 {
		note := fmt.Sprintf("Nota: %d baris rosak diabaikan.", ranking.Skipped)
		cell := fmt.Sprintf("A%d", len(ranking.Standings)+5)
		return f.SetCellValue(SheetSummary, cell, note)
	}
	return nil
}

// writeDailySheets emits one sheet per day of the week window, named after
// the Malay weekday. School days always get a sheet; Friday and Saturday
// only appear when a record was somehow stored for them.
func writeDailySheets(f *excelize.File, ranking *stats.Ranking, records []attendance.Record) error {
	for day := timeutil.StartOfDay(ranking.Start); !day.After(ranking.End); day = day.AddDate(0, 0, 1) {
		var rows []attendance.Record
		for _, r := range records {
			if timeutil.IsSameDay(r.Date, day) {
				rows = append(rows, r)
			}
		}

		if !timeutil.IsSchoolDay(day) && len(rows) == 0 {
			continue
		}
		if err := writeDaySheet(f, day, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeDaySheet(f *excelize.File, day time.Time, rows []attendance.Record) error {
	name := timeutil.WeekdayNameMs(day)
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	title := fmt.Sprintf("%s, %s", name, timeutil.FormatRecord(day))
	if err := f.SetCellValue(name, "A1", title); err != nil {
		return err
	}

	header := []interface{}{"Tarikh", "Hari", "Kelas", "Hadir", "Jumlah", "Tidak Hadir"}
	if err := f.SetSheetRow(name, "A3", &header); err != nil {
		return err
	}

	if len(rows) == 0 {
		return f.SetCellValue(name, "A4", "Tiada rekod untuk hari ini.")
	}

	for i, r := range rows {
		values := []interface{}{
			r.DateString(),
			r.Weekday,
			r.ClassID,
			r.Present,
			r.Total,
			r.AbsentString(),
		}
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", i+4), &values); err != nil {
			return err
		}
	}
	return nil
}
