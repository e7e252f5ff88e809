package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/report"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT HANDLER
// Builds the current week's report workbook on demand, the same file the
// Saturday broadcast delivers.
// ══════════════════════════════════════════════════════════════════════════════

// ExportHandler handles the weekly report export button.
type ExportHandler struct {
	stats *stats.Service
	store attendance.Store
	now   func() time.Time
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(s *stats.Service, store attendance.Store, now func() time.Time) *ExportHandler {
	if now == nil {
		now = timeutil.Now
	}
	return &ExportHandler{stats: s, store: store, now: now}
}

// Weekly renders this week's workbook and returns it as a document.
func (h *ExportHandler) Weekly(ctx context.Context) (*Response, error) {
	ranking, err := h.stats.WeeklyRanking(ctx, h.now())
	if err != nil {
		return nil, fmt.Errorf("weekly ranking: %w", err)
	}

	records, err := h.store.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	data, err := report.WeeklyWorkbook(ranking, records)
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}

	_, end := timeutil.WeekRange(h.now())
	return &Response{
		Document: &Document{
			FileName: report.FileName(end),
			Caption: fmt.Sprintf("📎 Laporan kehadiran minggu %s hingga %s",
				timeutil.FormatRecord(ranking.Start), timeutil.FormatRecord(ranking.End)),
			Data: data,
		},
	}, nil
}
