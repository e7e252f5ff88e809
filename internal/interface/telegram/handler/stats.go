package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/internal/interface/telegram/presenter"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLER
// Handles /statistik and its window-switch callbacks: weekly ranking with the
// decline section, rolling-30-day ranking, and the year-group comparison.
// ══════════════════════════════════════════════════════════════════════════════

// Statistics windows selectable from the chat.
const (
	StatsWindowWeek  = "minggu"
	StatsWindowMonth = "bulan"
	StatsWindowYear  = "tahun"
)

// StatsHandler handles the /statistik flow.
type StatsHandler struct {
	stats     *stats.Service
	keyboards *presenter.KeyboardBuilder
	present   *presenter.RankingPresenter
	now       func() time.Time
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(svc *stats.Service, keyboards *presenter.KeyboardBuilder, p *presenter.RankingPresenter, now func() time.Time) *StatsHandler {
	if now == nil {
		now = timeutil.Now
	}
	return &StatsHandler{stats: svc, keyboards: keyboards, present: p, now: now}
}

// Show renders the requested statistics window. Unknown windows fall back to
// the weekly view.
func (h *StatsHandler) Show(ctx context.Context, window string) (*Response, error) {
	ref := h.now()

	var body string
	switch window {
	case StatsWindowMonth:
		ranking, err := h.stats.MonthlyRanking(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("monthly ranking: %w", err)
		}
		body = h.present.RankingMessage("Ranking Kehadiran 30 Hari", ranking)

	case StatsWindowYear:
		ranking, err := h.stats.WeeklyRanking(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("weekly ranking: %w", err)
		}
		body = h.present.YearGroupMessage(ranking)

	default:
		ranking, err := h.stats.WeeklyRanking(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("weekly ranking: %w", err)
		}
		body = h.present.RankingMessage("Ranking Kehadiran Mingguan", ranking)

		declining, err := h.stats.DecliningClasses(ctx, ref)
		if err == nil {
			body += h.present.DeclineSection(declining)
		}
	}

	return edit(body, h.keyboards.StatsKeyboard()), nil
}
