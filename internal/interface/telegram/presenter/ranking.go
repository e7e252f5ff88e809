package presenter

import (
	"fmt"
	"strings"

	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING PRESENTER
// Renders statistics queries: ranked standings, year-group comparison, and
// record-over-record declines.
// ══════════════════════════════════════════════════════════════════════════════

// RankingPresenter formats statistics messages.
type RankingPresenter struct {
	atRiskThreshold float64
}

// NewRankingPresenter creates a RankingPresenter flagging standings under the
// given threshold.
func NewRankingPresenter(atRiskThreshold float64) *RankingPresenter {
	if atRiskThreshold <= 0 {
		atRiskThreshold = stats.DefaultAtRiskThreshold
	}
	return &RankingPresenter{atRiskThreshold: atRiskThreshold}
}

// RankingMessage renders a ranking with the given title. An empty ranking
// renders the explicit no-data notice.
func (p *RankingPresenter) RankingMessage(title string, ranking *stats.Ranking) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>%s</b>\n🗓 %s hingga %s\n\n",
		title, timeutil.FormatRecord(ranking.Start), timeutil.FormatRecord(ranking.End))

	if ranking.Empty() {
		b.WriteString("Tiada data kehadiran dalam tempoh ini.")
		return b.String()
	}

	for i, st := range ranking.Standings {
		flag := ""
		if st.AtRisk(p.atRiskThreshold) {
			flag = " ⚠️"
		}
		fmt.Fprintf(&b, "%s %s: %.1f%% (%d hari)%s\n", positionEmoji(i+1), st.ClassID, st.Rate, st.Days, flag)
	}

	if worst, ok := ranking.Worst(); ok && len(ranking.Standings) > 1 {
		fmt.Fprintf(&b, "\n🔻 Paling rendah: <b>%s</b> (%.1f%%)\n", worst.ClassID, worst.Rate)
	}

	if ranking.Skipped > 0 {
		fmt.Fprintf(&b, "\n<i>%d baris rosak diabaikan.</i>", ranking.Skipped)
	}
	return b.String()
}

// YearGroupMessage renders the year-group comparison of a ranking.
func (p *RankingPresenter) YearGroupMessage(ranking *stats.Ranking) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🏫 <b>Kehadiran Ikut Tahun</b>\n🗓 %s hingga %s\n\n",
		timeutil.FormatRecord(ranking.Start), timeutil.FormatRecord(ranking.End))

	groups := stats.YearGroups(ranking)
	if len(groups) == 0 {
		b.WriteString("Tiada data kehadiran dalam tempoh ini.")
		return b.String()
	}

	for i, g := range groups {
		fmt.Fprintf(&b, "%s Tahun %s: %.1f%%\n", positionEmoji(i+1), g.Year, g.Rate)
		for _, st := range g.Classes {
			fmt.Fprintf(&b, "   • %s: %.1f%%\n", st.ClassID, st.Rate)
		}
	}
	return b.String()
}

// DeclineSection renders the declining classes list, or an empty string when
// nothing declined.
func (p *RankingPresenter) DeclineSection(declining []stats.Trend) string {
	if len(declining) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n📉 <b>Kelas menurun berbanding rekod sebelum:</b>\n")
	for _, t := range declining {
		fmt.Fprintf(&b, "• %s (%.1f%% ➡ %.1f%%)\n", t.ClassID, t.PreviousRate, t.CurrentRate)
	}
	return b.String()
}

// positionEmoji returns the medal for the top three, a number otherwise.
func positionEmoji(position int) string {
	switch position {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", position)
	}
}
