package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RMT HANDLER
// Handles /rmt: list the subsidized-meal (Rancangan Makanan Tambahan) pupils
// per class, and the daily headcount of which RMT pupils are in school
// today, for the canteen.
// ══════════════════════════════════════════════════════════════════════════════

// RMTHandler handles the /rmt command.
type RMTHandler struct {
	rosters roster.Provider
	store   attendance.Store
	rule    roster.RMTRule
	now     func() time.Time
}

// NewRMTHandler creates an RMTHandler with the configured matching rule.
func NewRMTHandler(rosters roster.Provider, store attendance.Store, rule roster.RMTRule, now func() time.Time) *RMTHandler {
	if rule == "" {
		rule = roster.RMTRuleNote
	}
	if now == nil {
		now = timeutil.Now
	}
	return &RMTHandler{rosters: rosters, store: store, rule: rule, now: now}
}

// List renders the RMT pupils grouped by class.
func (h *RMTHandler) List(ctx context.Context) (*Response, error) {
	classes, err := h.rosters.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if len(classes) == 0 {
		return text(msgNoClasses), nil
	}

	var b strings.Builder
	b.WriteString("🍛 <b>Senarai Murid RMT</b>\n")

	total := 0
	for _, classID := range classes {
		students, err := h.rosters.ListStudents(ctx, classID)
		if err != nil {
			return nil, fmt.Errorf("list students for %s: %w", classID, err)
		}

		var names []string
		for _, s := range students {
			if s.IsRMT(h.rule) {
				names = append(names, s.Name)
			}
		}
		if len(names) == 0 {
			continue
		}

		fmt.Fprintf(&b, "\n🏫 <b>%s</b> (%d)\n", classID, len(names))
		for _, name := range names {
			fmt.Fprintf(&b, "• %s\n", name)
		}
		total += len(names)
	}

	if total == 0 {
		b.WriteString("\nTiada murid RMT dalam senarai.")
	} else {
		fmt.Fprintf(&b, "\nJumlah: <b>%d</b> murid", total)
	}

	return text(b.String()), nil
}

// Today renders the daily RMT headcount: per class, which RMT pupils are in
// school today and which are absent, based on the committed record.
func (h *RMTHandler) Today(ctx context.Context) (*Response, error) {
	classes, err := h.rosters.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if len(classes) == 0 {
		return text(msgNoClasses), nil
	}

	today := h.now()

	var b strings.Builder
	fmt.Fprintf(&b, "🍛 <b>Semakan RMT Hari Ini</b>\n📅 %s, %s\n",
		timeutil.WeekdayNameMs(today), timeutil.FormatRecord(today))

	totalPresent, totalRMT := 0, 0
	for _, classID := range classes {
		students, err := h.rosters.ListStudents(ctx, classID)
		if err != nil {
			return nil, fmt.Errorf("list students for %s: %w", classID, err)
		}

		var names []string
		for _, s := range students {
			if s.IsRMT(h.rule) {
				names = append(names, s.Name)
			}
		}
		if len(names) == 0 {
			continue
		}
		totalRMT += len(names)

		record, err := h.store.Find(ctx, classID, today)
		if err != nil {
			if errors.Is(err, attendance.ErrRecordNotFound) {
				fmt.Fprintf(&b, "\n🏫 <b>%s</b>\n⏳ Belum direkod\n", classID)
				continue
			}
			return nil, fmt.Errorf("find record for %s: %w", classID, err)
		}

		absentSet := make(map[string]bool, len(record.Absent))
		for _, name := range record.Absent {
			absentSet[name] = true
		}

		var absent []string
		present := 0
		for _, name := range names {
			if absentSet[name] {
				absent = append(absent, name)
			} else {
				present++
			}
		}
		totalPresent += present

		fmt.Fprintf(&b, "\n🏫 <b>%s</b>\nHadir: <b>%d/%d</b>\n", classID, present, len(names))
		for _, name := range absent {
			fmt.Fprintf(&b, "❌ %s\n", name)
		}
	}

	if totalRMT == 0 {
		b.WriteString("\nTiada murid RMT dalam senarai.")
	} else {
		fmt.Fprintf(&b, "\nJumlah hadir: <b>%d/%d</b> murid RMT", totalPresent, totalRMT)
	}

	return text(b.String()), nil
}
