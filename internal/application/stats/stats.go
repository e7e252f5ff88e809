// Package stats derives reports from stored attendance: weekly and monthly
// class rankings, record-over-record decline detection, and year-group
// comparison. Reports are computed fresh from a full store scan; stored rows
// are never mutated.
package stats

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// DefaultAtRiskThreshold marks classes needing attention in reports.
const DefaultAtRiskThreshold = 85.0

// MonthlyWindowDays is the trailing window for the monthly report.
const MonthlyWindowDays = 30

// Standing is one class's aggregate over a reporting window.
type Standing struct {
	ClassID string

	// Present and Total are summed over every record in the window.
	Present int
	Total   int

	// Days is the number of records that contributed.
	Days int

	// Rate is the percentage attendance, Present/Total*100.
	Rate float64
}

// AtRisk reports whether the standing falls under the threshold.
func (s Standing) AtRisk(threshold float64) bool {
	return s.Rate < threshold
}

// Ranking is a windowed report: standings sorted best-first.
type Ranking struct {
	Start     time.Time
	End       time.Time
	Standings []Standing

	// Skipped counts malformed rows ignored while building the report.
	Skipped int
}

// Empty reports whether no usable record fell inside the window. Callers
// must render an explicit no-data notice, never an empty table.
func (r Ranking) Empty() bool {
	return len(r.Standings) == 0
}

// Best returns the top standing, or false when the ranking is empty.
func (r Ranking) Best() (Standing, bool) {
	if len(r.Standings) == 0 {
		return Standing{}, false
	}
	return r.Standings[0], true
}

// Worst returns the bottom standing, or false when the ranking is empty.
func (r Ranking) Worst() (Standing, bool) {
	if len(r.Standings) == 0 {
		return Standing{}, false
	}
	return r.Standings[len(r.Standings)-1], true
}

// Trend describes one class's movement across its last two records.
type Trend struct {
	ClassID      string
	PreviousRate float64
	CurrentRate  float64
}

// Declining reports whether the rate dropped. The comparison is a plain
// two-point check: a class at 95 then 92 is declining, 92 then 95 is not.
// It reads nothing into the size of the drop.
func (t Trend) Declining() bool {
	return t.CurrentRate < t.PreviousRate
}

// Delta returns the signed rate change.
func (t Trend) Delta() float64 {
	return t.CurrentRate - t.PreviousRate
}

// YearGroup aggregates the classes sharing a year label ("4" for "4 Amber").
type YearGroup struct {
	Year    string
	Classes []Standing
	Present int
	Total   int
	Rate    float64
}

// Service computes attendance reports.
type Service struct {
	store           attendance.Store
	logger          *slog.Logger
	atRiskThreshold float64
	now             func() time.Time
}

// Config contains the stats service dependencies.
type Config struct {
	Store           attendance.Store
	Logger          *slog.Logger
	AtRiskThreshold float64
	Now             func() time.Time
}

// New creates a stats Service.
func New(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.AtRiskThreshold <= 0 {
		cfg.AtRiskThreshold = DefaultAtRiskThreshold
	}
	if cfg.Now == nil {
		cfg.Now = timeutil.Now
	}
	return &Service{
		store:           cfg.Store,
		logger:          cfg.Logger,
		atRiskThreshold: cfg.AtRiskThreshold,
		now:             cfg.Now,
	}
}

// AtRiskThreshold returns the configured attention threshold.
func (s *Service) AtRiskThreshold() float64 {
	return s.atRiskThreshold
}

// WeeklyRanking ranks classes over the Sunday-Saturday week containing ref.
func (s *Service) WeeklyRanking(ctx context.Context, ref time.Time) (*Ranking, error) {
	start, end := timeutil.WeekRange(ref)
	return s.ranking(ctx, start, end)
}

// MonthlyRanking ranks classes over the trailing 30 days ending at ref,
// both endpoints inclusive. This is a rolling window, not a calendar month.
func (s *Service) MonthlyRanking(ctx context.Context, ref time.Time) (*Ranking, error) {
	start, end := timeutil.TrailingDays(ref, MonthlyWindowDays)
	return s.ranking(ctx, start, end)
}

// DailySnapshot returns the standings for a single day.
func (s *Service) DailySnapshot(ctx context.Context, day time.Time) (*Ranking, error) {
	d := timeutil.StartOfDay(day)
	return s.ranking(ctx, d, d)
}

// Trends compares each class's last two records up to ref. The comparison
// runs over the chronological sequence of per-record percentages, never
// weekly aggregates, so two records inside the same week form a trend just
// like records a month apart. Classes with fewer than two records are left
// out; a trend needs both points.
func (s *Service) Trends(ctx context.Context, ref time.Time) ([]Trend, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, attendance.WrapStoreError("Trends", err)
	}

	cutoff := timeutil.EndOfDay(ref)

	type point struct {
		date time.Time
		rate float64
	}
	byClass := make(map[string][]point)
	names := make(map[string]string)
	var order []string

	for _, r := range records {
		if r.Date.After(cutoff) {
			continue
		}
		if err := r.Validate(); err != nil {
			s.logger.Warn("skipping malformed record",
				"class", r.ClassID,
				"date", r.DateString(),
				"error", err,
			)
			continue
		}
		key := roster.NormalizeClass(r.ClassID)
		if _, ok := byClass[key]; !ok {
			names[key] = r.ClassID
			order = append(order, key)
		}
		byClass[key] = append(byClass[key], point{
			date: r.Date,
			rate: float64(r.Present) / float64(r.Total) * 100,
		})
	}

	var trends []Trend
	for _, key := range order {
		points := byClass[key]
		if len(points) < 2 {
			continue
		}
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].date.Before(points[j].date)
		})
		trends = append(trends, Trend{
			ClassID:      names[key],
			PreviousRate: points[len(points)-2].rate,
			CurrentRate:  points[len(points)-1].rate,
		})
	}
	return trends, nil
}

// DecliningClasses returns the classes whose latest record fell strictly
// below its predecessor.
func (s *Service) DecliningClasses(ctx context.Context, ref time.Time) ([]Trend, error) {
	trends, err := s.Trends(ctx, ref)
	if err != nil {
		return nil, err
	}
	var declining []Trend
	for _, t := range trends {
		if t.Declining() {
			declining = append(declining, t)
		}
	}
	return declining, nil
}

// YearGroups regroups a ranking by year label. Classes without a leading
// numeric token (preschool) carry no year and are left out of the grouping.
func YearGroups(r *Ranking) []YearGroup {
	byYear := make(map[string]*YearGroup)
	var order []string
	for _, st := range r.Standings {
		year := roster.YearLabel(st.ClassID)
		if year == "" {
			continue
		}
		g, ok := byYear[year]
		if !ok {
			g = &YearGroup{Year: year}
			byYear[year] = g
			order = append(order, year)
		}
		g.Classes = append(g.Classes, st)
		g.Present += st.Present
		g.Total += st.Total
	}

	groups := make([]YearGroup, 0, len(order))
	for _, year := range order {
		g := byYear[year]
		if g.Total > 0 {
			g.Rate = float64(g.Present) / float64(g.Total) * 100
		}
		groups = append(groups, *g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Rate > groups[j].Rate
	})
	return groups
}

// ranking aggregates records inside [start, end] into sorted standings.
func (s *Service) ranking(ctx context.Context, start, end time.Time) (*Ranking, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, attendance.WrapStoreError("Ranking", err)
	}

	startDay := timeutil.StartOfDay(start)
	endDay := timeutil.EndOfDay(end)

	type agg struct {
		classID string
		present int
		total   int
		days    int
	}
	byClass := make(map[string]*agg)
	var order []string
	skipped := 0

	for _, r := range records {
		if r.Date.Before(startDay) || r.Date.After(endDay) {
			continue
		}
		// A malformed row is skipped, never fatal: one bad row must not
		// take a whole report down.
		if err := r.Validate(); err != nil {
			skipped++
			s.logger.Warn("skipping malformed record",
				"class", r.ClassID,
				"date", r.DateString(),
				"error", err,
			)
			continue
		}

		key := roster.NormalizeClass(r.ClassID)
		a, ok := byClass[key]
		if !ok {
			a = &agg{classID: r.ClassID}
			byClass[key] = a
			order = append(order, key)
		}
		a.present += r.Present
		a.total += r.Total
		a.days++
	}

	// First-seen order before the stable sort keeps equal rates in a
	// deterministic sequence.
	standings := make([]Standing, 0, len(order))
	for _, key := range order {
		a := byClass[key]
		st := Standing{
			ClassID: a.classID,
			Present: a.present,
			Total:   a.total,
			Days:    a.days,
		}
		if a.total > 0 {
			st.Rate = float64(a.present) / float64(a.total) * 100
		}
		standings = append(standings, st)
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Rate > standings[j].Rate
	})

	return &Ranking{
		Start:     startDay,
		End:       timeutil.StartOfDay(end),
		Standings: standings,
		Skipped:   skipped,
	}, nil
}
