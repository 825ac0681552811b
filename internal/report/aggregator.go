/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package report

import (
    "context"
    "math"

    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/rs/zerolog"
)

// Store is the slice of the repository the aggregator reads from.
type Store interface {
    GetOrCreateWeekLog(ctx context.Context, p domain.WeekPeriod, createdBy string) (domain.WeekLog, error)
    ListPriorityItems(ctx context.Context, weeklogID int64) ([]domain.PriorityItem, error)
    ListAbsences(ctx context.Context, weeklogID int64) ([]domain.Absence, error)
    ListIncidents(ctx context.Context, weeklogID int64) ([]domain.Incident, error)
    OnCallFor(ctx context.Context, p domain.WeekPeriod) (*domain.OnCallDuty, error)
    TrendSeries(ctx context.Context, p domain.WeekPeriod, limit int) ([]domain.TrendPoint, error)
}

// Bundle is everything one report needs, assembled once so that every
// export format renders from the same numbers.
type Bundle struct {
    Log       domain.WeekLog
    Items     []domain.PriorityItem
    Absences  []domain.Absence
    Incidents []domain.Incident
    OnCall    *domain.OnCallDuty

    // Trend holds up to trendWeeks recorded weeks ending at the report
    // week, oldest first. Averages cover exactly these points and are
    // only reported for a real trend (two points or more).
    Trend       []domain.TrendPoint
    AvgCreated  float64
    AvgClosed   float64
    HasAverages bool
}

type Aggregator struct {
    store      Store
    trendWeeks int
    log        zerolog.Logger
}

func NewAggregator(store Store, trendWeeks int, log zerolog.Logger) *Aggregator {
    if trendWeeks < 1 { trendWeeks = 12 }
    return &Aggregator{store: store, trendWeeks: trendWeeks, log: log}
}

// avg1 rounds to one decimal, ties to even, so 0.25 -> 0.2 and 0.35 -> 0.4.
func avg1(sum, n int) float64 {
    if n == 0 { return 0 }
    return math.RoundToEven(float64(sum)/float64(n)*10) / 10
}

// BuildBundle assembles the full report for one week, creating an empty
// record when none exists yet. Creation sets only the natural key; it
// never backfills stats.
func (a *Aggregator) BuildBundle(ctx context.Context, p domain.WeekPeriod) (*Bundle, error) {
    wl, err := a.store.GetOrCreateWeekLog(ctx, p, "report")
    if err != nil { return nil, err }

    b := &Bundle{Log: wl}

    if b.Items, err = a.store.ListPriorityItems(ctx, wl.ID); err != nil { return nil, err }
    if b.Absences, err = a.store.ListAbsences(ctx, wl.ID); err != nil { return nil, err }
    if b.Incidents, err = a.store.ListIncidents(ctx, wl.ID); err != nil { return nil, err }
    if b.OnCall, err = a.store.OnCallFor(ctx, p); err != nil { return nil, err }

    if b.Trend, err = a.store.TrendSeries(ctx, p, a.trendWeeks); err != nil { return nil, err }
    if len(b.Trend) >= 2 {
        var created, closed int
        for _, tp := range b.Trend {
            created += tp.Created
            closed += tp.Closed
        }
        b.AvgCreated = avg1(created, len(b.Trend))
        b.AvgClosed = avg1(closed, len(b.Trend))
        b.HasAverages = true
    }

    a.log.Debug().
        Int("year", p.Year).Int("week", p.Week).
        Int("items", len(b.Items)).Int("absences", len(b.Absences)).
        Int("incidents", len(b.Incidents)).Int("trend_points", len(b.Trend)).
        Msg("report bundle assembled")
    return b, nil
}
