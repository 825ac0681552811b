/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "time"

    "github.com/Reventlow/fynbus-chronicle/internal/adapters/servicedesk"
    "github.com/Reventlow/fynbus-chronicle/internal/config"
    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/Reventlow/fynbus-chronicle/internal/export"
    "github.com/Reventlow/fynbus-chronicle/internal/notify"
    "github.com/Reventlow/fynbus-chronicle/internal/report"
    "github.com/Reventlow/fynbus-chronicle/internal/repo"
    "github.com/Reventlow/fynbus-chronicle/internal/week"
    "github.com/rs/zerolog"
)

// TicketSource fetches the weekly counters from the helpdesk.
type TicketSource interface {
    GetWeekStats(ctx context.Context, p domain.WeekPeriod) (servicedesk.SyncResult, error)
    Enabled() bool
}

type Service struct {
    cfg        config.Config
    log        zerolog.Logger
    repo       *repo.Repository
    tickets    TicketSource
    aggregator *report.Aggregator
    exporter   *export.Exporter
    dispatcher *notify.Dispatcher
}

func New(cfg config.Config, log zerolog.Logger, r *repo.Repository, tickets TicketSource,
    agg *report.Aggregator, exp *export.Exporter, disp *notify.Dispatcher) *Service {
    return &Service{cfg: cfg, log: log, repo: r, tickets: tickets,
        aggregator: agg, exporter: exp, dispatcher: disp}
}

// SyncWeek pulls the ticket counters for one week and stores them on the
// weeklog, creating the record if needed. Only the three counters are
// written; narrative fields survive untouched. Every attempt is recorded
// in sync_runs so a stored zero can be told apart from a failed query.
func (s *Service) SyncWeek(ctx context.Context, p domain.WeekPeriod) (servicedesk.SyncResult, error) {
    if err := week.Validate(p); err != nil { return servicedesk.SyncResult{}, err }

    res, err := s.tickets.GetWeekStats(ctx, p)
    if err != nil { return servicedesk.SyncResult{}, err }
    if res.Disabled {
        s.log.Info().Msg("sync: ticket source disabled, nothing stored")
        return res, nil
    }

    runID, err := s.repo.StartSyncRun(ctx, p)
    if err != nil { return res, err }

    wl, err := s.repo.GetOrCreateWeekLog(ctx, p, "sync")
    if err == nil {
        err = s.repo.UpdateTicketStats(ctx, wl.ID, res.Stats)
    }
    errStr := ""
    if err != nil { errStr = err.Error() }
    success := err == nil && res.CreatedOK && res.ClosedOK && res.OpenOK
    if ferr := s.repo.FinishSyncRun(ctx, runID, res.CreatedOK, res.ClosedOK, res.OpenOK, success, errStr); ferr != nil {
        s.log.Error().Err(ferr).Msg("sync: could not record run outcome")
    }
    if err != nil { return res, err }

    s.log.Info().Int("year", p.Year).Int("week", p.Week).
        Int("created", res.Stats.Created).Int("closed", res.Stats.Closed).Int("open", res.Stats.Open).
        Bool("complete", success).Msg("week stats synced")
    return res, nil
}

// SyncCurrentWeek syncs the ISO week containing now, in UTC.
func (s *Service) SyncCurrentWeek(ctx context.Context) (servicedesk.SyncResult, error) {
    return s.SyncWeek(ctx, week.Current(time.Now()))
}

// Export renders the report for one week in the requested format.
func (s *Service) Export(ctx context.Context, p domain.WeekPeriod, f export.Format) (export.Document, error) {
    if err := week.Validate(p); err != nil { return export.Document{}, err }
    b, err := s.aggregator.BuildBundle(ctx, p)
    if err != nil { return export.Document{}, err }
    return s.exporter.Export(b, f)
}

// SendReport emails the report for one week. Delivery problems are
// reported in the (ok, message) pair, not as an error; the error return
// covers invalid input and aggregation failure only.
func (s *Service) SendReport(ctx context.Context, p domain.WeekPeriod, mode notify.Mode) (bool, string, error) {
    if err := week.Validate(p); err != nil { return false, "", err }
    b, err := s.aggregator.BuildBundle(ctx, p)
    if err != nil { return false, "", err }
    ok, msg := s.dispatcher.Send(ctx, b, mode)
    return ok, msg, nil
}

func (s *Service) LastSync(ctx context.Context) (*repo.LastSync, error) {
    return s.repo.GetLastSync(ctx)
}

func (s *Service) SyncEnabled() bool { return s.tickets.Enabled() }
