package jobs

import (
    "context"
    "time"

    "github.com/Reventlow/fynbus-chronicle/internal/adapters/servicedesk"
    "github.com/Reventlow/fynbus-chronicle/internal/config"
    "github.com/Reventlow/fynbus-chronicle/internal/repo"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

type service interface {
    SyncCurrentWeek(ctx context.Context) (servicedesk.SyncResult, error)
    SyncEnabled() bool
}

type Cron struct {
    cfg  config.Config
    log  zerolog.Logger
    svc  service
    repo *repo.Repository
    c    *cron.Cron
}

// NewCron schedules the periodic ticket sync for the current week. The
// schedule comes from SERVICEDESK_SYNC_INTERVAL; nothing is registered
// when sync is disabled.
func NewCron(cfg config.Config, log zerolog.Logger, svc service, r *repo.Repository) *Cron {
    loc, _ := time.LoadLocation(cfg.TZ)
    c := cron.New(cron.WithLocation(loc))
    cr := &Cron{cfg: cfg, log: log, svc: svc, repo: r, c: c}
    if svc.SyncEnabled() {
        _, _ = c.AddFunc("@every "+cfg.SyncInterval.String(), cr.sync)
    } else {
        log.Info().Msg("cron: ticket sync disabled, no job scheduled")
    }
    return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

// sync runs one sync pass under an advisory lock so multiple instances
// sharing the database never sync the same week concurrently.
func (cr *Cron) sync() {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute); defer cancel()
    const lockKey int64 = 240107
    ok, err := cr.repo.TryAdvisoryLock(ctx, lockKey)
    if err != nil { cr.log.Error().Err(err).Msg("cron: lock error"); return }
    if !ok { cr.log.Info().Msg("cron: sync already running elsewhere"); return }
    defer func() { _ = cr.repo.AdvisoryUnlock(context.Background(), lockKey) }()

    if _, err := cr.svc.SyncCurrentWeek(ctx); err != nil {
        cr.log.Error().Err(err).Msg("cron: week sync failed")
    }
}
