/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/Reventlow/fynbus-chronicle/internal/adapters/graph"
    "github.com/Reventlow/fynbus-chronicle/internal/adapters/servicedesk"
    "github.com/Reventlow/fynbus-chronicle/internal/config"
    "github.com/Reventlow/fynbus-chronicle/internal/export"
    httpx "github.com/Reventlow/fynbus-chronicle/internal/http"
    "github.com/Reventlow/fynbus-chronicle/internal/jobs"
    "github.com/Reventlow/fynbus-chronicle/internal/logger"
    "github.com/Reventlow/fynbus-chronicle/internal/notify"
    "github.com/Reventlow/fynbus-chronicle/internal/report"
    "github.com/Reventlow/fynbus-chronicle/internal/repo"
    "github.com/Reventlow/fynbus-chronicle/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()
    repository := repo.NewRepository(db, log)
    if err := repository.EnsureSchema(ctx); err != nil {
        log.Fatal().Err(err).Msg("schema setup failed")
    }

    // Adapters
    sd := servicedesk.NewClient(cfg, log)
    var mail notify.Transport
    if gc, err := graph.NewClient(cfg, log); err != nil {
        log.Warn().Err(err).Msg("graph mail disabled")
    } else {
        mail = gc
    }

    // Services
    exporter := export.NewExporter(log)
    aggregator := report.NewAggregator(repository, cfg.TrendWeeks, log)
    dispatcher := notify.NewDispatcher(mail, exporter, cfg, log)
    svc := services.New(cfg, log, repository, sd, aggregator, exporter, dispatcher)

    // HTTP server (Gin)
    router := httpx.NewRouter(cfg, log, svc)

    // Cron
    cr := jobs.NewCron(cfg, log, svc, repository)
    cr.Start()
    defer cr.Stop()

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}
