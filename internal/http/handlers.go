/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"

    "github.com/gin-gonic/gin"
    "github.com/jackc/pgx/v5"

    "github.com/Reventlow/fynbus-chronicle/internal/adapters/servicedesk"
    "github.com/Reventlow/fynbus-chronicle/internal/config"
    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/Reventlow/fynbus-chronicle/internal/export"
    "github.com/Reventlow/fynbus-chronicle/internal/notify"
    "github.com/Reventlow/fynbus-chronicle/internal/repo"
    "github.com/rs/zerolog"
)

type service interface {
    SyncWeek(ctx context.Context, p domain.WeekPeriod) (servicedesk.SyncResult, error)
    SyncCurrentWeek(ctx context.Context) (servicedesk.SyncResult, error)
    Export(ctx context.Context, p domain.WeekPeriod, f export.Format) (export.Document, error)
    SendReport(ctx context.Context, p domain.WeekPeriod, mode notify.Mode) (bool, string, error)
    LastSync(ctx context.Context) (*repo.LastSync, error)
    SyncEnabled() bool
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true, "sync_enabled": h.svc.SyncEnabled()})
}

func weekParam(c *gin.Context) (domain.WeekPeriod, error) {
    year, err := strconv.Atoi(c.Param("year"))
    if err != nil { return domain.WeekPeriod{}, fmt.Errorf("bad year: %w", err) }
    week, err := strconv.Atoi(c.Param("week"))
    if err != nil { return domain.WeekPeriod{}, fmt.Errorf("bad week: %w", err) }
    return domain.WeekPeriod{Year: year, Week: week}, nil
}

// fail maps domain errors onto status codes: invalid weeks are the
// caller's fault, missing weeks are 404, the rest is on us.
func fail(c *gin.Context, err error) {
    var iw *domain.InvalidWeekError
    switch {
    case errors.As(err, &iw):
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    case errors.Is(err, pgx.ErrNoRows):
        c.JSON(http.StatusNotFound, gin.H{"error": "no weeklog for that week"})
    default:
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
    }
}

// SyncNow syncs the current week, or an explicit one when both year and
// week query parameters are present. Synchronous: callers want the
// counters to be in place before they export.
func (h *Handlers) SyncNow(c *gin.Context) {
    var (
        res servicedesk.SyncResult
        err error
    )
    if c.Query("year") != "" || c.Query("week") != "" {
        year, yerr := strconv.Atoi(c.Query("year"))
        week, werr := strconv.Atoi(c.Query("week"))
        if yerr != nil || werr != nil {
            c.JSON(http.StatusBadRequest, gin.H{"error": "year and week must both be integers"})
            return
        }
        res, err = h.svc.SyncWeek(c.Request.Context(), domain.WeekPeriod{Year: year, Week: week})
    } else {
        res, err = h.svc.SyncCurrentWeek(c.Request.Context())
    }
    if err != nil { fail(c, err); return }
    if res.Disabled {
        c.JSON(http.StatusOK, gin.H{"synced": false, "reason": "sync disabled"})
        return
    }
    c.JSON(http.StatusOK, gin.H{
        "synced":  true,
        "created": res.Stats.Created, "closed": res.Stats.Closed, "open": res.Stats.Open,
        "created_ok": res.CreatedOK, "closed_ok": res.ClosedOK, "open_ok": res.OpenOK,
    })
}

func (h *Handlers) LastSync(c *gin.Context) {
    ls, err := h.svc.LastSync(c.Request.Context())
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            c.JSON(http.StatusOK, gin.H{"last_sync": nil})
            return
        }
        fail(c, err)
        return
    }
    c.JSON(http.StatusOK, ls)
}

// ExportReport streams one rendered report as a download.
func (h *Handlers) ExportReport(c *gin.Context) {
    p, err := weekParam(c)
    if err != nil { c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()}); return }
    f, err := export.ParseFormat(c.DefaultQuery("format", "markdown"))
    if err != nil { c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()}); return }

    doc, err := h.svc.Export(c.Request.Context(), p, f)
    if err != nil { fail(c, err); return }

    c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
    c.Data(http.StatusOK, doc.MIME, doc.Content)
}

// SendReport emails one report. The dispatcher never errors on delivery
// problems; those surface as ok=false with a reason.
func (h *Handlers) SendReport(c *gin.Context) {
    p, err := weekParam(c)
    if err != nil { c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()}); return }
    mode, err := notify.ParseMode(c.Query("format"))
    if err != nil { c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()}); return }

    ok, msg, err := h.svc.SendReport(c.Request.Context(), p, mode)
    if err != nil { fail(c, err); return }
    status := http.StatusOK
    if !ok { status = http.StatusBadGateway }
    c.JSON(status, gin.H{"sent": ok, "message": msg})
}
