/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package notify

import (
    "context"
    "fmt"

    "github.com/Reventlow/fynbus-chronicle/internal/adapters/graph"
    "github.com/Reventlow/fynbus-chronicle/internal/config"
    "github.com/Reventlow/fynbus-chronicle/internal/export"
    "github.com/Reventlow/fynbus-chronicle/internal/report"
    "github.com/rs/zerolog"
)

// Transport delivers a built message. Satisfied by the graph client.
type Transport interface {
    SendMail(ctx context.Context, msg graph.Message) error
}

// Dispatcher emails rendered weekly reports. Send never returns an
// error: delivery problems come back as (false, reason) so report
// generation flows are not broken by a mail outage.
type Dispatcher struct {
    transport  Transport
    exporter   *export.Exporter
    recipients []string
    from       string
    log        zerolog.Logger
}

func NewDispatcher(t Transport, e *export.Exporter, cfg config.Config, log zerolog.Logger) *Dispatcher {
    return &Dispatcher{
        transport:  t,
        exporter:   e,
        recipients: cfg.EmailRecipients,
        from:       cfg.DefaultFrom,
        log:        log,
    }
}

// Mode selects what the email carries.
type Mode string

const (
    ModeHTML Mode = "html" // report as the message body
    ModePDF  Mode = "pdf"  // plain body, report attached
    ModeBoth Mode = "both" // HTML body plus the PDF attachment
)

func ParseMode(s string) (Mode, error) {
    switch Mode(s) {
    case ModeHTML, ModePDF, ModeBoth:
        return Mode(s), nil
    case "":
        return ModeBoth, nil
    }
    return "", fmt.Errorf("unknown send mode %q", s)
}

// Send renders and emails the bundle. The string is a human-readable
// outcome either way.
func (d *Dispatcher) Send(ctx context.Context, b *report.Bundle, mode Mode) (bool, string) {
    if d.transport == nil {
        return false, "email transport is not configured"
    }
    if len(d.recipients) == 0 {
        return false, "no recipients configured"
    }

    p := b.Log.Period
    msg := graph.Message{
        From:    d.from,
        To:      d.recipients,
        Subject: fmt.Sprintf("Weekly report — week %d, %d", p.Week, p.Year),
    }

    if mode == ModeHTML || mode == ModeBoth {
        doc, err := d.exporter.Export(b, export.FormatHTML)
        if err != nil {
            d.log.Error().Err(err).Msg("report html render failed")
            return false, fmt.Sprintf("could not render report: %v", err)
        }
        msg.Body = string(doc.Content)
        msg.HTML = true
    } else {
        msg.Body = fmt.Sprintf("The weekly report for week %d, %d is attached.", p.Week, p.Year)
    }

    if mode == ModePDF || mode == ModeBoth {
        doc, err := d.exporter.Export(b, export.FormatPDF)
        if err != nil {
            d.log.Error().Err(err).Msg("report pdf render failed")
            return false, fmt.Sprintf("could not render report: %v", err)
        }
        msg.Attachments = append(msg.Attachments, graph.Attachment{
            Filename: doc.Filename,
            Content:  doc.Content,
            MimeType: doc.MIME,
        })
    }

    if err := d.transport.SendMail(ctx, msg); err != nil {
        d.log.Error().Err(err).Int("year", p.Year).Int("week", p.Week).Msg("report email failed")
        return false, fmt.Sprintf("delivery failed: %v", err)
    }

    d.log.Info().Int("year", p.Year).Int("week", p.Week).
        Int("recipients", len(d.recipients)).Str("mode", string(mode)).
        Msg("weekly report emailed")
    return true, fmt.Sprintf("report for %s sent to %d recipient(s)", p, len(d.recipients))
}
