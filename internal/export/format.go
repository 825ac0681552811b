/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package export

import (
    "fmt"
    "strconv"
    "strings"

    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/Reventlow/fynbus-chronicle/internal/report"
    "github.com/rs/zerolog"
)

// Format is one of the supported export formats.
type Format string

const (
    FormatMarkdown Format = "markdown"
    FormatHTML     Format = "html"
    FormatPDF      Format = "pdf"
)

// ParseFormat accepts the canonical names plus the common "md" alias.
func ParseFormat(s string) (Format, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "markdown", "md":
        return FormatMarkdown, nil
    case "html":
        return FormatHTML, nil
    case "pdf":
        return FormatPDF, nil
    }
    return "", fmt.Errorf("unknown export format %q", s)
}

// Document is one rendered export.
type Document struct {
    Filename string
    MIME     string
    Content  []byte
}

// Numeric formatting is shared by every format so the same bundle yields
// the same digit strings in Markdown, HTML and PDF.

func formatInt(n int) string { return strconv.Itoa(n) }

// formatDelta renders the net change with an explicit sign for gains.
func formatDelta(n int) string {
    if n > 0 { return "+" + strconv.Itoa(n) }
    return strconv.Itoa(n)
}

// formatAvg always shows one decimal, matching the aggregator's rounding.
func formatAvg(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

const dateLayout = "2006-01-02"

var priorityLabels = map[domain.Priority]string{
    domain.PriorityHigh:   "High",
    domain.PriorityMedium: "Medium",
    domain.PriorityLow:    "Low",
}

var statusLabels = map[domain.ItemStatus]string{
    domain.StatusNotStarted: "Not started",
    domain.StatusOngoing:    "Ongoing",
    domain.StatusBlocked:    "Blocked",
    domain.StatusCompleted:  "Completed",
}

var absenceLabels = map[domain.AbsenceType]string{
    domain.AbsenceVacation: "Vacation",
    domain.AbsenceSick:     "Sick leave",
    domain.AbsenceCourse:   "Course",
    domain.AbsenceMeeting:  "Meeting",
    domain.AbsenceFlex:     "Flex time",
    domain.AbsenceWFH:      "Working from home",
    domain.AbsenceOther:    "Other",
}

var severityLabels = map[domain.Severity]string{
    domain.SeverityCritical: "Critical",
    domain.SeverityHigh:     "High",
    domain.SeverityMedium:   "Medium",
    domain.SeverityLow:      "Low",
}

var incidentTypeLabels = map[domain.IncidentType]string{
    domain.IncidentSecurity: "Security",
    domain.IncidentSystem:   "System",
    domain.IncidentNetwork:  "Network",
    domain.IncidentData:     "Data",
    domain.IncidentOther:    "Other",
}

func label[K comparable](m map[K]string, k K) string {
    if v, ok := m[k]; ok { return v }
    return fmt.Sprintf("%v", k)
}

// Exporter renders report bundles into the supported formats.
type Exporter struct {
    log zerolog.Logger
}

func NewExporter(log zerolog.Logger) *Exporter { return &Exporter{log: log} }

func extension(f Format) string {
    if f == FormatMarkdown { return "md" }
    return string(f)
}

func filename(p domain.WeekPeriod, f Format) string {
    return fmt.Sprintf("weeklog_%d_week%d.%s", p.Year, p.Week, extension(f))
}

// Export renders one bundle in one format. Failures come back as a
// RenderError naming the format; no format ever degrades to an empty
// document.
func (e *Exporter) Export(b *report.Bundle, f Format) (Document, error) {
    var (
        content []byte
        mime    string
        err     error
    )
    switch f {
    case FormatMarkdown:
        content, err = renderMarkdown(b)
        mime = "text/markdown; charset=utf-8"
    case FormatHTML:
        content, err = renderHTML(b)
        mime = "text/html; charset=utf-8"
    case FormatPDF:
        content, err = renderPDF(b)
        mime = "application/pdf"
    default:
        err = fmt.Errorf("unknown export format %q", f)
    }
    if err != nil {
        e.log.Error().Err(err).Str("format", string(f)).
            Int("year", b.Log.Period.Year).Int("week", b.Log.Period.Week).
            Msg("export render failed")
        return Document{}, &domain.RenderError{Format: string(f), Err: err}
    }
    return Document{Filename: filename(b.Log.Period, f), MIME: mime, Content: content}, nil
}
