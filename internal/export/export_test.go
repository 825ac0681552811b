package export

import (
    "bytes"
    "errors"
    "strings"
    "testing"
    "time"

    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/Reventlow/fynbus-chronicle/internal/report"
    "github.com/rs/zerolog"
)

func bundleFixture() *report.Bundle {
    p := domain.WeekPeriod{Year: 2026, Week: 3}
    return &report.Bundle{
        Log: domain.WeekLog{
            ID:     1,
            Period: p,
            Stats:  domain.TicketStats{Created: 14, Closed: 8, Open: 23},
            Summary: "Quiet week overall.",
            MeetingAttendees: "Kim, Lars, Mette",
            MeetingMinutes:   "Discussed the printer queue backlog.",
        },
        Items: []domain.PriorityItem{
            {Title: "Server room tidy-up", Priority: domain.PriorityHigh, Status: domain.StatusOngoing, Notes: "Racks 3 and 4 left"},
        },
        Absences: []domain.Absence{
            {StaffName: "Søren", Type: domain.AbsenceVacation,
                StartDate: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
                EndDate:   time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)},
        },
        Incidents: []domain.Incident{
            {Title: "Mail outage", Type: domain.IncidentSystem, Severity: domain.SeverityHigh,
                OccurredAt: time.Date(2026, 1, 13, 9, 0, 0, 0, time.UTC), Resolved: true,
                Resolution: "Restarted the transport service."},
        },
        OnCall: &domain.OnCallDuty{Period: p, StaffName: "Lars"},
        Trend: []domain.TrendPoint{
            {Period: domain.WeekPeriod{Year: 2026, Week: 1}, Created: 4, Closed: 3, Open: 20},
            {Period: domain.WeekPeriod{Year: 2026, Week: 2}, Created: 6, Closed: 5, Open: 22},
            {Period: p, Created: 14, Closed: 8, Open: 23},
        },
        AvgCreated:  8.0,
        AvgClosed:   5.3,
        HasAverages: true,
    }
}

// The digit strings every format must carry for the fixture above.
var fixtureNumbers = []string{
    "Created: 14",
    "Closed: 8",
    "Net change: +6",
    "Open at sync: 23",
    "Average created (last 3 weeks): 8.0",
    "Average closed (last 3 weeks): 5.3",
}

func TestMarkdownAndHTMLAgreeOnNumbers(t *testing.T) {
    e := NewExporter(zerolog.Nop())
    b := bundleFixture()

    md, err := e.Export(b, FormatMarkdown)
    if err != nil { t.Fatalf("markdown: %v", err) }
    html, err := e.Export(b, FormatHTML)
    if err != nil { t.Fatalf("html: %v", err) }

    for _, want := range fixtureNumbers {
        if !strings.Contains(string(md.Content), want) {
            t.Errorf("markdown missing %q", want)
        }
        if !strings.Contains(string(html.Content), want) {
            t.Errorf("html missing %q", want)
        }
    }
}

func TestExportFilenames(t *testing.T) {
    e := NewExporter(zerolog.Nop())
    b := bundleFixture()
    cases := map[Format]string{
        FormatMarkdown: "weeklog_2026_week3.md",
        FormatHTML:     "weeklog_2026_week3.html",
        FormatPDF:      "weeklog_2026_week3.pdf",
    }
    for f, want := range cases {
        doc, err := e.Export(b, f)
        if err != nil { t.Fatalf("%s: %v", f, err) }
        if doc.Filename != want { t.Errorf("%s filename = %q, want %q", f, doc.Filename, want) }
        if len(doc.Content) == 0 { t.Errorf("%s content is empty", f) }
    }
}

func TestPDFHasMagicAndMIME(t *testing.T) {
    e := NewExporter(zerolog.Nop())
    doc, err := e.Export(bundleFixture(), FormatPDF)
    if err != nil { t.Fatalf("pdf: %v", err) }
    if !bytes.HasPrefix(doc.Content, []byte("%PDF")) { t.Error("output is not a PDF") }
    if doc.MIME != "application/pdf" { t.Errorf("mime = %q", doc.MIME) }
}

func TestExportUnknownFormatIsRenderError(t *testing.T) {
    e := NewExporter(zerolog.Nop())
    _, err := e.Export(bundleFixture(), Format("docx"))
    if err == nil { t.Fatal("expected error") }
    var re *domain.RenderError
    if !errors.As(err, &re) { t.Fatalf("error %T is not a RenderError", err) }
    if re.Format != "docx" { t.Errorf("format = %q", re.Format) }
}

func TestParseFormat(t *testing.T) {
    cases := map[string]Format{
        "markdown": FormatMarkdown,
        "md":       FormatMarkdown,
        "HTML":     FormatHTML,
        " pdf ":    FormatPDF,
    }
    for in, want := range cases {
        got, err := ParseFormat(in)
        if err != nil { t.Fatalf("ParseFormat(%q): %v", in, err) }
        if got != want { t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want) }
    }
    if _, err := ParseFormat("docx"); err == nil { t.Error("expected error for docx") }
}

func TestMarkdownSkippedMeeting(t *testing.T) {
    b := bundleFixture()
    b.Log.MeetingSkipped = true
    b.Log.MeetingSkippedReason = "Summer holiday"
    md, err := renderMarkdown(b)
    if err != nil { t.Fatalf("renderMarkdown: %v", err) }
    if !strings.Contains(string(md), "Meeting skipped: Summer holiday") {
        t.Error("skip reason missing from markdown")
    }
    if strings.Contains(string(md), "Attendees:") {
        t.Error("attendees rendered despite skipped meeting")
    }
}

func TestHTMLEscapesUserText(t *testing.T) {
    b := bundleFixture()
    b.Items[0].Title = `<script>alert("x")</script>`
    out, err := renderHTML(b)
    if err != nil { t.Fatalf("renderHTML: %v", err) }
    if strings.Contains(string(out), "<script>alert") {
        t.Error("item title not escaped")
    }
}

func TestHTMLEmbedsChartsOnlyWithTrend(t *testing.T) {
    b := bundleFixture()
    out, err := renderHTML(b)
    if err != nil { t.Fatalf("renderHTML: %v", err) }
    if !strings.Contains(string(out), "data:image/png;base64,") {
        t.Error("charts missing with 3 trend points")
    }

    b.Trend = b.Trend[:1]
    b.HasAverages = false
    out, err = renderHTML(b)
    if err != nil { t.Fatalf("renderHTML: %v", err) }
    if strings.Contains(string(out), "data:image/png;base64,") {
        t.Error("chart embedded for a single trend point")
    }
}
