package export

import (
    "bytes"
    "fmt"

    "github.com/Reventlow/fynbus-chronicle/internal/report"
    "github.com/go-pdf/fpdf"
)

// renderPDF produces the print export. Same section order and the same
// formatted numbers as the Markdown and HTML renderers.
func renderPDF(b *report.Bundle) ([]byte, error) {
    pdf := fpdf.New("P", "mm", "A4", "")
    pdf.SetMargins(18, 16, 18)
    pdf.SetAutoPageBreak(true, 18)
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.AddPage()

    heading := func(s string) {
        pdf.SetFont("Helvetica", "B", 13)
        pdf.SetTextColor(31, 119, 180)
        pdf.CellFormat(0, 9, tr(s), "", 1, "L", false, 0, "")
        pdf.SetTextColor(26, 26, 26)
        pdf.Ln(1)
    }
    body := func(s string) {
        pdf.SetFont("Helvetica", "", 10)
        pdf.MultiCell(0, 5, tr(s), "", "L", false)
    }
    bullet := func(s string) {
        pdf.SetFont("Helvetica", "", 10)
        pdf.MultiCell(0, 5, tr("- "+s), "", "L", false)
    }

    pdf.SetFont("Helvetica", "B", 17)
    pdf.CellFormat(0, 11, tr(fmt.Sprintf("Weekly report — week %d, %d", b.Log.Period.Week, b.Log.Period.Year)), "", 1, "L", false, 0, "")
    pdf.Ln(3)

    heading("Ticket statistics")
    bullet("Created: " + formatInt(b.Log.Stats.Created))
    bullet("Closed: " + formatInt(b.Log.Stats.Closed))
    bullet("Net change: " + formatDelta(b.Log.Stats.Delta()))
    bullet("Open at sync: " + formatInt(b.Log.Stats.Open))
    if b.HasAverages {
        n := formatInt(len(b.Trend))
        bullet(fmt.Sprintf("Average created (last %s weeks): %s", n, formatAvg(b.AvgCreated)))
        bullet(fmt.Sprintf("Average closed (last %s weeks): %s", n, formatAvg(b.AvgClosed)))
    }
    pdf.Ln(3)

    openChart, err := report.RenderOpenTrend(b.Trend)
    if err != nil { return nil, fmt.Errorf("open trend chart: %w", err) }
    flowChart, err := report.RenderFlowComparison(b.Trend)
    if err != nil { return nil, fmt.Errorf("flow chart: %w", err) }
    opt := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
    if openChart != nil {
        pdf.RegisterImageOptionsReader("open_trend", opt, bytes.NewReader(openChart))
        pdf.ImageOptions("open_trend", 18, -1, 174, 0, true, opt, 0, "")
        pdf.Ln(3)
    }
    if flowChart != nil {
        pdf.RegisterImageOptionsReader("flow_comparison", opt, bytes.NewReader(flowChart))
        pdf.ImageOptions("flow_comparison", 18, -1, 174, 0, true, opt, 0, "")
        pdf.Ln(3)
    }

    heading("Priorities")
    if len(b.Items) == 0 {
        body("No priority items recorded.")
    } else {
        for _, it := range b.Items {
            line := fmt.Sprintf("%s (%s, %s)", it.Title,
                label(priorityLabels, it.Priority), label(statusLabels, it.Status))
            if it.Notes != "" { line += " — " + it.Notes }
            bullet(line)
        }
    }
    pdf.Ln(3)

    heading("Absences")
    if len(b.Absences) == 0 {
        body("No absences recorded.")
    } else {
        for _, a := range b.Absences {
            bullet(fmt.Sprintf("%s: %s, %s to %s (%s days)", a.StaffName,
                label(absenceLabels, a.Type),
                a.StartDate.Format(dateLayout), a.EndDate.Format(dateLayout),
                formatInt(a.DurationDays())))
        }
    }
    pdf.Ln(3)

    heading("Incidents")
    if len(b.Incidents) == 0 {
        body("No incidents recorded.")
    } else {
        for _, in := range b.Incidents {
            state := "open"
            if in.Resolved { state = "resolved" }
            pdf.SetFont("Helvetica", "B", 10)
            pdf.MultiCell(0, 5, tr(in.Title), "", "L", false)
            body(fmt.Sprintf("%s, %s, occurred %s, %s",
                label(incidentTypeLabels, in.Type), label(severityLabels, in.Severity),
                in.OccurredAt.Format(dateLayout), state))
            if in.Description != "" { body(in.Description) }
            if in.Resolution != "" { body("Resolution: " + in.Resolution) }
            pdf.Ln(2)
        }
    }
    pdf.Ln(3)

    heading("On-call")
    if b.OnCall == nil {
        body("No on-call duty assigned.")
    } else {
        line := b.OnCall.StaffName
        if b.OnCall.Notes != "" { line += " — " + b.OnCall.Notes }
        body(line)
    }
    pdf.Ln(3)

    heading("Weekly meeting")
    if b.Log.MeetingSkipped {
        reason := b.Log.MeetingSkippedReason
        if reason == "" { reason = "no reason given" }
        body("Meeting skipped: " + reason)
    } else {
        wrote := false
        if b.Log.MeetingAttendees != "" {
            body("Attendees: " + b.Log.MeetingAttendees)
            wrote = true
        }
        if b.Log.MeetingMinutes != "" {
            body(b.Log.MeetingMinutes)
            wrote = true
        }
        if !wrote { body("No meeting record.") }
    }

    if b.Log.Summary != "" {
        pdf.Ln(3)
        heading("Summary")
        body(b.Log.Summary)
    }

    var buf bytes.Buffer
    if err := pdf.Output(&buf); err != nil { return nil, err }
    return buf.Bytes(), nil
}
