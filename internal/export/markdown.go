package export

import (
    "fmt"
    "strings"

    "github.com/Reventlow/fynbus-chronicle/internal/report"
)

// renderMarkdown produces the plain-text export. Sections follow the
// weekly meeting agenda: stats, priorities, absences, incidents,
// on-call, meeting record, summary.
func renderMarkdown(b *report.Bundle) ([]byte, error) {
    var w strings.Builder
    p := b.Log.Period

    fmt.Fprintf(&w, "# Weekly report — week %d, %d\n\n", p.Week, p.Year)

    w.WriteString("## Ticket statistics\n\n")
    fmt.Fprintf(&w, "- Created: %s\n", formatInt(b.Log.Stats.Created))
    fmt.Fprintf(&w, "- Closed: %s\n", formatInt(b.Log.Stats.Closed))
    fmt.Fprintf(&w, "- Net change: %s\n", formatDelta(b.Log.Stats.Delta()))
    fmt.Fprintf(&w, "- Open at sync: %s\n", formatInt(b.Log.Stats.Open))
    if b.HasAverages {
        fmt.Fprintf(&w, "- Average created (last %s weeks): %s\n", formatInt(len(b.Trend)), formatAvg(b.AvgCreated))
        fmt.Fprintf(&w, "- Average closed (last %s weeks): %s\n", formatInt(len(b.Trend)), formatAvg(b.AvgClosed))
    }
    w.WriteString("\n")

    w.WriteString("## Priorities\n\n")
    if len(b.Items) == 0 {
        w.WriteString("No priority items recorded.\n\n")
    } else {
        w.WriteString("| Title | Priority | Status | Notes |\n")
        w.WriteString("|---|---|---|---|\n")
        for _, it := range b.Items {
            fmt.Fprintf(&w, "| %s | %s | %s | %s |\n",
                mdCell(it.Title), label(priorityLabels, it.Priority),
                label(statusLabels, it.Status), mdCell(it.Notes))
        }
        w.WriteString("\n")
    }

    w.WriteString("## Absences\n\n")
    if len(b.Absences) == 0 {
        w.WriteString("No absences recorded.\n\n")
    } else {
        for _, a := range b.Absences {
            fmt.Fprintf(&w, "- %s: %s, %s to %s (%s days)\n",
                mdCell(a.StaffName), label(absenceLabels, a.Type),
                a.StartDate.Format(dateLayout), a.EndDate.Format(dateLayout),
                formatInt(a.DurationDays()))
        }
        w.WriteString("\n")
    }

    w.WriteString("## Incidents\n\n")
    if len(b.Incidents) == 0 {
        w.WriteString("No incidents recorded.\n\n")
    } else {
        for _, in := range b.Incidents {
            state := "open"
            if in.Resolved { state = "resolved" }
            fmt.Fprintf(&w, "### %s\n\n", mdCell(in.Title))
            fmt.Fprintf(&w, "- Type: %s\n", label(incidentTypeLabels, in.Type))
            fmt.Fprintf(&w, "- Severity: %s\n", label(severityLabels, in.Severity))
            fmt.Fprintf(&w, "- Occurred: %s\n", in.OccurredAt.Format(dateLayout))
            fmt.Fprintf(&w, "- Status: %s\n", state)
            if in.Description != "" { fmt.Fprintf(&w, "\n%s\n", in.Description) }
            if in.Resolution != "" { fmt.Fprintf(&w, "\nResolution: %s\n", in.Resolution) }
            w.WriteString("\n")
        }
    }

    w.WriteString("## On-call\n\n")
    if b.OnCall == nil {
        w.WriteString("No on-call duty assigned.\n\n")
    } else {
        fmt.Fprintf(&w, "%s", mdCell(b.OnCall.StaffName))
        if b.OnCall.Notes != "" { fmt.Fprintf(&w, " — %s", mdCell(b.OnCall.Notes)) }
        w.WriteString("\n\n")
    }

    w.WriteString("## Weekly meeting\n\n")
    if b.Log.MeetingSkipped {
        reason := b.Log.MeetingSkippedReason
        if reason == "" { reason = "no reason given" }
        fmt.Fprintf(&w, "Meeting skipped: %s\n\n", reason)
    } else {
        if b.Log.MeetingAttendees != "" { fmt.Fprintf(&w, "Attendees: %s\n\n", b.Log.MeetingAttendees) }
        if b.Log.MeetingMinutes != "" {
            w.WriteString(b.Log.MeetingMinutes)
            w.WriteString("\n\n")
        }
        if b.Log.MeetingAttendees == "" && b.Log.MeetingMinutes == "" {
            w.WriteString("No meeting record.\n\n")
        }
    }

    if b.Log.Summary != "" {
        w.WriteString("## Summary\n\n")
        w.WriteString(b.Log.Summary)
        w.WriteString("\n\n")
    }

    w.WriteString("---\n")
    fmt.Fprintf(&w, "FynBus IT-drift — weekly operational record, week %d of %d\n", p.Week, p.Year)

    return []byte(w.String()), nil
}

// mdCell keeps user text from breaking table rows.
func mdCell(s string) string {
    s = strings.ReplaceAll(s, "|", "\\|")
    return strings.ReplaceAll(s, "\n", " ")
}
