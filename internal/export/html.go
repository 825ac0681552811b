package export

import (
    "bytes"
    "encoding/base64"
    "fmt"
    "html/template"

    "github.com/Reventlow/fynbus-chronicle/internal/report"
    "github.com/yuin/goldmark"
)

var htmlTmpl = template.Must(template.New("weeklog").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Weekly report — week {{.Week}}, {{.Year}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 54rem; color: #1a1a1a; }
h1 { border-bottom: 2px solid #1f77b4; padding-bottom: .3rem; }
h2 { margin-top: 2rem; color: #1f77b4; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: .4rem .6rem; text-align: left; }
th { background: #f0f4f8; }
.stats li { margin: .2rem 0; }
.muted { color: #777; }
.chart img { max-width: 100%; }
@media screen { body { background: #fafafa; } }
@media print { h2 { page-break-after: avoid; } .chart { page-break-inside: avoid; } }
</style>
</head>
<body>
<h1>Weekly report — week {{.Week}}, {{.Year}}</h1>

<h2>Ticket statistics</h2>
<ul class="stats">
<li>Created: {{.Created}}</li>
<li>Closed: {{.Closed}}</li>
<li>Net change: {{.Delta}}</li>
<li>Open at sync: {{.Open}}</li>
{{if .HasAverages}}<li>Average created (last {{.TrendLen}} weeks): {{.AvgCreated}}</li>
<li>Average closed (last {{.TrendLen}} weeks): {{.AvgClosed}}</li>{{end}}
</ul>

{{if .OpenChart}}<div class="chart"><img src="data:image/png;base64,{{.OpenChart}}" alt="Open tickets trend"></div>{{end}}
{{if .FlowChart}}<div class="chart"><img src="data:image/png;base64,{{.FlowChart}}" alt="Created vs closed"></div>{{end}}

<h2>Priorities</h2>
{{if .Items}}<table>
<tr><th>Title</th><th>Priority</th><th>Status</th><th>Notes</th></tr>
{{range .Items}}<tr><td>{{.Title}}</td><td>{{.Priority}}</td><td>{{.Status}}</td><td>{{.Notes}}</td></tr>
{{end}}</table>
{{else}}<p class="muted">No priority items recorded.</p>{{end}}

<h2>Absences</h2>
{{if .Absences}}<ul>
{{range .Absences}}<li>{{.Staff}}: {{.Kind}}, {{.Start}} to {{.End}} ({{.Days}} days)</li>
{{end}}</ul>
{{else}}<p class="muted">No absences recorded.</p>{{end}}

<h2>Incidents</h2>
{{if .Incidents}}{{range .Incidents}}<h3>{{.Title}}</h3>
<ul>
<li>Type: {{.Kind}}</li>
<li>Severity: {{.Severity}}</li>
<li>Occurred: {{.Occurred}}</li>
<li>Status: {{.State}}</li>
</ul>
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .Resolution}}<p>Resolution: {{.Resolution}}</p>{{end}}
{{end}}{{else}}<p class="muted">No incidents recorded.</p>{{end}}

<h2>On-call</h2>
{{if .OnCall}}<p>{{.OnCall}}{{if .OnCallNotes}} — {{.OnCallNotes}}{{end}}</p>
{{else}}<p class="muted">No on-call duty assigned.</p>{{end}}

<h2>Weekly meeting</h2>
{{if .MeetingSkipped}}<p>Meeting skipped: {{.SkipReason}}</p>
{{else}}{{if .Attendees}}<p>Attendees: {{.Attendees}}</p>{{end}}
{{if .Minutes}}{{.Minutes}}{{end}}
{{if .NoMeeting}}<p class="muted">No meeting record.</p>{{end}}{{end}}

{{if .Summary}}<h2>Summary</h2>
{{.Summary}}{{end}}
</body>
</html>
`))

type htmlItem struct{ Title, Priority, Status, Notes string }
type htmlAbsence struct{ Staff, Kind, Start, End, Days string }
type htmlIncident struct{ Title, Kind, Severity, Occurred, State, Description, Resolution string }

type htmlView struct {
    Year, Week int

    Created, Closed, Delta, Open string
    HasAverages                  bool
    TrendLen                     string
    AvgCreated, AvgClosed        string

    OpenChart, FlowChart string

    Items     []htmlItem
    Absences  []htmlAbsence
    Incidents []htmlIncident

    OnCall, OnCallNotes string

    MeetingSkipped bool
    SkipReason     string
    Attendees      string
    Minutes        template.HTML
    NoMeeting      bool

    Summary template.HTML
}

// markdownBody renders human-authored narrative text (summary, minutes)
// as HTML. An empty input yields empty output.
func markdownBody(src string) (template.HTML, error) {
    if src == "" { return "", nil }
    var buf bytes.Buffer
    if err := goldmark.Convert([]byte(src), &buf); err != nil { return "", err }
    return template.HTML(buf.String()), nil
}

func renderHTML(b *report.Bundle) ([]byte, error) {
    v := htmlView{
        Year:    b.Log.Period.Year,
        Week:    b.Log.Period.Week,
        Created: formatInt(b.Log.Stats.Created),
        Closed:  formatInt(b.Log.Stats.Closed),
        Delta:   formatDelta(b.Log.Stats.Delta()),
        Open:    formatInt(b.Log.Stats.Open),
    }
    if b.HasAverages {
        v.HasAverages = true
        v.TrendLen = formatInt(len(b.Trend))
        v.AvgCreated = formatAvg(b.AvgCreated)
        v.AvgClosed = formatAvg(b.AvgClosed)
    }

    open, err := report.RenderOpenTrend(b.Trend)
    if err != nil { return nil, fmt.Errorf("open trend chart: %w", err) }
    flow, err := report.RenderFlowComparison(b.Trend)
    if err != nil { return nil, fmt.Errorf("flow chart: %w", err) }
    if open != nil { v.OpenChart = base64.StdEncoding.EncodeToString(open) }
    if flow != nil { v.FlowChart = base64.StdEncoding.EncodeToString(flow) }

    for _, it := range b.Items {
        v.Items = append(v.Items, htmlItem{
            Title:    it.Title,
            Priority: label(priorityLabels, it.Priority),
            Status:   label(statusLabels, it.Status),
            Notes:    it.Notes,
        })
    }
    for _, a := range b.Absences {
        v.Absences = append(v.Absences, htmlAbsence{
            Staff: a.StaffName,
            Kind:  label(absenceLabels, a.Type),
            Start: a.StartDate.Format(dateLayout),
            End:   a.EndDate.Format(dateLayout),
            Days:  formatInt(a.DurationDays()),
        })
    }
    for _, in := range b.Incidents {
        state := "open"
        if in.Resolved { state = "resolved" }
        v.Incidents = append(v.Incidents, htmlIncident{
            Title:       in.Title,
            Kind:        label(incidentTypeLabels, in.Type),
            Severity:    label(severityLabels, in.Severity),
            Occurred:    in.OccurredAt.Format(dateLayout),
            State:       state,
            Description: in.Description,
            Resolution:  in.Resolution,
        })
    }
    if b.OnCall != nil {
        v.OnCall = b.OnCall.StaffName
        v.OnCallNotes = b.OnCall.Notes
    }

    v.MeetingSkipped = b.Log.MeetingSkipped
    if v.MeetingSkipped {
        v.SkipReason = b.Log.MeetingSkippedReason
        if v.SkipReason == "" { v.SkipReason = "no reason given" }
    } else {
        v.Attendees = b.Log.MeetingAttendees
        if v.Minutes, err = markdownBody(b.Log.MeetingMinutes); err != nil { return nil, err }
        v.NoMeeting = v.Attendees == "" && b.Log.MeetingMinutes == ""
    }
    if v.Summary, err = markdownBody(b.Log.Summary); err != nil { return nil, err }

    var buf bytes.Buffer
    if err := htmlTmpl.Execute(&buf, v); err != nil { return nil, err }
    return buf.Bytes(), nil
}
