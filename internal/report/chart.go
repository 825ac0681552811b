/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package report

import (
    "bytes"
    "fmt"

    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/wcharczuk/go-chart/v2"
    "github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart rendering for the export formats. Both renderers return nil for
// fewer than two points: a one-point chart carries no trend and the
// exporters drop the section instead of drawing a degenerate image.

var (
    trendStroke  = drawing.Color{R: 31, G: 119, B: 180, A: 255}
    trendFill    = drawing.Color{R: 31, G: 119, B: 180, A: 60}
    highlightDot = drawing.Color{R: 214, G: 39, B: 40, A: 255}
    createdFill  = drawing.Color{R: 31, G: 119, B: 180, A: 255}
    closedFill   = drawing.Color{R: 44, G: 160, B: 44, A: 255}
)

func weekLabel(p domain.WeekPeriod) string { return fmt.Sprintf("W%d", p.Week) }

func trendTicks(points []domain.TrendPoint) []chart.Tick {
    ticks := make([]chart.Tick, 0, len(points))
    for i, tp := range points {
        ticks = append(ticks, chart.Tick{Value: float64(i), Label: weekLabel(tp.Period)})
    }
    return ticks
}

// RenderOpenTrend draws the open-ticket line across the trend window with
// the report week's point emphasised. Nil when the series is too short.
func RenderOpenTrend(points []domain.TrendPoint) ([]byte, error) {
    if len(points) < 2 { return nil, nil }

    xs := make([]float64, len(points))
    ys := make([]float64, len(points))
    for i, tp := range points {
        xs[i] = float64(i)
        ys[i] = float64(tp.Open)
    }
    last := len(points) - 1

    c := chart.Chart{
        Title:  "Open tickets",
        Width:  900,
        Height: 360,
        XAxis:  chart.XAxis{Ticks: trendTicks(points)},
        YAxis:  chart.YAxis{ValueFormatter: chart.IntValueFormatter},
        Series: []chart.Series{
            chart.ContinuousSeries{
                XValues: xs,
                YValues: ys,
                Style: chart.Style{
                    StrokeColor: trendStroke,
                    StrokeWidth: 2.5,
                    FillColor:   trendFill,
                },
            },
            chart.ContinuousSeries{
                XValues: []float64{float64(last)},
                YValues: []float64{ys[last]},
                Style: chart.Style{
                    StrokeWidth: chart.Disabled,
                    DotColor:    highlightDot,
                    DotWidth:    6,
                },
            },
        },
    }

    var buf bytes.Buffer
    if err := c.Render(chart.PNG, &buf); err != nil { return nil, err }
    return buf.Bytes(), nil
}

// RenderFlowComparison draws created vs closed counts as adjacent bar
// pairs per week. Nil when the series is too short.
func RenderFlowComparison(points []domain.TrendPoint) ([]byte, error) {
    if len(points) < 2 { return nil, nil }

    bars := make([]chart.Value, 0, len(points)*2)
    for _, tp := range points {
        bars = append(bars,
            chart.Value{
                Label: weekLabel(tp.Period) + " in",
                Value: float64(tp.Created),
                Style: chart.Style{FillColor: createdFill, StrokeColor: createdFill},
            },
            chart.Value{
                Label: weekLabel(tp.Period) + " out",
                Value: float64(tp.Closed),
                Style: chart.Style{FillColor: closedFill, StrokeColor: closedFill},
            },
        )
    }

    c := chart.BarChart{
        Title:    "Created vs closed",
        Width:    900,
        Height:   360,
        BarWidth: 24,
        YAxis:    chart.YAxis{ValueFormatter: chart.IntValueFormatter},
        Bars:     bars,
    }

    var buf bytes.Buffer
    if err := c.Render(chart.PNG, &buf); err != nil { return nil, err }
    return buf.Bytes(), nil
}
