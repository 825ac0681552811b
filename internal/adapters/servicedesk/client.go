/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package servicedesk

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "net/url"
    "strconv"
    "strings"

    "github.com/Reventlow/fynbus-chronicle/internal/config"
    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/Reventlow/fynbus-chronicle/internal/week"
    "github.com/rs/zerolog"
)

// Client queries the ManageEngine ServiceDesk Plus v3 API for ticket
// counts. Every count query asks for the total only (row_count=1,
// get_total_count=true), never the row set.
type Client struct {
    baseURL      string
    apiKey       string
    enabled      bool
    openStatuses []string
    http         *http.Client
    log          zerolog.Logger
}

// SyncResult carries the counters plus per-field success flags. A failed
// field reads 0; callers that must tell "zero tickets" from "query
// failed" consult the flags.
type SyncResult struct {
    Stats     domain.TicketStats
    CreatedOK bool
    ClosedOK  bool
    OpenOK    bool
    Disabled  bool
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    enabled := cfg.SyncEnabled
    if enabled && (cfg.ServiceDeskURL == "" || cfg.ServiceDeskAPIKey == "") {
        log.Warn().Msg("servicedesk: sync enabled but URL or API key missing; treating as disabled")
        enabled = false
    }
    return &Client{
        baseURL:      strings.TrimRight(cfg.ServiceDeskURL, "/"),
        apiKey:       cfg.ServiceDeskAPIKey,
        enabled:      enabled,
        openStatuses: cfg.OpenStatuses,
        http:         &http.Client{Timeout: cfg.HTTPTimeout},
        log:          log,
    }
}

func (c *Client) Enabled() bool { return c.enabled }

type searchCriteria struct {
    Field     string   `json:"field"`
    Condition string   `json:"condition"`
    Values    []string `json:"values,omitempty"`
    Value     string   `json:"value,omitempty"`
}

type listInfo struct {
    RowCount       int              `json:"row_count"`
    GetTotalCount  bool             `json:"get_total_count"`
    SearchCriteria []searchCriteria `json:"search_criteria"`
}

type inputData struct {
    ListInfo listInfo `json:"list_info"`
}

type countResponse struct {
    ResponseStatus []struct {
        Status string `json:"status"`
    } `json:"response_status"`
    ListInfo struct {
        TotalCount int `json:"total_count"`
    } `json:"list_info"`
}

func (c *Client) queryCount(ctx context.Context, crit searchCriteria) (int, error) {
    if c.baseURL == "" || c.apiKey == "" { return 0, errors.New("servicedesk: URL or API key not configured") }
    in := inputData{ListInfo: listInfo{RowCount: 1, GetTotalCount: true, SearchCriteria: []searchCriteria{crit}}}
    b, err := json.Marshal(in)
    if err != nil { return 0, err }
    u := c.baseURL + "/api/v3/requests?input_data=" + url.QueryEscape(string(b))

    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
    if err != nil { return 0, err }
    req.Header.Set("authtoken", c.apiKey)
    req.Header.Set("Content-Type", "application/json")

    resp, err := c.http.Do(req)
    if err != nil { return 0, err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        return 0, fmt.Errorf("servicedesk api status=%d", resp.StatusCode)
    }
    var out countResponse
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil { return 0, err }
    if len(out.ResponseStatus) == 0 || out.ResponseStatus[0].Status != "success" {
        return 0, fmt.Errorf("servicedesk api response status not success")
    }
    return out.ListInfo.TotalCount, nil
}

// countBetween counts tickets whose timestamp field falls inside the
// window. Millisecond timestamps go over the wire as strings.
func (c *Client) countBetween(ctx context.Context, field string, startMs, endMs int64) (int, bool) {
    n, err := c.queryCount(ctx, searchCriteria{
        Field:     field,
        Condition: "between",
        Values:    []string{strconv.FormatInt(startMs, 10), strconv.FormatInt(endMs, 10)},
    })
    if err != nil {
        c.log.Error().Err(err).Str("field", field).Msg("servicedesk count query failed")
        return 0, false
    }
    return n, true
}

// countOpen sums counts across the open-equivalent statuses, one query
// per status because the API aggregation has no OR condition. A failing
// status logs and contributes 0; the rest of the snapshot survives.
func (c *Client) countOpen(ctx context.Context) (int, bool) {
    total := 0
    allOK := true
    for _, status := range c.openStatuses {
        n, err := c.queryCount(ctx, searchCriteria{Field: "status.name", Condition: "is", Value: status})
        if err != nil {
            c.log.Error().Err(err).Str("status", status).Msg("servicedesk open count failed")
            allOK = false
            continue
        }
        total += n
    }
    return total, allOK
}

// GetWeekStats fetches created/closed counts for the week's window plus
// the open-ticket snapshot as of now. Query failures degrade to 0 and
// are flagged; the only returned error is an invalid week.
func (c *Client) GetWeekStats(ctx context.Context, p domain.WeekPeriod) (SyncResult, error) {
    if !c.enabled {
        c.log.Debug().Msg("servicedesk sync is disabled")
        return SyncResult{Disabled: true, CreatedOK: true, ClosedOK: true, OpenOK: true}, nil
    }

    startMs, endMs, err := week.Window(p)
    if err != nil { return SyncResult{}, err }

    var res SyncResult
    res.Stats.Created, res.CreatedOK = c.countBetween(ctx, "created_time", startMs, endMs)
    res.Stats.Closed, res.ClosedOK = c.countBetween(ctx, "completed_time", startMs, endMs)
    res.Stats.Open, res.OpenOK = c.countOpen(ctx)

    c.log.Info().
        Int("year", p.Year).Int("week", p.Week).
        Int("created", res.Stats.Created).Int("closed", res.Stats.Closed).Int("open", res.Stats.Open).
        Msg("servicedesk week stats")
    return res, nil
}
