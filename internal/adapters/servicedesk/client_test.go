package servicedesk

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/Reventlow/fynbus-chronicle/internal/config"
    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/rs/zerolog"
)

func testConfig(url string, statuses []string) config.Config {
    return config.Config{
        ServiceDeskURL:    url,
        ServiceDeskAPIKey: "token",
        SyncEnabled:       true,
        OpenStatuses:      statuses,
        HTTPTimeout:       5 * time.Second,
    }
}

func decodeInput(t *testing.T, r *http.Request) inputData {
    t.Helper()
    raw := r.URL.Query().Get("input_data")
    if raw == "" { t.Fatal("missing input_data query parameter") }
    var in inputData
    if err := json.Unmarshal([]byte(raw), &in); err != nil { t.Fatalf("bad input_data: %v", err) }
    return in
}

func countReply(w http.ResponseWriter, n int) {
    fmt.Fprintf(w, `{"response_status":[{"status":"success"}],"list_info":{"total_count":%d}}`, n)
}

func TestGetWeekStatsCountsOnlyTotals(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if got := r.Header.Get("authtoken"); got != "token" { t.Errorf("authtoken = %q", got) }
        in := decodeInput(t, r)
        li := in.ListInfo
        if li.RowCount != 1 || !li.GetTotalCount {
            t.Errorf("expected count-only query, got row_count=%d get_total_count=%v", li.RowCount, li.GetTotalCount)
        }
        if len(li.SearchCriteria) != 1 { t.Fatalf("criteria = %d, want 1", len(li.SearchCriteria)) }
        switch li.SearchCriteria[0].Field {
        case "created_time":
            if li.SearchCriteria[0].Condition != "between" { t.Errorf("condition = %q", li.SearchCriteria[0].Condition) }
            countReply(w, 14)
        case "completed_time":
            countReply(w, 9)
        case "status.name":
            countReply(w, 3)
        default:
            t.Errorf("unexpected field %q", li.SearchCriteria[0].Field)
        }
    }))
    defer srv.Close()

    c := NewClient(testConfig(srv.URL, []string{"Open", "Assigned"}), zerolog.Nop())
    res, err := c.GetWeekStats(context.Background(), domain.WeekPeriod{Year: 2026, Week: 3})
    if err != nil { t.Fatalf("unexpected error: %v", err) }
    if !res.CreatedOK || !res.ClosedOK || !res.OpenOK { t.Errorf("flags = %+v, want all true", res) }
    if res.Stats.Created != 14 || res.Stats.Closed != 9 {
        t.Errorf("stats = %+v, want created=14 closed=9", res.Stats)
    }
    if res.Stats.Open != 6 { t.Errorf("open = %d, want 6 (2 statuses x 3)", res.Stats.Open) }
    if res.Stats.Delta() != 5 { t.Errorf("delta = %d, want 5", res.Stats.Delta()) }
}

func TestGetWeekStatsIdempotent(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        countReply(w, 7)
    }))
    defer srv.Close()

    c := NewClient(testConfig(srv.URL, []string{"Open"}), zerolog.Nop())
    first, err := c.GetWeekStats(context.Background(), domain.WeekPeriod{Year: 2026, Week: 10})
    if err != nil { t.Fatalf("unexpected error: %v", err) }
    second, err := c.GetWeekStats(context.Background(), domain.WeekPeriod{Year: 2026, Week: 10})
    if err != nil { t.Fatalf("unexpected error: %v", err) }
    if first != second { t.Errorf("results differ: %+v vs %+v", first, second) }
}

func TestOpenSnapshotDegradesPerStatus(t *testing.T) {
    statuses := []string{"A", "B", "C", "D", "E"}
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        in := decodeInput(t, r)
        crit := in.ListInfo.SearchCriteria[0]
        if crit.Field != "status.name" {
            countReply(w, 0)
            return
        }
        switch crit.Value {
        case "B", "D":
            w.WriteHeader(http.StatusInternalServerError)
        default:
            countReply(w, 2)
        }
    }))
    defer srv.Close()

    c := NewClient(testConfig(srv.URL, statuses), zerolog.Nop())
    res, err := c.GetWeekStats(context.Background(), domain.WeekPeriod{Year: 2026, Week: 3})
    if err != nil { t.Fatalf("unexpected error: %v", err) }
    if res.Stats.Open != 6 { t.Errorf("open = %d, want 6 (three surviving statuses)", res.Stats.Open) }
    if res.OpenOK { t.Error("OpenOK = true despite status failures") }
}

func TestFieldFailureYieldsZeroNotError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        in := decodeInput(t, r)
        if in.ListInfo.SearchCriteria[0].Field == "created_time" {
            w.WriteHeader(http.StatusBadGateway)
            return
        }
        countReply(w, 4)
    }))
    defer srv.Close()

    c := NewClient(testConfig(srv.URL, []string{"Open"}), zerolog.Nop())
    res, err := c.GetWeekStats(context.Background(), domain.WeekPeriod{Year: 2026, Week: 3})
    if err != nil { t.Fatalf("unexpected error: %v", err) }
    if res.CreatedOK { t.Error("CreatedOK = true despite failure") }
    if res.Stats.Created != 0 { t.Errorf("created = %d, want 0 on failure", res.Stats.Created) }
    if res.Stats.Closed != 4 || !res.ClosedOK { t.Errorf("closed = %+v, want 4/ok", res) }
}

func TestDisabledShortCircuitSkipsNetwork(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        t.Error("network access despite disabled sync")
    }))
    defer srv.Close()

    cfg := testConfig(srv.URL, []string{"Open"})
    cfg.SyncEnabled = false
    c := NewClient(cfg, zerolog.Nop())
    res, err := c.GetWeekStats(context.Background(), domain.WeekPeriod{Year: 2026, Week: 3})
    if err != nil { t.Fatalf("unexpected error: %v", err) }
    if !res.Disabled { t.Error("Disabled flag not set") }
    if res.Stats != (domain.TicketStats{}) { t.Errorf("stats = %+v, want zeroed", res.Stats) }
}

func TestMissingCredentialsDisableClient(t *testing.T) {
    cfg := testConfig("", []string{"Open"})
    c := NewClient(cfg, zerolog.Nop())
    if c.Enabled() { t.Error("client enabled without URL") }
}

func TestInvalidWeekPropagates(t *testing.T) {
    c := NewClient(testConfig("http://localhost:1", []string{"Open"}), zerolog.Nop())
    if _, err := c.GetWeekStats(context.Background(), domain.WeekPeriod{Year: 2025, Week: 53}); err == nil {
        t.Fatal("expected InvalidWeekError")
    }
}
