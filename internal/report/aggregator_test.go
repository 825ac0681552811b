package report

import (
    "context"
    "testing"

    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/rs/zerolog"
)

type fakeStore struct {
    logs      map[domain.WeekPeriod]domain.WeekLog
    items     map[int64][]domain.PriorityItem
    absences  map[int64][]domain.Absence
    incidents map[int64][]domain.Incident
    oncall    map[domain.WeekPeriod]*domain.OnCallDuty
    trend     []domain.TrendPoint
}

func (f *fakeStore) GetOrCreateWeekLog(_ context.Context, p domain.WeekPeriod, createdBy string) (domain.WeekLog, error) {
    if wl, ok := f.logs[p]; ok { return wl, nil }
    if f.logs == nil { f.logs = map[domain.WeekPeriod]domain.WeekLog{} }
    wl := domain.WeekLog{ID: int64(len(f.logs) + 100), Period: p, CreatedBy: createdBy}
    f.logs[p] = wl
    return wl, nil
}
func (f *fakeStore) ListPriorityItems(_ context.Context, id int64) ([]domain.PriorityItem, error) {
    return f.items[id], nil
}
func (f *fakeStore) ListAbsences(_ context.Context, id int64) ([]domain.Absence, error) {
    return f.absences[id], nil
}
func (f *fakeStore) ListIncidents(_ context.Context, id int64) ([]domain.Incident, error) {
    return f.incidents[id], nil
}
func (f *fakeStore) OnCallFor(_ context.Context, p domain.WeekPeriod) (*domain.OnCallDuty, error) {
    return f.oncall[p], nil
}
func (f *fakeStore) TrendSeries(_ context.Context, _ domain.WeekPeriod, limit int) ([]domain.TrendPoint, error) {
    if len(f.trend) > limit { return f.trend[len(f.trend)-limit:], nil }
    return f.trend, nil
}

func week(y, w int) domain.WeekPeriod { return domain.WeekPeriod{Year: y, Week: w} }

func TestBuildBundleAverages(t *testing.T) {
    p := week(2026, 3)
    store := &fakeStore{
        logs: map[domain.WeekPeriod]domain.WeekLog{
            p: {ID: 1, Period: p, Stats: domain.TicketStats{Created: 8, Closed: 2, Open: 12}},
        },
        trend: []domain.TrendPoint{
            {Period: week(2026, 1), Created: 4, Closed: 3, Open: 10},
            {Period: week(2026, 2), Created: 6, Closed: 5, Open: 11},
            {Period: week(2026, 3), Created: 8, Closed: 2, Open: 12},
        },
    }
    a := NewAggregator(store, 12, zerolog.Nop())
    b, err := a.BuildBundle(context.Background(), p)
    if err != nil { t.Fatalf("BuildBundle: %v", err) }
    if !b.HasAverages { t.Fatal("HasAverages = false with 3 trend points") }
    if b.AvgCreated != 6.0 { t.Errorf("AvgCreated = %v, want 6.0", b.AvgCreated) }
    if got := b.AvgClosed; got != 3.3 { t.Errorf("AvgClosed = %v, want 3.3", got) }
}

func TestAverageRoundsHalfToEven(t *testing.T) {
    cases := []struct {
        sum, n int
        want   float64
    }{
        {5, 2, 2.5},
        {1, 4, 0.2},  // 0.25 ties to even -> 0.2
        {3, 4, 0.8},  // 0.75 ties to even -> 0.8
        {7, 2, 3.5},
        {10, 3, 3.3},
    }
    for _, c := range cases {
        if got := avg1(c.sum, c.n); got != c.want {
            t.Errorf("avg1(%d, %d) = %v, want %v", c.sum, c.n, got, c.want)
        }
    }
}

func TestBuildBundleEmptyTrend(t *testing.T) {
    p := week(2026, 3)
    store := &fakeStore{
        logs: map[domain.WeekPeriod]domain.WeekLog{p: {ID: 1, Period: p}},
    }
    a := NewAggregator(store, 12, zerolog.Nop())
    b, err := a.BuildBundle(context.Background(), p)
    if err != nil { t.Fatalf("BuildBundle: %v", err) }
    if b.HasAverages { t.Error("HasAverages = true with no trend points") }
    if len(b.Trend) != 0 { t.Errorf("trend = %d points, want 0", len(b.Trend)) }
}

func TestBuildBundleCreatesMissingWeek(t *testing.T) {
    store := &fakeStore{}
    a := NewAggregator(store, 12, zerolog.Nop())
    b, err := a.BuildBundle(context.Background(), week(2026, 3))
    if err != nil { t.Fatalf("BuildBundle: %v", err) }
    if b.Log.CreatedBy != "report" { t.Errorf("creator = %q", b.Log.CreatedBy) }
    if b.Log.Stats != (domain.TicketStats{}) { t.Errorf("stats backfilled: %+v", b.Log.Stats) }
    if _, ok := store.logs[week(2026, 3)]; !ok { t.Error("record not created") }
}

func TestSingleTrendPointOmitsAverages(t *testing.T) {
    p := week(2026, 3)
    store := &fakeStore{
        logs:  map[domain.WeekPeriod]domain.WeekLog{p: {ID: 1, Period: p}},
        trend: []domain.TrendPoint{{Period: p, Created: 5, Closed: 4, Open: 9}},
    }
    a := NewAggregator(store, 12, zerolog.Nop())
    b, err := a.BuildBundle(context.Background(), p)
    if err != nil { t.Fatalf("BuildBundle: %v", err) }
    if b.HasAverages { t.Error("HasAverages = true with a single trend point") }
}

func TestBuildBundleCollectsChildren(t *testing.T) {
    p := week(2026, 3)
    store := &fakeStore{
        logs: map[domain.WeekPeriod]domain.WeekLog{p: {ID: 7, Period: p}},
        items: map[int64][]domain.PriorityItem{
            7: {{ID: 1, WeekLogID: 7, Title: "Patch cycle", Priority: domain.PriorityHigh, Status: domain.StatusOngoing}},
        },
        absences: map[int64][]domain.Absence{
            7: {{ID: 2, WeekLogID: 7, StaffName: "Kim", Type: domain.AbsenceVacation}},
        },
        oncall: map[domain.WeekPeriod]*domain.OnCallDuty{
            p: {ID: 3, Period: p, StaffName: "Lars"},
        },
    }
    a := NewAggregator(store, 12, zerolog.Nop())
    b, err := a.BuildBundle(context.Background(), p)
    if err != nil { t.Fatalf("BuildBundle: %v", err) }
    if len(b.Items) != 1 || len(b.Absences) != 1 { t.Errorf("children = %d items, %d absences", len(b.Items), len(b.Absences)) }
    if b.OnCall == nil || b.OnCall.StaffName != "Lars" { t.Errorf("oncall = %+v", b.OnCall) }
    if len(b.Incidents) != 0 { t.Errorf("incidents = %d, want 0", len(b.Incidents)) }
}
