package domain

import (
    "fmt"
    "time"
)

// WeekPeriod is the natural key for all weekly records: an ISO-8601
// (year, week) pair. Ordering is by year, then week.
type WeekPeriod struct {
    Year int
    Week int
}

func (p WeekPeriod) String() string { return fmt.Sprintf("week %d, %d", p.Week, p.Year) }

// Before reports whether p falls strictly before q.
func (p WeekPeriod) Before(q WeekPeriod) bool {
    if p.Year != q.Year { return p.Year < q.Year }
    return p.Week < q.Week
}

// TicketStats holds the helpdesk counters for one week. Open is an
// absolute snapshot taken at sync time, not a per-week delta; it is only
// meaningful for the week containing "now" and goes stale afterwards.
type TicketStats struct {
    Created int
    Closed  int
    Open    int
}

// Delta is the net change in tickets over the week.
func (s TicketStats) Delta() int { return s.Created - s.Closed }

// WeekLog is the aggregate root for one week, unique per WeekPeriod.
type WeekLog struct {
    ID     int64
    Period WeekPeriod

    Stats TicketStats

    Summary string

    MeetingSkipped       bool
    MeetingSkippedReason string
    MeetingAttendees     string
    MeetingMinutes       string

    CreatedBy string
    CreatedAt time.Time
    UpdatedAt time.Time
}

type Priority string

const (
    PriorityHigh   Priority = "high"
    PriorityMedium Priority = "medium"
    PriorityLow    Priority = "low"
)

type ItemStatus string

const (
    StatusNotStarted ItemStatus = "not_started"
    StatusOngoing    ItemStatus = "ongoing"
    StatusBlocked    ItemStatus = "blocked"
    StatusCompleted  ItemStatus = "completed"
)

// PriorityItem is an ongoing task or project tracked on a WeekLog.
type PriorityItem struct {
    ID          int64
    WeekLogID   int64
    Title       string
    Description string
    Priority    Priority
    Status      ItemStatus
    Notes       string
    Order       int
    CreatedAt   time.Time
    UpdatedAt   time.Time
}

type AbsenceType string

const (
    AbsenceVacation AbsenceType = "vacation"
    AbsenceSick     AbsenceType = "sick"
    AbsenceCourse   AbsenceType = "course"
    AbsenceMeeting  AbsenceType = "meeting"
    AbsenceFlex     AbsenceType = "flex"
    AbsenceWFH      AbsenceType = "wfh"
    AbsenceOther    AbsenceType = "other"
)

// Absence is a staff absence affecting support availability.
type Absence struct {
    ID        int64
    WeekLogID int64
    StaffName string
    Type      AbsenceType
    StartDate time.Time
    EndDate   time.Time
    Notes     string
    CreatedAt time.Time
}

// DurationDays is the inclusive absence length in days.
func (a Absence) DurationDays() int { return int(a.EndDate.Sub(a.StartDate).Hours()/24) + 1 }

type Severity string

const (
    SeverityCritical Severity = "critical"
    SeverityHigh     Severity = "high"
    SeverityMedium   Severity = "medium"
    SeverityLow      Severity = "low"
)

type IncidentType string

const (
    IncidentSecurity IncidentType = "security"
    IncidentSystem   IncidentType = "system"
    IncidentNetwork  IncidentType = "network"
    IncidentData     IncidentType = "data"
    IncidentOther    IncidentType = "other"
)

// Incident records a security or system event requiring follow-up.
type Incident struct {
    ID          int64
    WeekLogID   int64
    Title       string
    Type        IncidentType
    Severity    Severity
    Description string
    Resolution  string
    OccurredAt  time.Time
    Resolved    bool
    CreatedAt   time.Time
    UpdatedAt   time.Time
}

// OnCallDuty is the at-most-one on-call assignment for a week. Not owned
// by the report engine; only read for enrichment.
type OnCallDuty struct {
    ID        int64
    Period    WeekPeriod
    StaffName string
    Notes     string
}

// TrendPoint is one entry of a trend series: the ticket counters of a
// single week, oldest-first when assembled into a series.
type TrendPoint struct {
    Period  WeekPeriod
    Created int
    Closed  int
    Open    int
}
