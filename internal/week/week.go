// Package week resolves ISO-8601 calendar weeks to UTC time windows.
package week

import (
    "time"

    "github.com/Reventlow/fynbus-chronicle/internal/domain"
)

// Weeks returns the number of ISO weeks in year (52 or 53). December 28
// is always in the last ISO week of its year, so the calendar itself
// answers the question.
func Weeks(year int) int {
    _, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
    return w
}

// Validate rejects week numbers outside [1, Weeks(year)].
func Validate(p domain.WeekPeriod) error {
    if p.Week < 1 || p.Week > Weeks(p.Year) {
        return &domain.InvalidWeekError{Year: p.Year, Week: p.Week}
    }
    return nil
}

// Monday returns the UTC midnight Monday starting the given ISO week.
// January 4 is always in ISO week 1; back up to that week's Monday and
// advance whole weeks from there.
func Monday(p domain.WeekPeriod) (time.Time, error) {
    if err := Validate(p); err != nil { return time.Time{}, err }
    jan4 := time.Date(p.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
    isoWeekday := int(jan4.Weekday())
    if isoWeekday == 0 { isoWeekday = 7 }
    week1Monday := jan4.AddDate(0, 0, -(isoWeekday - 1))
    return week1Monday.AddDate(0, 0, (p.Week-1)*7), nil
}

// Window returns the inclusive [Monday 00:00:00.000, Sunday 23:59:59.999]
// window of the ISO week as millisecond Unix timestamps.
func Window(p domain.WeekPeriod) (startMs, endMs int64, err error) {
    monday, err := Monday(p)
    if err != nil { return 0, 0, err }
    end := monday.AddDate(0, 0, 7).Add(-time.Millisecond)
    return monday.UnixMilli(), end.UnixMilli(), nil
}

// Current returns the WeekPeriod containing now.
func Current(now time.Time) domain.WeekPeriod {
    y, w := now.ISOWeek()
    return domain.WeekPeriod{Year: y, Week: w}
}
