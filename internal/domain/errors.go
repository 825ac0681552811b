package domain

import "fmt"

// InvalidWeekError reports an ISO week outside [1, weeks-in-year] for the
// requested year. Never defaulted; callers propagate it immediately.
type InvalidWeekError struct {
    Year int
    Week int
}

func (e *InvalidWeekError) Error() string {
    return fmt.Sprintf("invalid ISO week %d for year %d", e.Week, e.Year)
}

// RenderError wraps a failure to produce one export format. Rendering
// fails visibly rather than substituting an empty document.
type RenderError struct {
    Format string
    Err    error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render %s: %v", e.Format, e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }
