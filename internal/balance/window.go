package balance

import (
	"time"
)

// DateLayout is the layout of window bounds on the wire.
const DateLayout = "2006-01-02"

// Window is the half-open date range [After, Before). A nil bound is
// unbounded on that side.
type Window struct {
	After  *time.Time
	Before *time.Time
}

// Contains reports whether d falls inside the window: on or after After and
// strictly before Before.
func (w Window) Contains(d time.Time) bool {
	if w.After != nil && d.Before(*w.After) {
		return false
	}
	if w.Before != nil && !d.Before(*w.Before) {
		return false
	}
	return true
}

func (w Window) IsZero() bool {
	return w.After == nil && w.Before == nil
}

func (w Window) String() string {
	after, before := "-inf", "+inf"
	if w.After != nil {
		after = w.After.Format(DateLayout)
	}
	if w.Before != nil {
		before = w.Before.Format(DateLayout)
	}
	return "[" + after + ", " + before + ")"
}

// ParseWindow builds a Window from optional YYYY-MM-DD strings. Empty strings
// leave the corresponding side unbounded.
func ParseWindow(after, before string) (Window, error) {
	var w Window
	if after != "" {
		t, err := time.Parse(DateLayout, after)
		if err != nil {
			return Window{}, &DateError{Param: "after", Value: after, Err: err}
		}
		w.After = &t
	}
	if before != "" {
		t, err := time.Parse(DateLayout, before)
		if err != nil {
			return Window{}, &DateError{Param: "before", Value: before, Err: err}
		}
		w.Before = &t
	}
	return w, nil
}

// DateError reports a window bound that is not a valid YYYY-MM-DD date.
type DateError struct {
	Param string
	Value string
	Err   error
}

func (e *DateError) Error() string {
	return "invalid " + e.Param + " date " + `"` + e.Value + `"` + ": expected YYYY-MM-DD"
}

func (e *DateError) Unwrap() error { return e.Err }
