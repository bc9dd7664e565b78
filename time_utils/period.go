package timeutils

import "time"

// Period represents an absolute period between two instances in time, e.g. "2024/03/01 00:00:00 to 2025/02/28 00:00:00".
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the period. The start is inclusive and the end is exclusive.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}
