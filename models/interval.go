package models

import (
	"fmt"
	"time"
)

// TimeInterval is a half-open [Start, End) range with minute granularity.
type TimeInterval struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

// NewInterval builds [start, start+minutes), truncating start to the minute.
func NewInterval(start time.Time, minutes int) TimeInterval {
	start = start.Truncate(time.Minute)
	return TimeInterval{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

// IsEmpty reports whether the interval has no duration.
func (i TimeInterval) IsEmpty() bool {
	return !i.End.After(i.Start)
}

func (i TimeInterval) Duration() time.Duration {
	if i.IsEmpty() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the two intervals share at least one instant.
// Empty intervals never overlap anything, and touching boundaries do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	if i.IsEmpty() || other.IsEmpty() {
		return false
	}
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether t falls inside [Start, End).
func (i TimeInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

func (i TimeInterval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format("2006-01-02 15:04"), i.End.Format("15:04"))
}
