package engine

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Empty or inverted intervals overlap nothing.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aStart.Before(aEnd) || !bStart.Before(bEnd) {
		return false
	}
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i.Start, i.End, o.Start, o.End)
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// BusyInterval is any blocked range, from an internal booking or an external
// calendar. SourceID identifies the origin so an edit can exclude itself.
type BusyInterval struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	SourceID string    `json:"source_id"`
}

func (b BusyInterval) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// PadBusy widens every interval by buffer on both sides. Buffers are a caller
// policy and are never applied inside GenerateSlots itself.
func PadBusy(busy []BusyInterval, buffer time.Duration) []BusyInterval {
	if buffer <= 0 {
		return busy
	}
	out := make([]BusyInterval, len(busy))
	for i, b := range busy {
		out[i] = BusyInterval{
			Start:    b.Start.Add(-buffer),
			End:      b.End.Add(buffer),
			SourceID: b.SourceID,
		}
	}
	return out
}
