package service

import (
	"sort"
	"time"

	"coachbook/pkg/model"
)

// minuteRange is a half-open [start, end) interval in minutes from local
// midnight. All availability math happens in this form before conversion
// back to wall-clock times, which keeps DST transitions out of the
// interval arithmetic.
type minuteRange struct {
	start int
	end   int
}

func parseMinutes(hhmm string) (int, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// mergeRanges unions overlapping or touching intervals.
func mergeRanges(ranges []minuteRange) []minuteRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]minuteRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	merged := []minuteRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			if r.end > last.end {
				last.end = r.end
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// subtractRanges removes every blocked interval from the open set. The
// open set must already be merged and sorted.
func subtractRanges(open []minuteRange, blocked []minuteRange) []minuteRange {
	if len(blocked) == 0 {
		return open
	}

	result := open
	for _, b := range mergeRanges(blocked) {
		var next []minuteRange
		for _, o := range result {
			if b.end <= o.start || b.start >= o.end {
				next = append(next, o)
				continue
			}
			if b.start > o.start {
				next = append(next, minuteRange{start: o.start, end: b.start})
			}
			if b.end < o.end {
				next = append(next, minuteRange{start: b.end, end: o.end})
			}
		}
		result = next
	}
	return result
}

// resolveOpenRanges computes the bookable intervals for one calendar day:
// the union of that weekday's availability windows minus every applicable
// blocked interval. Blocks always win over windows.
func resolveOpenRanges(day time.Time, loc *time.Location, windows []*model.AvailabilityWindow, blocks []*model.BlockedInterval) []model.TimeRange {
	local := day.In(loc)
	dateStr := local.Format("2006-01-02")
	dayOfWeek := int(local.Weekday())

	var open []minuteRange
	for _, w := range windows {
		if w.DayOfWeek != dayOfWeek {
			continue
		}
		start, okStart := parseMinutes(w.StartTime)
		end, okEnd := parseMinutes(w.EndTime)
		if !okStart || !okEnd || end <= start {
			continue
		}
		open = append(open, minuteRange{start: start, end: end})
	}
	if len(open) == 0 {
		return nil
	}
	open = mergeRanges(open)

	var blocked []minuteRange
	for _, b := range blocks {
		if !b.AppliesTo(dateStr, dayOfWeek) {
			continue
		}
		start, okStart := parseMinutes(b.StartTime)
		end, okEnd := parseMinutes(b.EndTime)
		if !okStart || !okEnd || end <= start {
			continue
		}
		blocked = append(blocked, minuteRange{start: start, end: end})
	}
	open = subtractRanges(open, blocked)

	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	ranges := make([]model.TimeRange, 0, len(open))
	for _, r := range open {
		ranges = append(ranges, model.TimeRange{
			Start: midnight.Add(time.Duration(r.start) * time.Minute),
			End:   midnight.Add(time.Duration(r.end) * time.Minute),
		})
	}
	return ranges
}
