package trends

import (
	"math"
	"sort"
	"time"
)

type SampleResult struct {
	Sampled       []CallRecord
	OriginalCount int
}

// SampleStratified reduces calls to at most targetSize while keeping the
// weekly spread of the original range. Buckets are Sunday-aligned weeks; each
// week contributes a proportional share (at least one call, never more than
// it holds), selected evenly spaced by date. Rounding drift that overflows
// the target is trimmed by a second pass. Fully deterministic.
func SampleStratified(calls []CallRecord, targetSize int) SampleResult {
	if targetSize <= 0 || len(calls) <= targetSize {
		return SampleResult{Sampled: calls, OriginalCount: len(calls)}
	}

	sorted := make([]CallRecord, len(calls))
	copy(sorted, calls)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	buckets := make(map[time.Time][]CallRecord)
	var weeks []time.Time
	for _, c := range sorted {
		w := weekStart(c.Date)
		if _, ok := buckets[w]; !ok {
			weeks = append(weeks, w)
		}
		buckets[w] = append(buckets[w], c)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	total := len(sorted)
	union := make([]CallRecord, 0, targetSize+len(weeks))
	for _, w := range weeks {
		b := buckets[w]
		n := int(math.Round(float64(len(b)) / float64(total) * float64(targetSize)))
		if n < 1 {
			n = 1
		}
		if n >= len(b) {
			union = append(union, b...)
			continue
		}
		union = append(union, evenlySpaced(b, n)...)
	}

	// Per-week minimums can push past the target; trim once.
	if len(union) > targetSize {
		union = trimToTarget(union, targetSize)
	}

	return SampleResult{Sampled: union, OriginalCount: total}
}

// weekStart truncates to midnight UTC, then backs up to Sunday.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// evenlySpaced picks n elements from sorted b using a fractional stride.
func evenlySpaced(b []CallRecord, n int) []CallRecord {
	if n >= len(b) {
		return b
	}
	out := make([]CallRecord, 0, n)
	step := float64(len(b)) / float64(n)
	for i := 0; i < n; i++ {
		idx := int(float64(i) * step)
		if idx >= len(b) {
			idx = len(b) - 1
		}
		out = append(out, b[idx])
	}
	return out
}

// trimToTarget keeps the earliest 30% and latest 40% of the budget verbatim
// and evenly resamples the middle stretch into what remains, so the trim
// never collapses the chronology to one end.
func trimToTarget(sorted []CallRecord, target int) []CallRecord {
	head := int(float64(target) * 0.3)
	tail := int(float64(target) * 0.4)
	midBudget := target - head - tail

	if head+tail >= len(sorted) {
		return sorted[:target]
	}

	middle := sorted[head : len(sorted)-tail]

	out := make([]CallRecord, 0, target)
	out = append(out, sorted[:head]...)
	if midBudget > 0 {
		out = append(out, evenlySpaced(middle, midBudget)...)
	}
	out = append(out, sorted[len(sorted)-tail:]...)
	return out
}
