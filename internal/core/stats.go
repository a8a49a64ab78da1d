package core

import (
	"math"
	"sort"
	"time"
)

// Stats is the derived cost snapshot for one hobby.
type Stats struct {
	TotalExpenseCents int64
	TotalHours        float64
	// CostPerHour is nil when no hours are recorded. "No data yet" is
	// distinct from "legitimately free", so zero hours never yields zero
	// or infinity here.
	CostPerHour *float64
}

// SeriesPoint is one cumulative cost-per-hour reading as of Date.
type SeriesPoint struct {
	Date  time.Time
	Value float64
}

// CostPerHour divides total expense by total hours. The second return is
// false when hours is zero and the ratio is undefined.
func CostPerHour(totalCents int64, totalHours float64) (float64, bool) {
	if totalHours <= 0 {
		return 0, false
	}
	return CentsToAmount(totalCents) / totalHours, true
}

// NewStats assembles a Stats snapshot from the two totals.
func NewStats(totalCents int64, totalHours float64) Stats {
	s := Stats{TotalExpenseCents: totalCents, TotalHours: totalHours}
	if v, ok := CostPerHour(totalCents, totalHours); ok {
		s.CostPerHour = &v
	}
	return s
}

// CostPerHourSeries computes the cumulative cost-per-hour trend for one
// hobby. For every distinct calendar day (UTC) on which either an expense
// or an activity was recorded, it emits the value the KPI would have read
// as of that day: cumulative expense divided by cumulative hours, rounded
// to two decimals. Days where cumulative hours is still zero are skipped,
// so a hobby that never has both kinds of record yields an empty series.
// Points are ordered by ascending date.
func CostPerHourSeries(expenses []Expense, activities []Activity) []SeriesPoint {
	centsByDay := make(map[time.Time]int64)
	hoursByDay := make(map[time.Time]float64)
	for _, e := range expenses {
		centsByDay[dayOf(e.Date)] += e.AmountCents
	}
	for _, a := range activities {
		hoursByDay[dayOf(a.Date)] += a.Hours
	}

	days := make([]time.Time, 0, len(centsByDay)+len(hoursByDay))
	for d := range centsByDay {
		days = append(days, d)
	}
	for d := range hoursByDay {
		if _, dup := centsByDay[d]; !dup {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var (
		points   []SeriesPoint
		cumCents int64
		cumHours float64
	)
	for _, d := range days {
		cumCents += centsByDay[d]
		cumHours += hoursByDay[d]
		if cumHours <= 0 {
			continue
		}
		points = append(points, SeriesPoint{
			Date:  d,
			Value: round2(CentsToAmount(cumCents) / cumHours),
		})
	}
	return points
}

// dayOf truncates a timestamp to its UTC calendar date.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
