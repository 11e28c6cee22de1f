package attendance

import (
	"sort"
	"time"
)

// Mark is a single recorded class.
type Mark struct {
	Date    time.Time
	Present bool
}

// TrendPoint is the running percentage after a recorded class.
type TrendPoint struct {
	Date       time.Time `json:"date"`
	Percentage float64   `json:"percentage"`
}

// Trend replays recorded classes on top of the counts that predate them and returns
// the running percentage after each one. Subjects onboarded with bulk counts only have
// marks for the tail of their history, so the baseline is the current totals minus
// the marks.
func Trend(totalClasses, attendedClasses int, marks []Mark) []TrendPoint {
	ordered := make([]Mark, len(marks))
	copy(ordered, marks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	present := 0
	for _, mark := range ordered {
		if mark.Present {
			present++
		}
	}

	total := totalClasses - len(ordered)
	attended := attendedClasses - present
	if total < 0 {
		total = 0
	}
	if attended < 0 {
		attended = 0
	}
	if attended > total {
		attended = total
	}

	points := make([]TrendPoint, 0, len(ordered))
	for _, mark := range ordered {
		total++
		if mark.Present {
			attended++
		}
		points = append(points, TrendPoint{
			Date:       mark.Date,
			Percentage: round2(percentage(attended, total)),
		})
	}
	return points
}
