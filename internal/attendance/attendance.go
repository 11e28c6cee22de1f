// Package attendance projects attendance figures against a target percentage.
//
// Every call site (single-subject calculator, multi-subject dashboard, focus view)
// goes through Project and Aggregate so the bunk and catch-up math lives in one place.
// The functions are pure: no I/O, no shared state, identical output for identical input.
package attendance

import "math"

const (
	// DefaultTarget is the target applied when none is configured.
	DefaultTarget = 75.0
	// Unbounded marks a count that has no finite value: an unlimited bunk allowance
	// (target of 0%) or an unreachable catch-up (target of 100% with absences).
	Unbounded = -1

	statusBand = 10.0
)

// Status is the coarse classification of attendance relative to the target.
type Status string

const (
	StatusNoData    Status = "no-data"
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusWarning   Status = "warning"
	StatusDanger    Status = "danger"
)

// Input holds the figures for a single projection.
type Input struct {
	TotalClasses     int     `json:"total_classes"`
	Absences         int     `json:"absences"`
	TargetPercentage float64 `json:"target_percentage"`
}

// Attended returns the number of attended classes after clamping.
func (in Input) Attended() int {
	c := in.clamped()
	return c.TotalClasses - c.Absences
}

// FromAttended builds an Input from attended counts, the way subjects are stored.
func FromAttended(total, attended int, target float64) Input {
	return Input{TotalClasses: total, Absences: total - attended, TargetPercentage: target}
}

// clamped coerces live form values into the valid ranges instead of rejecting them.
func (in Input) clamped() Input {
	out := in
	if out.TotalClasses < 0 {
		out.TotalClasses = 0
	}
	if out.Absences < 0 {
		out.Absences = 0
	}
	if out.Absences > out.TotalClasses {
		out.Absences = out.TotalClasses
	}

	switch {
	case math.IsNaN(out.TargetPercentage):
		out.TargetPercentage = DefaultTarget
	case out.TargetPercentage < 0:
		out.TargetPercentage = 0
	case out.TargetPercentage > 100:
		out.TargetPercentage = 100
	}
	return out
}

// Result is the outcome of a projection. CanBunk and NeedToAttend are never both
// positive.
type Result struct {
	TotalClasses      int     `json:"total_classes"`
	Attended          int     `json:"attended_classes"`
	TargetPercentage  float64 `json:"target_percentage"`
	CurrentPercentage float64 `json:"current_percentage"`
	CanBunk           int     `json:"can_bunk"`
	NeedToAttend      int     `json:"need_to_attend"`
	BunkUnlimited     bool    `json:"bunk_unlimited"`
	Unreachable       bool    `json:"unreachable"`
	RequiredAttended  int     `json:"required_attended"`
	Status            Status  `json:"status"`
}

// onTarget reports whether the recorded classes meet the target. Comparisons use the
// counts, never the rounded display percentage.
func (r Result) onTarget() bool {
	return r.TotalClasses > 0 && meets(r.Attended, r.TotalClasses, r.TargetPercentage)
}

// exactlyOnTarget reports attended*100 == target*total.
func (r Result) exactlyOnTarget() bool {
	return r.TotalClasses > 0 && surplus(r.Attended, r.TotalClasses, r.TargetPercentage).Sign() == 0
}

func percentage(attended, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(attended) / float64(total) * 100
}

// Subject is one tracked course in the multi-subject context.
type Subject struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Input  Input  `json:"input"`
	Active bool   `json:"active"`
}

// SubjectProjection pairs a subject with its projection.
type SubjectProjection struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Result Result `json:"result"`
}

// Rollup aggregates totals and status counts across subjects.
type Rollup struct {
	TotalClasses      int                 `json:"total_classes"`
	AttendedClasses   int                 `json:"attended_classes"`
	OverallPercentage float64             `json:"overall_percentage"`
	Status            Status              `json:"status"`
	SubjectsOnTrack   int                 `json:"subjects_on_track"`
	SubjectsAtRisk    int                 `json:"subjects_at_risk"`
	Subjects          []SubjectProjection `json:"subjects"`
}
