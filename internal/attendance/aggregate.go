package attendance

import "math"

// Aggregate rolls a collection of subjects into overall totals. Every class counts
// equally regardless of subject; per-subject targets only drive the on-track and
// at-risk counts.
func Aggregate(subjects []Subject) Rollup {
	rollup := Rollup{
		Status:   StatusNoData,
		Subjects: make([]SubjectProjection, 0, len(subjects)),
	}

	for _, subject := range subjects {
		result := Project(subject.Input)
		rollup.TotalClasses = addCapped(rollup.TotalClasses, result.TotalClasses)
		rollup.AttendedClasses = addCapped(rollup.AttendedClasses, result.Attended)

		if result.TotalClasses > 0 {
			if result.onTarget() {
				rollup.SubjectsOnTrack++
			}
			if result.Status == StatusDanger {
				rollup.SubjectsAtRisk++
			}
		}

		rollup.Subjects = append(rollup.Subjects, SubjectProjection{
			ID:     subject.ID,
			Name:   subject.Name,
			Active: subject.Active,
			Result: result,
		})
	}

	if rollup.TotalClasses > 0 {
		rollup.OverallPercentage = round2(percentage(rollup.AttendedClasses, rollup.TotalClasses))
		rollup.Status = classifyCounts(rollup.AttendedClasses, rollup.TotalClasses, DefaultTarget)
	}

	return rollup
}

// addCapped sums class counts, stopping at math.MaxInt instead of wrapping.
func addCapped(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
