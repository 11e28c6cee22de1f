package attendance_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
)

func TestAggregateRollup(t *testing.T) {
	subjects := []attendance.Subject{
		{ID: 1, Name: "Mathematics", Input: attendance.FromAttended(40, 35, 75), Active: true},
		{ID: 2, Name: "Physics", Input: attendance.FromAttended(20, 10, 75), Active: true},
	}

	rollup := attendance.Aggregate(subjects)
	require.Equal(t, 60, rollup.TotalClasses)
	require.Equal(t, 45, rollup.AttendedClasses)
	require.InDelta(t, 75.0, rollup.OverallPercentage, 0.001)
	require.Equal(t, 1, rollup.SubjectsOnTrack)
	require.Equal(t, 1, rollup.SubjectsAtRisk)
	require.Equal(t, attendance.StatusGood, rollup.Status)
	require.Len(t, rollup.Subjects, 2)
	require.Equal(t, "Physics", rollup.Subjects[1].Name)
	require.Equal(t, attendance.StatusDanger, rollup.Subjects[1].Result.Status)
	require.Equal(t, 6, rollup.Subjects[0].Result.CanBunk)
}

func TestAggregateUsesEachSubjectTarget(t *testing.T) {
	subjects := []attendance.Subject{
		{ID: 1, Name: "Lab", Input: attendance.FromAttended(10, 8, 90)},
		{ID: 2, Name: "Seminar", Input: attendance.FromAttended(10, 8, 60)},
		{ID: 3, Name: "Elective", Input: attendance.FromAttended(0, 0, 75)},
	}

	rollup := attendance.Aggregate(subjects)
	require.Equal(t, 1, rollup.SubjectsOnTrack)
	require.Zero(t, rollup.SubjectsAtRisk, "80% against 90% sits inside the warning band")
	require.Equal(t, attendance.StatusNoData, rollup.Subjects[2].Result.Status)
	require.InDelta(t, 80.0, rollup.OverallPercentage, 0.001)
}

func TestAggregateEmpty(t *testing.T) {
	rollup := attendance.Aggregate(nil)
	require.Equal(t, attendance.StatusNoData, rollup.Status)
	require.Zero(t, rollup.OverallPercentage)
	require.NotNil(t, rollup.Subjects)
	require.Empty(t, rollup.Subjects)
}

func TestAdviceAndTheme(t *testing.T) {
	require.Equal(t, "You can safely miss 6 more classes while maintaining 75% attendance",
		attendance.Project(attendance.Input{TotalClasses: 40, Absences: 5, TargetPercentage: 75}).Advice())
	require.Equal(t, "You need to attend 1 more class to reach 80% attendance",
		attendance.Project(attendance.Input{TotalClasses: 4, Absences: 1, TargetPercentage: 80}).Advice())
	require.Equal(t, "You're exactly at the target percentage",
		attendance.Project(attendance.Input{TotalClasses: 40, Absences: 10, TargetPercentage: 75}).Advice())
	require.Equal(t, "You can't miss another class without dropping below your target",
		attendance.Project(attendance.Input{TotalClasses: 4, Absences: 1, TargetPercentage: 74}).Advice())

	require.Equal(t, "danger", attendance.StatusDanger.Theme())
	require.Equal(t, "success", attendance.StatusExcellent.Theme())
	require.Equal(t, "default", attendance.StatusNoData.Theme())
	require.Equal(t, "Warning - Attendance needs improvement", attendance.StatusWarning.Label())
}

func TestRecommend(t *testing.T) {
	below := attendance.Project(attendance.Input{TotalClasses: 10, Absences: 6, TargetPercentage: 75})
	tips := attendance.Recommend(below)
	require.Contains(t, tips, "Attend the next 14 classes consistently to reach your target")
	require.Contains(t, tips, "Your attendance is concerning - speak with an advisor if you need help")

	comfortable := attendance.Project(attendance.Input{TotalClasses: 40, Absences: 2, TargetPercentage: 75})
	tips = attendance.Recommend(comfortable)
	require.Contains(t, tips, "You're doing great! Consider using bunk allowance for important events only")
	require.Len(t, tips, 3)
}

func TestTrendReplaysMarksInDateOrder(t *testing.T) {
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	marks := []attendance.Mark{
		{Date: day.AddDate(0, 0, 2), Present: true},
		{Date: day, Present: true},
		{Date: day.AddDate(0, 0, 1), Present: false},
	}

	points := attendance.Trend(10, 8, marks)
	require.Len(t, points, 3)
	require.Equal(t, day, points[0].Date)
	require.InDelta(t, 87.5, points[0].Percentage, 0.001)
	require.InDelta(t, 77.78, points[1].Percentage, 0.001)
	require.InDelta(t, 80.0, points[2].Percentage, 0.001)
	require.True(t, marks[0].Date.After(marks[1].Date), "input must not be reordered")
}

func TestAggregateCapsOverflowingTotals(t *testing.T) {
	subjects := []attendance.Subject{
		{ID: 1, Name: "Marathon", Input: attendance.FromAttended(math.MaxInt, math.MaxInt, 75), Active: true},
		{ID: 2, Name: "Relay", Input: attendance.FromAttended(math.MaxInt, math.MaxInt, 75), Active: true},
	}

	rollup := attendance.Aggregate(subjects)
	require.Equal(t, math.MaxInt, rollup.TotalClasses)
	require.Equal(t, math.MaxInt, rollup.AttendedClasses)
	require.Equal(t, 2, rollup.SubjectsOnTrack)
	require.Equal(t, attendance.StatusExcellent, rollup.Status)
}

func TestAdviceForExtremeTargets(t *testing.T) {
	require.Equal(t, "Your 0.00% target lets you miss any number of classes",
		attendance.Project(attendance.Input{TotalClasses: 40, Absences: 10, TargetPercentage: 1e-17}).Advice())
	require.Equal(t, "With a 0% target you can miss any number of classes",
		attendance.Project(attendance.Input{TotalClasses: 40, Absences: 10, TargetPercentage: 0}).Advice())
	require.Equal(t, "A 100% target can no longer be reached with absences already recorded",
		attendance.Project(attendance.Input{TotalClasses: 10, Absences: 1, TargetPercentage: 100}).Advice())
	require.Equal(t, "You need to attend 1 more class to reach 72.50% attendance",
		attendance.Project(attendance.Input{TotalClasses: 10, Absences: 3, TargetPercentage: 72.5}).Advice())
}
