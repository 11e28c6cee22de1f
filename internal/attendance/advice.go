package attendance

import (
	"fmt"
	"math"
)

// Theme maps a status onto the calculator colour theme.
func (s Status) Theme() string {
	switch s {
	case StatusExcellent, StatusGood:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusDanger:
		return "danger"
	default:
		return "default"
	}
}

// Label returns the short headline shown next to the percentage.
func (s Status) Label() string {
	switch s {
	case StatusExcellent, StatusGood:
		return "Good - Attendance above target"
	case StatusWarning:
		return "Warning - Attendance needs improvement"
	case StatusDanger:
		return "Critical - Attendance below requirement"
	default:
		return "No classes recorded yet"
	}
}

// Advice renders the projection as a single sentence.
func (r Result) Advice() string {
	switch {
	case r.Status == StatusNoData:
		return "Enter your classes to see how many you can miss"
	case r.Unreachable && r.TargetPercentage >= 100:
		return "A 100% target can no longer be reached with absences already recorded"
	case r.Unreachable:
		return fmt.Sprintf("A %s target cannot be reached in any realistic number of classes", formatTarget(r.TargetPercentage))
	case r.BunkUnlimited && r.TargetPercentage == 0:
		return "With a 0% target you can miss any number of classes"
	case r.BunkUnlimited:
		return fmt.Sprintf("Your %s target lets you miss any number of classes", formatTarget(r.TargetPercentage))
	case r.CanBunk > 0:
		return fmt.Sprintf("You can safely miss %s while maintaining %s attendance", classes(r.CanBunk, "more"), formatTarget(r.TargetPercentage))
	case r.NeedToAttend > 0:
		return fmt.Sprintf("You need to attend %s to reach %s attendance", classes(r.NeedToAttend, "more"), formatTarget(r.TargetPercentage))
	case r.exactlyOnTarget():
		return "You're exactly at the target percentage"
	default:
		return "You can't miss another class without dropping below your target"
	}
}

// Recommend lists the focus view suggestions for a projection.
func Recommend(r Result) []string {
	if r.Status == StatusNoData {
		return []string{"Start recording classes to get personalised recommendations"}
	}

	tips := make([]string, 0, 5)
	switch {
	case r.Unreachable:
		tips = append(tips, "Your target can no longer be met - consider adjusting it")
	case r.NeedToAttend > 0:
		tips = append(tips, fmt.Sprintf("Attend the next %s consistently to reach your target", classes(r.NeedToAttend, "")))
	}
	if r.CanBunk > 2 {
		tips = append(tips, "You're doing great! Consider using bunk allowance for important events only")
	}
	if !meets(r.Attended, r.TotalClasses, 50) {
		tips = append(tips, "Your attendance is concerning - speak with an advisor if you need help")
	}

	return append(tips,
		"Track your attendance weekly for better results",
		"Set reminders the night before each class",
	)
}

func classes(n int, qualifier string) string {
	noun := "classes"
	if n == 1 {
		noun = "class"
	}
	if qualifier == "" {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %s %s", n, qualifier, noun)
}

func formatTarget(target float64) string {
	if math.Trunc(target) == target {
		return fmt.Sprintf("%.0f%%", target)
	}
	return fmt.Sprintf("%.2f%%", target)
}
