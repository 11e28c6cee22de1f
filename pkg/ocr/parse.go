package ocr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	subjectLine    = regexp.MustCompile(`(?i)^\s*subject\s*:\s*(.+?)\s*$`)
	totalLine      = regexp.MustCompile(`(?i)^\s*total\s+classes\s*:\s*(\d+)`)
	attendedLine   = regexp.MustCompile(`(?i)^\s*attended\s*:\s*(\d+)`)
	percentageLine = regexp.MustCompile(`(?i)^\s*percentage\s*:\s*([\d.]+)\s*%?`)
)

// ParseText reads "Subject / Total Classes / Attended / Percentage" blocks from
// portal text. Rows without a name or total are dropped. A missing percentage is derived.
func ParseText(text string) []Subject {
	subjects := make([]Subject, 0)
	var current *Subject
	percentSeen := false

	flush := func() {
		if current == nil {
			return
		}
		if current.Name != "" && current.TotalClasses > 0 {
			subjects = append(subjects, finalise(*current, percentSeen))
		}
		current = nil
		percentSeen = false
	}

	for _, line := range strings.Split(text, "\n") {
		if m := subjectLine.FindStringSubmatch(line); m != nil {
			flush()
			current = &Subject{Name: m[1]}
			continue
		}
		if current == nil {
			continue
		}
		if m := totalLine.FindStringSubmatch(line); m != nil {
			current.TotalClasses, _ = strconv.Atoi(m[1])
			continue
		}
		if m := attendedLine.FindStringSubmatch(line); m != nil {
			current.AttendedClasses, _ = strconv.Atoi(m[1])
			continue
		}
		if m := percentageLine.FindStringSubmatch(line); m != nil {
			if value, err := strconv.ParseFloat(m[1], 64); err == nil {
				current.Percentage = value
				percentSeen = true
			}
		}
	}
	flush()

	return subjects
}

func finalise(subject Subject, percentSeen bool) Subject {
	subject.Name = strings.TrimSpace(subject.Name)
	if subject.AttendedClasses > subject.TotalClasses {
		subject.AttendedClasses = subject.TotalClasses
	}
	if !percentSeen || subject.Percentage < 0 || subject.Percentage > 100 {
		subject.Percentage = math.Round(float64(subject.AttendedClasses)/float64(subject.TotalClasses)*1000) / 10
	}
	return subject
}
