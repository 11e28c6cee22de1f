package models

// All returns every model managed by migrations.
func All() []interface{} {
	return []interface{}{&Subject{}, &AttendanceRecord{}, &ProcessedScreenshot{}, &UserSettings{}}
}
