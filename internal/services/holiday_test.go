package services

import (
	"testing"
	"time"
)

func TestHolidayService_IsWorkday(t *testing.T) {
	svc := NewHolidayService()

	tests := []struct {
		name     string
		date     time.Time
		country  string
		expected bool
	}{
		{"weekday", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "AU", true},
		{"saturday", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), "AU", false},
		{"christmas AU", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), "AU", false},
		{"independence day US", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), "US", false},
		{"christmas with weekdays only", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), "NONE", true},
		{"unknown country lowercase", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), "zz", true},
		{"spring festival CN", time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), "CN", false},
		{"spring festival makeup sunday CN", time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC), "CN", true},
		{"plain weekday CN", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "cn", true},
		{"lowercase known", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), "gb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.IsWorkday(tt.date, tt.country); got != tt.expected {
				t.Errorf("IsWorkday(%s, %s) = %v, expected %v", tt.date.Format(dateLayout), tt.country, got, tt.expected)
			}
		})
	}
}

func TestHolidayService_WorkingDays(t *testing.T) {
	svc := NewHolidayService()

	// Mon 2024-03-04 .. Sun 2024-03-10
	if got := svc.WorkingDays(monday, monday.AddDate(0, 0, 6), "NONE"); got != 5 {
		t.Errorf("WorkingDays() = %d, expected 5", got)
	}
	// Christmas week 2024 in AU: 25th and 26th are holidays
	from := time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC)
	if got := svc.WorkingDays(from, from.AddDate(0, 0, 4), "AU"); got != 3 {
		t.Errorf("WorkingDays(christmas week) = %d, expected 3", got)
	}
	// Spring Festival 2024: Feb 10-17 off, Sunday Feb 18 worked
	festival := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)
	if got := svc.WorkingDays(festival, festival.AddDate(0, 0, 6), "CN"); got != 1 {
		t.Errorf("WorkingDays(spring festival) = %d, expected 1", got)
	}
	if got := svc.WorkingDays(friday, monday, "NONE"); got != 0 {
		t.Errorf("WorkingDays(reversed) = %d, expected 0", got)
	}
}
