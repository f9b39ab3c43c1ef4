package services

import (
	"testing"
	"time"
)

func TestHolidayService_Weekends(t *testing.T) {
	svc := NewHolidayService()

	saturday := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

	for _, country := range []string{"US", "GB", "NONE", "XX"} {
		if svc.IsWorkday(saturday, country) {
			t.Errorf("%s: Saturday should not be a workday", country)
		}
		if !svc.IsWorkday(monday, country) {
			t.Errorf("%s: plain Monday should be a workday", country)
		}
	}
}

func TestHolidayService_PublicHoliday(t *testing.T) {
	svc := NewHolidayService()

	// Christmas 2026 falls on a Friday.
	christmas := time.Date(2026, 12, 25, 10, 0, 0, 0, time.UTC)

	if svc.IsWorkday(christmas, "US") {
		t.Error("US: Christmas Day should not be a workday")
	}
	if svc.IsWorkday(christmas, "DE") {
		t.Error("DE: Christmas Day should not be a workday")
	}
	if !svc.IsWorkday(christmas, "NONE") {
		t.Error("NONE: weekday-only mode ignores public holidays")
	}
}

func TestHolidayService_IsHolidayComplement(t *testing.T) {
	svc := NewHolidayService()

	day := time.Date(2026, 3, 17, 10, 0, 0, 0, time.UTC)
	if svc.IsWorkday(day, "US") == svc.IsHoliday(day, "US") {
		t.Error("IsHoliday must be the complement of IsWorkday")
	}
}
