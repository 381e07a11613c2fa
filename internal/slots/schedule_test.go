package slots

import (
	"testing"
	"time"
)

func TestEvaluateScheduleDefaultWindow(t *testing.T) {
	s := DefaultSchedule() // weekdays 15:30 -> 00:00, weekends all day

	cases := []struct {
		name          string
		now           time.Time
		wantAvailable bool
		wantHint      string
	}{
		{"weekday before opening", mondayAt(15, 29), false, "15:30 today"},
		{"weekday at opening", mondayAt(15, 30), true, ""},
		{"weekday evening", mondayAt(20, 0), true, ""},
		{"weekday last minute", mondayAt(23, 59), true, ""},
		{"weekday early morning", mondayAt(0, 1), false, "15:30 today"},
		{"saturday morning", saturdayAt(9, 0), true, ""},
		{"saturday night", saturdayAt(23, 30), true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateSchedule(tc.now, s)
			if got.Available != tc.wantAvailable {
				t.Errorf("available = %v, want %v", got.Available, tc.wantAvailable)
			}
			if got.NextAvailableHint != tc.wantHint {
				t.Errorf("hint = %q, want %q", got.NextAvailableHint, tc.wantHint)
			}
		})
	}
}

func TestEvaluateScheduleCrossesMidnight(t *testing.T) {
	s := AvailabilitySchedule{
		Weekday: DayWindow{Enabled: true, StartTime: "15:30", EndTime: "02:00"},
		Weekend: WeekendWindow{Enabled: true, AllDay: true},
	}

	cases := []struct {
		name          string
		now           time.Time
		wantAvailable bool
	}{
		{"evening side", mondayAt(22, 0), true},
		{"after midnight side", mondayAt(1, 30), true},
		{"at end", mondayAt(2, 0), false},
		{"midday gap", mondayAt(12, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateSchedule(tc.now, s)
			if got.Available != tc.wantAvailable {
				t.Errorf("available = %v, want %v", got.Available, tc.wantAvailable)
			}
		})
	}
}

func TestEvaluateScheduleNormalWindow(t *testing.T) {
	s := AvailabilitySchedule{
		Weekday: DayWindow{Enabled: true, StartTime: "09:00", EndTime: "17:00"},
	}

	if got := EvaluateSchedule(mondayAt(12, 0), s); !got.Available {
		t.Errorf("noon: %+v, want available", got)
	}
	got := EvaluateSchedule(mondayAt(17, 1), s)
	if got.Available {
		t.Error("17:01 should be closed")
	}
	if got.NextAvailableHint != "09:00 tomorrow" {
		t.Errorf("hint = %q, want \"09:00 tomorrow\"", got.NextAvailableHint)
	}
}

func TestEvaluateScheduleWeekdayDisabled(t *testing.T) {
	s := AvailabilitySchedule{
		Weekday: DayWindow{Enabled: false, StartTime: "15:30", EndTime: "00:00"},
		Weekend: WeekendWindow{Enabled: true, AllDay: true},
	}
	got := EvaluateSchedule(mondayAt(16, 0), s)
	if got.Available {
		t.Error("disabled weekday should be closed")
	}
	if got.Message == "" {
		t.Error("disabled weekday should carry a message")
	}
}

func TestEvaluateScheduleWeekendClosed(t *testing.T) {
	s := AvailabilitySchedule{
		Weekday: DayWindow{Enabled: true, StartTime: "15:30", EndTime: "00:00"},
		Weekend: WeekendWindow{Enabled: false},
	}
	got := EvaluateSchedule(saturdayAt(16, 0), s)
	if got.Available {
		t.Error("closed weekend should reject")
	}
	if got.NextAvailableHint != "15:30 Monday" {
		t.Errorf("hint = %q, want \"15:30 Monday\"", got.NextAvailableHint)
	}
}

func TestValidateWindow(t *testing.T) {
	good := DayWindow{StartTime: "15:30", EndTime: "00:00"}
	if err := ValidateWindow(good); err != nil {
		t.Errorf("valid window rejected: %v", err)
	}
	for _, bad := range []DayWindow{
		{StartTime: "25:00", EndTime: "00:00"},
		{StartTime: "15:30", EndTime: "12:61"},
		{StartTime: "half past", EndTime: "00:00"},
	} {
		if err := ValidateWindow(bad); err == nil {
			t.Errorf("window %+v accepted, want error", bad)
		}
	}
}
