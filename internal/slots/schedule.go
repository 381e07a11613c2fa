package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleResult is the outcome of evaluating the selling schedule at
// a point in time. NextAvailableHint is a human hint like
// "15:30 today" and is only set when the window has a known next open.
type ScheduleResult struct {
	Available         bool   `json:"available"`
	Message           string `json:"message"`
	NextAvailableHint string `json:"next_available_hint,omitempty"`
}

// parseMinuteOfDay converts "HH:MM" to minutes since midnight.
func parseMinuteOfDay(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: time must be HH:MM, got %q", ErrValidation, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrValidation, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrValidation, s)
	}
	return h*60 + m, nil
}

// ValidateWindow checks a weekday window's time strings.
func ValidateWindow(w DayWindow) error {
	if _, err := parseMinuteOfDay(w.StartTime); err != nil {
		return err
	}
	if _, err := parseMinuteOfDay(w.EndTime); err != nil {
		return err
	}
	return nil
}

// EvaluateSchedule answers "is selling open at this instant, and when
// does that change". Pure and deterministic for a given now and
// schedule, so every boundary can be tested exhaustively.
//
// Weekday windows where end == "00:00" run from start through the end
// of the day. Windows where end < start cross midnight: open from
// start through the end of the day and again from midnight until end.
func EvaluateSchedule(now time.Time, s AvailabilitySchedule) ScheduleResult {
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		if s.Weekend.Enabled && s.Weekend.AllDay {
			return ScheduleResult{Available: true}
		}
		return ScheduleResult{
			Message:           "selling is closed on weekends",
			NextAvailableHint: nextWeekdayHint(s),
		}
	}

	if !s.Weekday.Enabled {
		return ScheduleResult{Message: "selling is disabled on weekdays"}
	}

	start, err := parseMinuteOfDay(s.Weekday.StartTime)
	if err != nil {
		return ScheduleResult{Message: "weekday schedule is misconfigured"}
	}
	end, err := parseMinuteOfDay(s.Weekday.EndTime)
	if err != nil {
		return ScheduleResult{Message: "weekday schedule is misconfigured"}
	}

	cur := now.Hour()*60 + now.Minute()

	if end == 0 || end < start {
		// Midnight boundary. end == "00:00" means start through end of
		// day; end < start additionally reopens from midnight to end.
		if cur >= start || cur < end {
			return ScheduleResult{Available: true}
		}
		return ScheduleResult{
			Message:           fmt.Sprintf("selling opens at %s", s.Weekday.StartTime),
			NextAvailableHint: s.Weekday.StartTime + " today",
		}
	}

	switch {
	case cur < start:
		return ScheduleResult{
			Message:           fmt.Sprintf("selling opens at %s", s.Weekday.StartTime),
			NextAvailableHint: s.Weekday.StartTime + " today",
		}
	case cur > end:
		return ScheduleResult{
			Message:           fmt.Sprintf("selling closed at %s", s.Weekday.EndTime),
			NextAvailableHint: s.Weekday.StartTime + " tomorrow",
		}
	default:
		return ScheduleResult{Available: true}
	}
}

func nextWeekdayHint(s AvailabilitySchedule) string {
	if !s.Weekday.Enabled {
		return ""
	}
	return s.Weekday.StartTime + " Monday"
}
