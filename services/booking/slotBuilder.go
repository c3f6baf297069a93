package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"beautybook/models"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
	minutesDay  = 24 * 60
)

// parseClock converts "HH:MM" to minutes since midnight. "24:00" is accepted as a closing time.
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// parseDate returns midnight of the calendar date in loc.
func parseDate(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q", date)
	}
	return d, nil
}

// atMinute returns the instant that is the given wall-clock minute of day.
func atMinute(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, day.Location())
}

// wallClock is atMinute for a minute inside the day. It reports false when that wall-clock
// time does not exist on the day, as in the gap of a daylight saving switch.
func wallClock(day time.Time, minute int) (time.Time, bool) {
	t := atMinute(day, minute)
	return t, t.Day() == day.Day() && t.Hour()*60+t.Minute() == minute
}

// GenerateSlots returns the candidate start times of a day's grid: every stepMinutes from
// openTime, keeping only starts where a durationMinutes service still ends by closeTime.
func GenerateSlots(date, openTime, closeTime string, stepMinutes, durationMinutes int, loc *time.Location) ([]time.Time, error) {
	if stepMinutes <= 0 {
		return nil, fmt.Errorf("slot step must be positive, got %d", stepMinutes)
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("service duration must be positive, got %d", durationMinutes)
	}
	day, err := parseDate(date, loc)
	if err != nil {
		return nil, err
	}
	open, err := parseClock(openTime)
	if err != nil {
		return nil, err
	}
	if open == minutesDay {
		return nil, fmt.Errorf("opening time cannot be 24:00")
	}
	closing, err := parseClock(closeTime)
	if err != nil {
		return nil, err
	}

	slots := []time.Time{}
	for m := open; m+durationMinutes <= closing; m += stepMinutes {
		if t, ok := wallClock(day, m); ok {
			slots = append(slots, t)
		}
	}
	return slots, nil
}

// AnnotateAvailability marks each slot available iff [slot, slot+duration) overlaps none of
// the busy intervals.
func AnnotateAvailability(slots []time.Time, busy []models.TimeInterval, durationMinutes int) []models.AvailableSlot {
	out := make([]models.AvailableSlot, 0, len(slots))
	for _, s := range slots {
		iv := models.NewInterval(s, durationMinutes)
		_, conflict := FirstConflict(iv, busy)
		out = append(out, models.AvailableSlot{
			Start:     iv.Start,
			End:       iv.End,
			Label:     s.Format(clockLayout),
			Available: !conflict,
		})
	}
	return out
}

// FirstConflict returns the earliest busy interval overlapping iv.
func FirstConflict(iv models.TimeInterval, busy []models.TimeInterval) (models.TimeInterval, bool) {
	var found models.TimeInterval
	ok := false
	for _, b := range busy {
		if iv.Overlaps(b) && (!ok || b.Start.Before(found.Start)) {
			found, ok = b, true
		}
	}
	return found, ok
}
