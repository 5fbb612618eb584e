package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "02/01/2006"

	firstOptionHour = 7
	lastOptionHour  = 18
	optionStep      = 30
)

var weekdayNames = [...]string{
	time.Sunday:    "Domingo",
	time.Monday:    "Segunda-feira",
	time.Tuesday:   "Terça-feira",
	time.Wednesday: "Quarta-feira",
	time.Thursday:  "Quinta-feira",
	time.Friday:    "Sexta-feira",
	time.Saturday:  "Sábado",
}

func WeekdayName(d time.Weekday) string { return weekdayNames[d] }

// ParseClock turns "HH:mm" into minutes since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, fmt.Errorf("time %q is not HH:mm", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("time %q has an invalid hour", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("time %q has invalid minutes", s)
	}
	return hh*60 + mm, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses "DD/MM/YYYY" to midnight of that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not DD/MM/YYYY", s)
	}
	return d, nil
}

func FormatDate(t time.Time) string { return t.Format(dateLayout) }

func TimeRange(start, end string) string { return start + " - " + end }

// at composes a calendar date and a minute-of-day into one instant.
func at(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// TimeOptions lists the half-hour grid from 07:00 to 18:30 offered to doctors
// when publishing a slot. When date is today in now's location, times at or
// before now are left out. An unparseable date yields the full grid.
func TimeOptions(date string, now time.Time) []string {
	day, err := ParseDate(date, now.Location())
	isToday := err == nil && sameDay(day, now)

	opts := make([]string, 0, (lastOptionHour-firstOptionHour+1)*60/optionStep)
	for m := firstOptionHour * 60; m < (lastOptionHour+1)*60; m += optionStep {
		if isToday && !at(day, m).After(now) {
			continue
		}
		opts = append(opts, FormatClock(m))
	}
	return opts
}
