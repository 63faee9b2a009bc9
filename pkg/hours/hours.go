// Package hours parses branch opening hours such as
//
//	Mon-Fri 08:00-22:00; Sat 09:00-14:00,16:00-23:30; Sun closed
//
// Day ranges may wrap ("Fri-Mon"), "Daily" covers the whole week, "24/7" is always open,
// and a window whose close time is not after its open time runs past midnight.
package hours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

type window struct {
	open, close int // minutes since midnight; close may be 1440
}

func (w window) overnight() bool { return w.close <= w.open }

// Schedule is a parsed weekly timetable.
type Schedule struct {
	days   [7][]window
	always bool
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// Parse reads a timetable. An empty string parses to a schedule that is never open.
func Parse(timetable string) (Schedule, error) {
	var s Schedule
	timetable = strings.TrimSpace(timetable)
	if strings.EqualFold(timetable, "24/7") {
		s.always = true
		return s, nil
	}
	for _, seg := range strings.Split(timetable, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		fields := strings.Fields(seg)
		if len(fields) < 2 {
			return Schedule{}, fmt.Errorf("hours: segment %q needs days and times", seg)
		}
		days, err := parseDays(fields[0])
		if err != nil {
			return Schedule{}, err
		}
		rest := strings.Join(fields[1:], "")
		if strings.EqualFold(rest, "closed") {
			for _, d := range days {
				s.days[d] = nil
			}
			continue
		}
		var ws []window
		for _, part := range strings.Split(rest, ",") {
			w, err := parseWindow(part)
			if err != nil {
				return Schedule{}, err
			}
			ws = append(ws, w)
		}
		for _, d := range days {
			s.days[d] = append(s.days[d], ws...)
		}
	}
	return s, nil
}

// IsOpen reports whether the schedule is open at t, read in t's location.
func (s Schedule) IsOpen(t time.Time) bool {
	if s.always {
		return true
	}
	d := t.Weekday()
	m := t.Hour()*60 + t.Minute()
	for _, w := range s.days[d] {
		if w.overnight() {
			if m >= w.open {
				return true
			}
		} else if m >= w.open && m < w.close {
			return true
		}
	}
	prev := (d + 6) % 7
	for _, w := range s.days[prev] {
		if w.overnight() && m < w.close {
			return true
		}
	}
	return false
}

// IsOpen parses timetable and checks t. Unparseable timetables count as closed.
func IsOpen(timetable string, t time.Time) bool {
	s, err := Parse(timetable)
	if err != nil {
		return false
	}
	return s.IsOpen(t)
}

func parseDays(tok string) ([]time.Weekday, error) {
	switch strings.ToLower(tok) {
	case "daily", "everyday":
		return []time.Weekday{0, 1, 2, 3, 4, 5, 6}, nil
	}
	from, to, isRange := strings.Cut(tok, "-")
	start, err := parseDay(from)
	if err != nil {
		return nil, err
	}
	if !isRange {
		return []time.Weekday{start}, nil
	}
	end, err := parseDay(to)
	if err != nil {
		return nil, err
	}
	var out []time.Weekday
	for d := start; ; d = (d + 1) % 7 {
		out = append(out, d)
		if d == end {
			break
		}
	}
	return out, nil
}

func parseDay(tok string) (time.Weekday, error) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if len(tok) >= 3 {
		if d, ok := dayNames[tok[:3]]; ok {
			return d, nil
		}
	}
	return 0, fmt.Errorf("hours: unknown day %q", tok)
}

func parseWindow(tok string) (window, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(tok), "-")
	if !ok {
		return window{}, fmt.Errorf("hours: window %q must look like HH:MM-HH:MM", tok)
	}
	open, err := parseClock(from)
	if err != nil {
		return window{}, err
	}
	closeAt, err := parseClock(to)
	if err != nil {
		return window{}, err
	}
	if open == minutesPerDay {
		return window{}, fmt.Errorf("hours: window %q cannot open at 24:00", tok)
	}
	return window{open: open, close: closeAt}, nil
}

func parseClock(tok string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(tok), ":")
	if !ok {
		return 0, fmt.Errorf("hours: time %q must be HH:MM", tok)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("hours: time %q: %w", tok, err)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("hours: time %q: %w", tok, err)
	}
	if hh < 0 || mm < 0 || mm > 59 || hh > 24 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("hours: time %q out of range", tok)
	}
	return hh*60 + mm, nil
}
