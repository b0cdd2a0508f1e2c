package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kamusis/answerhub/internal/dispatch"
)

func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// weekdaysBetween counts occurrences of day in [start, end]. Both bounds are
// calendar dates; time.Duration would overflow past about 292 years.
func weekdaysBetween(start, end time.Time, day time.Weekday) int {
	if end.Before(start) {
		return 0
	}
	days := int(civilDay(end)-civilDay(start)) + 1
	n := days / 7
	first := int(start.Weekday())
	for i := 0; i < days%7; i++ {
		if time.Weekday((first+i)%7) == day {
			n++
		}
	}
	return n
}

// civilDay returns the day number of t's calendar date, counted from the Unix epoch.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	secs := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
	if secs < 0 {
		return (secs - 86399) / 86400
	}
	return secs / 86400
}

func countWeekdays(_ context.Context, c *dispatch.Call) (any, error) {
	name, err := c.Text("weekday")
	if err != nil {
		return nil, err
	}
	day, err := parseWeekday(name)
	if err != nil {
		return nil, err
	}
	var bounds [2]time.Time
	for i, p := range []string{"start_date", "end_date"} {
		s, err := c.Text(p)
		if err != nil {
			return nil, err
		}
		bounds[i], err = time.Parse(time.DateOnly, strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return weekdaysBetween(bounds[0], bounds[1], day), nil
}
