package config

import (
	"fmt"
	"strconv"
	"strings"
)

// HourRange is an inclusive UTC hour range. Start > End wraps midnight,
// e.g. 23-2 covers 23, 0, 1 and 2.
type HourRange struct {
	Start int
	End   int
}

// Contains reports whether hour falls inside the range.
func (r HourRange) Contains(hour int) bool {
	if r.Start <= r.End {
		return hour >= r.Start && hour <= r.End
	}
	return hour >= r.Start || hour <= r.End
}

// Windows is a set of allowed trade windows.
type Windows []HourRange

// Contains reports whether hour falls inside any window.
func (w Windows) Contains(hour int) bool {
	for _, r := range w {
		if r.Contains(hour) {
			return true
		}
	}
	return false
}

// ParseWindows parses a comma-separated list of UTC hour ranges, e.g.
// "6-7,9-11,21-22". A single hour may be given without a dash.
func ParseWindows(spec string) (Windows, error) {
	parts := strings.Split(spec, ",")
	out := make(Windows, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var r HourRange
		if i := strings.IndexByte(part, '-'); i >= 0 {
			start, err := parseHour(part[:i])
			if err != nil {
				return nil, fmt.Errorf("range %q: %w", part, err)
			}
			end, err := parseHour(part[i+1:])
			if err != nil {
				return nil, fmt.Errorf("range %q: %w", part, err)
			}
			r = HourRange{Start: start, End: end}
		} else {
			h, err := parseHour(part)
			if err != nil {
				return nil, fmt.Errorf("range %q: %w", part, err)
			}
			r = HourRange{Start: h, End: h}
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no windows in %q", spec)
	}
	return out, nil
}

func parseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %d out of range 0..23", h)
	}
	return h, nil
}
