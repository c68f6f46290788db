package derive

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NormalizeTime converts a GTFS time ("H:MM", "HH:MM:SS", or past-midnight
// values such as "25:30:00") to a wall-clock "HH:MM". Malformed input
// yields "".
func NormalizeTime(s string) string {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return ""
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hours < 0 {
		return ""
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minutes < 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", hours%24, minutes)
}

// TimeToMinutes returns minutes since midnight for an "HH:MM" value, with
// the hour taken modulo 24. Unparseable values count as midnight.
func TimeToMinutes(s string) int {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return (hours%24)*60 + minutes
}

// SortTimes deduplicates times and orders them by time of day
func SortTimes(times []string) []string {
	seen := make(map[string]bool, len(times))
	out := make([]string, 0, len(times))
	for _, t := range times {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := TimeToMinutes(out[i]), TimeToMinutes(out[j])
		if mi != mj {
			return mi < mj
		}
		return out[i] < out[j]
	})
	return out
}

// timeSet collects normalized times and emits them sorted
type timeSet map[string]bool

func (s timeSet) add(t string) {
	if t != "" {
		s[t] = true
	}
}

func (s timeSet) sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return SortTimes(out)
}
