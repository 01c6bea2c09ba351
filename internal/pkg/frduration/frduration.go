// Package frduration parses the French "time since last update" phrases
// emitted by the VLille feed, e.g. "6 heure(s) 4 minute(s) 2 secondes".
package frduration

import (
	"regexp"
	"strconv"
	"time"
)

// Unit words as written by the upstream service.
const (
	hoursWord   = `heure\(s\)`
	minutesWord = `minute\(s\)`
	secondsWord = `secondes`
)

// Hours and minutes are each optional and count as 0 when absent;
// seconds are always present.
var phrase = regexp.MustCompile(
	`(?:(?P<hours>\d+) ` + hoursWord + ` )?` +
		`(?:(?P<minutes>\d+) ` + minutesWord + ` )?` +
		`(?P<seconds>\d+) ` + secondsWord,
)

// Parse returns the duration expressed by s.
// ok is false when s does not contain a recognised phrase.
func Parse(s string) (d time.Duration, ok bool) {
	secs, ok := SecondsAgo(s)
	if !ok {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// SecondsAgo returns the number of seconds expressed by s.
func SecondsAgo(s string) (int64, bool) {
	m := phrase.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	var total int64
	for unit, mult := range map[string]int64{"hours": 3600, "minutes": 60, "seconds": 1} {
		v := m[phrase.SubexpIndex(unit)]
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		total += n * mult
	}
	return total, true
}

// EpochFrom converts s into a Unix timestamp relative to now.
// It returns -1 when s cannot be parsed.
func EpochFrom(now time.Time, s string) int64 {
	d, ok := Parse(s)
	if !ok {
		return -1
	}
	return now.Add(-d).Unix()
}
