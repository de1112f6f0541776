// Package timestamp parses the replay API's ISO-8601 timestamps, which carry
// anywhere from zero to nine fractional digits and either a trailing Z or an
// explicit offset.
package timestamp

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ErrMalformedTimestamp = errors.New("malformed timestamp")

const (
	layout      = "2006-01-02T15:04:05-07:00"
	maxFraction = 6
)

var pattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})(?:\.(\d+))?([+-]\d{2}:\d{2})$`)

// Normalize rewrites s into YYYY-MM-DDTHH:MM:SS[.ffffff]±HH:MM. Extra
// fractional digits are truncated, never rounded.
func Normalize(s string) (string, error) {
	value := strings.TrimSpace(s)
	if strings.HasSuffix(value, "Z") || strings.HasSuffix(value, "z") {
		value = value[:len(value)-1] + "+00:00"
	}

	match := pattern.FindStringSubmatch(value)
	if match == nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}

	fraction := match[2]
	if len(fraction) > maxFraction {
		fraction = fraction[:maxFraction]
	}
	if fraction == "" {
		return match[1] + match[3], nil
	}
	return match[1] + "." + fraction + match[3], nil
}

func Parse(s string) (time.Time, error) {
	normalized, err := Normalize(s)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(layout, normalized)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, s, err)
	}
	return t, nil
}

// Between returns end minus start in seconds. The result may be negative.
func Between(start, end string) (float64, error) {
	from, err := Parse(start)
	if err != nil {
		return 0, err
	}
	to, err := Parse(end)
	if err != nil {
		return 0, err
	}
	return to.Sub(from).Seconds(), nil
}
