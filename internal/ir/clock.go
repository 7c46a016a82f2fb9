package ir

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinutesPerDay bounds ClockTime values.
const MinutesPerDay = 24 * 60

// ClockTime is a time of day expressed as minutes after midnight.
//
// Rules and schedules only ever compare times within a single day, so no
// date or zone is carried.
type ClockTime int

// clockLayouts are tried in order. The 12-hour forms match the rules files
// ("12:30 PM") and the solver's CSV header ("7:30 AM").
var clockLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"15:04",
}

// ParseClock parses a clock string such as "12:30 PM", "7:30am" or "15:04".
func ParseClock(s string) (ClockTime, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if normalized == "" {
		return 0, fmt.Errorf("invalid clock time %q: empty", s)
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, normalized)
		if err == nil {
			return ClockTime(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q: expected h:mm AM/PM", s)
}

// MustParseClock is like ParseClock but panics on error.
// Intended for tests and package-level fixtures.
func MustParseClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Clock builds a ClockTime from a 24-hour hour and minute.
func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// Hour returns the 24-hour hour component.
func (c ClockTime) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c ClockTime) Minute() int { return int(c) % 60 }

// OnHour reports whether the time falls exactly on an hour boundary.
func (c ClockTime) OnHour() bool { return c.Minute() == 0 }

// Valid reports whether the value is within a single day.
func (c ClockTime) Valid() bool { return c >= 0 && c < MinutesPerDay }

// String formats the time the way the solver prints it: "3:04 PM", no
// leading zero on the hour.
func (c ClockTime) String() string {
	hour := c.Hour()
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, c.Minute(), suffix)
}

// MarshalJSON encodes the time as its 12-hour string.
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts any string ParseClock accepts.
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("clock time must be a string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML encodes the time as its 12-hour string.
func (c ClockTime) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// UnmarshalYAML accepts any scalar ParseClock accepts.
func (c *ClockTime) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: clock time must be a scalar", node.Line)
	}
	parsed, err := ParseClock(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}
