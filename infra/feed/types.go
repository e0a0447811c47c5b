package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time-of-day field parsed from CSV in HH:MM:SS form.
// Hours past 24 are allowed for trips running over service midnight.
type ClockTime struct {
	time.Duration
	set bool
}

// MarshalCSV marshals the value back into HH:MM:SS form.
func (c *ClockTime) MarshalCSV() (string, error) {
	if !c.set {
		return "", nil
	}
	total := int(c.Duration / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60), nil
}

// UnmarshalCSV parses HH:MM:SS into an offset from midnight. An empty field
// leaves the value unset.
func (c *ClockTime) UnmarshalCSV(csv string) error {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		c.set = false
		return nil
	}
	parts := strings.Split(csv, ":")
	if len(parts) != 3 {
		return fmt.Errorf("invalid clock time %q", csv)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("invalid clock time %q: %w", csv, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("invalid clock time %q: %w", csv, err)
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil {
		return fmt.Errorf("invalid clock time %q: %w", csv, err)
	}
	if h < 0 || m < 0 || m > 59 || s < 0 || s > 59 {
		return fmt.Errorf("clock time out of range %q", csv)
	}
	c.Duration = time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	c.set = true
	return nil
}

// IsSet reports whether the field was present in the input.
func (c ClockTime) IsSet() bool { return c.set }

// Resolve anchors the offset on the reference midnight.
func (c ClockTime) Resolve(midnight time.Time) time.Time { return midnight.Add(c.Duration) }
