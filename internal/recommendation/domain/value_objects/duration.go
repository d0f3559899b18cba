package value_objects

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrDurationTooLong = errors.New("duration exceeds maximum allowed")
)

// MaxDuration is the maximum estimate a task can carry (8 hours).
const MaxDuration = 8 * time.Hour

// Duration is an estimated task effort. The zero value means "no estimate".
type Duration struct {
	value time.Duration
}

// NewDuration creates a new Duration value object.
func NewDuration(d time.Duration) (Duration, error) {
	if d < 0 {
		return Duration{}, ErrInvalidDuration
	}
	if d > MaxDuration {
		return Duration{}, ErrDurationTooLong
	}
	return Duration{value: d}, nil
}

// DurationFromMinutes creates a Duration from a minute count.
func DurationFromMinutes(minutes int) (Duration, error) {
	return NewDuration(time.Duration(minutes) * time.Minute)
}

// MustDurationFromMinutes creates a Duration or panics on error.
func MustDurationFromMinutes(minutes int) Duration {
	dur, err := DurationFromMinutes(minutes)
	if err != nil {
		panic(err)
	}
	return dur
}

// Zero returns a zero duration.
func Zero() Duration {
	return Duration{value: 0}
}

// Minutes returns the duration in minutes.
func (d Duration) Minutes() int {
	return int(d.value.Minutes())
}

// Value returns the underlying time.Duration.
func (d Duration) Value() time.Duration {
	return d.value
}

// IsZero returns true if no estimate is set.
func (d Duration) IsZero() bool {
	return d.value == 0
}

// String returns a human-readable representation.
func (d Duration) String() string {
	if d.value == 0 {
		return "0m"
	}
	hours := int(d.value.Hours())
	minutes := int(d.value.Minutes()) % 60

	if hours > 0 && minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}

// MarshalJSON encodes the duration as whole minutes.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Minutes())
}

// UnmarshalJSON decodes whole minutes.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var minutes int
	if err := json.Unmarshal(data, &minutes); err != nil {
		return err
	}
	parsed, err := DurationFromMinutes(minutes)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
