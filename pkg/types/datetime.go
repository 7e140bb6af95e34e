package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocalDateTimeLayout is the zone-less wire format for booking dates.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

var acceptedLayouts = []string{
	LocalDateTimeLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.RFC3339Nano,
}

// LocalDateTime carries a timestamp that is written without a zone and read
// either without one (server local time) or as RFC 3339.
type LocalDateTime struct {
	time.Time
}

func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t}
}

// ParseLocalDateTime accepts any of the supported layouts.
func ParseLocalDateTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range acceptedLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q", value)
}

func (d LocalDateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.In(time.Local).Format(LocalDateTimeLayout))
}

func (d *LocalDateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date-time must be a string: %w", err)
	}
	t, err := ParseLocalDateTime(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
