package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Number is a float64 that tolerates the loosely typed numbers the
// Wildberries APIs return: JSON numbers, numeric strings (with a comma
// or dot separator), empty strings and null. Anything unparseable
// decodes to 0 instead of failing the whole payload.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		raw = s
	}

	*n = Number(parseLooseFloat(raw))
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

func (n Number) Int() int {
	return int(n)
}

func parseLooseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Text decodes a JSON string or number into its string form. Identifiers
// such as nmId or document numbers arrive as either.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*t = ""
			return nil
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		*t = ""
		return nil
	}
	*t = Text(num.String())
	return nil
}

func (t Text) String() string {
	return string(t)
}

const DateLayout = "2006-01-02"

// ParseDay parses the date part of the timestamp formats seen across the
// upstream APIs and truncates it to midnight UTC.
func ParseDay(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	dateFormats := []string{
		time.RFC3339Nano,      // 2006-01-02T15:04:05.999999999Z07:00
		"2006-01-02T15:04:05", // without zone
		"2006-01-02 15:04:05", // YYYY-MM-DD HH:MM:SS
		DateLayout,            // YYYY-MM-DD
		"02.01.2006",          // DD.MM.YYYY
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}

	// Timestamps with fractional seconds and no zone
	if len(value) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, value[:len(DateLayout)]); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
