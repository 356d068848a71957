package modaics

import (
	"fmt"
	"strings"
	"time"

	"github.com/modaics/modaics-go/internal/types"
)

// timestampFormats is the ordered list of parse attempts. The backend emits
// naive ISO strings with and without fractional seconds; order matters and
// the first successful parse wins.
var timestampFormats = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Timestamp is a custom type that handles the backend's mixed date formats.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	// Remove quotes
	str := strings.Trim(string(data), `"`)

	// Handle null/empty
	if str == "" || str == "null" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := ParseTimestamp(str)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf(`"%s"`, t.Time.UTC().Format("2006-01-02T15:04:05.999999"))), nil
}

// String returns the timestamp in the backend's canonical format.
func (t Timestamp) String() string {
	if t.Time.IsZero() {
		return ""
	}
	return t.Time.UTC().Format("2006-01-02T15:04:05.999999")
}

// ParseTimestamp parses a date string against the known formats in priority
// order. Formats without a zone are interpreted as UTC. Failure to parse any
// format is a decoding error naming the offending string.
func ParseTimestamp(str string) (time.Time, error) {
	for _, format := range timestampFormats {
		if parsed, err := time.Parse(format, str); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, &types.DecodingError{
		Value: str,
		Err:   fmt.Errorf("unable to parse date: %s", str),
	}
}
