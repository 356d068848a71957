package modaics

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_Formats(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"iso with microseconds", "2024-01-15T10:30:00.000000"},
		{"iso without fraction", "2024-01-15T10:30:00"},
		{"space separated", "2024-01-15 10:30:00"},
		{"rfc3339", "2024-01-15T10:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, parsed.Equal(want), "got %v", parsed)
		})
	}
}

func TestParseTimestamp_FractionalSeconds(t *testing.T) {
	parsed, err := ParseTimestamp("2024-01-15T10:30:00.123456")
	require.NoError(t, err)
	assert.Equal(t, 123456000, parsed.Nanosecond())
}

func TestParseTimestamp_DateOnly(t *testing.T) {
	parsed, err := ParseTimestamp("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), parsed)
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("not-a-date")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecoding))

	var decErr *DecodingError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, "not-a-date", decErr.Value)
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	var v struct {
		CreatedAt Timestamp `json:"created_at"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"created_at": "2024-01-15T10:30:00.123456"}`), &v))
	assert.False(t, v.CreatedAt.IsZero())
	assert.Equal(t, 2024, v.CreatedAt.Year())
}

func TestTimestamp_UnmarshalJSON_Null(t *testing.T) {
	var v struct {
		CreatedAt Timestamp `json:"created_at"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"created_at": null}`), &v))
	assert.True(t, v.CreatedAt.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"created_at": ""}`), &v))
	assert.True(t, v.CreatedAt.IsZero())
}

func TestTimestamp_MarshalRoundTrip(t *testing.T) {
	ts := Timestamp{Time: time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.UTC)}

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-15T10:30:00.123456"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(ts.Time))
}

func TestTimestamp_MarshalZero(t *testing.T) {
	data, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
	assert.Equal(t, "", Timestamp{}.String())
}
