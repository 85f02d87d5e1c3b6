package social

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	assert.Equal(t, "https://id", ParseID("https://id"))
	assert.Equal(t, "https://id", ParseID(map[string]any{
		"id":   "https://id",
		"name": "Alice",
	}))
	assert.Equal(t, "", ParseID(map[string]any{"name": "Alice"}))
	assert.Equal(t, "", ParseID(nil))
	assert.Equal(t, "", ParseID(42))
}

func TestJSONStrings(t *testing.T) {
	var obj map[string]any
	err := json.Unmarshal([]byte(`{
		"one": "https://a",
		"many": ["https://a", {"id": "https://b"}, 7],
		"empty": ""
	}`), &obj)
	assert.NoError(t, err)

	assert.Equal(t, []string{"https://a"}, JSONStrings(obj, "one"))
	assert.Equal(t, []string{"https://a", "https://b"}, JSONStrings(obj, "many"))
	assert.Nil(t, JSONStrings(obj, "empty"))
	assert.Nil(t, JSONStrings(obj, "missing"))
}

func TestParseTime(t *testing.T) {
	// The formats the four platform families actually emit
	tests := map[string]time.Time{
		"2023-05-03T12:00:00Z":           time.Date(2023, 5, 3, 12, 0, 0, 0, time.UTC),
		"2023-05-03T12:00:00+02:00":      time.Date(2023, 5, 3, 10, 0, 0, 0, time.UTC),
		"Wed May 03 12:00:00 +0000 2023": time.Date(2023, 5, 3, 12, 0, 0, 0, time.UTC),
		"not a timestamp":                {},
		"":                               {},
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseTime(in), "input %q", in)
	}
}

func TestJSONInt64(t *testing.T) {
	var obj map[string]any
	err := json.Unmarshal([]byte(`{"count": 42, "name": "x"}`), &obj)
	assert.NoError(t, err)
	assert.EqualValues(t, 42, JSONInt64(obj, "count"))
	assert.EqualValues(t, 0, JSONInt64(obj, "name"))
	assert.EqualValues(t, 0, JSONInt64(obj, "missing"))
}
