package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ReadResult is what came back from one request: status line, raw body,
// and parsed JSON on demand. Parsing is lazy and cached because plenty of
// callers only care about the status.
type ReadResult struct {
	URL        string
	StatusCode int
	Status     string
	Body       []byte

	obj    map[string]any
	arr    []any
	parsed bool
}

func (r *ReadResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *ReadResult) HasBody() bool {
	return len(bytes.TrimSpace(r.Body)) > 0
}

// JSONObject parses the body as a JSON object.
func (r *ReadResult) JSONObject() (map[string]any, error) {
	if err := r.parse(); err != nil {
		return nil, err
	}
	if r.obj == nil {
		return nil, fmt.Errorf("response from %s is not a JSON object", r.URL)
	}
	return r.obj, nil
}

// JSONArray parses the body as a JSON array.
func (r *ReadResult) JSONArray() ([]any, error) {
	if err := r.parse(); err != nil {
		return nil, err
	}
	if r.arr == nil {
		return nil, fmt.Errorf("response from %s is not a JSON array", r.URL)
	}
	return r.arr, nil
}

func (r *ReadResult) parse() error {
	if r.parsed {
		return nil
	}
	body := bytes.TrimSpace(r.Body)
	if len(body) == 0 {
		return fmt.Errorf("empty response body from %s", r.URL)
	}
	switch body[0] {
	case '{':
		if err := json.Unmarshal(body, &r.obj); err != nil {
			return fmt.Errorf("parsing response from %s: %w", r.URL, err)
		}
	case '[':
		if err := json.Unmarshal(body, &r.arr); err != nil {
			return fmt.Errorf("parsing response from %s: %w", r.URL, err)
		}
	default:
		return fmt.Errorf("response from %s is not JSON", r.URL)
	}
	r.parsed = true
	return nil
}

func (r *ReadResult) String() string {
	return fmt.Sprintf("%s %s (%d bytes)", r.Status, r.URL, len(r.Body))
}

// JSONResult builds a ReadResult from a status code and a JSON body.
// Handy for canned responses.
func JSONResult(status int, body string) *ReadResult {
	return &ReadResult{
		StatusCode: status,
		Status:     fmt.Sprintf("%d", status),
		Body:       []byte(body),
	}
}
