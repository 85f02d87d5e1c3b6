package social

import (
	"github.com/tkrehbiel/fedsync/social/transport"
)

// CheckResult classifies the outcome of a transport call into the error
// taxonomy: I/O failures are soft, HTTP statuses map per FromStatus, and
// the response body rides along as the diagnostic payload.
func CheckResult(rr *transport.ReadResult, err error) (*transport.ReadResult, error) {
	if err != nil {
		return nil, Soft("network failure").WithWrapped(err)
	}
	if cerr := FromStatus(rr.StatusCode, rr.URL); cerr != nil {
		return nil, cerr.WithPayload(rr.Body)
	}
	return rr, nil
}

// ObjectOf parses a successful result body as a JSON object, wrapping
// parse failures as hard errors with the payload attached.
func ObjectOf(rr *transport.ReadResult) (map[string]any, error) {
	obj, err := rr.JSONObject()
	if err != nil {
		return nil, Hard("unexpected response shape from %s", rr.URL).
			WithWrapped(err).WithPayload(rr.Body)
	}
	return obj, nil
}

// ArrayOf parses a successful result body as a JSON array.
func ArrayOf(rr *transport.ReadResult) ([]any, error) {
	arr, err := rr.JSONArray()
	if err != nil {
		return nil, Hard("unexpected response shape from %s", rr.URL).
			WithWrapped(err).WithPayload(rr.Body)
	}
	return arr, nil
}
