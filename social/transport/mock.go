package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MockTransport is an in-memory Sender: canned responses consumed in
// order (or one repeated response), injected errors, captured request
// history, and an artificial per-call delay. Higher layers substitute it
// for the real transport, so it lives here rather than in a _test file.
type MockTransport struct {
	// Delay is applied before each call, simulating a slow network.
	Delay time.Duration

	mu       sync.Mutex
	queued   []*ReadResult
	repeated *ReadResult
	err      error
	requests []Request
}

func NewMock() *MockTransport {
	return &MockTransport{}
}

// AddResponse queues a canned response; queued responses are consumed in
// FIFO order before the repeated response is considered.
func (m *MockTransport) AddResponse(rr *ReadResult) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, rr)
	return m
}

// SetResponse sets the response returned whenever the queue is empty.
func (m *MockTransport) SetResponse(rr *ReadResult) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeated = rr
	return m
}

// SetError makes every subsequent call fail with err until cleared.
func (m *MockTransport) SetError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *MockTransport) Execute(ctx context.Context, req *Request) (*ReadResult, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, *req)

	if m.err != nil {
		return nil, m.err
	}
	if len(m.queued) > 0 {
		rr := m.queued[0]
		m.queued = m.queued[1:]
		return rr, nil
	}
	if m.repeated != nil {
		return m.repeated, nil
	}
	return nil, fmt.Errorf("mock transport: no canned response for %s %s", req.Method, req.URL)
}

// Requests returns a copy of everything executed so far.
func (m *MockTransport) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockTransport) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil when none were made.
func (m *MockTransport) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	r := m.requests[len(m.requests)-1]
	return &r
}

// PostedObject decodes the JSON body of request i as a generic map, the
// shape assertions in tests want.
func (m *MockTransport) PostedObject(i int) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.requests) {
		return nil, fmt.Errorf("mock transport: no request %d", i)
	}
	b, err := json.Marshal(m.requests[i].JSON)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
