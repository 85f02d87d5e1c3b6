package transport

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTransport_QueueOrder(t *testing.T) {
	m := NewMock().
		AddResponse(JSONResult(200, `{"n": 1}`)).
		AddResponse(JSONResult(200, `{"n": 2}`)).
		SetResponse(JSONResult(404, `{}`))

	for want := 1; want <= 2; want++ {
		rr, err := m.Execute(context.Background(), &Request{URL: "https://example.com"})
		require.NoError(t, err)
		obj, err := rr.JSONObject()
		require.NoError(t, err)
		assert.EqualValues(t, want, obj["n"])
	}

	// Queue is drained, the repeated response takes over
	rr, err := m.Execute(context.Background(), &Request{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 404, rr.StatusCode)
	rr, err = m.Execute(context.Background(), &Request{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 404, rr.StatusCode)

	assert.Equal(t, 4, m.RequestCount())
}

func TestMockTransport_NoResponse(t *testing.T) {
	m := NewMock()
	_, err := m.Execute(context.Background(), &Request{Method: "GET", URL: "https://example.com"})
	assert.Error(t, err)
}

func TestMockTransport_Error(t *testing.T) {
	boom := errors.New("connection reset")
	m := NewMock().SetResponse(JSONResult(200, `{}`)).SetError(boom)
	_, err := m.Execute(context.Background(), &Request{URL: "https://example.com"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.RequestCount(), "failed calls still count as traffic")
}

func TestMockTransport_PostedObject(t *testing.T) {
	m := NewMock().SetResponse(JSONResult(200, `{}`))
	_, err := m.Execute(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    "https://example.com/outbox",
		JSON:   map[string]any{"verb": "post", "object": map[string]any{"id": "x"}},
	})
	require.NoError(t, err)

	obj, err := m.PostedObject(0)
	require.NoError(t, err)
	assert.Equal(t, "post", obj["verb"])

	last := m.LastRequest()
	require.NotNil(t, last)
	assert.Equal(t, "https://example.com/outbox", last.URL)

	_, err = m.PostedObject(5)
	assert.Error(t, err)
}

func TestMockTransport_DelayRespectsContext(t *testing.T) {
	m := NewMock().SetResponse(JSONResult(200, `{}`))
	m.Delay = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.Execute(ctx, &Request{URL: "https://example.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
