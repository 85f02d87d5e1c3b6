package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/transport"
)

func testResolver(t *testing.T) (*Resolver, *transport.MockTransport) {
	t.Helper()
	data := NewConnectionData(model.OriginActivityPub, "https://home.example.com")
	local := transport.NewMock()
	r := NewResolver(data, local, func(d ConnectionData) transport.Sender {
		return transport.NewMock()
	})
	return r, local
}

func TestResolver_SameHost(t *testing.T) {
	r, local := testResolver(t)

	actor := model.NewActor(r.Data.Origin(), "https://home.example.com/users/me")
	actor.Endpoints.Add(model.EndpointOutbox, "https://home.example.com/users/me/outbox")

	resolved, err := r.Resolve(context.Background(), APIPostNote, actor)
	assert.NoError(t, err)
	assert.Equal(t, "https://home.example.com/users/me/outbox", resolved.URL)
	assert.Same(t, transport.Sender(local), resolved.Transport, "own host reuses the local transport")
}

func TestResolver_MissingEndpoint(t *testing.T) {
	r, _ := testResolver(t)

	actor := model.NewActor(r.Data.Origin(), "https://home.example.com/users/me")
	_, err := r.Resolve(context.Background(), APIGetFollowers, actor)
	assert.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err), "no guessing at URLs the actor didn't declare")
}

func TestResolver_ForeignHostRegisters(t *testing.T) {
	r, local := testResolver(t)
	store := fakeStore{}
	r.Store = store

	registrations := 0
	r.Register = func(ctx context.Context, data ConnectionData, tr transport.Sender) (ClientKeys, error) {
		registrations++
		assert.Equal(t, "far.example.org", data.Host())
		assert.False(t, data.HasClientKeys(), "home keys must not leak to a foreign host")
		return ClientKeys{Key: "new-key", Secret: "new-secret"}, nil
	}

	actor := model.NewActor(r.Data.Origin(), "https://far.example.org/users/them")
	actor.Endpoints.Add(model.EndpointFollowers, "https://far.example.org/users/them/followers")

	resolved, err := r.Resolve(context.Background(), APIGetFollowers, actor)
	assert.NoError(t, err)
	assert.Equal(t, 1, registrations)
	assert.NotSame(t, transport.Sender(local), resolved.Transport)
	assert.Equal(t, "new-key", resolved.Data.ClientKey)

	// Registration is persisted per host
	assert.Equal(t, "new-key", store["host.far.example.org.oauth_client_key"])
	assert.Equal(t, "new-secret", store["host.far.example.org.oauth_client_secret"])

	// Second resolve hits the cache, no second registration
	_, err = r.Resolve(context.Background(), APIGetFollowers, actor)
	assert.NoError(t, err)
	assert.Equal(t, 1, registrations)
}

func TestResolver_ForeignHostUsesPersistedKeys(t *testing.T) {
	r, _ := testResolver(t)
	r.Store = fakeStore{
		"host.far.example.org.oauth_client_key":    "old-key",
		"host.far.example.org.oauth_client_secret": "old-secret",
	}
	r.Register = func(ctx context.Context, data ConnectionData, tr transport.Sender) (ClientKeys, error) {
		t.Fatal("should not re-register a host with persisted keys")
		return ClientKeys{}, nil
	}

	actor := model.NewActor(r.Data.Origin(), "https://far.example.org/users/them")
	actor.Endpoints.Add(model.EndpointInbox, "https://far.example.org/users/them/inbox")

	resolved, err := r.Resolve(context.Background(), APIHomeTimeline, actor)
	assert.NoError(t, err)
	assert.Equal(t, "old-key", resolved.Data.ClientKey)
}

func TestResolver_RegistrationFailure(t *testing.T) {
	r, _ := testResolver(t)
	r.Register = func(ctx context.Context, data ConnectionData, tr transport.Sender) (ClientKeys, error) {
		return ClientKeys{}, AuthError("no credentials for host %s", data.Host())
	}

	actor := model.NewActor(r.Data.Origin(), "https://far.example.org/users/them")
	actor.Endpoints.Add(model.EndpointInbox, "https://far.example.org/users/them/inbox")

	_, err := r.Resolve(context.Background(), APIHomeTimeline, actor)
	assert.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
}
