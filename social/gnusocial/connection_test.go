package gnusocial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/transport"
)

func testConnection(t *testing.T) (*Connection, *transport.MockTransport) {
	t.Helper()
	data := social.NewConnectionData(model.OriginGNUSocial, "https://quitter.example")
	data.BasicUsername = "me"
	data.BasicPassword = "secret"
	m := transport.NewMock()
	return NewWithTransport(data, m), m
}

func TestHasAPIEndpoint(t *testing.T) {
	c, _ := testConnection(t)
	assert.True(t, c.HasAPIEndpoint(social.APIPublicTimeline), "the clones kept the public firehose")
	assert.False(t, c.HasAPIEndpoint(social.APIGetFriends))
	assert.False(t, c.HasAPIEndpoint(social.APIRegisterClient))
	assert.True(t, c.HasAPIEndpoint(social.APIHomeTimeline))
	assert.True(t, c.HasAPIEndpoint(social.APIPostNote))
}

func TestGetTimeline_APIPrefix(t *testing.T) {
	c, m := testConnection(t)
	m.AddResponse(transport.JSONResult(200, `[
		{
			"id_str": "90",
			"text": "from the federated cloud",
			"user": {
				"id_str": "5",
				"screen_name": "someone",
				"statusnet_profile_url": "https://quitter.example/someone"
			}
		}
	]`))

	timeline, err := c.GetTimeline(context.Background(), social.APIPublicTimeline,
		model.EmptyPosition, model.EmptyPosition, 0, model.EmptyActor())
	require.NoError(t, err)
	require.Len(t, timeline.Items, 1)

	act := timeline.Items[0]
	assert.Equal(t, model.VerbCreate, act.Verb)
	assert.Equal(t, "https://quitter.example/someone", act.Actor.ProfileURL,
		"statusnet profile url is canonical on the clones")

	req := m.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "https://quitter.example/api/statuses/public_timeline.json", req.URL)
}

func TestGetFriends_Refused(t *testing.T) {
	c, m := testConnection(t)

	// Even an unchecked call must not reach the server.
	_, err := c.GetFriends(context.Background(), model.EmptyActor())
	assert.Error(t, err)
	assert.Equal(t, social.KindBadRequest, social.KindOf(err))
	assert.Equal(t, 0, m.RequestCount())
}

func TestNew_BasicAuth(t *testing.T) {
	data := social.NewConnectionData(model.OriginGNUSocial, "https://quitter.example")
	data.BasicUsername = "me"
	data.BasicPassword = "secret"

	conn, err := social.NewConnection(data)
	require.NoError(t, err)
	assert.NotNil(t, conn)
}
