package activitypub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/transport"
)

func testConnection(t *testing.T) (*Connection, *transport.MockTransport) {
	t.Helper()
	data := social.NewConnectionData(model.OriginActivityPub, "https://example.com")
	me := model.NewActor(data.Origin(), "https://example.com/users/me")
	me.Username = "me"
	me.Endpoints.Add(model.EndpointOutbox, "https://example.com/users/me/outbox")
	me.Endpoints.Add(model.EndpointInbox, "https://example.com/users/me/inbox")
	me.Endpoints.Add(model.EndpointFollowers, "https://example.com/users/me/followers")
	me.Endpoints.Add(model.EndpointUpload, "https://example.com/api/upload")
	data.AccountActor = me
	m := transport.NewMock()
	return NewWithTransport(data, m), m
}

func parseJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &obj))
	return obj
}

func TestActorFromJSON(t *testing.T) {
	c, _ := testConnection(t)
	actor := c.ActorFromJSON(parseJSON(t, `{
		"type": "Person",
		"id": "https://example.com/users/alice",
		"preferredUsername": "Alice",
		"name": "Alice Example",
		"summary": "just me",
		"url": "https://example.com/@alice",
		"icon": {"type": "Image", "url": "https://example.com/avatar.png"},
		"inbox": "https://example.com/users/alice/inbox",
		"outbox": "https://example.com/users/alice/outbox",
		"followers": "https://example.com/users/alice/followers",
		"endpoints": {"sharedInbox": "https://example.com/inbox"},
		"published": "2020-01-02T03:04:05Z"
	}`))

	assert.Equal(t, "https://example.com/users/alice", actor.Oid)
	assert.Equal(t, "Alice", actor.Username)
	assert.Equal(t, "Alice Example", actor.RealName)
	assert.Equal(t, "alice@example.com", actor.WebFingerID)
	assert.Equal(t, "https://example.com/avatar.png", actor.AvatarURL)
	assert.True(t, actor.IsFullyDefined())

	inbox, _ := actor.Endpoints.Get(model.EndpointInbox)
	assert.Equal(t, "https://example.com/users/alice/inbox", inbox)
	shared, _ := actor.Endpoints.Get(model.EndpointSharedInbox)
	assert.Equal(t, "https://example.com/inbox", shared)
	profile, _ := actor.Endpoints.Get(model.EndpointProfile)
	assert.Equal(t, actor.Oid, profile)
}

func TestActorFromJSON_NotAnActor(t *testing.T) {
	c, _ := testConnection(t)
	actor := c.ActorFromJSON(parseJSON(t, `{"type": "Note", "id": "https://example.com/notes/1"}`))
	assert.True(t, actor.IsEmpty())
}

// One page of a typical inbox: a note arriving, a follow request, and a
// few profile documents relayed bare.
func TestActivityFromJSON_InboxPage(t *testing.T) {
	c, _ := testConnection(t)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(`[
		{
			"type": "Create",
			"id": "https://example.com/activities/1",
			"actor": "https://example.com/users/alice",
			"published": "2023-05-03T12:00:00Z",
			"to": ["https://www.w3.org/ns/activitystreams#Public"],
			"cc": ["https://example.com/users/alice/followers"],
			"object": {
				"type": "Note",
				"id": "https://example.com/notes/1",
				"content": "hello world",
				"inReplyTo": "https://example.com/notes/0"
			}
		},
		{
			"type": "Follow",
			"id": "https://example.com/activities/2",
			"actor": "https://example.com/users/bob",
			"object": "https://example.com/users/me"
		},
		{"type": "Person", "id": "https://example.com/users/carol", "preferredUsername": "carol"},
		{"type": "Person", "id": "https://example.com/users/dave", "preferredUsername": "dave"},
		{"type": "Service", "id": "https://example.com/users/relay", "preferredUsername": "relay"}
	]`), &items))

	acts := make([]model.Activity, 0, len(items))
	for _, item := range items {
		act, err := c.ActivityFromJSON(item)
		require.NoError(t, err)
		acts = append(acts, act)
	}

	assert.Equal(t, model.VerbCreate, acts[0].Verb)
	assert.Equal(t, model.ObjectNote, acts[0].ObjType)
	assert.Equal(t, "https://example.com/users/alice", acts[0].Actor.Oid)
	assert.Equal(t, "hello world", acts[0].Note.Content)
	assert.Equal(t, "https://example.com/notes/0", acts[0].Note.InReplyToOid)
	assert.True(t, acts[0].Note.Audience.Public, "outer to/cc applies to the note")
	assert.True(t, acts[0].Note.Audience.Followers)

	assert.Equal(t, model.VerbFollow, acts[1].Verb)
	assert.Equal(t, model.ObjectActor, acts[1].ObjType)
	assert.Equal(t, "https://example.com/users/me", acts[1].ObjActor.Oid)

	for _, act := range acts[2:] {
		assert.Equal(t, model.VerbUpdate, act.Verb, "bare actors wrap into updates")
		assert.Equal(t, model.ObjectActor, act.ObjType)
		assert.True(t, act.Actor.SameAs(act.ObjActor))
	}
}

func TestActivityFromJSON_Announce(t *testing.T) {
	c, _ := testConnection(t)
	act, err := c.ActivityFromJSON(parseJSON(t, `{
		"type": "Announce",
		"id": "https://example.com/activities/9",
		"actor": "https://example.com/users/booster",
		"object": {
			"type": "Note",
			"id": "https://far.example.org/notes/7",
			"content": "original post",
			"attributedTo": "https://far.example.org/users/author"
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, model.VerbAnnounce, act.Verb)
	assert.Equal(t, "https://example.com/users/booster", act.Actor.Oid)
	assert.Equal(t, "https://far.example.org/users/author", act.Author.Oid,
		"the announcer is not the author")
	assert.Equal(t, "original post", act.Note.Content)
}

func TestActivityFromJSON_UndoFollow(t *testing.T) {
	c, _ := testConnection(t)
	act, err := c.ActivityFromJSON(parseJSON(t, `{
		"type": "Undo",
		"id": "https://example.com/activities/10",
		"actor": "https://example.com/users/bob",
		"object": {
			"type": "Follow",
			"actor": "https://example.com/users/bob",
			"object": "https://example.com/users/me"
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, model.VerbUndoFollow, act.Verb)
	assert.Equal(t, model.ObjectActor, act.ObjType)
	assert.Equal(t, "https://example.com/users/me", act.ObjActor.Oid)
}

func TestActivityFromJSON_NoteWithAttachments(t *testing.T) {
	c, _ := testConnection(t)
	act, err := c.ActivityFromJSON(parseJSON(t, `{
		"type": "Create",
		"actor": "https://example.com/users/alice",
		"object": {
			"type": "Note",
			"id": "https://example.com/notes/3",
			"content": "look",
			"sensitive": true,
			"attachment": [
				{"type": "Document", "url": "https://example.com/m/1.png", "mediaType": "image/png"},
				{"type": "Document", "url": "", "mediaType": "image/png"}
			]
		}
	}`))
	require.NoError(t, err)
	require.Len(t, act.Note.Attachments, 1, "attachments without a url are dropped")
	assert.Equal(t, "https://example.com/m/1.png", act.Note.Attachments[0].URI)
	assert.Equal(t, "image/png", act.Note.Attachments[0].MediaType)
	assert.True(t, act.Note.Sensitive)
}

func TestActivityFromJSON_Unrecognized(t *testing.T) {
	c, _ := testConnection(t)
	act, err := c.ActivityFromJSON(parseJSON(t, `{"type": "Arrive", "id": "https://example.com/activities/11"}`))
	require.NoError(t, err)
	assert.Equal(t, model.VerbUnknown, act.Verb)
	assert.Equal(t, "https://example.com/activities/11", act.Oid)
}
