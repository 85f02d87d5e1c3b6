package pumpio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/transport"
)

func TestSend_Note(t *testing.T) {
	c, m := testConnection(t)
	m.AddResponse(transport.JSONResult(200, `{
		"verb": "post",
		"id": "https://identi.ca/api/activity/new1",
		"actor": {"objectType": "person", "id": "acct:t131t@identi.ca"},
		"object": {
			"objectType": "note",
			"id": "https://identi.ca/api/note/new1",
			"content": "fresh note"
		}
	}`))

	note := model.Note{Content: "fresh note"}
	note.Audience.Public = true

	sent, err := c.Send(context.Background(), model.VerbCreate, note)
	require.NoError(t, err)
	assert.Equal(t, "https://identi.ca/api/note/new1", sent.Note.Oid)
	assert.Equal(t, model.StatusSent, sent.Note.Status)

	req := m.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "https://identi.ca/api/user/t131t/feed", req.URL)

	posted, err := m.PostedObject(0)
	require.NoError(t, err)
	assert.Equal(t, "post", posted["verb"])

	obj, _ := posted["object"].(map[string]any)
	require.NotNil(t, obj)
	assert.Equal(t, "note", obj["objectType"])
	assert.Equal(t, "fresh note", obj["content"])

	to, _ := posted["to"].([]any)
	require.Len(t, to, 1)
	first, _ := to[0].(map[string]any)
	assert.Equal(t, PublicCollection, first["id"])
	assert.Equal(t, "collection", first["objectType"])

	gen, _ := posted["generator"].(map[string]any)
	require.NotNil(t, gen)
	assert.Equal(t, "application", gen["objectType"])
}

// Replies are a distinct object type on this platform: the outgoing
// object must say "comment" and point at its parent.
func TestSend_Reply(t *testing.T) {
	c, m := testConnection(t)
	m.AddResponse(transport.JSONResult(200, `{
		"verb": "post",
		"actor": {"objectType": "person", "id": "acct:t131t@identi.ca"},
		"object": {"objectType": "comment", "id": "https://identi.ca/api/comment/r1"}
	}`))

	parent := "https://identi.ca/api/note/F0sHK"
	note := model.Note{
		Name:         "To Peter",
		Content:      "@peter Do you think it's true?",
		InReplyToOid: parent,
	}

	_, err := c.Send(context.Background(), model.VerbCreate, note)
	require.NoError(t, err)

	posted, err := m.PostedObject(0)
	require.NoError(t, err)
	obj, _ := posted["object"].(map[string]any)
	require.NotNil(t, obj)
	assert.Equal(t, "comment", obj["objectType"])
	assert.Equal(t, "To Peter", obj["displayName"])

	inReplyTo, _ := obj["inReplyTo"].(map[string]any)
	require.NotNil(t, inReplyTo)
	assert.Equal(t, parent, inReplyTo["id"])
	assert.Equal(t, "note", inReplyTo["objectType"])
}

func TestSend_Empty(t *testing.T) {
	c, _ := testConnection(t)
	_, err := c.Send(context.Background(), model.VerbCreate, model.Note{})
	assert.Error(t, err)
}

func TestDeleteNote(t *testing.T) {
	c, m := testConnection(t)
	m.AddResponse(transport.JSONResult(200, `{"verb": "delete", "object": {"id": "https://identi.ca/api/note/gone"}}`))

	require.NoError(t, c.DeleteNote(context.Background(), "https://identi.ca/api/note/gone"))

	posted, err := m.PostedObject(0)
	require.NoError(t, err)
	assert.Equal(t, "delete", posted["verb"])
	obj, _ := posted["object"].(map[string]any)
	assert.Equal(t, "note", obj["objectType"])
}

func TestFollow(t *testing.T) {
	c, m := testConnection(t)
	m.SetResponse(transport.JSONResult(200, `{
		"verb": "follow",
		"actor": {"objectType": "person", "id": "acct:t131t@identi.ca"},
		"object": {"objectType": "person", "id": "acct:alice@identi.ca"}
	}`))

	target := model.NewActor(c.origin, "acct:alice@identi.ca")
	act, err := c.Follow(context.Background(), target, true)
	require.NoError(t, err)
	assert.Equal(t, model.VerbFollow, act.Verb)

	posted, err := m.PostedObject(0)
	require.NoError(t, err)
	assert.Equal(t, "follow", posted["verb"])

	_, err = c.Follow(context.Background(), target, false)
	require.NoError(t, err)
	posted, err = m.PostedObject(1)
	require.NoError(t, err)
	assert.Equal(t, "stop-following", posted["verb"])
}

func TestAnnounce_Unsupported(t *testing.T) {
	c, _ := testConnection(t)
	_, err := c.Announce(context.Background(), "https://identi.ca/api/note/x")
	assert.Error(t, err)
	assert.Equal(t, social.KindBadRequest, social.KindOf(err))

	_, err = c.UploadMedia(context.Background(), model.NewAttachment("file:///x.png", "image/png"))
	assert.Error(t, err)
}
