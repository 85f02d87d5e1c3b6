package activitypub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/transport"
)

func TestSend_Create(t *testing.T) {
	c, m := testConnection(t)
	m.AddResponse(transport.JSONResult(200, `{
		"type": "Create",
		"id": "https://example.com/activities/900",
		"actor": "https://example.com/users/me",
		"object": {
			"type": "Note",
			"id": "https://example.com/notes/900",
			"content": "hello fediverse"
		}
	}`))

	note := model.Note{Content: "hello fediverse", Status: model.StatusComposing}
	note.Audience.Public = true
	note.Audience.Followers = true

	sent, err := c.Send(context.Background(), model.VerbCreate, note)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/notes/900", sent.Note.Oid,
		"the sent note carries the server-assigned oid")
	assert.Equal(t, model.StatusSent, sent.Note.Status)
	assert.Equal(t, 1, m.RequestCount())

	posted, err := m.PostedObject(0)
	require.NoError(t, err)
	assert.Equal(t, "Create", posted["type"])
	assert.Equal(t, "https://example.com/users/me", posted["actor"])
	to, _ := posted["to"].([]any)
	assert.Contains(t, to, model.PublicOid)
	cc, _ := posted["cc"].([]any)
	assert.Contains(t, cc, "https://example.com/users/me/followers")
}

// Some servers drop the note text when a Create carries an attachment.
// The adapter detects the echo with empty content and re-issues the note
// once as an Update.
func TestSend_ContentDroppedOnCreate(t *testing.T) {
	c, m := testConnection(t)
	m.AddResponse(transport.JSONResult(200, `{
		"type": "Create",
		"actor": "https://example.com/users/me",
		"object": {"type": "Note", "id": "https://example.com/notes/901", "content": ""}
	}`))
	m.AddResponse(transport.JSONResult(200, `{
		"type": "Update",
		"actor": "https://example.com/users/me",
		"object": {"type": "Note", "id": "https://example.com/notes/901", "content": "caption text"}
	}`))

	note := model.Note{Content: "caption text"}
	note.AddAttachment(model.NewAttachment("https://example.com/m/1.png", "image/png"))

	sent, err := c.Send(context.Background(), model.VerbCreate, note)
	require.NoError(t, err)
	assert.Equal(t, "caption text", sent.Note.Content)
	require.Equal(t, 2, m.RequestCount())

	first, err := m.PostedObject(0)
	require.NoError(t, err)
	assert.Equal(t, "Create", first["type"])

	second, err := m.PostedObject(1)
	require.NoError(t, err)
	assert.Equal(t, "Update", second["type"])
	obj, _ := second["object"].(map[string]any)
	require.NotNil(t, obj)
	assert.Equal(t, "https://example.com/notes/901", obj["id"],
		"the retry updates the note the server created")
	assert.Equal(t, "caption text", obj["content"])
}

func TestSend_ContentDroppedTwice(t *testing.T) {
	c, m := testConnection(t)
	echo := `{
		"type": "Create",
		"actor": "https://example.com/users/me",
		"object": {"type": "Note", "id": "https://example.com/notes/902", "content": ""}
	}`
	m.AddResponse(transport.JSONResult(200, echo))
	m.AddResponse(transport.JSONResult(200, echo))

	note := model.Note{Content: "caption"}
	note.AddAttachment(model.NewAttachment("https://example.com/m/2.png", "image/png"))

	_, err := c.Send(context.Background(), model.VerbCreate, note)
	assert.Error(t, err)
	assert.Equal(t, social.KindSoft, social.KindOf(err))
	assert.Equal(t, 2, m.RequestCount(), "one retry, not a loop")
}

func TestSend_RejectsWrongVerb(t *testing.T) {
	c, _ := testConnection(t)
	_, err := c.Send(context.Background(), model.VerbDelete, model.Note{Content: "x"})
	assert.Error(t, err)

	_, err = c.Send(context.Background(), model.VerbCreate, model.Note{})
	assert.Error(t, err)
}

func TestFollow(t *testing.T) {
	c, m := testConnection(t)
	m.SetResponse(transport.JSONResult(202, ``))

	target := model.NewActor(c.origin, "https://example.com/users/alice")

	act, err := c.Follow(context.Background(), target, true)
	require.NoError(t, err)
	assert.Equal(t, model.VerbFollow, act.Verb)
	assert.Equal(t, target.Oid, act.ObjActor.Oid)

	posted, err := m.PostedObject(0)
	require.NoError(t, err)
	assert.Equal(t, "Follow", posted["type"])
	assert.Equal(t, target.Oid, posted["object"])
	assert.NotEmpty(t, posted["id"])

	act, err = c.Follow(context.Background(), target, false)
	require.NoError(t, err)
	assert.Equal(t, model.VerbUndoFollow, act.Verb)

	posted, err = m.PostedObject(1)
	require.NoError(t, err)
	assert.Equal(t, "Undo", posted["type"])
	inner, _ := posted["object"].(map[string]any)
	require.NotNil(t, inner)
	assert.Equal(t, "Follow", inner["type"])
	assert.Equal(t, target.Oid, inner["object"])
}

func TestAnnounce(t *testing.T) {
	c, m := testConnection(t)
	m.SetResponse(transport.JSONResult(202, ``))

	act, err := c.Announce(context.Background(), "https://example.com/notes/7")
	require.NoError(t, err)
	assert.Equal(t, model.VerbAnnounce, act.Verb)

	posted, err := m.PostedObject(0)
	require.NoError(t, err)
	assert.Equal(t, "Announce", posted["type"])
	assert.Equal(t, "https://example.com/notes/7", posted["object"])
}

func TestUploadMedia(t *testing.T) {
	c, m := testConnection(t)
	m.AddResponse(transport.JSONResult(200, `{
		"type": "Document",
		"url": "https://example.com/media/55",
		"mediaType": "image/png"
	}`))

	uploaded, err := c.UploadMedia(context.Background(),
		model.NewAttachment("file:///tmp/photo.png", "image/png"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/media/55", uploaded.URI)
	assert.Equal(t, "image/png", uploaded.MediaType)

	req := m.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "https://example.com/api/upload", req.URL)
	assert.Equal(t, "file:///tmp/photo.png", req.Form.Get(transport.MediaPartURIKey))
}

func TestUploadMedia_Invalid(t *testing.T) {
	c, _ := testConnection(t)
	_, err := c.UploadMedia(context.Background(), model.Attachment{})
	assert.Error(t, err)
}
