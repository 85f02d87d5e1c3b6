package pumpio

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/transport"
)

// Send posts a note to the account's feed. Replies go out with
// objectType "comment" and an inReplyTo reference, which is how this
// platform tells a top-level note from a comment.
func (c *Connection) Send(ctx context.Context, verb model.ActivityType, note model.Note) (model.Activity, error) {
	if note.IsEmpty() {
		return model.Activity{}, social.Hard("nothing to send: empty note")
	}
	verbName := "post"
	if verb == model.VerbUpdate {
		verbName = "update"
	}

	objectType := "note"
	if note.InReplyToOid != "" {
		objectType = "comment"
	}
	object := map[string]any{
		"objectType": objectType,
		"content":    note.Content,
	}
	if note.Oid != "" {
		object["id"] = note.Oid
	}
	if note.Name != "" {
		object["displayName"] = note.Name
	}
	if note.InReplyToOid != "" {
		object["inReplyTo"] = map[string]any{
			"id":         note.InReplyToOid,
			"objectType": ObjectTypeOf(note.InReplyToOid),
		}
	}
	if len(note.Attachments) > 0 {
		object["fullImage"] = map[string]any{"url": note.Attachments[0].URI}
	}

	envelope := map[string]any{
		"verb":      verbName,
		"object":    object,
		"generator": generator(),
	}
	c.addressEnvelope(envelope, note.Audience)

	act, err := c.postEnvelope(ctx, envelope)
	if err != nil {
		return act, err
	}
	if act.ObjType == model.ObjectNote {
		act.Note.Status = model.StatusSent
	}
	return act, nil
}

func generator() map[string]any {
	return map[string]any{
		"id":          "urn:uuid:" + uuid.NewString(),
		"objectType":  "application",
		"displayName": "fedsync",
	}
}

func (c *Connection) addressEnvelope(envelope map[string]any, audience model.Audience) {
	to := make([]map[string]any, 0)
	if audience.Public {
		to = append(to, map[string]any{
			"id":         PublicCollection,
			"objectType": "collection",
		})
	}
	for _, r := range audience.Recipients {
		to = append(to, map[string]any{
			"id":         r.Oid,
			"objectType": ObjectTypeOf(r.Oid),
		})
	}
	if audience.Followers {
		if followers, ok := c.data.AccountActor.Endpoints.Get(model.EndpointFollowers); ok {
			to = append(to, map[string]any{
				"id":         followers,
				"objectType": "collection",
			})
		}
	}
	if len(to) > 0 {
		envelope["to"] = to
	}
}

func (c *Connection) postEnvelope(ctx context.Context, envelope map[string]any) (model.Activity, error) {
	resolved, err := c.resolver.Resolve(ctx, social.APIPostNote, c.data.AccountActor)
	if err != nil {
		return model.Activity{}, err
	}
	rr, err := social.CheckResult(resolved.Transport.Execute(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    resolved.URL,
		JSON:   envelope,
	}))
	if err != nil {
		return model.Activity{}, err
	}
	if !rr.HasBody() {
		act := model.NewActivity(c.origin, model.VerbUnknown, c.data.AccountActor)
		act.Oid = "urn:uuid:" + uuid.NewString()
		return act, nil
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return model.Activity{}, err
	}
	return c.ActivityFromJSON(obj)
}

func (c *Connection) DeleteNote(ctx context.Context, oid string) error {
	if oid == "" {
		return social.Hard("nothing to delete: empty note oid")
	}
	_, err := c.postEnvelope(ctx, map[string]any{
		"verb": "delete",
		"object": map[string]any{
			"id":         oid,
			"objectType": ObjectTypeOf(oid),
		},
		"generator": generator(),
	})
	return err
}

func (c *Connection) Follow(ctx context.Context, actor model.Actor, follow bool) (model.Activity, error) {
	if actor.Oid == "" {
		return model.Activity{}, social.Hard("nothing to follow: empty actor oid")
	}
	verbName := "follow"
	if !follow {
		verbName = "stop-following"
	}
	return c.postEnvelope(ctx, map[string]any{
		"verb": verbName,
		"object": map[string]any{
			"id":         actor.Oid,
			"objectType": "person",
		},
		"generator": generator(),
	})
}

func (c *Connection) Announce(ctx context.Context, oid string) (model.Activity, error) {
	return model.Activity{}, social.UnsupportedError(social.APIAnnounce)
}

func (c *Connection) UploadMedia(ctx context.Context, att model.Attachment) (model.Attachment, error) {
	return att, social.UnsupportedError(social.APIUploadMedia)
}
