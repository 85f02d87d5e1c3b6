package activitypub

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/telemetry"
	"github.com/tkrehbiel/fedsync/social/transport"
)

// Send posts a note to the account's outbox as a Create (or Update).
//
// One platform quirk is handled here: some servers silently drop the
// textual content of a Create that also carries an attachment. When the
// echoed object comes back with our content missing, the same object is
// re-issued once as an Update before giving up. This is a workaround for
// that specific server bug, not a general retry mechanism.
func (c *Connection) Send(ctx context.Context, verb model.ActivityType, note model.Note) (model.Activity, error) {
	if note.IsEmpty() {
		return model.Activity{}, social.Hard("nothing to send: empty note")
	}
	switch verb {
	case model.VerbUnknown:
		verb = model.VerbCreate
	case model.VerbCreate, model.VerbUpdate:
	default:
		return model.Activity{}, social.Hard("cannot send a note with verb %s", verb)
	}

	resolved, err := c.resolver.Resolve(ctx, social.APIPostNote, c.data.AccountActor)
	if err != nil {
		return model.Activity{}, err
	}

	sent, err := c.postActivity(ctx, resolved, verb, note)
	if err != nil {
		return sent, err
	}

	if verb == model.VerbCreate && note.HasAttachments() && note.Content != "" &&
		sent.ObjType == model.ObjectNote && sent.Note.Content == "" {
		telemetry.Increment("content_drop_workarounds", 1)
		telemetry.Trace("server dropped content on create, re-issuing as update")
		retry := note
		if sent.Note.Oid != "" {
			retry.Oid = sent.Note.Oid
		}
		sent, err = c.postActivity(ctx, resolved, model.VerbUpdate, retry)
		if err != nil {
			return sent, err
		}
		if sent.ObjType == model.ObjectNote && sent.Note.Content == "" {
			return sent, social.Soft("server dropped note content on create and update")
		}
	}
	return sent, nil
}

func (c *Connection) postActivity(ctx context.Context, resolved *social.ConnectionAndURL,
	verb model.ActivityType, note model.Note) (model.Activity, error) {

	envelope := c.noteEnvelope(verb, note)
	rr, err := social.CheckResult(resolved.Transport.Execute(ctx, &transport.Request{
		Method:      http.MethodPost,
		URL:         resolved.URL,
		JSON:        envelope,
		ContentType: contentType,
		Accept:      contentType,
	}))
	if err != nil {
		return model.Activity{}, err
	}

	if !rr.HasBody() {
		// Some servers answer 201 with only a Location header; build the
		// activity from what we sent.
		act := model.NewActivity(c.origin, verb, c.data.AccountActor)
		act.Oid = uuid.NewString()
		note.Status = model.StatusSent
		act.SetNote(note)
		return act, nil
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return model.Activity{}, err
	}
	act, err := c.ActivityFromJSON(obj)
	if err != nil {
		return act, err
	}
	if act.ObjType == model.ObjectNote {
		act.Note.Status = model.StatusSent
	}
	return act, nil
}

func (c *Connection) noteEnvelope(verb model.ActivityType, note model.Note) map[string]any {
	object := map[string]any{
		"type":      "Note",
		"content":   note.Content,
		"sensitive": note.Sensitive,
	}
	if note.Oid != "" {
		object["id"] = note.Oid
	}
	if note.Name != "" {
		object["name"] = note.Name
	}
	if note.Summary != "" {
		object["summary"] = note.Summary
	}
	if note.InReplyToOid != "" {
		object["inReplyTo"] = note.InReplyToOid
	}
	if len(note.Attachments) > 0 {
		attachments := make([]map[string]any, 0, len(note.Attachments))
		for _, a := range note.Attachments {
			attachments = append(attachments, map[string]any{
				"type":      "Document",
				"url":       a.URI,
				"mediaType": a.MediaType,
			})
		}
		object["attachment"] = attachments
	}

	envelope := map[string]any{
		"@context": asContext,
		"type":     verbName(verb),
		"actor":    c.data.AccountActor.Oid,
		"object":   object,
	}
	to, cc := c.addressing(note.Audience)
	envelope["to"] = to
	envelope["cc"] = cc
	return envelope
}

func verbName(verb model.ActivityType) string {
	for name, v := range activityVerbs {
		if v == verb {
			return name
		}
	}
	return "Create"
}

// addressing renders an audience back into to/cc arrays. Explicit
// recipients go in to; the followers collection rides in cc the way the
// platform's own clients do it.
func (c *Connection) addressing(a model.Audience) (to, cc []string) {
	to = make([]string, 0)
	cc = make([]string, 0)
	if a.Public {
		to = append(to, model.PublicOid)
	}
	if a.Followers {
		if followers, ok := c.data.AccountActor.Endpoints.Get(model.EndpointFollowers); ok {
			cc = append(cc, followers)
		}
	}
	for _, r := range a.Recipients {
		to = append(to, r.Oid)
	}
	return to, cc
}

func (c *Connection) DeleteNote(ctx context.Context, oid string) error {
	if oid == "" {
		return social.Hard("nothing to delete: empty note oid")
	}
	_, err := c.postVerb(ctx, "Delete", oid)
	return err
}

func (c *Connection) Follow(ctx context.Context, actor model.Actor, follow bool) (model.Activity, error) {
	if actor.Oid == "" {
		return model.Activity{}, social.Hard("nothing to follow: empty actor oid")
	}
	var envelope map[string]any
	verb := model.VerbFollow
	if follow {
		envelope = map[string]any{
			"@context": asContext,
			"type":     "Follow",
			"id":       uuid.NewString(),
			"actor":    c.data.AccountActor.Oid,
			"object":   actor.Oid,
		}
	} else {
		verb = model.VerbUndoFollow
		envelope = map[string]any{
			"@context": asContext,
			"type":     "Undo",
			"id":       uuid.NewString(),
			"actor":    c.data.AccountActor.Oid,
			"object": map[string]any{
				"type":   "Follow",
				"actor":  c.data.AccountActor.Oid,
				"object": actor.Oid,
			},
		}
	}
	if err := c.postEnvelope(ctx, envelope); err != nil {
		return model.Activity{}, err
	}
	act := model.NewActivity(c.origin, verb, c.data.AccountActor)
	act.SetObjActor(actor)
	return act, nil
}

func (c *Connection) Announce(ctx context.Context, oid string) (model.Activity, error) {
	if oid == "" {
		return model.Activity{}, social.Hard("nothing to announce: empty note oid")
	}
	return c.postVerb(ctx, "Announce", oid)
}

// postVerb sends a simple verb-plus-object-oid envelope to the outbox.
func (c *Connection) postVerb(ctx context.Context, typ, objectOid string) (model.Activity, error) {
	envelope := map[string]any{
		"@context": asContext,
		"type":     typ,
		"id":       uuid.NewString(),
		"actor":    c.data.AccountActor.Oid,
		"object":   objectOid,
	}
	if err := c.postEnvelope(ctx, envelope); err != nil {
		return model.Activity{}, err
	}
	act := model.NewActivity(c.origin, activityVerbs[typ], c.data.AccountActor)
	act.SetNote(model.NewNote(objectOid))
	return act, nil
}

func (c *Connection) postEnvelope(ctx context.Context, envelope map[string]any) error {
	resolved, err := c.resolver.Resolve(ctx, social.APIPostNote, c.data.AccountActor)
	if err != nil {
		return err
	}
	_, err = social.CheckResult(resolved.Transport.Execute(ctx, &transport.Request{
		Method:      http.MethodPost,
		URL:         resolved.URL,
		JSON:        envelope,
		ContentType: contentType,
		Accept:      contentType,
	}))
	return err
}

func (c *Connection) UploadMedia(ctx context.Context, att model.Attachment) (model.Attachment, error) {
	if !att.IsValid() {
		return att, social.Hard("nothing to upload: empty attachment uri")
	}
	resolved, err := c.resolver.Resolve(ctx, social.APIUploadMedia, c.data.AccountActor)
	if err != nil {
		return att, err
	}
	form := url.Values{}
	form.Set(transport.MediaPartNameKey, "file")
	form.Set(transport.MediaPartURIKey, att.URI)
	rr, err := social.CheckResult(resolved.Transport.Execute(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    resolved.URL,
		Form:   form,
		Accept: contentType,
	}))
	if err != nil {
		return att, err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return att, err
	}
	uploaded := model.NewAttachment(
		social.ParseID(obj["url"]),
		social.JSONString(obj, "mediaType"),
	)
	if !uploaded.IsValid() {
		return att, social.Hard("upload response carried no url").WithPayload(rr.Body)
	}
	if uploaded.MediaType == "" {
		uploaded.MediaType = att.MediaType
	}
	return uploaded, nil
}
