package activitypub

import (
	"time"

	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
)

var activityVerbs = map[string]model.ActivityType{
	"Create":   model.VerbCreate,
	"Update":   model.VerbUpdate,
	"Delete":   model.VerbDelete,
	"Follow":   model.VerbFollow,
	"Undo":     model.VerbUndo,
	"Like":     model.VerbLike,
	"Announce": model.VerbAnnounce,
	"Join":     model.VerbJoin,
}

func isActorType(typ string) bool {
	switch typ {
	case "Person", "Application", "Service", "Group", "Organization":
		return true
	}
	return false
}

func isNoteType(typ string) bool {
	switch typ {
	case "Note", "Article", "Page", "Question", "Video", "Image", "Event":
		return true
	}
	return false
}

// ActorFromJSON turns an actor document into a model actor. Payloads
// whose declared type isn't an actor type yield the empty actor, which
// is not an error: callers just skip them.
func (c *Connection) ActorFromJSON(obj map[string]any) model.Actor {
	if !isActorType(social.JSONString(obj, "type")) {
		return model.EmptyActor()
	}
	a := model.NewActor(c.origin, social.ParseID(obj["id"]))
	a.Username = social.JSONString(obj, "preferredUsername")
	a.RealName = social.JSONString(obj, "name")
	a.Summary = social.JSONString(obj, "summary")
	a.Location = social.JSONString(obj, "location")
	a.ProfileURL = social.JSONString(obj, "url")
	a.HomepageURL = a.ProfileURL
	a.AvatarURL = imageURL(obj, "icon")
	a.BannerURL = imageURL(obj, "image")

	a.Endpoints.Add(model.EndpointInbox, social.ParseID(obj["inbox"]))
	a.Endpoints.Add(model.EndpointOutbox, social.ParseID(obj["outbox"]))
	a.Endpoints.Add(model.EndpointFollowing, social.ParseID(obj["following"]))
	a.Endpoints.Add(model.EndpointFollowers, social.ParseID(obj["followers"]))
	a.Endpoints.Add(model.EndpointLiked, social.ParseID(obj["liked"]))
	a.Endpoints.Add(model.EndpointProfile, a.Oid)
	if endpoints, ok := social.JSONObject(obj, "endpoints"); ok {
		a.Endpoints.Add(model.EndpointSharedInbox, social.ParseID(endpoints["sharedInbox"]))
		a.Endpoints.Add(model.EndpointUpload, social.ParseID(endpoints["uploadMedia"]))
	}

	a.CreatedAt = social.ParseTime(social.JSONString(obj, "published"))
	a.UpdatedAt = social.ParseTime(social.JSONString(obj, "updated"))
	if a.UpdatedAt.IsZero() {
		if a.Username != "" {
			// A full profile document counts as "seen now" even when the
			// server omits timestamps.
			a.UpdatedAt = time.Now().UTC()
		} else {
			a.UpdatedAt = a.CreatedAt
		}
	}
	a.BuildWebFingerID()
	return a
}

func imageURL(obj map[string]any, key string) string {
	switch t := obj[key].(type) {
	case string:
		return t
	case map[string]any:
		return social.JSONString(t, "url")
	}
	return ""
}

// ActivityFromJSON is the central fan-out: inspect the type, build the
// acting actor, then dispatch on the object's declared type. Bare
// objects (a Note or Person with no wrapping activity, which relays do
// emit) are wrapped in an Update.
func (c *Connection) ActivityFromJSON(obj map[string]any) (model.Activity, error) {
	typ := social.JSONString(obj, "type")

	if verb, ok := activityVerbs[typ]; ok {
		return c.parseActivity(obj, verb)
	}
	if isActorType(typ) {
		act := model.NewActivity(c.origin, model.VerbUpdate, model.EmptyActor())
		actor := c.ActorFromJSON(obj)
		act.Actor = actor
		act.SetObjActor(actor)
		act.Oid = actor.Oid
		act.UpdatedAt = actor.UpdatedAt
		return act, nil
	}
	if isNoteType(typ) {
		note := c.noteFromJSON(obj)
		act := model.NewActivity(c.origin, model.VerbUpdate, model.EmptyActor())
		act.SetNote(note)
		act.Oid = note.Oid
		act.UpdatedAt = note.UpdatedAt
		return act, nil
	}
	act := model.NewActivity(c.origin, model.VerbUnknown, model.EmptyActor())
	act.Oid = social.ParseID(obj["id"])
	return act, nil
}

func (c *Connection) parseActivity(obj map[string]any, verb model.ActivityType) (model.Activity, error) {
	actor := c.actorReference(obj["actor"])
	act := model.NewActivity(c.origin, verb, actor)
	act.Oid = social.ParseID(obj["id"])
	act.UpdatedAt = social.ParseTime(social.JSONString(obj, "published"))
	if t := social.ParseTime(social.JSONString(obj, "updated")); !t.IsZero() {
		act.UpdatedAt = t
	}

	switch object := obj["object"].(type) {
	case string:
		c.bareObject(&act, verb, object)
		if act.ObjType == model.ObjectNote {
			c.audienceFromJSON(obj, &act.Note.Audience)
		}
	case map[string]any:
		innerType := social.JSONString(object, "type")
		if isActorType(innerType) {
			act.SetObjActor(c.ActorFromJSON(object))
		} else if innerVerb, ok := activityVerbs[innerType]; ok {
			inner, err := c.parseActivity(object, innerVerb)
			if err != nil {
				return act, err
			}
			c.foldUndo(&act, &inner)
		} else {
			note := c.noteFromJSON(object)
			// The outer to/cc applies to the note as well
			c.audienceFromJSON(obj, &note.Audience)
			act.SetNote(note)
			if verb == model.VerbAnnounce {
				// Someone else wrote what this actor is resharing
				act.Author = c.actorReference(object["attributedTo"])
			}
		}
	}
	return act, nil
}

// bareObject fills in an object given only as an oid string. The verb
// tells us what kind of thing the oid names.
func (c *Connection) bareObject(act *model.Activity, verb model.ActivityType, oid string) {
	switch verb {
	case model.VerbFollow, model.VerbUndoFollow:
		act.SetObjActor(model.NewActor(c.origin, oid))
	default:
		act.SetNote(model.NewNote(oid))
	}
}

// foldUndo collapses Undo-of-Follow into the undo-follow verb (and
// likewise for like and announce); anything else stays a nested
// activity, a meta-action.
func (c *Connection) foldUndo(act *model.Activity, inner *model.Activity) {
	if act.Verb == model.VerbUndo {
		switch inner.Verb {
		case model.VerbFollow:
			act.Verb = model.VerbUndoFollow
			act.SetObjActor(inner.ObjActor)
			return
		case model.VerbLike:
			act.Verb = model.VerbUndoLike
			act.SetNote(inner.Note)
			return
		case model.VerbAnnounce:
			act.Verb = model.VerbUndoAnnounce
			act.SetNote(inner.Note)
			return
		}
	}
	act.SetObjActivity(inner)
}

// actorReference builds a partial actor from an id string or an inline
// actor document.
func (c *Connection) actorReference(v any) model.Actor {
	switch t := v.(type) {
	case string:
		if t == "" {
			return model.EmptyActor()
		}
		return model.NewActor(c.origin, t)
	case map[string]any:
		if a := c.ActorFromJSON(t); !a.IsEmpty() {
			return a
		}
		return model.NewActor(c.origin, social.ParseID(t["id"]))
	}
	return model.EmptyActor()
}

func (c *Connection) noteFromJSON(obj map[string]any) model.Note {
	n := model.NewNote(social.ParseID(obj["id"]))
	n.Name = social.JSONString(obj, "name")
	n.Summary = social.JSONString(obj, "summary")
	n.Content = social.JSONString(obj, "content")
	n.Sensitive = social.JSONBool(obj, "sensitive")
	n.InReplyToOid = social.ParseID(obj["inReplyTo"])
	n.CreatedAt = social.ParseTime(social.JSONString(obj, "published"))
	n.UpdatedAt = social.ParseTime(social.JSONString(obj, "updated"))
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	c.audienceFromJSON(obj, &n.Audience)

	if attachments, ok := social.JSONArray(obj, "attachment"); ok {
		for _, v := range attachments {
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			n.AddAttachment(model.NewAttachment(
				social.ParseID(m["url"]),
				social.JSONString(m, "mediaType"),
			))
		}
	}
	return n
}

func (c *Connection) audienceFromJSON(obj map[string]any, audience *model.Audience) {
	for _, oid := range social.JSONStrings(obj, "to") {
		audience.AddOid(c.origin, oid)
	}
	for _, oid := range social.JSONStrings(obj, "cc") {
		audience.AddOid(c.origin, oid)
	}
}
