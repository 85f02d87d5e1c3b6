package pumpio

import (
	"strings"

	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
)

var verbMap = map[string]model.ActivityType{
	"post":           model.VerbCreate,
	"update":         model.VerbUpdate,
	"delete":         model.VerbDelete,
	"follow":         model.VerbFollow,
	"stop-following": model.VerbUndoFollow,
	"favorite":       model.VerbLike,
	"like":           model.VerbLike,
	"unfavorite":     model.VerbUndoLike,
	"unlike":         model.VerbUndoLike,
	"share":          model.VerbAnnounce,
	"unshare":        model.VerbUndoAnnounce,
	"join":           model.VerbJoin,
}

// ObjectTypeOf classifies an opaque id by its shape; this platform
// encodes the object type in the id path. Total: anything unrecognized
// comes back as "unknown object type: <oid>", never an error.
func ObjectTypeOf(oid string) string {
	switch {
	case strings.Contains(oid, "/activity/"):
		return "activity"
	case strings.Contains(oid, "/comment/"):
		return "comment"
	case strings.Contains(oid, "/note/"):
		return "note"
	case strings.Contains(oid, "/collection/") ||
		strings.HasSuffix(oid, "/followers") || strings.HasSuffix(oid, "/following"):
		return "collection"
	case strings.HasPrefix(oid, "acct:") || strings.Contains(oid, "/user/") ||
		strings.Contains(oid, "/person/"):
		return "person"
	}
	return "unknown object type: " + oid
}

// ActorFromJSON returns the empty actor (not an error) when the
// payload's declared objectType isn't a person.
func (c *Connection) ActorFromJSON(obj map[string]any) model.Actor {
	if social.JSONString(obj, "objectType") != "person" {
		return model.EmptyActor()
	}
	oid := social.ParseID(obj["id"])
	a := model.NewActor(c.origin, oid)
	if strings.HasPrefix(oid, "acct:") {
		a.WebFingerID = strings.TrimPrefix(oid, "acct:")
		if i := strings.Index(a.WebFingerID, "@"); i > 0 {
			a.Username = a.WebFingerID[:i]
		}
	}
	if u := social.JSONString(obj, "preferredUsername"); u != "" {
		a.Username = u
	}
	a.RealName = social.JSONString(obj, "displayName")
	a.Summary = social.JSONString(obj, "summary")
	a.HomepageURL = social.JSONString(obj, "url")
	a.ProfileURL = a.HomepageURL
	if image, ok := social.JSONObject(obj, "image"); ok {
		a.AvatarURL = social.JSONString(image, "url")
	}
	if loc, ok := social.JSONObject(obj, "location"); ok {
		a.Location = social.JSONString(loc, "displayName")
	}
	a.CreatedAt = social.ParseTime(social.JSONString(obj, "published"))
	a.UpdatedAt = social.ParseTime(social.JSONString(obj, "updated"))
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	c.actorEndpoints(&a, obj)
	a.BuildWebFingerID()
	return a
}

// actorEndpoints fills in the actor's API endpoints: from links in the
// payload when present, falling back to the platform's well-known
// per-user paths.
func (c *Connection) actorEndpoints(a *model.Actor, obj map[string]any) {
	if links, ok := social.JSONObject(obj, "links"); ok {
		if self, ok := social.JSONObject(links, "self"); ok {
			a.Endpoints.Add(model.EndpointProfile, social.JSONString(self, "href"))
		}
		if stream, ok := social.JSONObject(links, "activity-outbox"); ok {
			a.Endpoints.Add(model.EndpointOutbox, social.JSONString(stream, "href"))
		}
		if inbox, ok := social.JSONObject(links, "activity-inbox"); ok {
			a.Endpoints.Add(model.EndpointInbox, social.JSONString(inbox, "href"))
		}
	}
	a.Endpoints.Add(model.EndpointFollowers, social.ParseID(obj["followers"]))
	a.Endpoints.Add(model.EndpointFollowing, social.ParseID(obj["following"]))

	if a.Username != "" {
		host := a.Host()
		if host == "" {
			host = c.origin.Host()
		}
		scheme := "https://"
		if !c.origin.SSL {
			scheme = "http://"
		}
		base := scheme + host + "/api/user/" + a.Username
		defaults := model.EndpointSet{
			model.EndpointInbox:     base + "/inbox",
			model.EndpointOutbox:    base + "/feed",
			model.EndpointFollowing: base + "/following",
			model.EndpointFollowers: base + "/followers",
			model.EndpointProfile:   base + "/profile",
		}
		for t, url := range defaults {
			if _, ok := a.Endpoints.Get(t); !ok {
				a.Endpoints.Add(t, url)
			}
		}
	}
}

// ActivityFromJSON recognizes a payload as an activity when it says so,
// or structurally: no explicit type, but both a verb and an object.
// Bare objects are wrapped in an update.
func (c *Connection) ActivityFromJSON(obj map[string]any) (model.Activity, error) {
	objectType := social.JSONString(obj, "objectType")
	verbName := social.JSONString(obj, "verb")
	_, hasObject := obj["object"]

	if objectType == "activity" || (verbName != "" && hasObject) {
		return c.parseActivity(obj, verbName)
	}

	// A bare object posted straight into a feed
	act := model.NewActivity(c.origin, model.VerbUpdate, model.EmptyActor())
	switch objectType {
	case "person":
		actor := c.ActorFromJSON(obj)
		act.Actor = actor
		act.SetObjActor(actor)
		act.Oid = actor.Oid
	default:
		note := c.noteFromJSON(obj)
		act.SetNote(note)
		act.Oid = note.Oid
		act.UpdatedAt = note.UpdatedAt
	}
	return act, nil
}

func (c *Connection) parseActivity(obj map[string]any, verbName string) (model.Activity, error) {
	verb, ok := verbMap[verbName]
	if !ok {
		verb = model.VerbUnknown
	}
	var actor model.Actor
	if actorObj, found := social.JSONObject(obj, "actor"); found {
		actor = c.ActorFromJSON(actorObj)
		if actor.IsEmpty() {
			actor = model.NewActor(c.origin, social.ParseID(actorObj["id"]))
		}
	} else {
		actor = model.NewActor(c.origin, social.ParseID(obj["actor"]))
	}

	act := model.NewActivity(c.origin, verb, actor)
	act.Oid = social.ParseID(obj["id"])
	act.UpdatedAt = social.ParseTime(social.JSONString(obj, "updated"))
	if act.UpdatedAt.IsZero() {
		act.UpdatedAt = social.ParseTime(social.JSONString(obj, "published"))
	}

	object, isMap := social.JSONObject(obj, "object")
	if !isMap {
		c.bareObject(&act, social.ParseID(obj["object"]))
		return act, nil
	}

	innerType := social.JSONString(object, "objectType")
	if innerType == "" {
		innerType = ObjectTypeOf(social.ParseID(object["id"]))
	}
	switch innerType {
	case "person":
		inner := c.ActorFromJSON(object)
		if inner.IsEmpty() {
			inner = model.NewActor(c.origin, social.ParseID(object["id"]))
		}
		act.SetObjActor(inner)
	case "activity":
		inner, err := c.parseActivity(object, social.JSONString(object, "verb"))
		if err != nil {
			return act, err
		}
		act.SetObjActivity(&inner)
	default:
		note := c.noteFromJSON(object)
		c.audienceFromJSON(obj, &note.Audience)
		act.SetNote(note)
		if verb == model.VerbAnnounce {
			act.Author = c.actorReference(object["author"])
		}
	}
	return act, nil
}

func (c *Connection) bareObject(act *model.Activity, oid string) {
	if oid == "" {
		return
	}
	switch ObjectTypeOf(oid) {
	case "person":
		act.SetObjActor(model.NewActor(c.origin, oid))
	default:
		act.SetNote(model.NewNote(oid))
	}
}

func (c *Connection) actorReference(v any) model.Actor {
	if m, ok := v.(map[string]any); ok {
		if a := c.ActorFromJSON(m); !a.IsEmpty() {
			return a
		}
		return model.NewActor(c.origin, social.ParseID(m["id"]))
	}
	if oid := social.ParseID(v); oid != "" {
		return model.NewActor(c.origin, oid)
	}
	return model.EmptyActor()
}

func (c *Connection) noteFromJSON(obj map[string]any) model.Note {
	n := model.NewNote(social.ParseID(obj["id"]))
	n.Name = social.JSONString(obj, "displayName")
	n.Summary = social.JSONString(obj, "summary")
	n.Content = social.JSONString(obj, "content")
	n.InReplyToOid = social.ParseID(obj["inReplyTo"])
	n.CreatedAt = social.ParseTime(social.JSONString(obj, "published"))
	n.UpdatedAt = social.ParseTime(social.JSONString(obj, "updated"))
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	if image, ok := social.JSONObject(obj, "fullImage"); ok {
		n.AddAttachment(model.NewAttachment(social.JSONString(image, "url"), ""))
	} else if image, ok := social.JSONObject(obj, "image"); ok {
		n.AddAttachment(model.NewAttachment(social.JSONString(image, "url"), ""))
	}
	return n
}

func (c *Connection) audienceFromJSON(obj map[string]any, audience *model.Audience) {
	for _, key := range []string{"to", "cc", "bto", "bcc"} {
		items, ok := social.JSONArray(obj, key)
		if !ok {
			continue
		}
		for _, item := range items {
			oid := social.ParseID(item)
			if oid == PublicCollection {
				audience.Public = true
				continue
			}
			audience.AddOid(c.origin, oid)
		}
	}
}
