package twitter

import (
	"fmt"

	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
)

// ActorFromJSON parses a user object. The REST dialect has no type
// discriminator; a payload with no id at all yields the empty actor.
func (c *Connection) ActorFromJSON(obj map[string]any) model.Actor {
	oid := userOid(obj)
	if oid == "" {
		return model.EmptyActor()
	}
	a := model.NewActor(c.origin, oid)
	a.Username = social.JSONString(obj, "screen_name")
	a.RealName = social.JSONString(obj, "name")
	a.Summary = social.JSONString(obj, "description")
	a.Location = social.JSONString(obj, "location")
	a.HomepageURL = social.JSONString(obj, "url")
	a.AvatarURL = social.JSONString(obj, "profile_image_url_https")
	if a.AvatarURL == "" {
		a.AvatarURL = social.JSONString(obj, "profile_image_url")
	}
	a.BannerURL = social.JSONString(obj, "profile_banner_url")
	a.NotesCount = social.JSONInt64(obj, "statuses_count")
	a.FavoritesCount = social.JSONInt64(obj, "favourites_count")
	a.FollowingCount = social.JSONInt64(obj, "friends_count")
	a.FollowersCount = social.JSONInt64(obj, "followers_count")
	a.CreatedAt = social.ParseTime(social.JSONString(obj, "created_at"))
	a.UpdatedAt = a.CreatedAt
	if f, ok := obj["following"].(bool); ok {
		a.FollowedByMe = model.TriStateOf(f)
	}
	if a.Username != "" {
		a.ProfileURL = c.data.OriginURL + "/" + a.Username
		a.WebFingerID = a.Username + "@" + c.origin.Host()
	}
	if statusnet := social.JSONString(obj, "statusnet_profile_url"); statusnet != "" {
		// The GNU-social clones carry the canonical profile here
		a.ProfileURL = statusnet
	}
	return a
}

// userOid prefers the string form of the id; the numeric form loses
// precision once ids outgrow a float64.
func userOid(obj map[string]any) string {
	if s := social.JSONString(obj, "id_str"); s != "" {
		return s
	}
	if n := social.JSONInt64(obj, "id"); n != 0 {
		return fmt.Sprint(n)
	}
	return ""
}

// ActivityFromJSON turns one status into an activity: a create of a
// note, or an announce when the status is a native reshare, in which
// case actor and author differ.
func (c *Connection) ActivityFromJSON(obj map[string]any) (model.Activity, error) {
	actor := c.ActorFromJSON(userOf(obj))

	if reshared, ok := social.JSONObject(obj, "retweeted_status"); ok {
		inner, err := c.ActivityFromJSON(reshared)
		if err != nil {
			return model.Activity{}, err
		}
		act := model.NewActivity(c.origin, model.VerbAnnounce, actor)
		act.Oid = userStatusOid(obj)
		act.UpdatedAt = social.ParseTime(social.JSONString(obj, "created_at"))
		act.Author = inner.Actor
		act.SetNote(inner.Note)
		return act, nil
	}

	act := model.NewActivity(c.origin, model.VerbCreate, actor)
	act.Oid = userStatusOid(obj)
	act.UpdatedAt = social.ParseTime(social.JSONString(obj, "created_at"))
	act.SetNote(c.noteFromJSON(obj))
	return act, nil
}

func userOf(obj map[string]any) map[string]any {
	if user, ok := social.JSONObject(obj, "user"); ok {
		return user
	}
	return map[string]any{}
}

func userStatusOid(obj map[string]any) string {
	if s := social.JSONString(obj, "id_str"); s != "" {
		return s
	}
	if n := social.JSONInt64(obj, "id"); n != 0 {
		return fmt.Sprint(n)
	}
	return ""
}

func (c *Connection) noteFromJSON(obj map[string]any) model.Note {
	n := model.NewNote(userStatusOid(obj))
	n.Content = social.JSONString(obj, "full_text")
	if n.Content == "" {
		n.Content = social.JSONString(obj, "text")
	}
	n.InReplyToOid = social.JSONString(obj, "in_reply_to_status_id_str")
	n.Sensitive = social.JSONBool(obj, "possibly_sensitive")
	n.CreatedAt = social.ParseTime(social.JSONString(obj, "created_at"))
	n.UpdatedAt = n.CreatedAt

	// Statuses on this API are public broadcast unless protected
	n.Audience.Public = true
	if replyTo := social.JSONString(obj, "in_reply_to_user_id_str"); replyTo != "" {
		n.Audience.Add(model.NewActor(c.origin, replyTo))
	}

	if entities, ok := social.JSONObject(obj, "entities"); ok {
		if media, ok := social.JSONArray(entities, "media"); ok {
			for _, v := range media {
				m, ok := v.(map[string]any)
				if !ok {
					continue
				}
				uri := social.JSONString(m, "media_url_https")
				if uri == "" {
					uri = social.JSONString(m, "media_url")
				}
				n.AddAttachment(model.NewAttachment(uri, social.JSONString(m, "type")))
			}
		}
	}
	return n
}
