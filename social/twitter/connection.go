// Package twitter is the connection adapter for Twitter-style REST v1.1
// servers: JSON status arrays, OAuth 1.0a signatures, form-encoded
// posts. The gnusocial adapter layers on top of this one, since that
// family cloned this API.
package twitter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/telemetry"
	"github.com/tkrehbiel/fedsync/social/transport"
)

func init() {
	social.Register(model.OriginTwitter, func(data social.ConnectionData) (social.Connection, error) {
		return New(data), nil
	})
}

type Connection struct {
	data           social.ConnectionData
	origin         model.Origin
	tr             transport.Sender
	apiBase        string
	publicTimeline bool
}

func New(data social.ConnectionData) *Connection {
	return NewWithTransport(data, transport.New(data.Host(), AuthFor(data)))
}

func NewWithTransport(data social.ConnectionData, tr transport.Sender) *Connection {
	return NewVariant(data, tr, "/1.1", false)
}

// NewVariant exists for the API clones that serve the same JSON under a
// different path prefix, public firehose included.
func NewVariant(data social.ConnectionData, tr transport.Sender, apiBase string, publicTimeline bool) *Connection {
	return &Connection{
		data:           data,
		origin:         data.Origin(),
		tr:             tr,
		apiBase:        apiBase,
		publicTimeline: publicTimeline,
	}
}

// AuthFor picks the auth strategy the account's credentials allow.
func AuthFor(d social.ConnectionData) transport.Authorizer {
	switch {
	case d.HasClientKeys() && d.HasAccessToken():
		return transport.OAuth1{
			ClientKey:    d.ClientKey,
			ClientSecret: d.ClientSecret,
			Token:        d.AccessToken,
			TokenSecret:  d.AccessSecret,
		}
	case d.HasBasicAuth():
		return transport.Basic{Username: d.BasicUsername, Password: d.BasicPassword}
	}
	return transport.Anonymous{}
}

func (c *Connection) HasAPIEndpoint(r social.ApiRoutine) bool {
	switch r {
	case social.APIRegisterClient:
		// Client keys are provisioned out of band, not registered
		// dynamically.
		return false
	case social.APIPublicTimeline:
		return c.publicTimeline
	case social.APIUnknown:
		return false
	}
	return true
}

func (c *Connection) path(p string) string {
	return c.data.OriginURL + c.apiBase + p
}

// get runs a GET and classifies the outcome.
func (c *Connection) get(ctx context.Context, target string) (*transport.ReadResult, error) {
	return social.CheckResult(c.tr.Execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    target,
	}))
}

func (c *Connection) postForm(ctx context.Context, target string, form url.Values) (*transport.ReadResult, error) {
	return social.CheckResult(c.tr.Execute(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    target,
		Form:   form,
	}))
}

func (c *Connection) VerifyCredentials(ctx context.Context) (model.Actor, error) {
	rr, err := c.get(ctx, c.path("/account/verify_credentials.json"))
	if err != nil {
		return model.EmptyActor(), err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return model.EmptyActor(), err
	}
	actor := c.ActorFromJSON(obj)
	if actor.IsEmpty() {
		return actor, social.AuthError("verify_credentials did not return a user").WithPayload(rr.Body)
	}
	return actor, nil
}

func timelinePath(r social.ApiRoutine) (string, bool) {
	switch r {
	case social.APIHomeTimeline:
		return "/statuses/home_timeline.json", true
	case social.APIPublicTimeline:
		return "/statuses/public_timeline.json", true
	case social.APIActorTimeline:
		return "/statuses/user_timeline.json", true
	}
	return "", false
}

// GetTimeline fetches one page of statuses. The native order is
// newest-first; Next is the newest status id for since-style resumes.
func (c *Connection) GetTimeline(ctx context.Context, r social.ApiRoutine,
	since, until model.TimelinePosition, limit int, actor model.Actor) (social.Timeline, error) {

	if !c.HasAPIEndpoint(r) {
		return social.Timeline{}, social.UnsupportedError(r)
	}
	p, ok := timelinePath(r)
	if !ok {
		return social.Timeline{}, social.BadRequest("routine %s is not a timeline", r)
	}

	params := url.Values{}
	if limit > 0 {
		params.Set("count", fmt.Sprint(limit))
	}
	if !since.IsEmpty() {
		params.Set("since_id", since.String())
	}
	if !until.IsEmpty() {
		params.Set("max_id", until.String())
	}
	if r == social.APIActorTimeline && !actor.IsEmpty() {
		if actor.Oid != "" {
			params.Set("user_id", actor.Oid)
		} else {
			params.Set("screen_name", actor.Username)
		}
	}
	target := c.path(p)
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	rr, err := c.get(ctx, target)
	if err != nil {
		return social.Timeline{}, err
	}
	statuses, err := social.ArrayOf(rr)
	if err != nil {
		return social.Timeline{}, err
	}

	timeline := social.Timeline{}
	for _, item := range statuses {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		act, err := c.ActivityFromJSON(obj)
		if err != nil {
			telemetry.Error(err, "skipping unparseable status from %s", target)
			continue
		}
		timeline.Items = append(timeline.Items, act)
	}
	if len(timeline.Items) > 0 {
		timeline.Next = model.TimelinePosition(timeline.Items[0].Oid)
	}
	telemetry.Increment("timeline_pages", 1)
	return timeline, nil
}

func (c *Connection) GetNote(ctx context.Context, oid string) (model.Activity, error) {
	if oid == "" {
		return model.Activity{}, social.Hard("nothing to fetch: empty note oid")
	}
	rr, err := c.get(ctx, c.path("/statuses/show.json?id="+url.QueryEscape(oid)))
	if err != nil {
		return model.Activity{}, err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return model.Activity{}, err
	}
	return c.ActivityFromJSON(obj)
}

func (c *Connection) GetActor(ctx context.Context, actor model.Actor) (model.Actor, error) {
	params := url.Values{}
	switch {
	case actor.Oid != "":
		params.Set("user_id", actor.Oid)
	case actor.Username != "":
		params.Set("screen_name", actor.Username)
	default:
		return model.EmptyActor(), social.BadRequest("no user id or screen name to look up")
	}
	rr, err := c.get(ctx, c.path("/users/show.json?"+params.Encode()))
	if err != nil {
		return model.EmptyActor(), err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return model.EmptyActor(), err
	}
	return c.ActorFromJSON(obj), nil
}

func (c *Connection) GetFriends(ctx context.Context, actor model.Actor) ([]model.Actor, error) {
	return c.getUserList(ctx, "/friends/list.json", actor)
}

func (c *Connection) GetFollowers(ctx context.Context, actor model.Actor) ([]model.Actor, error) {
	return c.getUserList(ctx, "/followers/list.json", actor)
}

func (c *Connection) getUserList(ctx context.Context, p string, actor model.Actor) ([]model.Actor, error) {
	params := url.Values{}
	switch {
	case actor.Oid != "":
		params.Set("user_id", actor.Oid)
	case actor.Username != "":
		params.Set("screen_name", actor.Username)
	default:
		return nil, social.BadRequest("no user id or screen name to list")
	}
	rr, err := c.get(ctx, c.path(p+"?"+params.Encode()))
	if err != nil {
		return nil, err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return nil, err
	}
	users, _ := social.JSONArray(obj, "users")
	actors := make([]model.Actor, 0, len(users))
	for _, u := range users {
		m, ok := u.(map[string]any)
		if !ok {
			continue
		}
		if a := c.ActorFromJSON(m); !a.IsEmpty() {
			actors = append(actors, a)
		}
	}
	return actors, nil
}

func (c *Connection) Send(ctx context.Context, verb model.ActivityType, note model.Note) (model.Activity, error) {
	if note.IsEmpty() {
		return model.Activity{}, social.Hard("nothing to send: empty note")
	}
	form := url.Values{}
	form.Set("status", note.Content)
	if note.InReplyToOid != "" {
		form.Set("in_reply_to_status_id", note.InReplyToOid)
	}
	if ids := mediaIDs(note.Attachments); len(ids) > 0 {
		form.Set("media_ids", strings.Join(ids, ","))
	}
	rr, err := c.postForm(ctx, c.path("/statuses/update.json"), form)
	if err != nil {
		return model.Activity{}, err
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

// mediaIDs picks out attachments that already went through UploadMedia:
// their URI is the server-assigned media id, not a URL.
func mediaIDs(attachments []model.Attachment) []string {
	ids := make([]string, 0)
	for _, a := range attachments {
		if a.URI != "" && !strings.Contains(a.URI, "://") {
			ids = append(ids, a.URI)
		}
	}
	return ids
}

func (c *Connection) DeleteNote(ctx context.Context, oid string) error {
	if oid == "" {
		return social.Hard("nothing to delete: empty note oid")
	}
	_, err := c.postForm(ctx, c.path("/statuses/destroy/"+url.PathEscape(oid)+".json"), url.Values{})
	return err
}

func (c *Connection) Follow(ctx context.Context, actor model.Actor, follow bool) (model.Activity, error) {
	if actor.Oid == "" && actor.Username == "" {
		return model.Activity{}, social.Hard("nothing to follow: no user id or screen name")
	}
	p := "/friendships/create.json"
	verb := model.VerbFollow
	if !follow {
		p = "/friendships/destroy.json"
		verb = model.VerbUndoFollow
	}
	form := url.Values{}
	if actor.Oid != "" {
		form.Set("user_id", actor.Oid)
	} else {
		form.Set("screen_name", actor.Username)
	}
	rr, err := c.postForm(ctx, c.path(p), form)
	if err != nil {
		return model.Activity{}, err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return model.Activity{}, err
	}
	followed := c.ActorFromJSON(obj)
	if followed.IsEmpty() {
		followed = actor
	}
	followed.FollowedByMe = model.TriStateOf(follow)
	act := model.NewActivity(c.origin, verb, c.data.AccountActor)
	act.SetObjActor(followed)
	return act, nil
}

func (c *Connection) Announce(ctx context.Context, oid string) (model.Activity, error) {
	if oid == "" {
		return model.Activity{}, social.Hard("nothing to announce: empty note oid")
	}
	rr, err := c.postForm(ctx, c.path("/statuses/retweet/"+url.PathEscape(oid)+".json"), url.Values{})
	if err != nil {
		return model.Activity{}, err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return model.Activity{}, err
	}
	return c.ActivityFromJSON(obj)
}

// UploadMedia pushes one attachment as a multipart post. The returned
// attachment's URI is the server-assigned media id, which a later Send
// passes along in media_ids.
func (c *Connection) UploadMedia(ctx context.Context, att model.Attachment) (model.Attachment, error) {
	if !att.IsValid() {
		return att, social.Hard("nothing to upload: empty attachment uri")
	}
	form := url.Values{}
	form.Set(transport.MediaPartNameKey, "media")
	form.Set(transport.MediaPartURIKey, att.URI)
	rr, err := social.CheckResult(c.tr.Execute(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    c.path("/media/upload.json"),
		Form:   form,
	}))
	if err != nil {
		return att, err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return att, err
	}
	mediaID := social.JSONString(obj, "media_id_string")
	if mediaID == "" {
		return att, social.Hard("upload response carried no media id").WithPayload(rr.Body)
	}
	return model.Attachment{URI: mediaID, MediaType: att.MediaType}, nil
}
