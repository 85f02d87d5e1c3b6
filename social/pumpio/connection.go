// Package pumpio is the connection adapter for Pump.io and other
// ActivityStreams-1.0 servers: verb/object JSON, OAuth 1.0a signing, and
// object types encoded in the shape of an id.
package pumpio

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/telemetry"
	"github.com/tkrehbiel/fedsync/social/transport"
)

// PublicCollection is this platform's spelling of "everyone".
const PublicCollection = "http://activityschema.org/collection/public"

const (
	whoAmIPath   = "/api/whoami"
	registerPath = "/api/client/register"
)

func init() {
	social.Register(model.OriginPumpio, func(data social.ConnectionData) (social.Connection, error) {
		return New(data), nil
	})
}

type Connection struct {
	data     social.ConnectionData
	origin   model.Origin
	tr       transport.Sender
	resolver *social.Resolver
}

func New(data social.ConnectionData) *Connection {
	return NewWithTransport(data, transport.New(data.Host(), authFor(data)))
}

func NewWithTransport(data social.ConnectionData, tr transport.Sender) *Connection {
	c := &Connection{
		data:   data,
		origin: data.Origin(),
		tr:     tr,
	}
	c.resolver = social.NewResolver(data, tr, func(d social.ConnectionData) transport.Sender {
		return transport.New(d.Host(), authFor(d))
	})
	c.resolver.Register = RegisterClient
	return c
}

func (c *Connection) Resolver() *social.Resolver {
	return c.resolver
}

func authFor(d social.ConnectionData) transport.Authorizer {
	if d.HasClientKeys() && d.HasAccessToken() {
		return transport.OAuth1{
			ClientKey:    d.ClientKey,
			ClientSecret: d.ClientSecret,
			Token:        d.AccessToken,
			TokenSecret:  d.AccessSecret,
		}
	}
	return transport.Anonymous{}
}

func (c *Connection) HasAPIEndpoint(r social.ApiRoutine) bool {
	switch r {
	case social.APIPublicTimeline, social.APIAnnounce, social.APIUndoAnnounce, social.APIUploadMedia:
		// No public firehose, no reshare-by-oid, and media upload goes
		// through the feed rather than a separate endpoint.
		return false
	case social.APIUnknown:
		return false
	}
	return true
}

// RegisterClient does the platform's dynamic client registration dance.
func RegisterClient(ctx context.Context, data social.ConnectionData, tr transport.Sender) (social.ClientKeys, error) {
	rr, err := social.CheckResult(tr.Execute(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    data.OriginURL + registerPath,
		JSON: map[string]any{
			"type":             "client_associate",
			"application_type": "native",
			"application_name": "fedsync",
		},
	}))
	if err != nil {
		return social.ClientKeys{}, err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return social.ClientKeys{}, err
	}
	keys := social.ClientKeys{
		Key:    social.JSONString(obj, "client_id"),
		Secret: social.JSONString(obj, "client_secret"),
	}
	if keys.Key == "" || keys.Secret == "" {
		return social.ClientKeys{}, social.AuthError("client registration at %s returned no keys", data.Host()).
			WithPayload(rr.Body)
	}
	return keys, nil
}

func (c *Connection) VerifyCredentials(ctx context.Context) (model.Actor, error) {
	rr, err := social.CheckResult(c.tr.Execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    c.data.OriginURL + whoAmIPath,
	}))
	if err != nil {
		return model.EmptyActor(), err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return model.EmptyActor(), err
	}
	actor := c.ActorFromJSON(obj)
	if actor.IsEmpty() {
		return actor, social.AuthError("whoami did not return a person").WithPayload(rr.Body)
	}
	return actor, nil
}

func (c *Connection) GetTimeline(ctx context.Context, r social.ApiRoutine,
	since, until model.TimelinePosition, limit int, actor model.Actor) (social.Timeline, error) {

	if !c.HasAPIEndpoint(r) {
		return social.Timeline{}, social.UnsupportedError(r)
	}
	if actor.IsEmpty() {
		actor = c.data.AccountActor
	}
	resolved, err := c.resolver.Resolve(ctx, r, actor)
	if err != nil {
		return social.Timeline{}, err
	}

	target := resolved.URL
	sep := "?"
	if limit > 0 {
		target += fmt.Sprintf("%scount=%d", sep, limit)
		sep = "&"
	}
	if !since.IsEmpty() {
		target += sep + "since=" + since.String()
	} else if !until.IsEmpty() {
		target += sep + "before=" + until.String()
	}

	rr, err := social.CheckResult(resolved.Transport.Execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    target,
	}))
	if err != nil {
		return social.Timeline{}, err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return social.Timeline{}, err
	}

	timeline := social.Timeline{}
	items, _ := social.JSONArray(obj, "items")
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		act, err := c.ActivityFromJSON(m)
		if err != nil {
			telemetry.Error(err, "skipping unparseable timeline item from %s", target)
			continue
		}
		timeline.Items = append(timeline.Items, act)
	}
	// The newest item's id doubles as the resume cursor; the platform
	// has no next link for since-style paging.
	if len(timeline.Items) > 0 && timeline.Items[0].Oid != "" {
		timeline.Next = model.TimelinePosition(timeline.Items[0].Oid)
	}
	telemetry.Increment("timeline_pages", 1)
	return timeline, nil
}

func (c *Connection) GetNote(ctx context.Context, oid string) (model.Activity, error) {
	if oid == "" {
		return model.Activity{}, social.Hard("nothing to fetch: empty note oid")
	}
	rr, err := social.CheckResult(c.tr.Execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    oid,
	}))
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
	target, _ := actor.Endpoints.Get(model.EndpointProfile)
	if target == "" {
		if actor.Username == "" {
			return model.EmptyActor(), social.BadRequest("endpoint %s empty for actor %s", model.EndpointProfile, actor.Oid)
		}
		target = c.data.OriginURL + "/api/user/" + actor.Username + "/profile"
	}
	rr, err := social.CheckResult(c.tr.Execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    target,
	}))
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
	return c.getPeople(ctx, social.APIGetFriends, actor)
}

func (c *Connection) GetFollowers(ctx context.Context, actor model.Actor) ([]model.Actor, error) {
	return c.getPeople(ctx, social.APIGetFollowers, actor)
}

func (c *Connection) getPeople(ctx context.Context, r social.ApiRoutine, actor model.Actor) ([]model.Actor, error) {
	resolved, err := c.resolver.Resolve(ctx, r, actor)
	if err != nil {
		return nil, err
	}
	rr, err := social.CheckResult(resolved.Transport.Execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    resolved.URL,
	}))
	if err != nil {
		return nil, err
	}
	obj, err := social.ObjectOf(rr)
	if err != nil {
		return nil, err
	}
	items, _ := social.JSONArray(obj, "items")
	people := make([]model.Actor, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if a := c.ActorFromJSON(m); !a.IsEmpty() {
			people = append(people, a)
		}
	}
	return people, nil
}
