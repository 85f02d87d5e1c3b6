// Package feed is the read-only adapter for plain RSS/Atom/JSON feeds.
// A feed "account" has no credentials and no write path; the origin URL
// is the feed itself, and the feed's channel metadata stands in for the
// account actor. Everything else returns the uniform unsupported error.
package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/telemetry"
	"github.com/tkrehbiel/fedsync/social/transport"
)

func init() {
	social.Register(model.OriginFeed, func(data social.ConnectionData) (social.Connection, error) {
		return New(data), nil
	})
}

type Connection struct {
	data   social.ConnectionData
	origin model.Origin
	tr     transport.Sender
	parser *gofeed.Parser // helper to parse rss, atom, json
}

func New(data social.ConnectionData) *Connection {
	return NewWithTransport(data, transport.New(data.Host(), transport.Anonymous{}))
}

func NewWithTransport(data social.ConnectionData, tr transport.Sender) *Connection {
	return &Connection{
		data:   data,
		origin: data.Origin(),
		tr:     tr,
		parser: gofeed.NewParser(),
	}
}

func (c *Connection) HasAPIEndpoint(r social.ApiRoutine) bool {
	switch r {
	case social.APIHomeTimeline, social.APIActorTimeline, social.APIGetActor, social.APIVerifyCredentials:
		return true
	}
	return false
}

// fetch pulls the feed document. Feeds are one URL, so every read
// routine funnels through here.
func (c *Connection) fetch(ctx context.Context) (*gofeed.Feed, error) {
	rr, err := social.CheckResult(c.tr.Execute(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    c.data.OriginURL,
	}))
	if err != nil {
		return nil, err
	}
	telemetry.Increment("feed_fetches", 1)
	parsed, err := c.parser.ParseString(string(rr.Body))
	if err != nil {
		return nil, social.Hard("parsing feed %s", c.data.OriginURL).WithWrapped(err)
	}
	return parsed, nil
}

// feedActor synthesizes an actor from the channel metadata so feed
// items slot into the same activity model as everything else.
func (c *Connection) feedActor(f *gofeed.Feed) model.Actor {
	oid := f.Link
	if oid == "" {
		oid = c.data.OriginURL
	}
	actor := model.NewActor(c.origin, oid)
	actor.RealName = f.Title
	actor.Username = f.Title
	actor.Summary = f.Description
	actor.ProfileURL = f.Link
	actor.HomepageURL = f.Link
	if f.UpdatedParsed != nil {
		actor.UpdatedAt = *f.UpdatedParsed
	} else {
		actor.UpdatedAt = time.Now().UTC()
	}
	if f.Image != nil {
		actor.AvatarURL = f.Image.URL
	}
	actor.Endpoints.Add(model.EndpointProfile, c.data.OriginURL)
	return actor
}

func (c *Connection) VerifyCredentials(ctx context.Context) (model.Actor, error) {
	parsed, err := c.fetch(ctx)
	if err != nil {
		return model.EmptyActor(), err
	}
	return c.feedActor(parsed), nil
}

func (c *Connection) GetTimeline(ctx context.Context, r social.ApiRoutine, since, until model.TimelinePosition,
	limit int, actor model.Actor) (social.Timeline, error) {
	if !c.HasAPIEndpoint(r) {
		return social.Timeline{}, social.UnsupportedError(r)
	}
	parsed, err := c.fetch(ctx)
	if err != nil {
		return social.Timeline{}, err
	}
	author := c.feedActor(parsed)
	timeline := social.Timeline{}
	for _, item := range parsed.Items {
		if since != model.EmptyPosition && string(since) == itemOid(item) {
			// Cursor is the newest oid from the previous sync; feeds
			// carry the full window every time, so stop when we see it.
			break
		}
		timeline.Items = append(timeline.Items, itemActivity(c.origin, author, item))
		if limit > 0 && len(timeline.Items) >= limit {
			break
		}
	}
	if len(timeline.Items) > 0 {
		timeline.Next = model.TimelinePosition(timeline.Items[0].Oid)
	}
	return timeline, nil
}

func itemOid(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}

// itemActivity converts one feed entry into a create-note activity.
func itemActivity(origin model.Origin, author model.Actor, item *gofeed.Item) model.Activity {
	note := model.NewNote(itemOid(item))
	note.Name = item.Title
	note.Content = item.Description
	if note.Content == "" {
		note.Content = item.Content
	}
	note.Audience.Public = true
	if item.PublishedParsed != nil {
		note.CreatedAt = *item.PublishedParsed
	} else {
		// Some feeds have mangled dates
		// e.g. CNN "Sat, 26 Nov 2022 11:04:03 GMT"
		note.CreatedAt = time.Now().UTC()
	}
	if item.UpdatedParsed != nil {
		note.UpdatedAt = *item.UpdatedParsed
	} else {
		note.UpdatedAt = note.CreatedAt
	}
	if item.Image != nil {
		note.AddAttachment(model.Attachment{URI: item.Image.URL, MediaType: "image"})
	}
	for _, enc := range item.Enclosures {
		note.AddAttachment(model.Attachment{URI: enc.URL, MediaType: enc.Type})
	}

	act := model.NewActivity(origin, model.VerbCreate, author)
	act.Oid = note.Oid
	act.UpdatedAt = note.UpdatedAt
	act.SetNote(note)
	return act
}

func (c *Connection) GetNote(ctx context.Context, oid string) (model.Activity, error) {
	parsed, err := c.fetch(ctx)
	if err != nil {
		return model.Activity{}, err
	}
	author := c.feedActor(parsed)
	for _, item := range parsed.Items {
		if itemOid(item) == oid {
			return itemActivity(c.origin, author, item), nil
		}
	}
	return model.Activity{}, social.NotFound("item %s not in feed", oid)
}

func (c *Connection) GetActor(ctx context.Context, actor model.Actor) (model.Actor, error) {
	return c.VerifyCredentials(ctx)
}

func (c *Connection) GetFriends(ctx context.Context, actor model.Actor) ([]model.Actor, error) {
	return nil, social.UnsupportedError(social.APIGetFriends)
}

func (c *Connection) GetFollowers(ctx context.Context, actor model.Actor) ([]model.Actor, error) {
	return nil, social.UnsupportedError(social.APIGetFollowers)
}

func (c *Connection) Send(ctx context.Context, verb model.ActivityType, note model.Note) (model.Activity, error) {
	return model.Activity{}, social.UnsupportedError(social.APIPostNote)
}

func (c *Connection) DeleteNote(ctx context.Context, oid string) error {
	return social.UnsupportedError(social.APIDeleteNote)
}

func (c *Connection) Follow(ctx context.Context, actor model.Actor, follow bool) (model.Activity, error) {
	return model.Activity{}, social.UnsupportedError(social.APIFollow)
}

func (c *Connection) Announce(ctx context.Context, oid string) (model.Activity, error) {
	return model.Activity{}, social.UnsupportedError(social.APIAnnounce)
}

func (c *Connection) UploadMedia(ctx context.Context, att model.Attachment) (model.Attachment, error) {
	return model.Attachment{}, social.UnsupportedError(social.APIUploadMedia)
}
