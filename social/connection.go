// Package social defines the protocol-neutral connection contract that
// every platform adapter implements, plus the shared pieces the adapters
// lean on: connection data, the classified error type, and the endpoint
// resolver. The adapters themselves live in sibling packages, one per
// protocol family.
package social

import (
	"context"
	"fmt"

	"github.com/tkrehbiel/fedsync/social/model"
)

// Timeline is one page of parsed activities. Items keep the platform's
// native order (newest-first or oldest-first per platform); callers must
// not assume a canonical order across platforms. Next is the cursor for
// the following page, empty when the platform gave none.
type Timeline struct {
	Items []model.Activity
	Next  model.TimelinePosition
}

// Connection is one account's window onto one server. Implementations
// are stateless with respect to credentials: everything account-specific
// arrives once, in the ConnectionData given at construction. Every
// operation returns a classified error (see ConnError), never panics.
type Connection interface {
	// HasAPIEndpoint probes whether the platform supports a routine at
	// all, so callers can skip what a server cannot do.
	HasAPIEndpoint(r ApiRoutine) bool

	// VerifyCredentials confirms the account's credentials and returns
	// the account's own, fully-defined actor.
	VerifyCredentials(ctx context.Context) (model.Actor, error)

	// GetTimeline fetches one page. since/until are opaque platform
	// cursors; an empty since means "from the beginning".
	GetTimeline(ctx context.Context, r ApiRoutine, since, until model.TimelinePosition,
		limit int, actor model.Actor) (Timeline, error)

	// GetNote fetches a single note by oid, wrapped in its activity.
	GetNote(ctx context.Context, oid string) (model.Activity, error)

	// GetActor fetches the full profile of a (possibly partial) actor.
	GetActor(ctx context.Context, actor model.Actor) (model.Actor, error)

	GetFriends(ctx context.Context, actor model.Actor) ([]model.Actor, error)
	GetFollowers(ctx context.Context, actor model.Actor) ([]model.Actor, error)

	// Send posts a note (create or update). The note carries its
	// audience, reply parent and attachments.
	Send(ctx context.Context, verb model.ActivityType, note model.Note) (model.Activity, error)

	DeleteNote(ctx context.Context, oid string) error

	// Follow follows (or, with follow=false, unfollows) an actor.
	Follow(ctx context.Context, actor model.Actor, follow bool) (model.Activity, error)

	// Announce reshares a note by oid.
	Announce(ctx context.Context, oid string) (model.Activity, error)

	// UploadMedia pushes an attachment and returns it with the
	// server-assigned URI filled in.
	UploadMedia(ctx context.Context, att model.Attachment) (model.Attachment, error)
}

// Factory builds a connection for one account.
type Factory func(data ConnectionData) (Connection, error)

// Adapters register themselves here at init time; the table is fixed
// before any account is configured, so selection is a plain map lookup
// with no reflection.
var factories = map[model.OriginType]Factory{}

func Register(t model.OriginType, f Factory) {
	factories[t] = f
}

// NewConnection picks the adapter for the account's origin type.
func NewConnection(data ConnectionData) (Connection, error) {
	f, ok := factories[data.OriginType]
	if !ok {
		return nil, Hard("no adapter for origin type %s", data.OriginType)
	}
	return f(data)
}

// RegisteredOrigins lists the origin types with adapters, for config
// validation messages.
func RegisteredOrigins() []model.OriginType {
	out := make([]model.OriginType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}
	return out
}

// UnsupportedError is the uniform failure for routines a platform lacks.
func UnsupportedError(r ApiRoutine) error {
	return BadRequest("%s", fmt.Sprintf("routine %s not supported by this platform", r))
}
