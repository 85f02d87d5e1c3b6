// Package gnusocial adapts the GNU-social/StatusNet family, which clones
// the Twitter-style REST API under /api with a few gaps. The parsing
// core is the twitter adapter's; only the path prefix and the capability
// set differ.
package gnusocial

import (
	"context"

	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/model"
	"github.com/tkrehbiel/fedsync/social/transport"
	"github.com/tkrehbiel/fedsync/social/twitter"
)

func init() {
	social.Register(model.OriginGNUSocial, func(data social.ConnectionData) (social.Connection, error) {
		return New(data), nil
	})
}

type Connection struct {
	*twitter.Connection
}

func New(data social.ConnectionData) *Connection {
	return NewWithTransport(data, transport.New(data.Host(), twitter.AuthFor(data)))
}

func NewWithTransport(data social.ConnectionData, tr transport.Sender) *Connection {
	return &Connection{
		Connection: twitter.NewVariant(data, tr, "/api", true),
	}
}

// GetFriends overrides the embedded implementation so an unchecked call
// fails the same way every other unsupported routine does, instead of
// sending a request the server can't answer.
func (c *Connection) GetFriends(ctx context.Context, actor model.Actor) ([]model.Actor, error) {
	return nil, social.UnsupportedError(social.APIGetFriends)
}

func (c *Connection) HasAPIEndpoint(r social.ApiRoutine) bool {
	switch r {
	case social.APIPublicTimeline:
		// Unlike the original API, the clones kept their public firehose
		return true
	case social.APIGetFriends:
		// No friends-list endpoint on most of these servers
		return false
	case social.APIRegisterClient, social.APIUnknown:
		return false
	}
	return c.Connection.HasAPIEndpoint(r)
}
