// Package model holds the platform-agnostic social graph: actors, notes,
// activities, audiences. Every protocol adapter parses into these types and
// nothing in here knows about any particular wire dialect.
package model

import (
	"fmt"
	"net/url"
	"strings"
)

// OriginType identifies a protocol family, not an individual server.
type OriginType int

const (
	OriginUnknown OriginType = iota
	OriginActivityPub
	OriginPumpio
	OriginTwitter
	OriginGNUSocial
	OriginFeed
)

var originNames = map[OriginType]string{
	OriginUnknown:     "unknown",
	OriginActivityPub: "activitypub",
	OriginPumpio:      "pumpio",
	OriginTwitter:     "twitter",
	OriginGNUSocial:   "gnusocial",
	OriginFeed:        "feed",
}

func (t OriginType) String() string {
	if s, ok := originNames[t]; ok {
		return s
	}
	return fmt.Sprintf("origintype(%d)", int(t))
}

// OriginTypeFromName parses a config-file origin name, case-insensitively.
func OriginTypeFromName(name string) OriginType {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, s := range originNames {
		if s == name {
			return t
		}
	}
	return OriginUnknown
}

// Origin is one server instance of one protocol family.
// ID is assigned by the persistence layer and stays 0 until then.
type Origin struct {
	ID   int64
	Type OriginType
	URL  string // base url, e.g. https://mastodon.example
	SSL  bool
}

func NewOrigin(t OriginType, baseURL string) Origin {
	return Origin{
		Type: t,
		URL:  baseURL,
		SSL:  strings.HasPrefix(baseURL, "https:"),
	}
}

// Host returns the hostname part of the origin's base URL.
func (o Origin) Host() string {
	u, err := url.Parse(o.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

func (o Origin) IsEmpty() bool {
	return o.Type == OriginUnknown && o.URL == ""
}

// SameAs reports whether two origins are the same server instance.
func (o Origin) SameAs(other Origin) bool {
	return o.Type == other.Type && o.Host() == other.Host()
}
