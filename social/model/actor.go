package model

import (
	"net/url"
	"strings"
	"time"
)

// Actor is a participant in a federated network: a person, an application,
// or a collection. Identity within one origin is the platform-native oid;
// the numeric ID belongs to the persistence layer and is 0 until an actor
// has been stored.
type Actor struct {
	ID     int64
	Origin Origin
	Oid    string

	WebFingerID string // user@host
	Username    string
	RealName    string
	Summary     string
	Location    string

	ProfileURL  string
	HomepageURL string
	AvatarURL   string
	BannerURL   string

	Endpoints EndpointSet

	NotesCount     int64
	FavoritesCount int64
	FollowingCount int64
	FollowersCount int64

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationship to the account this actor was seen from.
	IsFollowingMe TriState
	FollowedByMe  TriState
}

func NewActor(origin Origin, oid string) Actor {
	return Actor{
		Origin:    origin,
		Oid:       oid,
		Endpoints: NewEndpointSet(),
	}
}

// EmptyActor is what adapters return for payloads that turn out not to
// describe a person. It is not an error.
func EmptyActor() Actor {
	return Actor{}
}

func (a Actor) IsEmpty() bool {
	return a.Oid == "" && a.WebFingerID == ""
}

// IsFullyDefined reports whether the actor's profile has been fetched at
// least once. Actors referenced from activities often arrive partial:
// an oid and maybe a username, nothing more.
func (a Actor) IsFullyDefined() bool {
	return a.Oid != "" && a.Username != "" && !a.UpdatedAt.IsZero()
}

// SameAs reports whether two actors are the same real-world entity:
// matching oid within the same origin.
func (a Actor) SameAs(other Actor) bool {
	if a.Oid == "" || other.Oid == "" {
		return false
	}
	return a.Origin.SameAs(other.Origin) && a.Oid == other.Oid
}

// Host determines which server the actor lives on, from the webfinger id
// when present, otherwise from the profile or oid URL.
func (a Actor) Host() string {
	if i := strings.LastIndex(a.WebFingerID, "@"); i >= 0 {
		return a.WebFingerID[i+1:]
	}
	for _, s := range []string{a.ProfileURL, a.Oid} {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return ""
}

// BuildWebFingerID fills in the webfinger id from username and host when
// the platform didn't supply one.
func (a *Actor) BuildWebFingerID() {
	if a.WebFingerID != "" || a.Username == "" {
		return
	}
	host := a.Host()
	if host == "" {
		host = a.Origin.Host()
	}
	if host != "" {
		a.WebFingerID = strings.ToLower(a.Username + "@" + host)
	}
}
