package model

import "strings"

// PublicOid is the well-known ActivityStreams pseudo-actor meaning
// "addressed to the whole world".
const PublicOid = "https://www.w3.org/ns/activitystreams#Public"

// Visibility is derived from an audience, never stored on the wire.
type Visibility int

const (
	VisibilityPrivate Visibility = iota
	VisibilityPublic
	VisibilityPublicAndToFollowers
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPublicAndToFollowers:
		return "public+followers"
	}
	return "private"
}

// Audience is the recipient set of a note or activity: explicit actors
// plus the well-known public and followers-collection markers.
type Audience struct {
	Recipients []Actor
	Public     bool
	Followers  bool
}

// IsPublicOid recognizes the spellings of the public pseudo-actor that
// servers actually emit.
func IsPublicOid(oid string) bool {
	switch oid {
	case PublicOid, "as:Public", "Public":
		return true
	}
	return false
}

// IsFollowersOid recognizes a followers-collection oid.
func IsFollowersOid(oid string) bool {
	return strings.HasSuffix(oid, "/followers")
}

// AddOid files a recipient oid into the right bucket: the public or
// followers marker, or an explicit (partial) actor.
func (a *Audience) AddOid(origin Origin, oid string) {
	if oid == "" {
		return
	}
	if IsPublicOid(oid) {
		a.Public = true
		return
	}
	if IsFollowersOid(oid) {
		a.Followers = true
		return
	}
	a.Add(NewActor(origin, oid))
}

// Add appends an explicit recipient, skipping duplicates by oid.
func (a *Audience) Add(actor Actor) {
	if actor.IsEmpty() {
		return
	}
	for _, r := range a.Recipients {
		if r.Oid == actor.Oid {
			return
		}
	}
	a.Recipients = append(a.Recipients, actor)
}

func (a Audience) IsEmpty() bool {
	return !a.Public && !a.Followers && len(a.Recipients) == 0
}

// Visibility derives who can see the content. Neither marker means
// private, regardless of how many explicit recipients there are.
func (a Audience) Visibility() Visibility {
	switch {
	case a.Public && a.Followers:
		return VisibilityPublicAndToFollowers
	case a.Public:
		return VisibilityPublic
	}
	return VisibilityPrivate
}
