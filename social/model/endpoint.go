package model

// ActorEndpointType names the well-known URLs an actor can expose.
// Different API calls reveal different endpoints for the same actor,
// so an actor's set grows incrementally.
type ActorEndpointType int

const (
	EndpointEmpty ActorEndpointType = iota
	EndpointInbox
	EndpointOutbox
	EndpointFollowing
	EndpointFollowers
	EndpointSharedInbox
	EndpointProfile
	EndpointLiked
	EndpointUpload
)

func (t ActorEndpointType) String() string {
	switch t {
	case EndpointInbox:
		return "inbox"
	case EndpointOutbox:
		return "outbox"
	case EndpointFollowing:
		return "following"
	case EndpointFollowers:
		return "followers"
	case EndpointSharedInbox:
		return "sharedInbox"
	case EndpointProfile:
		return "profile"
	case EndpointLiked:
		return "liked"
	case EndpointUpload:
		return "upload"
	}
	return "empty"
}

// EndpointSet maps endpoint types to URLs. Each type holds at most one URL.
type EndpointSet map[ActorEndpointType]string

func NewEndpointSet() EndpointSet {
	return make(EndpointSet)
}

// Add records a URL for a type, replacing any earlier value.
// Empty URLs are ignored so partial parses don't erase known endpoints.
func (s EndpointSet) Add(t ActorEndpointType, url string) {
	if t == EndpointEmpty || url == "" {
		return
	}
	s[t] = url
}

func (s EndpointSet) Get(t ActorEndpointType) (string, bool) {
	url, ok := s[t]
	return url, ok
}

// Merge unions another set into this one, keyed by type.
// The other set's entries win where both have a value.
func (s EndpointSet) Merge(other EndpointSet) {
	for t, url := range other {
		s.Add(t, url)
	}
}
