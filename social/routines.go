package social

import "github.com/tkrehbiel/fedsync/social/model"

// ApiRoutine is a logical API operation, independent of any platform's
// URL scheme. Adapters map routines to concrete paths or actor endpoints.
type ApiRoutine int

const (
	APIUnknown ApiRoutine = iota
	APIVerifyCredentials
	APIRegisterClient
	APIHomeTimeline
	APIPublicTimeline
	APIActorTimeline
	APIGetNote
	APIGetActor
	APIGetFriends
	APIGetFollowers
	APIPostNote
	APIDeleteNote
	APIFollow
	APIUndoFollow
	APILike
	APIUndoLike
	APIAnnounce
	APIUndoAnnounce
	APIUploadMedia
)

func (r ApiRoutine) String() string {
	switch r {
	case APIVerifyCredentials:
		return "verify-credentials"
	case APIRegisterClient:
		return "register-client"
	case APIHomeTimeline:
		return "home-timeline"
	case APIPublicTimeline:
		return "public-timeline"
	case APIActorTimeline:
		return "actor-timeline"
	case APIGetNote:
		return "get-note"
	case APIGetActor:
		return "get-actor"
	case APIGetFriends:
		return "get-friends"
	case APIGetFollowers:
		return "get-followers"
	case APIPostNote:
		return "post-note"
	case APIDeleteNote:
		return "delete-note"
	case APIFollow:
		return "follow"
	case APIUndoFollow:
		return "undo-follow"
	case APILike:
		return "like"
	case APIUndoLike:
		return "undo-like"
	case APIAnnounce:
		return "announce"
	case APIUndoAnnounce:
		return "undo-announce"
	case APIUploadMedia:
		return "upload-media"
	}
	return "unknown"
}

// EndpointForRoutine is the outbound routing rule for endpoint-addressed
// platforms (ActivityPub, Pump.io): which of the actor's endpoints serves
// a routine. Routines that don't go through actor endpoints return false.
func EndpointForRoutine(r ApiRoutine) (model.ActorEndpointType, bool) {
	switch r {
	case APIHomeTimeline:
		return model.EndpointInbox, true
	case APIActorTimeline:
		return model.EndpointOutbox, true
	case APIGetFriends:
		return model.EndpointFollowing, true
	case APIGetFollowers:
		return model.EndpointFollowers, true
	case APIPostNote, APIDeleteNote, APIFollow, APIUndoFollow,
		APILike, APIUndoLike, APIAnnounce, APIUndoAnnounce:
		return model.EndpointOutbox, true
	case APIUploadMedia:
		return model.EndpointUpload, true
	case APIGetActor:
		return model.EndpointProfile, true
	}
	return model.EndpointEmpty, false
}
