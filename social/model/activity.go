package model

import "time"

// ActivityType is the verb of an activity.
type ActivityType int

const (
	VerbUnknown ActivityType = iota
	VerbCreate
	VerbUpdate
	VerbDelete
	VerbFollow
	VerbUndoFollow
	VerbLike
	VerbUndoLike
	VerbAnnounce
	VerbUndoAnnounce
	VerbUndo
	VerbJoin
)

func (t ActivityType) String() string {
	switch t {
	case VerbCreate:
		return "create"
	case VerbUpdate:
		return "update"
	case VerbDelete:
		return "delete"
	case VerbFollow:
		return "follow"
	case VerbUndoFollow:
		return "undo-follow"
	case VerbLike:
		return "like"
	case VerbUndoLike:
		return "undo-like"
	case VerbAnnounce:
		return "announce"
	case VerbUndoAnnounce:
		return "undo-announce"
	case VerbUndo:
		return "undo"
	case VerbJoin:
		return "join"
	}
	return "unknown"
}

// ObjectType tags which branch of the activity's object union is set.
type ObjectType int

const (
	ObjectEmpty ObjectType = iota
	ObjectNote
	ObjectActor
	ObjectActivity
)

func (t ObjectType) String() string {
	switch t {
	case ObjectNote:
		return "note"
	case ObjectActor:
		return "actor"
	case ObjectActivity:
		return "activity"
	}
	return "empty"
}

// Activity is a verb applied by an actor to an object. The object is a
// tagged union: exactly one of Note, ObjActor, ObjActivity is populated,
// and ObjType says which. An activity whose object is itself an activity
// is a meta-action, e.g. liking an announce.
type Activity struct {
	Origin Origin
	Oid    string
	Verb   ActivityType

	Actor Actor
	// Author is set when it differs from Actor, i.e. for announced or
	// liked content where someone else wrote the note.
	Author Actor

	ObjType     ObjectType
	Note        Note
	ObjActor    Actor
	ObjActivity *Activity

	UpdatedAt time.Time
	InsDate   time.Time
}

func NewActivity(origin Origin, verb ActivityType, actor Actor) Activity {
	return Activity{
		Origin:  origin,
		Verb:    verb,
		Actor:   actor,
		InsDate: time.Now().UTC(),
	}
}

func (a *Activity) SetNote(n Note) {
	a.ObjType = ObjectNote
	a.Note = n
}

func (a *Activity) SetObjActor(actor Actor) {
	a.ObjType = ObjectActor
	a.ObjActor = actor
}

func (a *Activity) SetObjActivity(inner *Activity) {
	a.ObjType = ObjectActivity
	a.ObjActivity = inner
}

func (a Activity) IsEmpty() bool {
	return a.Verb == VerbUnknown && a.Oid == "" && a.ObjType == ObjectEmpty
}

// Consistent reports whether the object tag agrees with the populated
// object field.
func (a Activity) Consistent() bool {
	switch a.ObjType {
	case ObjectNote:
		return !a.Note.IsEmpty()
	case ObjectActor:
		return !a.ObjActor.IsEmpty()
	case ObjectActivity:
		return a.ObjActivity != nil
	}
	return a.Note.IsEmpty() && a.ObjActor.IsEmpty() && a.ObjActivity == nil
}
