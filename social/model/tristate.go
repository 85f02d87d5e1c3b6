package model

// TriState is a boolean that may also be unknown, for relationship flags
// like "do I follow this actor" that we can't answer until the server
// tells us one way or the other.
type TriState int

const (
	TriUnknown TriState = iota
	TriTrue
	TriFalse
)

func TriStateOf(b bool) TriState {
	if b {
		return TriTrue
	}
	return TriFalse
}

func (t TriState) Known() bool {
	return t != TriUnknown
}

// Bool collapses the tri-state, treating unknown as false.
func (t TriState) Bool() bool {
	return t == TriTrue
}

func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	}
	return "unknown"
}
