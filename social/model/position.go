package model

// TimelinePosition is an opaque, platform-native pagination cursor.
// There is no total ordering across platforms; a position only means
// "older than / newer than" within one platform's result pages.
type TimelinePosition string

const EmptyPosition TimelinePosition = ""

func (p TimelinePosition) IsEmpty() bool {
	return p == ""
}

func (p TimelinePosition) String() string {
	return string(p)
}
