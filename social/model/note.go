package model

import "time"

// NoteStatus tracks a note through its local lifecycle. A note with an
// empty oid and a status other than unknown has not yet round-tripped to
// the server.
type NoteStatus int

const (
	StatusUnknown NoteStatus = iota
	StatusComposing
	StatusSending
	StatusLoaded // parsed from a server response
	StatusSent
	StatusFailed
)

func (s NoteStatus) String() string {
	switch s {
	case StatusComposing:
		return "composing"
	case StatusSending:
		return "sending"
	case StatusLoaded:
		return "loaded"
	case StatusSent:
		return "sent"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Note is a unit of content. Summary doubles as the content warning on
// platforms that have one.
type Note struct {
	Oid          string
	Name         string
	Summary      string
	Content      string
	Sensitive    bool
	InReplyToOid string
	Attachments  []Attachment
	Audience     Audience
	Status       NoteStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewNote(oid string) Note {
	return Note{Oid: oid, Status: StatusLoaded}
}

func (n Note) IsEmpty() bool {
	return n.Oid == "" && n.Content == "" && n.Name == "" && len(n.Attachments) == 0
}

func (n *Note) AddAttachment(a Attachment) {
	if a.IsValid() {
		n.Attachments = append(n.Attachments, a)
	}
}

func (n Note) HasAttachments() bool {
	return len(n.Attachments) > 0
}
