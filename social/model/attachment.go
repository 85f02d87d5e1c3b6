package model

// Attachment is a media reference on a note: a URI plus its media type.
// Attachments are ordered and immutable once attached to a note.
type Attachment struct {
	URI       string
	MediaType string
}

func NewAttachment(uri, mediaType string) Attachment {
	return Attachment{URI: uri, MediaType: mediaType}
}

func (a Attachment) IsValid() bool {
	return a.URI != ""
}
