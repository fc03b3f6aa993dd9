package models

// Media is an attachment downloaded from the messaging channel.
type Media struct {
	MimeType string
	Filename string
	Data     []byte
}

// InboundEvent is a message delivered by the transport.
type InboundEvent struct {
	SenderID string
	Text     string
	Media    *Media
	IsGroup  bool
}

// Attachment is a mail attachment: either a file on disk or in-memory bytes.
type Attachment struct {
	Filename string
	Path     string
	Data     []byte
}

// Mail is one outgoing email.
type Mail struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}
