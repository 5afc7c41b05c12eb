package domain

import (
	"github.com/google/uuid"
)

// SessionEvent is the transport-level lifecycle hint carried by a message.
type SessionEvent string

const (
	SessionNew    SessionEvent = "new"
	SessionResume SessionEvent = "resume"
	SessionClose  SessionEvent = "close"
	SessionNone   SessionEvent = ""
)

// TransportType identifies the kind of transport a message travelled on.
type TransportType string

const (
	TransportHTTPAPI TransportType = "http_api"
	TransportUSSD    TransportType = "ussd"
	TransportSMS     TransportType = "sms"
)

// Helper metadata keys understood by transports.
const (
	HelperButtons          = "buttons"
	HelperButton           = "button"
	HelperSections         = "sections"
	HelperHeader           = "header"
	HelperDocument         = "document"
	HelperImage            = "image"
	HelperAutomationHandle = "automation_handle"
)

// Message is a single inbound or outbound message.
type Message struct {
	MessageID         string         `json:"message_id"`
	InReplyTo         string         `json:"in_reply_to,omitempty"`
	FromAddr          string         `json:"from_addr"`
	ToAddr            string         `json:"to_addr"`
	TransportName     string         `json:"transport_name"`
	TransportType     TransportType  `json:"transport_type"`
	Content           *string        `json:"content"`
	SessionEvent      SessionEvent   `json:"session_event"`
	TransportMetadata map[string]any `json:"transport_metadata,omitempty"`
	HelperMetadata    map[string]any `json:"helper_metadata,omitempty"`
}

// NewInbound builds an inbound message with a generated id.
func NewInbound(from, to, transportName string, transportType TransportType, content *string, event SessionEvent) Message {
	return Message{
		MessageID:     uuid.NewString(),
		FromAddr:      from,
		ToAddr:        to,
		TransportName: transportName,
		TransportType: transportType,
		Content:       content,
		SessionEvent:  event,
	}
}

// Text returns the content, or the empty string when there is none.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// HasContent reports whether the message carries any content at all.
func (m Message) HasContent() bool {
	return m.Content != nil
}

// Reply builds an outbound message correlated with m.
// Addresses are swapped and the transport is inherited.
func (m Message) Reply(content string, event SessionEvent, helper map[string]any) Message {
	c := content
	return Message{
		MessageID:      uuid.NewString(),
		InReplyTo:      m.MessageID,
		FromAddr:       m.ToAddr,
		ToAddr:         m.FromAddr,
		TransportName:  m.TransportName,
		TransportType:  m.TransportType,
		Content:        &c,
		SessionEvent:   event,
		HelperMetadata: helper,
	}
}

// StringPtr is a small helper for building messages in tests and transports.
func StringPtr(s string) *string {
	return &s
}
