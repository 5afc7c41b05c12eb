package domain

import (
	"github.com/mitchellh/mapstructure"
)

// Media describes an attachment carried by an inbound WhatsApp message.
type Media struct {
	ID       string `mapstructure:"id"`
	MimeType string `mapstructure:"mime_type"`
	Caption  string `mapstructure:"caption"`
	Filename string `mapstructure:"filename"`
}

// Location is a location fix shared by the user.
type Location struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Name      string  `mapstructure:"name"`
	Address   string  `mapstructure:"address"`
}

// Reply is a selection made from a native list or button group.
type Reply struct {
	ID    string `mapstructure:"id"`
	Title string `mapstructure:"title"`
}

// TransportMetadata is the typed view of the transport_metadata annotations we consume.
type TransportMetadata struct {
	Message struct {
		Type   string `mapstructure:"type"`
		Button struct {
			Payload string `mapstructure:"payload"`
			Text    string `mapstructure:"text"`
		} `mapstructure:"button"`
		Interactive struct {
			Type        string `mapstructure:"type"`
			ListReply   Reply  `mapstructure:"list_reply"`
			ButtonReply Reply  `mapstructure:"button_reply"`
		} `mapstructure:"interactive"`
		Image    *Media    `mapstructure:"image"`
		Document *Media    `mapstructure:"document"`
		Audio    *Media    `mapstructure:"audio"`
		Video    *Media    `mapstructure:"video"`
		Voice    *Media    `mapstructure:"voice"`
		Location *Location `mapstructure:"location"`
	} `mapstructure:"message"`
	// SessionID is an upstream transport session identifier when one is supplied.
	SessionID string `mapstructure:"session_id"`
}

// ParseTransportMetadata decodes the loosely typed transport metadata.
// Unknown keys are ignored.
func ParseTransportMetadata(raw map[string]any) (TransportMetadata, error) {
	var md TransportMetadata
	if len(raw) == 0 {
		return md, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &md,
	})
	if err != nil {
		return md, err
	}
	err = decoder.Decode(raw)
	return md, err
}

// Metadata returns the typed transport metadata, or the zero value if it cannot be decoded.
func (m Message) Metadata() TransportMetadata {
	md, _ := ParseTransportMetadata(m.TransportMetadata)
	return md
}

// SelectedID returns the list row id or button payload the user picked, if any.
func (md TransportMetadata) SelectedID() string {
	switch {
	case md.Message.Interactive.ListReply.ID != "":
		return md.Message.Interactive.ListReply.ID
	case md.Message.Interactive.ButtonReply.ID != "":
		return md.Message.Interactive.ButtonReply.ID
	default:
		return md.Message.Button.Payload
	}
}

// Media returns the first attachment on the message, if any.
func (md TransportMetadata) Media() *Media {
	for _, m := range []*Media{md.Message.Image, md.Message.Document, md.Message.Audio, md.Message.Video, md.Message.Voice} {
		if m != nil {
			return m
		}
	}
	return nil
}
