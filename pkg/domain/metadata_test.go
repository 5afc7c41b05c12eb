package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransportMetadata(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		selected string
		mime     string
	}{
		{
			name: "list reply",
			raw: map[string]any{"message": map[string]any{
				"type": "interactive",
				"interactive": map[string]any{
					"type":       "list_reply",
					"list_reply": map[string]any{"id": "page-4", "title": "Condoms"},
				},
			}},
			selected: "page-4",
		},
		{
			name: "button payload",
			raw: map[string]any{"message": map[string]any{
				"button": map[string]any{"payload": "yes", "text": "Yes"},
			}},
			selected: "yes",
		},
		{
			name: "image",
			raw: map[string]any{"message": map[string]any{
				"type":  "image",
				"image": map[string]any{"id": "abc", "mime_type": "image/jpeg"},
			}},
			mime: "image/jpeg",
		},
		{name: "empty", raw: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := ParseTransportMetadata(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.selected, md.SelectedID())
			if tt.mime == "" {
				assert.Nil(t, md.Media())
			} else {
				require.NotNil(t, md.Media())
				assert.Equal(t, tt.mime, md.Media().MimeType)
			}
		})
	}
}
