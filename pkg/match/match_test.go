package match_test

import (
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fruits = []domain.Choice{
	domain.NewChoice("yes", "Yes"),
	domain.NewChoice("no", "No"),
	domain.NewChoice("sometimes", "Only on weekends"),
	domain.NewChoice("unsure", "I'm not sure!"),
}

func TestChoice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"first index", "1", "yes"},
		{"last index", "4", "unsure"},
		{"index with spaces", "  2 ", "no"},
		{"zero", "0", ""},
		{"out of range", "5", ""},
		{"exact label", "no", "no"},
		{"label ignores case", "ONLY ON WEEKENDS", "sometimes"},
		{"punctuation collapsed", "im not sure", "unsure"},
		{"keyword overlap", "weekends", "sometimes"},
		{"value", "Sometimes", "sometimes"},
		{"no match", "banana", ""},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := match.Choice(tt.input, fruits)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestChoice_NumericIndexForEveryPosition(t *testing.T) {
	for i := range fruits {
		got := match.Choice(string(rune('1'+i)), fruits)
		require.NotNil(t, got)
		assert.Equal(t, fruits[i].Value, got.Value)
	}
}

func TestChoice_TiesBrokenByOrder(t *testing.T) {
	choices := []domain.Choice{
		domain.NewChoice("a", "Clinic near home"),
		domain.NewChoice("b", "Clinic near work"),
	}
	got := match.Choice("clinic", choices)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Value)
}

func TestChoice_Accents(t *testing.T) {
	choices := []domain.Choice{domain.NewChoice("pt", "Português")}
	got := match.Choice("portugues", choices)
	require.NotNil(t, got)
	assert.Equal(t, "pt", got.Value)
}

func TestMessage_PrefersSelection(t *testing.T) {
	msg := domain.Message{
		Content: domain.StringPtr("1"),
		TransportMetadata: map[string]any{"message": map[string]any{
			"interactive": map[string]any{"list_reply": map[string]any{"id": "no", "title": "No"}},
		}},
	}
	got := match.Message(msg, fruits)
	require.NotNil(t, got)
	assert.Equal(t, "no", got.Value)
}

func TestMessage_UnknownSelectionFallsBackToText(t *testing.T) {
	msg := domain.Message{
		Content: domain.StringPtr("Yes"),
		TransportMetadata: map[string]any{"message": map[string]any{
			"button": map[string]any{"payload": "stale-payload"},
		}},
	}
	got := match.Message(msg, fruits)
	require.NotNil(t, got)
	assert.Equal(t, "yes", got.Value)
}

func TestErrorPrompt(t *testing.T) {
	got := match.ErrorPrompt("", fruits[:2])
	assert.Equal(t, "Please use numbers from list.\n1. Yes\n2. No", got)
}
