package match_test

import (
	"strings"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/match"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
		err   error
	}{
		{"plain", "1", 0, "1", nil},
		{"keeps newlines and tabs", "a\nb\tc\r", 0, "a\nb\tc\r", nil},
		{"strips escape and bell", "yes\x1b[31m\x07", 0, "yes[31m", nil},
		{"strips null", "no\x00", 0, "no", nil},
		{"too large", strings.Repeat("a", 11), 10, "", match.ErrInputTooLarge},
		{"default limit", strings.Repeat("a", match.DefaultMaxInputSize+1), 0, "", match.ErrInputTooLarge},
		{"invalid utf8", "\xff\xfe", 0, "", match.ErrInvalidUTF8},
		{"multibyte", "Ngiyabonga ✓", 0, "Ngiyabonga ✓", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := match.Sanitize(tt.input, tt.limit)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
