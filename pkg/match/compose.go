package match

import (
	"fmt"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// DefaultError is shown when a choice state cannot match the input.
const DefaultError = "Please use numbers from list."

// Numbered renders choices as "1. Label" lines.
func Numbered(choices []domain.Choice) []string {
	lines := make([]string, len(choices))
	for i, c := range choices {
		lines[i] = fmt.Sprintf("%d. %s", i+1, c.Label)
	}
	return lines
}

// Compose joins non-empty blocks with a newline.
func Compose(blocks ...string) string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b != "" {
			out = append(out, b)
		}
	}
	return strings.Join(out, "\n")
}

// ErrorPrompt is the error line followed by the numbered choices.
func ErrorPrompt(errorText string, choices []domain.Choice) string {
	if errorText == "" {
		errorText = DefaultError
	}
	return Compose(errorText, strings.Join(Numbered(choices), "\n"))
}
