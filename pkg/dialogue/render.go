package dialogue

import (
	"strings"
	"unicode/utf8"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/match"
)

// USSDLimit is the ceiling for a single USSD screen.
const USSDLimit = 160

// minLabel is the shortest a label is cut to before choices are dropped.
const minLabel = 10

// frame is everything that makes up a choice prompt.
type frame struct {
	// Prefix is a leading line that may be dropped to make room (the error text).
	Prefix   string
	Question string
	Choices  []domain.Choice
	// Other is appended when choices had to be dropped.
	Other  *domain.Choice
	Footer string
	// Limit in runes; zero means unlimited.
	Limit int
	// Fixed forbids dropping choices.
	Fixed bool
}

func (f frame) render(prefix string, choices []domain.Choice) string {
	return match.Compose(prefix, f.Question, strings.Join(match.Numbered(choices), "\n"), f.Footer)
}

// fit renders the frame within its limit and returns the choices that remain visible.
// The ladder is applied in order until the text fits:
//
//  1. render everything;
//  2. shorten labels from the tail of the list;
//  3. drop the prefix line;
//  4. drop choices from the tail, appending Other if set;
//  5. cut the text.
func (f frame) fit() (string, []domain.Choice) {
	choices := append([]domain.Choice(nil), f.Choices...)
	prefix := f.Prefix
	text := f.render(prefix, choices)
	if f.Limit <= 0 || runes(text) <= f.Limit {
		return text, choices
	}

	for i := len(choices) - 1; i >= 0; i-- {
		over := runes(text) - f.Limit
		label := choices[i].Label
		keep := max(minLabel, runes(label)-over)
		if keep < runes(label) {
			choices[i].Label = truncate(label, keep)
			text = f.render(prefix, choices)
		}
		if runes(text) <= f.Limit {
			return text, choices
		}
	}

	if prefix != "" {
		prefix = ""
		text = f.render(prefix, choices)
		if runes(text) <= f.Limit {
			return text, choices
		}
	}

	if !f.Fixed {
		withOther := func(cs []domain.Choice) []domain.Choice {
			if f.Other == nil {
				return cs
			}
			return append(append([]domain.Choice(nil), cs...), *f.Other)
		}
		for len(choices) > 1 {
			choices = choices[:len(choices)-1]
			shown := withOther(choices)
			text = f.render(prefix, shown)
			if runes(text) <= f.Limit {
				return text, shown
			}
		}
		choices = withOther(choices)
		text = f.render(prefix, choices)
	}

	return truncate(text, f.Limit), choices
}

func runes(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, n int) string {
	if runes(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:n]), " ")
}
