// Package match resolves free-form user input against a list of choices.
//
// The rule applied by Choice is, in order:
//
//  1. a decimal integer 1..N selects the Nth choice;
//  2. a case-insensitive exact compare against each label;
//  3. a fuzzy compare (punctuation collapsed, keyword overlap) against each label.
//
// Ties are broken by list order.
package match

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold builds a fresh Caser per call since Casers are stateful.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Choice returns the first choice matching text, or nil.
func Choice(text string, choices []domain.Choice) *domain.Choice {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if n, ok := decimal(text); ok {
		if c := Index(n, choices); c != nil {
			return c
		}
		// Out of range numbers only match a label written the same way.
		return Label(text, choices)
	}

	if c := Label(text, choices); c != nil {
		return c
	}
	return Fuzzy(text, choices)
}

// Message matches an inbound message, preferring a native list or button selection.
func Message(msg domain.Message, choices []domain.Choice) *domain.Choice {
	if id := msg.Metadata().SelectedID(); id != "" {
		if c := ByValue(id, choices); c != nil {
			return c
		}
	}
	return Choice(msg.Text(), choices)
}

// Index returns the nth (1-based) choice, or nil when n is out of range.
func Index(n int, choices []domain.Choice) *domain.Choice {
	if n < 1 || n > len(choices) {
		return nil
	}
	return &choices[n-1]
}

// ByValue returns the choice whose value equals id.
func ByValue(id string, choices []domain.Choice) *domain.Choice {
	for i := range choices {
		if choices[i].Value == id {
			return &choices[i]
		}
	}
	return nil
}

// Label compares text against each label ignoring case and surrounding space.
func Label(text string, choices []domain.Choice) *domain.Choice {
	want := fold(strings.TrimSpace(text))
	for i := range choices {
		if fold(strings.TrimSpace(choices[i].Label)) == want {
			return &choices[i]
		}
	}
	return nil
}

// Fuzzy matches on normalised text: accents stripped, punctuation collapsed and case folded.
// A label matches when it equals the input, or when every keyword of the input appears in it.
// The choice value is also accepted as a keyword.
func Fuzzy(text string, choices []domain.Choice) *domain.Choice {
	input := Normalise(text)
	if input == "" {
		return nil
	}
	keywords := Keywords(input)

	for i := range choices {
		if Normalise(choices[i].Label) == input || Normalise(choices[i].Value) == input {
			return &choices[i]
		}
	}
	if len(keywords) == 0 {
		return nil
	}
	for i := range choices {
		tokens := tokenSet(Normalise(choices[i].Label))
		if containsAll(tokens, keywords) {
			return &choices[i]
		}
	}
	return nil
}

// Normalise folds case, strips diacritics and collapses anything that is not a letter or digit.
func Normalise(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = fold(stripped)

	fields := strings.FieldsFunc(stripped, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// Keywords returns the significant tokens of normalised text.
// Tokens shorter than three runes are ignored unless they are numbers.
func Keywords(normalised string) []string {
	var out []string
	for _, tok := range strings.Fields(normalised) {
		if _, isNum := decimal(tok); isNum || len([]rune(tok)) >= 3 {
			out = append(out, tok)
		}
	}
	return out
}

func tokenSet(normalised string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(normalised) {
		set[tok] = true
	}
	return set
}

func containsAll(set map[string]bool, keys []string) bool {
	for _, k := range keys {
		if !set[k] {
			return false
		}
	}
	return true
}

func decimal(s string) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
