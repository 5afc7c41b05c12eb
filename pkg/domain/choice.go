package domain

// Choice is an option offered by menu, choice, list and language states.
// Value is a stable identifier; Label is the user visible text.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`

	// Score is the weight accumulated by assessment states.
	Score int `json:"score,omitempty"`

	// Next overrides the state's transition when this choice is picked.
	Next string `json:"next,omitempty"`
}

// NewChoice builds a choice without scoring.
func NewChoice(value, label string) Choice {
	return Choice{Value: value, Label: label}
}

// Labels returns the labels of the given choices in order.
func Labels(choices []Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Label
	}
	return out
}
