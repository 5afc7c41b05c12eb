package dialogue

import (
	"context"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/match"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/validate"
)

// maxButtons is the most choices WhatsApp renders as reply buttons.
const maxButtons = 3

// Menu renders its choices as a numbered list inside the prompt.
type Menu struct {
	Question string
	Choices  []domain.Choice
	// Error replaces the question when input does not match. Defaults to match.DefaultError.
	Error  string
	Next   Next
	Header string
	Footer string
	// Helper is merged into the outbound helper metadata (document, image, ...).
	Helper map[string]any
	// Other is appended when USSD truncation has to drop choices.
	Other *domain.Choice
	// ScoreKey accumulates the weight of the picked choice under this metadata key.
	ScoreKey string
	// MaxLength overrides the screen limit. USSD defaults to USSDLimit.
	MaxLength int
}

func (m *Menu) Kind() Kind { return KindMenu }

func (m *Menu) Display(_ context.Context, t *Turn) error {
	text, _ := m.layout(t)
	t.Send(text, domain.SessionResume, m.helper(nil))
	return nil
}

func (m *Menu) Ingest(ctx context.Context, t *Turn) (Transition, error) {
	if noSelection(t) {
		return StayHere, m.Display(ctx, t)
	}
	_, visible := m.layout(t)
	return m.ingest(ctx, t, visible, func() {
		t.Send(m.errorText(t, visible), domain.SessionResume, m.helper(nil))
	})
}

func (m *Menu) limit(t *Turn) int {
	if m.MaxLength > 0 {
		return m.MaxLength
	}
	if t.IsUSSD() {
		return USSDLimit
	}
	return 0
}

// layout is the prompt as displayed and the choices that are numbered in it.
func (m *Menu) layout(t *Turn) (string, []domain.Choice) {
	return frame{
		Question: m.Question,
		Choices:  m.Choices,
		Other:    m.Other,
		Footer:   m.Footer,
		Limit:    m.limit(t),
	}.fit()
}

func (m *Menu) errorLine() string {
	if m.Error != "" {
		return m.Error
	}
	return match.DefaultError
}

func (m *Menu) errorText(t *Turn, visible []domain.Choice) string {
	text, _ := frame{
		Prefix:  m.errorLine(),
		Choices: visible,
		Footer:  m.Footer,
		Limit:   m.limit(t),
		Fixed:   true,
	}.fit()
	return text
}

func (m *Menu) helper(extra map[string]any) map[string]any {
	if m.Header == "" && len(m.Helper) == 0 && len(extra) == 0 {
		return nil
	}
	h := make(map[string]any, len(m.Helper)+len(extra)+1)
	for k, v := range m.Helper {
		h[k] = v
	}
	for k, v := range extra {
		h[k] = v
	}
	if m.Header != "" {
		h[domain.HelperHeader] = m.Header
	}
	return h
}

// noSelection reports an inbound without text or a picked row, which redisplays the prompt.
func noSelection(t *Turn) bool {
	in := t.Inbound()
	return !in.HasContent() && in.Metadata().SelectedID() == ""
}

// ingest matches the inbound message, records the answer and resolves the transition.
func (m *Menu) ingest(ctx context.Context, t *Turn, visible []domain.Choice, onError func()) (Transition, error) {
	c := match.Message(t.Inbound(), visible)
	if c == nil {
		// Row ids and labels of choices hidden by truncation are still honoured.
		if id := t.Inbound().Metadata().SelectedID(); id != "" {
			c = match.ByValue(id, m.Choices)
		}
	}
	if c == nil {
		t.app.logger.Debug("Input did not match any choice", "state", t.StateName(), "addr", t.User().Addr)
		onError()
		return StayHere, nil
	}

	t.SetAnswer(t.StateName(), c.Value)
	if m.ScoreKey != "" {
		t.addScore(m.ScoreKey, t.StateName(), c.Score)
	}

	if c.Next != "" {
		return GoTo(c.Next), nil
	}
	next, err := m.Next.Resolve(ctx, t, c)
	if err != nil {
		return Transition{}, err
	}
	return GoTo(next), nil
}

// Choice behaves like Menu but renders up to three choices as WhatsApp reply buttons.
type Choice struct {
	Menu
}

func (c *Choice) Kind() Kind { return KindChoice }

func (c *Choice) buttons(t *Turn) bool {
	return !t.IsUSSD() && len(c.Choices) <= maxButtons
}

func (c *Choice) Display(ctx context.Context, t *Turn) error {
	if !c.buttons(t) {
		return c.Menu.Display(ctx, t)
	}
	t.Send(match.Compose(c.Question, c.Footer), domain.SessionResume, c.helper(c.buttonHelper()))
	return nil
}

func (c *Choice) Ingest(ctx context.Context, t *Turn) (Transition, error) {
	if !c.buttons(t) {
		return c.Menu.Ingest(ctx, t)
	}
	if noSelection(t) {
		return StayHere, c.Display(ctx, t)
	}
	return c.ingest(ctx, t, c.Choices, func() {
		t.Send(match.Compose(c.errorLine(), c.Footer), domain.SessionResume, c.helper(c.buttonHelper()))
	})
}

func (c *Choice) buttonHelper() map[string]any {
	return map[string]any{domain.HelperButtons: domain.Labels(c.Choices)}
}

// List behaves like Menu but renders as a WhatsApp list whose rows carry the choice values.
type List struct {
	Menu
	// Button is the label of the button that opens the list.
	Button string
}

func (l *List) Kind() Kind { return KindList }

func (l *List) Display(ctx context.Context, t *Turn) error {
	if t.IsUSSD() {
		return l.Menu.Display(ctx, t)
	}
	t.Send(match.Compose(l.Question, l.Footer), domain.SessionResume, l.helper(l.listHelper()))
	return nil
}

func (l *List) Ingest(ctx context.Context, t *Turn) (Transition, error) {
	if t.IsUSSD() {
		return l.Menu.Ingest(ctx, t)
	}
	if noSelection(t) {
		return StayHere, l.Display(ctx, t)
	}
	return l.ingest(ctx, t, l.Choices, func() {
		t.Send(match.Compose(l.errorLine(), l.Footer), domain.SessionResume, l.helper(l.listHelper()))
	})
}

func (l *List) listHelper() map[string]any {
	rows := make([]map[string]any, len(l.Choices))
	for i, c := range l.Choices {
		rows[i] = map[string]any{"id": c.Value, "title": c.Label}
	}
	button := l.Button
	if button == "" {
		button = "Choose"
	}
	return map[string]any{
		domain.HelperButton:   button,
		domain.HelperSections: []map[string]any{{"rows": rows}},
	}
}

// Language is a Choice whose value becomes the user's language marker.
type Language struct {
	Choice
}

func (l *Language) Kind() Kind { return KindLanguage }

func (l *Language) Ingest(ctx context.Context, t *Turn) (Transition, error) {
	tr, err := l.Choice.Ingest(ctx, t)
	if err != nil || tr.Stay {
		return tr, err
	}
	t.User().Lang = t.Answer(t.StateName())
	return tr, nil
}

// FreeText accepts any input that passes its validator chain and records the trimmed content.
type FreeText struct {
	Question string
	Check    validate.Validator
	Next     Next
	Header   string
	Footer   string
	// Buttons offers quick replies (e.g. "Skip") on WhatsApp.
	Buttons []string
	Helper  map[string]any
	// MaxLength is the longest prompt the state promises to render.
	MaxLength int
}

func (f *FreeText) Kind() Kind { return KindFreeText }

func (f *FreeText) Display(_ context.Context, t *Turn) error {
	t.Send(f.render(f.Question), domain.SessionResume, f.helper(t))
	return nil
}

func (f *FreeText) Ingest(ctx context.Context, t *Turn) (Transition, error) {
	value := strings.TrimSpace(t.Text())
	if f.Check != nil {
		if err := f.Check(ctx, value); err != nil {
			em, ok := domain.AsErrorMessage(err)
			if !ok {
				return Transition{}, err
			}
			t.app.logger.Debug("Input rejected", "state", t.StateName(), "addr", t.User().Addr, "reason", em.Message)
			t.Send(f.render(em.Message), domain.SessionResume, f.helper(t))
			return StayHere, nil
		}
	}

	t.SetAnswer(t.StateName(), value)
	next, err := f.Next.Resolve(ctx, t, nil)
	if err != nil {
		return Transition{}, err
	}
	return GoTo(next), nil
}

func (f *FreeText) render(text string) string {
	text = match.Compose(text, f.Footer)
	if f.MaxLength > 0 {
		text = truncate(text, f.MaxLength)
	}
	return text
}

func (f *FreeText) helper(t *Turn) map[string]any {
	h := make(map[string]any)
	for k, v := range f.Helper {
		h[k] = v
	}
	if f.Header != "" {
		h[domain.HelperHeader] = f.Header
	}
	if len(f.Buttons) > 0 && !t.IsUSSD() {
		h[domain.HelperButtons] = f.Buttons
	}
	if len(h) == 0 {
		return nil
	}
	return h
}

// End sends a final message, closes the session and marks the conversation inactive.
type End struct {
	Text   string
	Helper map[string]any
	// NextStart, when set, is where the next conversation starts instead of the start state.
	NextStart string
}

func (e *End) Kind() Kind { return KindEnd }

func (e *End) Display(_ context.Context, t *Turn) error {
	t.Send(e.Text, domain.SessionClose, e.Helper)
	u := t.User()
	u.SetStateName("")
	u.SessionID = nil
	if e.NextStart != "" {
		t.SetMetadata(MetaNextStart, e.NextStart)
	}
	return nil
}

func (e *End) Ingest(ctx context.Context, t *Turn) (Transition, error) {
	return Transition{}, e.Display(ctx, t)
}

// Action runs without prompting and returns the next state. It is used for
// computed and informational steps such as upstream submissions.
type Action struct {
	Run func(ctx context.Context, t *Turn) (string, error)
}

func (a *Action) Kind() Kind { return KindAction }

func (a *Action) Display(context.Context, *Turn) error { return nil }

func (a *Action) Ingest(ctx context.Context, t *Turn) (Transition, error) {
	next, err := a.Run(ctx, t)
	if err != nil {
		return Transition{}, err
	}
	return GoTo(next), nil
}
