package demo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/config"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/aaq"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/contentrepo"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/validate"
)

// Ask-A-Question states.
const (
	StateAAQStart        = "state_aaq_start"
	StateAAQMenu         = "state_aaq_menu"
	StateQuestion        = "state_question"
	StateAAQModelRequest = "state_aaq_model_request"
	StateNoAnswers       = "state_no_answers"
	StateResponses       = "state_display_response_choices"
	StateNextPage        = "state_aaq_next_page"
	StatePrevPage        = "state_aaq_prev_page"
	StateResponse        = "state_display_response"
	StateFeedback        = "state_aaq_feedback"
	StateAAQDone         = "state_aaq_done"
	StateAAQError        = "state_aaq_error"
	StateTopicsFetch     = "state_topics_fetch"
	StateTopics          = "state_topics"
	StateNoTopics        = "state_no_topics"
	StateTopicFetch      = "state_topic_fetch"
	StateTopic           = "state_topic"
	StateCounsellor      = "state_counsellor"
	StateCallbackQueued  = "state_callback_queued"
)

// Choice values on the responses list.
const (
	ShowMoreLabel = "Show me more"
	BackLabel     = "Back to first list"
)

// ContentTag selects the content repository pages offered as topics.
const ContentTag = "mainmenu"

const (
	metaAAQPage = "aaq_page"
	metaTopics  = "topics"
	metaTopic   = "topic"
)

type aaqAnswer struct {
	Title string `mapstructure:"title"`
	Body  string `mapstructure:"body"`
}

// aaqPage is the last page of model answers, kept in metadata between turns.
type aaqPage struct {
	Answers     []aaqAnswer `mapstructure:"answers"`
	Next        string      `mapstructure:"next"`
	Prev        string      `mapstructure:"prev"`
	InboundID   int64       `mapstructure:"inbound_id"`
	FeedbackKey string      `mapstructure:"feedback_secret_key"`
}

func newAAQPage(res *aaq.Result) aaqPage {
	p := aaqPage{
		Next:        res.NextPageURL,
		Prev:        res.PrevPageURL,
		InboundID:   res.InboundID,
		FeedbackKey: res.FeedbackSecretKey,
	}
	for _, a := range res.Answers() {
		p.Answers = append(p.Answers, aaqAnswer{Title: a.Title, Body: a.Body})
	}
	return p
}

// encode stores the page as plain maps and slices so it survives any store.
func (p aaqPage) encode() map[string]any {
	answers := make([]any, len(p.Answers))
	for i, a := range p.Answers {
		answers[i] = map[string]any{"title": a.Title, "body": a.Body}
	}
	return map[string]any{
		"answers":             answers,
		"next":                p.Next,
		"prev":                p.Prev,
		"inbound_id":          p.InboundID,
		"feedback_secret_key": p.FeedbackKey,
	}
}

func loadAAQPage(t *dialogue.Turn) (aaqPage, error) {
	var p aaqPage
	raw, ok := t.Metadata(metaAAQPage)
	if !ok {
		return p, fmt.Errorf("no %s in metadata", metaAAQPage)
	}
	if err := mapstructure.WeakDecode(raw, &p); err != nil {
		return p, fmt.Errorf("failed to decode %s: %w", metaAAQPage, err)
	}
	return p, nil
}

// picked returns the answer the user chose from the responses list.
func (p aaqPage) picked(t *dialogue.Turn) (aaqAnswer, error) {
	i, err := strconv.Atoi(t.Answer(StateResponses))
	if err != nil || i < 0 || i >= len(p.Answers) {
		return aaqAnswer{}, fmt.Errorf("no answer %q on the current page", t.Answer(StateResponses))
	}
	return p.Answers[i], nil
}

type askAQuestion struct {
	cfg config.Config
	svc Services
}

// AskAQuestion builds the FAQ script: free-text questions matched by the AAQ model,
// content browsing and counsellor call-backs.
func AskAQuestion(cfg config.Config, svc Services) *dialogue.Script {
	a := &askAQuestion{cfg: cfg, svc: svc}
	s := dialogue.NewScript(AAQScript, StateAAQStart)
	withCommonStates(s)

	s.Handle(StateAAQStart, dialogue.Static(&dialogue.Action{Run: a.start}))
	s.Handle(StateAAQMenu, dialogue.Static(&dialogue.Menu{
		Question: "Welcome! What would you like to do?",
		Choices: []domain.Choice{
			{Value: "ask", Label: "Ask a question", Next: StateQuestion},
			{Value: "browse", Label: "Browse topics", Next: StateTopicsFetch},
			{Value: "counsellor", Label: "Talk to a counsellor", Next: StateCounsellor},
		},
	}))
	s.Handle(StateQuestion, dialogue.Static(&dialogue.FreeText{
		Question: "What is your question? Please TYPE it in a few words.",
		Check:    validate.NonEmpty("Please TYPE your question."),
		Next:     dialogue.To(StateAAQModelRequest),
	}))
	s.Handle(StateAAQModelRequest, dialogue.Static(&dialogue.Action{Run: a.modelRequest}))
	s.Handle(StateNoAnswers, dialogue.Static(&dialogue.Choice{Menu: dialogue.Menu{
		Question: "Sorry, we could not find an answer to your question.",
		Choices: []domain.Choice{
			{Value: "ask", Label: "Ask again", Next: StateQuestion},
			{Value: "counsellor", Label: "Talk to a counsellor", Next: StateCounsellor},
		},
	}}))
	s.Handle(StateResponses, a.responses)
	s.Handle(StateNextPage, dialogue.Static(&dialogue.Action{Run: a.page(func(p aaqPage) string { return p.Next })}))
	s.Handle(StatePrevPage, dialogue.Static(&dialogue.Action{Run: a.page(func(p aaqPage) string { return p.Prev })}))
	s.Handle(StateResponse, a.response)
	s.Handle(StateFeedback, dialogue.Static(&dialogue.Action{Run: a.feedback}))
	s.Handle(StateAAQDone, dialogue.Static(&dialogue.End{Text: "Thank you for your feedback."}))
	s.Handle(StateAAQError, dialogue.Static(&dialogue.End{
		Text: "Sorry, something went wrong. Please try again later.",
	}))
	s.Handle(StateTopicsFetch, dialogue.Static(&dialogue.Action{Run: a.fetchTopics}))
	s.Handle(StateTopics, a.topics)
	s.Handle(StateNoTopics, dialogue.Static(&dialogue.End{Text: "There are no topics available right now."}))
	s.Handle(StateTopicFetch, dialogue.Static(&dialogue.Action{Run: a.fetchTopic}))
	s.Handle(StateTopic, a.topic)
	s.Handle(StateCounsellor, dialogue.Static(&dialogue.Action{Run: a.counsellor}))
	s.Handle(StateCallbackQueued, dialogue.Static(&dialogue.End{
		Text: "Thank you. A trained counsellor will call you back soon.",
	}))
	return s
}

// start picks up the user's language from their Turn profile when one is set.
func (a *askAQuestion) start(ctx context.Context, t *dialogue.Turn) (string, error) {
	if a.svc.Turn == nil {
		return StateAAQMenu, nil
	}
	profile, err := a.svc.Turn.Profile(ctx, t.User().Addr)
	if err != nil {
		a.svc.logger().Warn("Failed to read Turn profile", "addr", t.User().Addr, "err", err)
		return StateAAQMenu, nil
	}
	if lang, ok := profile.Fields["language"].(string); ok && lang != "" {
		t.User().Lang = lang
	}
	return StateAAQMenu, nil
}

func (a *askAQuestion) modelRequest(ctx context.Context, t *dialogue.Turn) (string, error) {
	if a.svc.AAQ == nil {
		a.svc.logger().Error("AAQ is not configured", "addr", t.User().Addr)
		return StateAAQError, nil
	}
	res, err := a.svc.AAQ.Check(ctx, t.Answer(StateQuestion), map[string]any{"whatsapp_id": t.User().Addr})
	if err != nil {
		return StateAAQError, nil
	}
	if res.Empty() {
		return StateNoAnswers, nil
	}
	t.SetMetadata(metaAAQPage, newAAQPage(res).encode())
	return StateResponses, nil
}

func (a *askAQuestion) page(link func(aaqPage) string) func(context.Context, *dialogue.Turn) (string, error) {
	return func(ctx context.Context, t *dialogue.Turn) (string, error) {
		current, err := loadAAQPage(t)
		if err != nil {
			return "", err
		}
		if a.svc.AAQ == nil {
			return StateAAQError, nil
		}
		res, err := a.svc.AAQ.Page(ctx, link(current))
		if err != nil {
			return StateAAQError, nil
		}
		next := newAAQPage(res)
		if next.InboundID == 0 {
			next.InboundID = current.InboundID
		}
		if next.FeedbackKey == "" {
			next.FeedbackKey = current.FeedbackKey
		}
		t.SetMetadata(metaAAQPage, next.encode())
		return StateResponses, nil
	}
}

func (a *askAQuestion) responses(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	p, err := loadAAQPage(t)
	if err != nil {
		return nil, err
	}
	choices := make([]domain.Choice, 0, len(p.Answers)+1)
	for i, ans := range p.Answers {
		choices = append(choices, domain.NewChoice(strconv.Itoa(i), ans.Title))
	}
	if p.Next != "" {
		choices = append(choices, domain.Choice{Value: "more", Label: ShowMoreLabel, Next: StateNextPage})
	}
	if p.Prev != "" {
		choices = append(choices, domain.Choice{Value: "back", Label: BackLabel, Next: StatePrevPage})
	}
	return &dialogue.Menu{
		Question: "Here are some topics that may answer your question. Reply with a number to read more:",
		Choices:  choices,
		Next:     dialogue.To(StateResponse),
	}, nil
}

func (a *askAQuestion) response(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	p, err := loadAAQPage(t)
	if err != nil {
		return nil, err
	}
	ans, err := p.picked(t)
	if err != nil {
		return nil, err
	}
	return &dialogue.Choice{Menu: dialogue.Menu{
		Question: fmt.Sprintf("*%s*\n\n%s\n\nWas this helpful?", ans.Title, ans.Body),
		Choices: []domain.Choice{
			domain.NewChoice("yes", "Yes"),
			domain.NewChoice("no", "No"),
		},
		Next: dialogue.To(StateFeedback),
	}}, nil
}

// feedback is best effort; the user is thanked either way.
func (a *askAQuestion) feedback(ctx context.Context, t *dialogue.Turn) (string, error) {
	p, err := loadAAQPage(t)
	if err != nil || a.svc.AAQ == nil {
		return StateAAQDone, nil
	}
	ans, err := p.picked(t)
	if err != nil {
		return StateAAQDone, nil
	}
	kind := "negative"
	if t.Answer(StateResponse) == "yes" {
		kind = "positive"
	}
	err = a.svc.AAQ.SendFeedback(ctx, aaq.Feedback{
		InboundID:         p.InboundID,
		FeedbackSecretKey: p.FeedbackKey,
		Feedback: map[string]any{
			"feedback_type": kind,
			"faq_title":     ans.Title,
		},
	}, false)
	if err != nil {
		a.svc.logger().Warn("Failed to send AAQ feedback", "addr", t.User().Addr, "err", err)
	}
	return StateAAQDone, nil
}

type topicRef struct {
	ID    int    `mapstructure:"id"`
	Title string `mapstructure:"title"`
}

func (a *askAQuestion) fetchTopics(ctx context.Context, t *dialogue.Turn) (string, error) {
	if a.svc.ContentRepo == nil {
		a.svc.logger().Error("Content repository is not configured", "addr", t.User().Addr)
		return StateAAQError, nil
	}
	pages, err := a.svc.ContentRepo.Pages(ctx, contentrepo.Query{Tag: ContentTag})
	if err != nil {
		return StateAAQError, nil
	}
	if len(pages) == 0 {
		return StateNoTopics, nil
	}
	refs := make([]any, len(pages))
	for i, p := range pages {
		refs[i] = map[string]any{"id": p.ID, "title": p.Title}
	}
	t.SetMetadata(metaTopics, refs)
	return StateTopics, nil
}

func (a *askAQuestion) topics(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	var refs []topicRef
	raw, _ := t.Metadata(metaTopics)
	if err := mapstructure.WeakDecode(raw, &refs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", metaTopics, err)
	}
	choices := make([]domain.Choice, len(refs))
	for i, r := range refs {
		choices[i] = domain.NewChoice(strconv.Itoa(r.ID), r.Title)
	}
	return &dialogue.List{
		Menu: dialogue.Menu{
			Question: "Which topic would you like to read about?",
			Choices:  choices,
			Next:     dialogue.To(StateTopicFetch),
		},
		Button: "Topics",
	}, nil
}

func (a *askAQuestion) fetchTopic(ctx context.Context, t *dialogue.Turn) (string, error) {
	id, err := strconv.Atoi(t.Answer(StateTopics))
	if err != nil {
		return "", fmt.Errorf("invalid topic id %q: %w", t.Answer(StateTopics), err)
	}
	page, err := a.svc.ContentRepo.Page(ctx, id)
	if err != nil {
		return StateAAQError, nil
	}
	t.SetMetadata(metaTopic, map[string]any{"title": page.Title, "message": page.Message()})
	return StateTopic, nil
}

func (a *askAQuestion) topic(_ context.Context, t *dialogue.Turn) (dialogue.State, error) {
	var page struct {
		Title   string `mapstructure:"title"`
		Message string `mapstructure:"message"`
	}
	raw, _ := t.Metadata(metaTopic)
	if err := mapstructure.WeakDecode(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", metaTopic, err)
	}
	return &dialogue.End{Text: fmt.Sprintf("*%s*\n\n%s", page.Title, page.Message)}, nil
}

func (a *askAQuestion) counsellor(ctx context.Context, t *dialogue.Turn) (string, error) {
	if a.svc.LoveLife == nil {
		a.svc.logger().Error("LoveLife is not configured", "addr", t.User().Addr)
		return StateAAQError, nil
	}
	if err := a.svc.LoveLife.QueueCallback(ctx, localNumber(t.User().Addr)); err != nil {
		return StateAAQError, nil
	}
	return StateCallbackQueued, nil
}
