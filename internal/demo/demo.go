// Package demo holds the sample scripts served by vaxbot: COVID-19 vaccine registration
// and Ask-A-Question. They double as end-to-end fixtures for the dialogue runtime.
package demo

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/config"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/logging"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/aaq"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/contentrepo"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/eventstore"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/evds"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/lovelife"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/places"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/rapidpro"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/turn"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/validate"
)

// Script names.
const (
	VaccineScript = "vaccine_registration"
	AAQScript     = "ask_a_question"
)

// Shared states.
const (
	stateTimeout  = "state_timeout"
	stateExit     = "state_exit"
	stateThrottle = "state_throttle"
)

var exitKeywords = []string{"menu", "0", "support"}

// Services are the collaborators the scripts call.
// A nil client disables the step that needs it.
type Services struct {
	Logger      *slog.Logger
	EVDS        *evds.Client
	EventStore  *eventstore.Client
	RapidPro    *rapidpro.Client
	Places      *places.Client
	AAQ         *aaq.Client
	ContentRepo *contentrepo.Client
	LoveLife    *lovelife.Client
	Turn        *turn.Client
}

// NewServices builds a client for every collaborator that has a URL configured.
func NewServices(cfg config.Config, up *upstream.Client, logger *slog.Logger) Services {
	s := Services{Logger: logger}
	if cfg.EVDSURL != "" {
		s.EVDS = evds.New(up, cfg.EVDSURL,
			evds.WithCredentials(cfg.EVDSUsername, cfg.EVDSPassword),
			evds.WithDataset(cfg.EVDSDataset, cfg.EVDSVersion),
		)
	}
	if cfg.EventStoreURL != "" {
		s.EventStore = eventstore.New(up, cfg.EventStoreURL, cfg.EventStoreToken)
	}
	if cfg.RapidProURL != "" {
		s.RapidPro = rapidpro.New(up, cfg.RapidProURL, cfg.RapidProToken)
	}
	if cfg.PlacesKey != "" {
		s.Places = places.New(up, cfg.PlacesURL, cfg.PlacesKey, "ZA")
	}
	if cfg.AAQURL != "" {
		s.AAQ = aaq.New(up, cfg.AAQURL, cfg.AAQToken)
	}
	if cfg.ContentRepoURL != "" {
		s.ContentRepo = contentrepo.New(up, cfg.ContentRepoURL)
	}
	if cfg.LoveLifeURL != "" {
		s.LoveLife = lovelife.New(up, cfg.LoveLifeURL)
	}
	if cfg.TurnURL != "" {
		s.Turn = turn.New(up, cfg.TurnURL, cfg.TurnToken)
	}
	return s
}

func (s Services) logger() *slog.Logger {
	if s.Logger == nil {
		return logging.NewNop()
	}
	return s.Logger
}

// Scripts returns every demo script keyed by name.
func Scripts(cfg config.Config, svc Services) map[string]*dialogue.Script {
	return map[string]*dialogue.Script{
		VaccineScript: Vaccine(cfg, svc),
		AAQScript:     AskAQuestion(cfg, svc),
	}
}

// Names returns the demo script names, sorted.
func Names() []string {
	names := []string{VaccineScript, AAQScript}
	sort.Strings(names)
	return names
}

// withCommonStates registers the timeout, exit and throttle states.
func withCommonStates(s *dialogue.Script) {
	s.TimeoutState = stateTimeout
	s.ExitState = stateExit
	s.ExitKeywords = exitKeywords
	s.ThrottleState = stateThrottle

	s.Handle(stateTimeout, dialogue.Static(&dialogue.End{
		Text: "We haven't heard from you in a while. Reply to carry on where you left off.",
	}))
	s.Handle(stateExit, dialogue.Static(&dialogue.End{
		Text: "Please hold on while we connect you to a helpdesk operator.",
	}))
	s.Handle(stateThrottle, dialogue.Static(&dialogue.End{
		Text: "We are experiencing high volumes right now. Please try again in a few minutes.",
	}))
}

func yesNo(yes, no string) []domain.Choice {
	return []domain.Choice{
		{Value: "yes", Label: "Yes", Next: yes},
		{Value: "no", Label: "No", Next: no},
	}
}

// msisdn returns the E.164 number of addr without the leading plus.
func msisdn(addr string) string {
	n, err := validate.NormalisePhone(addr)
	if err != nil && !strings.HasPrefix(addr, "+") {
		n, err = validate.NormalisePhone("+" + addr)
	}
	if err != nil {
		return strings.TrimPrefix(addr, "+")
	}
	return strings.TrimPrefix(n, "+")
}

// localNumber returns the South African national format of addr, e.g. 0820001001.
func localNumber(addr string) string {
	n := msisdn(addr)
	if strings.HasPrefix(n, "27") {
		return "0" + n[2:]
	}
	return n
}
