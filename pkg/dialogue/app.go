package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/logging"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/adapters/memory"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/ports"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/session"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
)

// DefaultTraversalLimit bounds the states a single turn may run through.
const DefaultTraversalLimit = 16

// Script is a dialogue graph and its well-known states.
type Script struct {
	Name string
	// StartState is where fresh conversations begin.
	StartState string
	// TimeoutState handles a CLOSE session event.
	TimeoutState string
	// ExitState is run when the user sends one of ExitKeywords.
	ExitState    string
	ExitKeywords []string
	// ThrottleState receives the diverted share of new users.
	ThrottleState string

	States map[string]StateFactory
}

// NewScript creates an empty script.
func NewScript(name, start string) *Script {
	return &Script{
		Name:       name,
		StartState: start,
		States:     make(map[string]StateFactory),
	}
}

// Handle registers a state factory.
func (s *Script) Handle(name string, factory StateFactory) *Script {
	s.States[name] = factory
	return s
}

// StateNames returns the registered state names, sorted.
func (s *Script) StateNames() []string {
	names := make([]string, 0, len(s.States))
	for name := range s.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// App drives a Script.
type App struct {
	script         *Script
	sessions       *session.Manager
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	traversalLimit int
	throttle       float64
	randMu         sync.Mutex
	random         *rand.Rand
	clock          func() time.Time
	publishTo      ports.AnswerPublisher
	queueSize      int
	publisher      *AsyncPublisher
}

// Option configures the App.
type Option func(*App)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithSessions configures where users are stored between turns (see Handle).
func WithSessions(m *session.Manager) Option {
	return func(a *App) {
		a.sessions = m
	}
}

// WithHooks registers lifecycle hooks. Multiple calls are merged.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(a *App) {
		a.hooks = a.hooks.Merge(h)
	}
}

// WithTraversalLimit overrides DefaultTraversalLimit.
func WithTraversalLimit(n int) Option {
	return func(a *App) {
		if n > 0 {
			a.traversalLimit = n
		}
	}
}

// WithThrottle diverts percentage (0-100) of new users to the script's throttle state.
func WithThrottle(percentage float64) Option {
	return func(a *App) {
		a.throttle = percentage
	}
}

// WithRandSource makes session ids and throttling deterministic.
func WithRandSource(src rand.Source) Option {
	return func(a *App) {
		a.random = rand.New(src)
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(a *App) {
		a.clock = clock
	}
}

// WithAnswerPublisher hands every recorded answer to p through a bounded queue.
func WithAnswerPublisher(p ports.AnswerPublisher, queueSize int) Option {
	return func(a *App) {
		a.publishTo = p
		a.queueSize = queueSize
	}
}

// New creates an App for script.
func New(script *Script, opts ...Option) *App {
	a := &App{
		script:         script,
		logger:         logging.NewNop(),
		traversalLimit: DefaultTraversalLimit,
		random:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sessions == nil {
		a.sessions = session.NewManager(memory.NewStore(), session.WithLogger(a.logger))
	}
	if a.publishTo != nil {
		a.publisher = NewAsyncPublisher(a.publishTo, a.queueSize, a.logger)
	}
	return a
}

// Script returns the script the App drives.
func (a *App) Script() *Script {
	return a.script
}

// Sessions returns the session manager used by Handle.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Validate checks that every well-known state is registered.
func (a *App) Validate() error {
	s := a.script
	if s.StartState == "" {
		return domain.ErrNoStartState
	}
	var errs []error
	check := func(role, name string) {
		if name == "" {
			return
		}
		if _, ok := s.States[name]; !ok {
			errs = append(errs, fmt.Errorf("%s state %q: %w", role, name, domain.ErrUnknownState))
		}
	}
	check("start", s.StartState)
	check("timeout", s.TimeoutState)
	check("exit", s.ExitState)
	check("throttle", s.ThrottleState)
	if len(s.ExitKeywords) > 0 && s.ExitState == "" {
		errs = append(errs, errors.New("exit keywords configured without an exit state"))
	}
	if a.throttle > 0 && s.ThrottleState == "" {
		errs = append(errs, errors.New("throttling enabled without a throttle state"))
	}
	return errors.Join(errs...)
}

// Close stops the answer publisher after draining queued answers.
func (a *App) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
}

// Handle runs one turn for the sender of msg while holding the user's lock.
// The user is saved once, after the turn succeeded, and recorded answers are published afterwards.
func (a *App) Handle(ctx context.Context, msg domain.Message) ([]domain.Message, error) {
	var t *Turn
	err := a.sessions.Turn(ctx, msg.FromAddr, func(ctx context.Context, user *domain.User) error {
		var err error
		t, err = a.run(ctx, user, msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.publish(t)
	return t.outbound, nil
}

// Process runs one turn against user, which the caller is responsible for persisting.
func (a *App) Process(ctx context.Context, user *domain.User, msg domain.Message) ([]domain.Message, error) {
	t, err := a.run(ctx, user, msg)
	if err != nil {
		return nil, err
	}
	a.publish(t)
	return t.outbound, nil
}

func (a *App) publish(t *Turn) {
	if a.publisher == nil || t == nil {
		return
	}
	for _, ev := range t.answers {
		a.publisher.Enqueue(ev)
	}
}

func (a *App) run(ctx context.Context, user *domain.User, msg domain.Message) (t *Turn, err error) {
	start := a.clock()
	ctx = upstream.WithAddr(ctx, user.Addr)
	ctx = upstream.WithCallObserver(ctx, a.hooks.OnUpstreamCall)

	t = &Turn{
		ctx:      ctx,
		app:      a,
		user:     user,
		inbound:  msg,
		now:      start,
		previous: user.StateName(),
	}
	hops := 0
	exited := false
	if user.Metadata == nil {
		user.Metadata = make(map[string]any)
	}

	defer func() {
		if a.hooks.OnTurnEnd != nil {
			a.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
				EventBase: domain.EventBase{
					Timestamp: start,
					Type:      domain.EventTurnEnd,
					Addr:      user.Addr,
				},
				FinalState: user.StateName(),
				Hops:       hops,
				Outbound:   len(t.outbound),
				Duration:   a.clock().Sub(start),
				Err:        err,
			})
		}
	}()

	if msg.MessageID != "" && user.Metadata[MetaLastInbound] == msg.MessageID {
		a.logger.Debug("Ignoring duplicate delivery", "addr", user.Addr, "message_id", msg.MessageID)
		return t, nil
	}

	if msg.SessionEvent == domain.SessionNew || (msg.SessionEvent == domain.SessionResume && user.SessionID == nil) {
		id := a.randInt64N(1<<53) + 1
		user.SessionID = &id
	}

	switch {
	case msg.SessionEvent == domain.SessionClose:
		if a.script.TimeoutState == "" {
			return t, nil
		}
		if prev := user.StateName(); prev != "" {
			t.SetMetadata(MetaResumeState, prev)
		}
		user.SetStateName(a.script.TimeoutState)
		t.consumed = true

	case a.isExitKeyword(msg):
		user.SetStateName(a.script.ExitState)
		user.SessionID = nil
		t.DeleteMetadata(MetaResumeState)
		t.consumed = true
		exited = true

	case user.StateName() == "" || msg.SessionEvent == domain.SessionNew:
		user.SetStateName(a.startState(t))
		t.consumed = true
	}

	hops, err = a.loop(ctx, t)
	if err != nil {
		return t, err
	}

	if exited {
		markHandover(t.outbound)
	}
	if msg.MessageID != "" {
		user.Metadata[MetaLastInbound] = msg.MessageID
	}
	return t, nil
}

// loop runs states until one waits for input or the conversation ends.
func (a *App) loop(ctx context.Context, t *Turn) (int, error) {
	user := t.user
	for hop := 0; ; hop++ {
		if hop >= a.traversalLimit {
			return hop, fmt.Errorf("%w: %d hops ending at %q", domain.ErrTraversalLimit, hop, user.StateName())
		}

		name := user.StateName()
		if name == "" {
			return hop, nil
		}
		factory, ok := a.script.States[name]
		if !ok {
			return hop, fmt.Errorf("%w: %q", domain.ErrUnknownState, name)
		}
		t.state = name
		state, err := factory(ctx, t)
		if err != nil {
			return hop, fmt.Errorf("failed to build state %q: %w", name, err)
		}

		if a.hooks.OnStateEnter != nil {
			a.hooks.OnStateEnter(ctx, &domain.StateEvent{
				EventBase: domain.EventBase{Timestamp: a.clock(), Type: domain.EventStateEnter, Addr: user.Addr},
				State:     name,
				Kind:      string(state.Kind()),
			})
		}

		var tr Transition
		switch {
		case state.Kind() == KindEnd:
			return hop + 1, state.Display(ctx, t)

		case state.Kind() == KindAction:
			tr, err = state.Ingest(ctx, t)

		case !t.consumed:
			t.consumed = true
			tr, err = state.Ingest(ctx, t)

		default:
			return hop + 1, state.Display(ctx, t)
		}
		if err != nil {
			return hop + 1, fmt.Errorf("state %q: %w", name, err)
		}
		if tr.Stay {
			return hop + 1, nil
		}

		a.logger.Debug("Transition", "addr", user.Addr, "from", name, "to", tr.Next)
		user.SetStateName(tr.Next)
	}
}

func (a *App) startState(t *Turn) string {
	if resume := t.MetadataString(MetaResumeState); resume != "" {
		t.DeleteMetadata(MetaResumeState)
		if _, ok := a.script.States[resume]; ok {
			return resume
		}
	}
	if next := t.MetadataString(MetaNextStart); next != "" {
		t.DeleteMetadata(MetaNextStart)
		return next
	}
	if a.throttle > 0 && a.script.ThrottleState != "" && a.randFloat64()*100 < a.throttle {
		a.logger.Info("Throttling new user", "addr", t.user.Addr)
		return a.script.ThrottleState
	}
	return a.script.StartState
}

// rand.Rand is not safe for concurrent use and turns of different users run in parallel.
func (a *App) randInt64N(n int64) int64 {
	a.randMu.Lock()
	defer a.randMu.Unlock()
	return a.random.Int64N(n)
}

func (a *App) randFloat64() float64 {
	a.randMu.Lock()
	defer a.randMu.Unlock()
	return a.random.Float64()
}

func (a *App) isExitKeyword(msg domain.Message) bool {
	if a.script.ExitState == "" || !msg.HasContent() {
		return false
	}
	text := strings.TrimSpace(msg.Text())
	return slices.ContainsFunc(a.script.ExitKeywords, func(k string) bool {
		return strings.EqualFold(k, text)
	})
}

// markHandover flags the last outbound message for automation handover.
func markHandover(out []domain.Message) {
	if len(out) == 0 {
		return
	}
	last := &out[len(out)-1]
	if last.HelperMetadata == nil {
		last.HelperMetadata = make(map[string]any)
	}
	last.HelperMetadata[domain.HelperAutomationHandle] = true
}
