package observability

import (
	"context"
	"strconv"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vaxbot"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors fed by the dialogue lifecycle hooks.
type Metrics struct {
	StateVisits      *prometheus.CounterVec
	Answers          *prometheus.CounterVec
	Turns            *prometheus.CounterVec
	TurnDuration     *prometheus.HistogramVec
	TurnHops         *prometheus.HistogramVec
	UpstreamCalls    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StateVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_visits_total",
			Help:      "Total number of states entered by the driver",
		}, []string{"script", "state", "kind"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Total number of answers recorded",
		}, []string{"script", "state"}),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of processed inbound messages",
		}, []string{"script", "outcome"}),
		TurnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time spent processing one inbound message",
			Buckets:   prometheus.DefBuckets,
		}, []string{"script"}),
		TurnHops: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_hops",
			Help:      "States traversed while processing one inbound message",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
		}, []string{"script"}),
		UpstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_attempts_total",
			Help:      "Total number of attempts against external services",
		}, []string{"service", "outcome", "code"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Duration of attempts against external services",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"service"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.StateVisits, m.Answers, m.Turns, m.TurnDuration, m.TurnHops,
			m.UpstreamCalls, m.UpstreamDuration,
		)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m, labelled with script.
func (m *Metrics) Hooks(script string) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, ev *domain.StateEvent) {
			m.StateVisits.WithLabelValues(script, ev.State, ev.Kind).Inc()
		},
		OnAnswer: func(_ context.Context, ev *domain.AnswerEvent) {
			m.Answers.WithLabelValues(script, ev.State).Inc()
		},
		OnTurnEnd: func(_ context.Context, ev *domain.TurnEvent) {
			outcome := OutcomeOK
			if ev.Err != nil {
				outcome = OutcomeError
			}
			m.Turns.WithLabelValues(script, outcome).Inc()
			m.TurnDuration.WithLabelValues(script).Observe(ev.Duration.Seconds())
			m.TurnHops.WithLabelValues(script).Observe(float64(ev.Hops))
		},
		OnUpstreamCall: m.ObserveUpstream,
	}
}

// ObserveUpstream records one upstream attempt. It matches the signature of
// upstream.WithCallObserver so calls made outside a turn can be counted too.
func (m *Metrics) ObserveUpstream(_ context.Context, ev *domain.UpstreamEvent) {
	outcome := OutcomeOK
	if ev.Err != nil || ev.StatusCode >= 400 {
		outcome = OutcomeError
	}
	code := "none"
	if ev.StatusCode > 0 {
		code = strconv.Itoa(ev.StatusCode)
	}
	m.UpstreamCalls.WithLabelValues(ev.Service, outcome, code).Inc()
	m.UpstreamDuration.WithLabelValues(ev.Service).Observe(ev.Duration.Seconds())
}
