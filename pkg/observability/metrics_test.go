package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script() *dialogue.Script {
	s := dialogue.NewScript("fruit", "state_fruit")
	s.Handle("state_fruit", dialogue.Static(&dialogue.Menu{
		Question: "Do you eat fruit?",
		Choices:  []domain.Choice{domain.NewChoice("yes", "Yes"), domain.NewChoice("no", "No")},
		Next:     dialogue.To("state_done"),
	}))
	s.Handle("state_done", dialogue.Static(&dialogue.End{Text: "Thanks"}))
	return s
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	app := dialogue.New(script(), dialogue.WithHooks(m.Hooks("fruit")))
	t.Cleanup(app.Close)

	tester := apptest.New(t, app)
	tester.Start()
	tester.Send("1")
	tester.AssertMessage("Thanks")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Turns.WithLabelValues("fruit", observability.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Answers.WithLabelValues("fruit", "state_fruit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StateVisits.WithLabelValues("fruit", "state_done", "end")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TurnDuration))

	count, err := testutil.GatherAndCount(reg, "vaxbot_turns_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_ObserveUpstream(t *testing.T) {
	m := observability.NewMetrics(nil)
	ctx := context.Background()

	m.ObserveUpstream(ctx, &domain.UpstreamEvent{Service: "evds", StatusCode: 500, Duration: time.Second})
	m.ObserveUpstream(ctx, &domain.UpstreamEvent{Service: "evds", StatusCode: 200, Duration: time.Second})
	m.ObserveUpstream(ctx, &domain.UpstreamEvent{Service: "aaq", Err: errors.New("timeout")})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("evds", observability.OutcomeError, "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("evds", observability.OutcomeOK, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("aaq", observability.OutcomeError, "none")))
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	app := dialogue.New(script(), dialogue.WithHooks(observability.LogHooks(logger)))
	t.Cleanup(app.Close)

	tester := apptest.New(t, app)
	tester.Start()
	tester.Send("2")

	out := buf.String()
	assert.Contains(t, out, "state entered")
	assert.Contains(t, out, "state=state_fruit")
	assert.Contains(t, out, "answer recorded")
	assert.Contains(t, out, "turn processed")
}
