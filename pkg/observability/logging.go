package observability

import (
	"context"
	"log/slog"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// LogHooks returns lifecycle hooks that write each event to logger.
// States and answers go to debug; failed turns and upstream attempts to warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, ev *domain.StateEvent) {
			logger.DebugContext(ctx, "state entered", "addr", ev.Addr, "state", ev.State, "kind", ev.Kind)
		},
		OnAnswer: func(ctx context.Context, ev *domain.AnswerEvent) {
			logger.DebugContext(ctx, "answer recorded", "addr", ev.Addr, "state", ev.State)
		},
		OnTurnEnd: func(ctx context.Context, ev *domain.TurnEvent) {
			if ev.Err != nil {
				logger.WarnContext(ctx, "turn failed",
					"addr", ev.Addr, "state", ev.FinalState, "hops", ev.Hops, "err", ev.Err)
				return
			}
			logger.InfoContext(ctx, "turn processed",
				"addr", ev.Addr,
				"state", ev.FinalState,
				"hops", ev.Hops,
				"outbound", ev.Outbound,
				"duration", ev.Duration,
			)
		},
		OnUpstreamCall: func(ctx context.Context, ev *domain.UpstreamEvent) {
			if ev.Err == nil && ev.StatusCode < 400 {
				logger.DebugContext(ctx, "upstream call",
					"service", ev.Service, "method", ev.Method, "status", ev.StatusCode, "attempt", ev.Attempt)
				return
			}
			logger.WarnContext(ctx, "upstream attempt failed",
				"service", ev.Service,
				"method", ev.Method,
				"url", ev.URL,
				"attempt", ev.Attempt,
				"status", ev.StatusCode,
				"err", ev.Err,
			)
		},
	}
}
