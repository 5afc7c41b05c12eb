package upstream

import (
	"context"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

type ctxKey int

const (
	addrKey ctxKey = iota
	observerKey
)

// WithAddr tags calls made with ctx with the user address.
func WithAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, addrKey, addr)
}

// AddrFromContext returns the user address set by WithAddr.
func AddrFromContext(ctx context.Context) string {
	addr, _ := ctx.Value(addrKey).(string)
	return addr
}

// WithCallObserver attaches an observer that sees every attempt made with ctx.
// Observers already attached to ctx keep firing, before fn.
func WithCallObserver(ctx context.Context, fn func(context.Context, *domain.UpstreamEvent)) context.Context {
	if fn == nil {
		return ctx
	}
	if prev := observerFromContext(ctx); prev != nil {
		next := fn
		fn = func(ctx context.Context, ev *domain.UpstreamEvent) {
			prev(ctx, ev)
			next(ctx, ev)
		}
	}
	return context.WithValue(ctx, observerKey, fn)
}

func observerFromContext(ctx context.Context) func(context.Context, *domain.UpstreamEvent) {
	fn, _ := ctx.Value(observerKey).(func(context.Context, *domain.UpstreamEvent))
	return fn
}
