package validate

import (
	"context"
	"errors"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// MXResolver looks up mail exchangers for a domain.
type MXResolver interface {
	LookupMX(ctx context.Context, host string) ([]*net.MX, error)
}

// CachedResolver memoises MX lookups, including negative answers.
type CachedResolver struct {
	next  MXResolver
	cache *expirable.LRU[string, bool]
}

// NewCachedResolver wraps next with an LRU cache of the given size and TTL.
// A nil next uses net.DefaultResolver.
func NewCachedResolver(next MXResolver, size int, ttl time.Duration) *CachedResolver {
	if next == nil {
		next = net.DefaultResolver
	}
	return &CachedResolver{
		next:  next,
		cache: expirable.NewLRU[string, bool](size, nil, ttl),
	}
}

// HasMX reports whether host accepts mail.
func (r *CachedResolver) HasMX(ctx context.Context, host string) (bool, error) {
	host = strings.ToLower(host)
	if ok, hit := r.cache.Get(host); hit {
		return ok, nil
	}

	records, err := r.next.LookupMX(ctx, host)
	if err != nil {
		var dnsErr *net.DNSError
		if !errors.As(err, &dnsErr) || dnsErr.IsTemporary || dnsErr.IsTimeout {
			return false, err
		}
		// Authoritative "no such host" is cached like an empty answer.
		records = nil
	}

	ok := len(records) > 0
	r.cache.Add(host, ok)
	return ok, nil
}

// Email validates address syntax and that the domain has MX records.
// The skip keyword (e.g. "skip") is accepted as is.
// DNS lookups honour ctx so a slow resolver cannot hold up the turn forever.
func Email(resolver *CachedResolver, skip string, errText string) Validator {
	return func(ctx context.Context, value string) error {
		value = strings.TrimSpace(value)
		if skip != "" && strings.EqualFold(value, skip) {
			return nil
		}

		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return domain.NewErrorMessage(errText)
		}
		at := strings.LastIndex(addr.Address, "@")
		if at < 1 || at == len(addr.Address)-1 {
			return domain.NewErrorMessage(errText)
		}
		if resolver == nil {
			return nil
		}

		ok, err := resolver.HasMX(ctx, addr.Address[at+1:])
		if err != nil || !ok {
			// Lookup failures are reported to the user rather than failing the turn.
			return domain.NewErrorMessage(errText)
		}
		return nil
	}
}
