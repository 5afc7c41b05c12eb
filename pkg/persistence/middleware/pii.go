package middleware

import (
	"context"
	"regexp"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/ports"
)

// Mask replaces the value of every masked answer or metadata key.
const Mask = "***"

type piiMiddleware struct {
	next     ports.UserStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks answers and metadata whose keys
// match any of the patterns before they reach the store.
// Masking is lossy: a masked answer is read back as Mask on the next turn.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.UserStore) ports.UserStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, user *domain.User) error {
	// The driver keeps using its in-memory copy after the save.
	cloned := user.Clone()

	for pair := cloned.Answers.Oldest(); pair != nil; pair = pair.Next() {
		if m.matches(pair.Key) {
			pair.Value = Mask
		}
	}
	maskMap(cloned.Metadata, m.patterns)

	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, addr string) (*domain.User, error) {
	return m.next.Load(ctx, addr)
}

func (m *piiMiddleware) Delete(ctx context.Context, addr string) error {
	return m.next.Delete(ctx, addr)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
