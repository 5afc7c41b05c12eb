package ports

import (
	"context"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// AnswerPublisher hands recorded answers to a downstream collaborator.
// Implementations must not block the caller for long; the driver calls it on the hot path.
type AnswerPublisher interface {
	Publish(ctx context.Context, event domain.AnswerEvent) error
}
