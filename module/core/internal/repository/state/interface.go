package state

import (
	"context"

	"github.com/chalosafe/safezone/module/core/domain"
)

// MembershipStore persists evaluator state across restarts. Load returns
// nil, nil when nothing is stored for the subject.
type MembershipStore interface {
	Load(ctx context.Context, subjectID string) (*domain.MembershipSnapshot, error)
	Save(ctx context.Context, snap *domain.MembershipSnapshot) error
}
