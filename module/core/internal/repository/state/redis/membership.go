package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/internal/repository/state"
)

var _ state.MembershipStore = (*MembershipStore)(nil)

const keyPrefix = "chalosafe:session:"

// MembershipStore keeps each subject's zone membership and last sample time
// as a JSON value that expires after ttl without updates.
type MembershipStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMembershipStore(client *redis.Client, ttl time.Duration) *MembershipStore {
	return &MembershipStore{client: client, ttl: ttl}
}

func key(subjectID string) string {
	return keyPrefix + subjectID
}

func (s *MembershipStore) Load(ctx context.Context, subjectID string) (*domain.MembershipSnapshot, error) {
	raw, err := s.client.Get(ctx, key(subjectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", subjectID, err)
	}

	var snap domain.MembershipSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", subjectID, err)
	}
	return &snap, nil
}

func (s *MembershipStore) Save(ctx context.Context, snap *domain.MembershipSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.SubjectID, err)
	}
	if err := s.client.Set(ctx, key(snap.SubjectID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", snap.SubjectID, err)
	}
	return nil
}
