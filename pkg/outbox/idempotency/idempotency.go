package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/yardops-backend/pkg/instance"
	"github.com/angelmondragon/yardops-backend/pkg/redis"
)

// Manager claims outbox event ids per consumer so a redelivered Pub/Sub
// message is handled once. Markers live at
// yo:idempotency:evt:processed:<consumer>:<event_id> and hold
// "<instance>|<claimed_at>".
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	owner string
	now   func() time.Time
}

// Claim describes the outcome of claiming an event.
type Claim struct {
	// First is true when this call took the marker.
	First bool
	// Owner and ClaimedAt identify the earlier claimant when First is false.
	// They are empty if the marker vanished between the two reads.
	Owner     string
	ClaimedAt time.Time
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl, owner: instance.GetID(), now: time.Now}, nil
}

// Claim marks eventID as handled by consumer. The marker is written before
// the side effect runs, so a crash after Claim drops the event.
func (m *Manager) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (Claim, error) {
	key, err := m.processedKey(consumer, eventID)
	if err != nil {
		return Claim{}, err
	}
	marker := m.owner + "|" + m.now().UTC().Format(time.RFC3339)
	first, err := m.store.SetNX(ctx, key, marker, m.ttl)
	if err != nil {
		return Claim{}, fmt.Errorf("claim %s: %w", key, err)
	}
	if first {
		return Claim{First: true}, nil
	}

	existing, err := m.store.Get(ctx, key)
	if err != nil && !errors.Is(err, goredis.Nil) {
		return Claim{}, fmt.Errorf("read claim %s: %w", key, err)
	}
	return parseMarker(existing), nil
}

func parseMarker(raw string) Claim {
	owner, stamp, _ := strings.Cut(raw, "|")
	claim := Claim{Owner: owner}
	if at, err := time.Parse(time.RFC3339, stamp); err == nil {
		claim.ClaimedAt = at
	}
	return claim
}

func (m *Manager) processedKey(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:processed:"+consumer, eventID.String()), nil
}
