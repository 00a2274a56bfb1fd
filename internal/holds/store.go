package holds

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"expopass/internal/shared/apperrors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "hold_session:"

// Lua script for atomic consume - reads the session and deletes it in one
// step so the same hold can never materialize into two reservation rows.
const luaConsumeSession = `
local key = KEYS[1]
local val = redis.call("GET", key)
if not val then
    return false
end
redis.call("DEL", key)
return val
`

// Store is the TTL-bounded hold session store. Creating a hold has no
// inventory side effect; oversell prevention is re-derived at confirmation
// time by the inventory ledger decrement.
type Store interface {
	CreateHold(ctx context.Context, session *HoldSession) error
	// Consume returns the session and deletes it atomically (single-use).
	Consume(ctx context.Context, sessionID string) (*HoldSession, error)
	// Peek reads without consuming; used by the checkout UI to re-render.
	Peek(ctx context.Context, sessionID string) (*HoldSession, error)
}

type store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(redisClient *redis.Client, ttl time.Duration) Store {
	return &store{redis: redisClient, ttl: ttl}
}

func (s *store) CreateHold(ctx context.Context, session *HoldSession) error {
	if s.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal hold session: %w", err)
	}

	key := sessionKeyPrefix + session.SessionID
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store hold session: %w", err)
	}

	return nil
}

func (s *store) Consume(ctx context.Context, sessionID string) (*HoldSession, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("redis client not available")
	}

	result, err := s.redis.Eval(ctx, luaConsumeSession, []string{sessionKeyPrefix + sessionID}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to consume hold session: %w", err)
	}

	raw, ok := result.(string)
	if !ok {
		return nil, apperrors.ErrSessionExpired
	}

	var session HoldSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hold session: %w", err)
	}

	return &session, nil
}

func (s *store) Peek(ctx context.Context, sessionID string) (*HoldSession, error) {
	raw, err := s.redis.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to read hold session: %w", err)
	}

	var session HoldSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hold session: %w", err)
	}
	return &session, nil
}

// NewSessionID returns a fresh opaque session id.
func NewSessionID() string {
	return uuid.New().String()
}

// GenerateReservationCode builds the unique human-facing reservation code,
// e.g. RSV-20260829-KQZKVP.
func GenerateReservationCode() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)

	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("RSV-%s-%s", timestamp, string(randomPart)), nil
}
