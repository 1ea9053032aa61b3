package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/support-totem125/vcc-totem/internal/model"
	redisclient "github.com/support-totem125/vcc-totem/internal/redis"
	"github.com/support-totem125/vcc-totem/internal/util"
)

// Store caches the current portal session. Get returns nil without error when
// nothing is cached.
type Store interface {
	Get(ctx context.Context) (*model.Session, error)
	Set(ctx context.Context, sess *model.Session) error
	Invalidate(ctx context.Context) error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	session *model.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, nil
	}
	cp := *s.session
	return &cp, nil
}

func (s *MemoryStore) Set(_ context.Context, sess *model.Session) error {
	cp := *sess
	s.mu.Lock()
	s.session = &cp
	s.mu.Unlock()
	return nil
}

// Invalidate zeroes the creation time so the cached session is never fresh.
func (s *MemoryStore) Invalidate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session = &model.Session{
			Token:  s.session.Token,
			AllyID: s.session.AllyID,
			UserID: s.session.UserID,
		}
	}
	return nil
}

const redisSessionKey = "session"

// RedisStore keeps the session under one key so that several processes can
// share a login. The key expires together with the session.
type RedisStore struct {
	client        *redisclient.Client
	key           string
	ttl           time.Duration
	encryptionKey string
}

func NewRedisStore(client *redisclient.Client, ttl time.Duration, encryptionKey string) *RedisStore {
	return &RedisStore{
		client:        client,
		key:           client.Key(redisSessionKey),
		ttl:           ttl,
		encryptionKey: encryptionKey,
	}
}

type storedSession struct {
	model.Session
	Encrypted bool `json:"encrypted,omitempty"`
}

func (s *RedisStore) Get(ctx context.Context) (*model.Session, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if stored.Encrypted {
		if s.encryptionKey == "" {
			return nil, errors.New("cached session is encrypted but no key is configured")
		}
		token, err := util.DecryptSecret(s.encryptionKey, stored.Token)
		if err != nil {
			return nil, fmt.Errorf("decrypt session token: %w", err)
		}
		stored.Token = token
	}

	return &stored.Session, nil
}

func (s *RedisStore) Set(ctx context.Context, sess *model.Session) error {
	stored := storedSession{Session: *sess}
	if s.encryptionKey != "" {
		token, err := util.EncryptSecret(s.encryptionKey, sess.Token)
		if err != nil {
			return fmt.Errorf("encrypt session token: %w", err)
		}
		stored.Token = token
		stored.Encrypted = true
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}
