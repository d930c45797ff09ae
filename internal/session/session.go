// Package session holds the authenticated shopkeeper context behind a desk.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoice-desk/internal/models"
	"invoice-desk/internal/redisclient"
	"invoice-desk/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("session not found or expired")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Record is the persisted part of a session
type Record struct {
	ID        string      `json:"id"`
	User      models.User `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

// Store persists session records
type Store interface {
	Save(ctx context.Context, rec *Record, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Record, error)
	Touch(ctx context.Context, id string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Authenticator checks shopkeeper credentials against the remote service
type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.User, error)
}

// Manager logs shopkeepers in and out and restores sessions from tokens
type Manager struct {
	auth   Authenticator
	store  Store
	tokens *TokenIssuer
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager creates a session manager
func NewManager(auth Authenticator, store Store, tokens *TokenIssuer, ttl time.Duration) *Manager {
	return &Manager{
		auth:   auth,
		store:  store,
		tokens: tokens,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// Login verifies credentials remotely, then opens a session and returns
// its bearer token.
func (m *Manager) Login(ctx context.Context, req models.LoginRequest) (*Record, string, error) {
	ctx, span := util.StartSpan(ctx, "Session.Login")
	defer span.End()

	user, err := m.auth.Login(ctx, req)
	if err != nil {
		return nil, "", err
	}

	rec := &Record{
		ID:        uuid.New().String(),
		User:      *user,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Save(ctx, rec, m.ttl); err != nil {
		return nil, "", fmt.Errorf("failed to save session: %w", err)
	}

	token, err := m.tokens.Issue(rec.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	m.logger.Info("Session opened",
		zap.String("session_id", rec.ID),
		zap.String("shop_name", rec.User.ShopName))

	return rec, token, nil
}

// Restore resolves a bearer token to its live session and extends it
func (m *Manager) Restore(ctx context.Context, token string) (*Record, error) {
	id, err := m.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	rec, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.store.Touch(ctx, id, m.ttl); err != nil {
		m.logger.Warn("Failed to extend session", zap.String("session_id", id), zap.Error(err))
	}
	return rec, nil
}

// Logout ends a session
func (m *Manager) Logout(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.logger.Info("Session closed", zap.String("session_id", id))
	return nil
}

// RedisStore keeps sessions in Redis with a sliding TTL
type RedisStore struct {
	client *redisclient.Client
}

func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisStore) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	return s.client.SetJSON(ctx, sessionKey(rec.ID), rec, ttl)
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.client.GetJSON(ctx, sessionKey(id), &rec)
	if errors.Is(err, redisclient.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) Touch(ctx context.Context, id string, ttl time.Duration) error {
	err := s.client.Expire(ctx, sessionKey(id), ttl)
	if errors.Is(err, redisclient.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, sessionKey(id))
}
