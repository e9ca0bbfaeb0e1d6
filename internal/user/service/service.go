// Package service creates accounts and dispatches post-create hooks (e.g. mirroring the email).
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slack-identity-linker/internal/logger"
	"slack-identity-linker/internal/user/domain"
)

// ErrEmailAlreadyRegistered is returned by Create when a user with the email exists.
var ErrEmailAlreadyRegistered = errors.New("email already registered")

// Repo is the minimal user repository needed by the service.
type Repo interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// CreatedHook runs after a user row is inserted. A returned error is surfaced to the Create caller;
// hooks that tolerate expected races must swallow them themselves.
type CreatedHook func(ctx context.Context, u *domain.User) error

// Service creates users and runs CreatedHooks in registration order.
type Service struct {
	repo   Repo
	logger *zap.Logger

	mu    sync.RWMutex
	hooks []namedHook
}

type namedHook struct {
	name string
	fn   CreatedHook
}

// NewService returns a user Service backed by repo.
func NewService(repo Repo, log *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.OrNop(log)}
}

// OnCreated registers fn under name. Registering the same name twice replaces the earlier hook,
// so wiring code can run more than once without double dispatch.
func (s *Service) OnCreated(name string, fn CreatedHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.hooks {
		if s.hooks[i].name == name {
			s.hooks[i].fn = fn
			return
		}
	}
	s.hooks = append(s.hooks, namedHook{name: name, fn: fn})
}

// Create validates and persists a new user, then runs the created hooks.
func (s *Service) Create(ctx context.Context, email, name string) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Status:    domain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.mu.RLock()
	hooks := append([]namedHook(nil), s.hooks...)
	s.mu.RUnlock()
	for _, h := range hooks {
		if err := h.fn(ctx, u); err != nil {
			s.logger.Error("user created hook failed",
				zap.String("hook", h.name), zap.String("user_id", u.ID), zap.Error(err))
			return u, err
		}
	}
	return u, nil
}
