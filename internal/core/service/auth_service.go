package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
	"github.com/oguzhanozgokce/account-service/internal/core/ports"
)

const tokenTypeBearer = "Bearer"

// AuthService implements registration, login and token refresh.
type AuthService struct {
	repo     ports.UserRepository
	tokens   ports.TokenService
	hasher   ports.PasswordHasher
	throttle ports.LoginThrottle
	audit    ports.AuditSink
	log      zerolog.Logger
	now      func() time.Time

	// dummyHash is compared against when the username is unknown so that both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

// NewAuthService wires the orchestrator. throttle and audit may be nil.
func NewAuthService(
	repo ports.UserRepository,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	throttle ports.LoginThrottle,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AuthService {
	if throttle == nil {
		throttle = noopThrottle{}
	}
	if audit == nil {
		audit = noopAudit{}
	}
	dummy, err := hasher.Hash("account-service-timing-equalizer")
	if err != nil {
		log.Warn().Err(err).Msg("could not precompute dummy password hash")
	}
	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		hasher:    hasher,
		throttle:  throttle,
		audit:     audit,
		log:       log,
		now:       time.Now,
		dummyHash: dummy,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	taken, err := s.repo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("register: check username: %w", err)
	}
	if taken {
		return nil, domain.ErrDuplicateUsername
	}

	taken, err = s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("register: check email: %w", err)
	}
	if taken {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         domain.RoleUser,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) || errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	result, err := s.issue(created)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventUserRegistered,
		Username:   created.Username,
		UserID:     created.ID,
		OccurredAt: now,
	})
	s.log.Info().Str("username", created.Username).Str("user_id", created.ID).Msg("user registered")

	return result, nil
}

// Login checks credentials. Unknown users, wrong passwords and disabled accounts
// all fail with domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	locked, err := s.throttle.Locked(ctx, username)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("login throttle check failed, continuing")
	} else if locked {
		s.log.Warn().Str("username", username).Msg("login rejected, too many failed attempts")
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("login: %w", err)
	}

	if user == nil {
		s.hasher.Compare(s.dummyHash, password)
		return nil, s.loginFailed(ctx, username, "")
	}
	if !s.hasher.Compare(user.PasswordHash, password) || !user.Enabled {
		return nil, s.loginFailed(ctx, username, user.ID)
	}

	if err := s.throttle.Reset(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to reset login throttle")
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventLoginSucceeded,
		Username:   user.Username,
		UserID:     user.ID,
		OccurredAt: s.now().UTC(),
	})
	s.log.Info().Str("username", user.Username).Msg("login succeeded")

	return result, nil
}

func (s *AuthService) loginFailed(ctx context.Context, username, userID string) error {
	if err := s.throttle.RecordFailure(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to record login failure")
	}
	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventLoginFailed,
		Username:   username,
		UserID:     userID,
		OccurredAt: s.now().UTC(),
	})
	s.log.Warn().Str("username", username).Msg("invalid credentials")
	return domain.ErrInvalidCredentials
}

// Refresh exchanges a live token for a new one. The old token stays valid until
// it expires on its own.
func (s *AuthService) Refresh(ctx context.Context, token string) (*ports.AuthResult, error) {
	subject, ok := s.tokens.ExtractSubject(token)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if user == nil || !user.Enabled || !s.tokens.Validate(token, user) {
		return nil, domain.ErrInvalidToken
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuthEvent{
		Type:       domain.EventTokenRefreshed,
		Username:   user.Username,
		UserID:     user.ID,
		OccurredAt: s.now().UTC(),
	})
	s.log.Debug().Str("username", user.Username).Msg("token refreshed")

	return result, nil
}

func (s *AuthService) issue(user *domain.User) (*ports.AuthResult, error) {
	issued, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &ports.AuthResult{
		Token:     issued.Token,
		TokenType: tokenTypeBearer,
		ExpiresAt: issued.ExpiresAt,
		User:      user,
	}, nil
}

type noopThrottle struct{}

func (noopThrottle) Locked(context.Context, string) (bool, error) { return false, nil }
func (noopThrottle) RecordFailure(context.Context, string) error  { return nil }
func (noopThrottle) Reset(context.Context, string) error          { return nil }

type noopAudit struct{}

func (noopAudit) Record(domain.AuthEvent) {}
