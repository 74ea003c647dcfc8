package services

import (
	"context"
	"errors"

	"github.com/farmgate/farmgate/internal/metrics"
	"github.com/farmgate/farmgate/internal/repository"
	"github.com/farmgate/farmgate/pkg/hash"
	"github.com/farmgate/farmgate/pkg/token"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords, so a
// caller cannot probe which emails are registered.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidRefresh is returned when a refresh credential cannot be verified
// or its principal no longer exists.
var ErrInvalidRefresh = errors.New("invalid refresh token")

type AuthService interface {
	Login(ctx context.Context, email, password string) (token.Pair, error)
	Refresh(ctx context.Context, refreshWire string) (token.Pair, error)
}

type authService struct {
	users   repository.UserRepository
	hasher  *hash.Hasher
	issuer  *token.Issuer
	profile *token.Profile
}

func NewAuthService(users repository.UserRepository, hasher *hash.Hasher, issuer *token.Issuer, profile *token.Profile) AuthService {
	return &authService{users: users, hasher: hasher, issuer: issuer, profile: profile}
}

func (s *authService) Login(ctx context.Context, email, password string) (token.Pair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return token.Pair{}, ErrInvalidCredentials
		}
		return token.Pair{}, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return token.Pair{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(token.Principal{ID: user.ID, Role: string(user.UserType)})
	if err != nil {
		return token.Pair{}, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.WithLabelValues(token.KindAccess.Name()).Inc()
	metrics.TokensIssuedTotal.WithLabelValues(token.KindRefresh.Name()).Inc()
	return pair, nil
}

// Refresh verifies a refresh credential strictly and mints a new pair for its
// principal. The user is looked up again so a changed role takes effect on
// the next rotation.
func (s *authService) Refresh(ctx context.Context, refreshWire string) (token.Pair, error) {
	tok, err := token.Parse(token.KindRefresh, refreshWire, s.profile, token.StrictDecode)
	if err != nil {
		var ce *token.ConfigError
		if errors.As(err, &ce) {
			return token.Pair{}, err
		}
		return token.Pair{}, ErrInvalidRefresh
	}

	userID, ok := tok.Claims().GetString(token.ClaimUserID)
	if !ok || userID == "" {
		return token.Pair{}, ErrInvalidRefresh
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return token.Pair{}, ErrInvalidRefresh
		}
		return token.Pair{}, err
	}

	pair, err := s.issuer.IssuePair(token.Principal{ID: user.ID, Role: string(user.UserType)})
	if err != nil {
		return token.Pair{}, err
	}
	metrics.TokensIssuedTotal.WithLabelValues(token.KindAccess.Name()).Inc()
	metrics.TokensIssuedTotal.WithLabelValues(token.KindRefresh.Name()).Inc()
	return pair, nil
}
