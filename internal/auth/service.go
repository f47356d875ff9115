package auth

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/tenant-admin/internal"
	"github.com/frahmantamala/tenant-admin/internal/authz"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/tenant-admin/internal/core/security"
	"github.com/frahmantamala/tenant-admin/internal/user"
)

type Service struct {
	store  CredentialStore
	tokens TokenGenerator
	hasher security.PasswordHasher
	logger *slog.Logger
}

func NewService(store CredentialStore, tokens TokenGenerator, hasher security.PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
	}
}

// Login verifies credentials. An unknown email and a wrong password produce
// the same error after the same hashing work.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	row, err := s.store.GetByEmail(ctx, user.NormalizeEmail(dto.Email))
	if err != nil {
		return nil, internal.NewInternalError("failed to load credentials", err)
	}
	if row == nil {
		s.hasher.VerifyDummy(dto.Password)
		return nil, internal.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(row.PasswordHash, dto.Password)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash is unreadable", "user_id", row.ID, "error", err)
		return nil, internal.ErrInvalidCredentials
	}
	if !ok {
		return nil, internal.ErrInvalidCredentials
	}
	if !row.IsActive {
		return nil, internal.ErrAccountDisabled
	}

	tokens, err := s.issue(row.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", row.ID)
	return &LoginResult{AuthTokens: tokens, User: identityOf(row)}, nil
}

// Resolve turns an access token into the caller's current identity. The user
// is read again on every call so deactivation and deletion apply at once.
func (s *Service) Resolve(ctx context.Context, token string) (*authz.Identity, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	return s.subject(ctx, claims)
}

// Refresh exchanges a refresh token for a new pair after re-checking the user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}
	id, err := s.subject(ctx, claims)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(id.ID)
}

func (s *Service) subject(ctx context.Context, claims *Claims) (*authz.Identity, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	row, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	if !row.IsActive {
		return nil, internal.ErrAccountDisabled
	}
	return identityOf(row), nil
}

func (s *Service) issue(userID int64) (AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}
	return AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.tokens.AccessTTLSeconds(),
	}, nil
}

func identityOf(row *userDatamodel.User) *authz.Identity {
	return user.FromDataModel(row).Identity()
}
