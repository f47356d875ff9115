package auth

import (
	"context"

	"github.com/frahmantamala/tenant-admin/internal/authz"
	userDatamodel "github.com/frahmantamala/tenant-admin/internal/core/datamodel/user"
)

// CredentialStore reads the user rows the identity verifier needs.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

// TokenGenerator issues and checks signed access and refresh tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64) (string, error)
	GenerateRefreshToken(userID int64) (string, error)
	ValidateAccessToken(token string) (*Claims, error)
	ValidateRefreshToken(token string) (*Claims, error)
	AccessTTLSeconds() int64
}

type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LoginResult carries the token pair with a summary of the logged-in user.
type LoginResult struct {
	AuthTokens
	User *authz.Identity `json:"user"`
}
