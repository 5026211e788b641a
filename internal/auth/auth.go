package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	userDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/user"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carries the token identity. TokenID is a uuid jti; the session log
// keys revocation on it.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenID returns the jti.
func (c *Claims) TokenID() string {
	return c.ID
}

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, email string) (token string, tokenID string, expiresAt time.Time, err error)
	GenerateRefreshToken(userID int64, email string) (token string, tokenID string, expiresAt time.Time, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// UserStore is the credential lookup the auth service needs.
type UserStore interface {
	GetUserByEmail(email string) (*userDatamodel.User, error)
	GetUserByID(id int64) (*userDatamodel.User, error)
}

// SessionRecorder is the revocation collaborator: sessions open on login,
// close on logout, and the verifier asks before trusting a token.
type SessionRecorder interface {
	RecordLogin(userID int64, tokenID, ip, userAgent string, expiresAt time.Time) error
	CloseSession(tokenID string) error
	IsSessionRevoked(tokenID string) (bool, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
