package auth

import (
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/admission-portal/internal"
)

type Service struct {
	users      UserStore
	tokens     TokenGenerator
	sessions   SessionRecorder
	bcryptCost int
	logger     *slog.Logger
}

func NewService(users UserStore, tokens TokenGenerator, sessions SessionRecorder, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Login verifies credentials, issues the token pair and opens a session log
// row keyed by the access token's jti.
func (s *Service) Login(dto LoginDTO, ip, userAgent string) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	user, err := s.users.GetUserByEmail(dto.Email)
	if err != nil {
		s.logger.Error("failed to look up user for login", "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !user.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	accessToken, tokenID, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate access token", err)
	}

	refreshToken, _, _, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate refresh token", err)
	}

	if err := s.sessions.RecordLogin(user.ID, tokenID, ip, userAgent, expiresAt); err != nil {
		return AuthTokens{}, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "ip", ip)
	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL().Seconds()),
	}, nil
}

// Refresh trades a live refresh token for a fresh pair. The new access token
// gets its own session row; the refresh token itself is stateless.
func (s *Service) Refresh(dto RefreshTokenDTO, ip, userAgent string) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokens.ValidateRefreshToken(dto.RefreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !user.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	accessToken, tokenID, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate access token", err)
	}

	refreshToken, _, _, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate refresh token", err)
	}

	if err := s.sessions.RecordLogin(user.ID, tokenID, ip, userAgent, expiresAt); err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL().Seconds()),
	}, nil
}

// Logout closes the session behind the presented access token. The token
// stops working immediately even though its signature stays valid.
func (s *Service) Logout(accessToken string) error {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return err
	}

	if err := s.sessions.CloseSession(claims.TokenID()); err != nil {
		return err
	}

	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// VerifyAccessToken validates the signature and then the session log, so a
// logged-out token is rejected before its natural expiry.
func (s *Service) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.sessions.IsSessionRevoked(claims.TokenID())
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, internal.ErrTokenRevoked
	}
	return claims, nil
}

// HashPassword creates a bcrypt hash for seeding and user management.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) accessTTL() (ttl time.Duration) {
	if gen, ok := s.tokens.(*JWTTokenGenerator); ok {
		return gen.AccessTokenTTL
	}
	return 15 * time.Minute
}
