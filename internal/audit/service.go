package audit

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/admission-portal/internal"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LogAccess records one access-log row. Best effort: a failed write is logged
// and swallowed so audit trouble never breaks request handling.
func (s *Service) LogAccess(entry Entry) {
	row := &acDatamodel.AccessLog{
		UserID:          entry.UserID,
		EndpointPath:    entry.EndpointPath,
		HTTPMethod:      entry.HTTPMethod,
		RequestIP:       entry.RequestIP,
		UserAgent:       entry.UserAgent,
		Action:          entry.Action,
		ResourceType:    entry.ResourceType,
		ResourceID:      entry.ResourceID,
		Success:         entry.Success,
		ErrorMessage:    entry.ErrorMessage,
		ResponseStatus:  entry.ResponseStatus,
		ExecutionTimeMs: entry.ExecutionTimeMs,
		Timestamp:       time.Now(),
	}

	if err := s.repo.CreateAccessLog(row); err != nil {
		s.logger.Error("failed to write access log",
			"error", err,
			"path", entry.EndpointPath,
			"method", entry.HTTPMethod)
	}
}

func (s *Service) ListAccessLogs(filter AccessLogFilter) ([]*acDatamodel.AccessLog, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	logs, err := s.repo.ListAccessLogs(filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list access logs", err)
	}
	return logs, nil
}

// RecordLogin opens a session-log row for a freshly issued token.
func (s *Service) RecordLogin(userID int64, tokenID, ip, userAgent string, expiresAt time.Time) error {
	entry := &acDatamodel.SessionLog{
		UserID:    userID,
		TokenID:   tokenID,
		IPAddress: ip,
		UserAgent: userAgent,
		LoginTime: time.Now(),
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	if err := s.repo.CreateSessionLog(entry); err != nil {
		s.logger.Error("failed to record login session", "error", err, "user_id", userID)
		return internal.NewInternalError("failed to record session", err)
	}
	return nil
}

// CloseSession revokes one token. Closing an already-closed or unknown
// session is not an error; logout must be idempotent.
func (s *Service) CloseSession(tokenID string) error {
	if err := s.repo.CloseSession(tokenID, time.Now()); err != nil {
		s.logger.Error("failed to close session", "error", err, "token_id", tokenID)
		return internal.NewInternalError("failed to close session", err)
	}
	return nil
}

// CloseAllSessions revokes every live session of a user, e.g. on password
// change or account deactivation.
func (s *Service) CloseAllSessions(userID int64) (int64, error) {
	closed, err := s.repo.CloseSessionsForUser(userID, time.Now())
	if err != nil {
		s.logger.Error("failed to close user sessions", "error", err, "user_id", userID)
		return 0, internal.NewInternalError("failed to close sessions", err)
	}
	if closed > 0 {
		s.logger.Info("sessions closed", "user_id", userID, "count", closed)
	}
	return closed, nil
}

// IsSessionRevoked reports whether a token id no longer maps to a live
// session. Unknown tokens count as revoked so a wiped session table cannot
// resurrect old credentials.
func (s *Service) IsSessionRevoked(tokenID string) (bool, error) {
	session, err := s.repo.GetSessionByTokenID(tokenID)
	if err != nil {
		return true, internal.NewInternalError("failed to look up session", err)
	}
	if session == nil {
		return true, nil
	}
	if !session.IsActive {
		return true, nil
	}
	if !session.ExpiresAt.After(time.Now()) {
		return true, nil
	}
	return false, nil
}

func (s *Service) ListSessionLogs(userID int64, limit, offset int) ([]*acDatamodel.SessionLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	logs, err := s.repo.ListSessionLogs(userID, limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list session logs", err)
	}
	return logs, nil
}
