package postgres

import (
	"errors"
	"time"

	"github.com/frahmantamala/admission-portal/internal/audit"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
	"gorm.io/gorm"
)

// AuditRepository implements the audit.Repository interface using GORM.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) CreateAccessLog(entry *acDatamodel.AccessLog) error {
	return r.db.Create(entry).Error
}

func (r *AuditRepository) ListAccessLogs(filter audit.AccessLogFilter) ([]*acDatamodel.AccessLog, error) {
	query := r.db.Order("timestamp DESC").Limit(filter.Limit).Offset(filter.Offset)

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EndpointPath != "" {
		query = query.Where("endpoint_path = ?", filter.EndpointPath)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}

	var logs []*acDatamodel.AccessLog
	err := query.Find(&logs).Error
	return logs, err
}

func (r *AuditRepository) CreateSessionLog(entry *acDatamodel.SessionLog) error {
	return r.db.Create(entry).Error
}

func (r *AuditRepository) GetSessionByTokenID(tokenID string) (*acDatamodel.SessionLog, error) {
	var session acDatamodel.SessionLog
	err := r.db.Where("token_id = ?", tokenID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *AuditRepository) CloseSession(tokenID string, logoutTime time.Time) error {
	return r.db.Model(&acDatamodel.SessionLog{}).
		Where("token_id = ? AND is_active = ?", tokenID, true).
		Updates(map[string]interface{}{
			"is_active":   false,
			"logout_time": logoutTime,
		}).Error
}

func (r *AuditRepository) CloseSessionsForUser(userID int64, logoutTime time.Time) (int64, error) {
	result := r.db.Model(&acDatamodel.SessionLog{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"is_active":   false,
			"logout_time": logoutTime,
		})
	return result.RowsAffected, result.Error
}

func (r *AuditRepository) ListSessionLogs(userID int64, limit, offset int) ([]*acDatamodel.SessionLog, error) {
	var logs []*acDatamodel.SessionLog
	err := r.db.
		Where("user_id = ?", userID).
		Order("login_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, err
}
