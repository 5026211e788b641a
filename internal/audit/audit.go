package audit

import (
	"time"

	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
)

// Repository is the audit store: the append-only access log plus the session
// log used for token revocation.
type Repository interface {
	CreateAccessLog(entry *acDatamodel.AccessLog) error
	ListAccessLogs(filter AccessLogFilter) ([]*acDatamodel.AccessLog, error)

	CreateSessionLog(entry *acDatamodel.SessionLog) error
	GetSessionByTokenID(tokenID string) (*acDatamodel.SessionLog, error)
	CloseSession(tokenID string, logoutTime time.Time) error
	CloseSessionsForUser(userID int64, logoutTime time.Time) (int64, error)
	ListSessionLogs(userID int64, limit, offset int) ([]*acDatamodel.SessionLog, error)
}

// AccessLogFilter narrows an access-log listing. Zero values mean no filter.
type AccessLogFilter struct {
	UserID       *int64
	EndpointPath string
	Success      *bool
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// Entry is everything the gate knows about a finished request.
type Entry struct {
	UserID          *int64
	EndpointPath    string
	HTTPMethod      string
	RequestIP       string
	UserAgent       string
	Action          acDatamodel.AuditAction
	ResourceType    *acDatamodel.ResourceType
	ResourceID      string
	Success         bool
	ErrorMessage    string
	ResponseStatus  int
	ExecutionTimeMs int64
}
