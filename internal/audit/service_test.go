package audit_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/admission-portal/internal/audit"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
)

func TestAudit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Suite")
}

type mockAuditRepository struct {
	accessLogs  []*acDatamodel.AccessLog
	sessions    map[string]*acDatamodel.SessionLog
	failWith    error
	nextLogID   int64
	nextSessionID int64
}

func newMockAuditRepository() *mockAuditRepository {
	return &mockAuditRepository{
		sessions:      make(map[string]*acDatamodel.SessionLog),
		nextLogID:     1,
		nextSessionID: 1,
	}
}

func (m *mockAuditRepository) CreateAccessLog(entry *acDatamodel.AccessLog) error {
	if m.failWith != nil {
		return m.failWith
	}
	entry.ID = m.nextLogID
	m.nextLogID++
	m.accessLogs = append(m.accessLogs, entry)
	return nil
}

func (m *mockAuditRepository) ListAccessLogs(filter audit.AccessLogFilter) ([]*acDatamodel.AccessLog, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*acDatamodel.AccessLog
	for _, entry := range m.accessLogs {
		if filter.UserID != nil && (entry.UserID == nil || *entry.UserID != *filter.UserID) {
			continue
		}
		if filter.Success != nil && entry.Success != *filter.Success {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (m *mockAuditRepository) CreateSessionLog(entry *acDatamodel.SessionLog) error {
	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.sessions[entry.TokenID]; exists {
		return errors.New("duplicate token id")
	}
	entry.ID = m.nextSessionID
	m.nextSessionID++
	m.sessions[entry.TokenID] = entry
	return nil
}

func (m *mockAuditRepository) GetSessionByTokenID(tokenID string) (*acDatamodel.SessionLog, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.sessions[tokenID], nil
}

func (m *mockAuditRepository) CloseSession(tokenID string, logoutTime time.Time) error {
	if m.failWith != nil {
		return m.failWith
	}
	if session, ok := m.sessions[tokenID]; ok && session.IsActive {
		session.IsActive = false
		session.LogoutTime = &logoutTime
	}
	return nil
}

func (m *mockAuditRepository) CloseSessionsForUser(userID int64, logoutTime time.Time) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	var closed int64
	for _, session := range m.sessions {
		if session.UserID == userID && session.IsActive {
			session.IsActive = false
			session.LogoutTime = &logoutTime
			closed++
		}
	}
	return closed, nil
}

func (m *mockAuditRepository) ListSessionLogs(userID int64, limit, offset int) ([]*acDatamodel.SessionLog, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*acDatamodel.SessionLog
	for _, session := range m.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	return out, nil
}

var _ = Describe("AuditService", func() {
	var (
		repo    *mockAuditRepository
		service *audit.Service
	)

	BeforeEach(func() {
		repo = newMockAuditRepository()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = audit.NewService(repo, lg)
	})

	Describe("LogAccess", func() {
		It("persists one row per call", func() {
			userID := int64(7)
			service.LogAccess(audit.Entry{
				UserID:          &userID,
				EndpointPath:    "/api/v1/students",
				HTTPMethod:      "GET",
				RequestIP:       "10.0.0.1",
				Action:          acDatamodel.AuditRead,
				Success:         true,
				ResponseStatus:  200,
				ExecutionTimeMs: 12,
			})

			Expect(repo.accessLogs).To(HaveLen(1))
			Expect(repo.accessLogs[0].EndpointPath).To(Equal("/api/v1/students"))
			Expect(repo.accessLogs[0].Timestamp).NotTo(BeZero())
		})

		It("records anonymous requests with a null user", func() {
			service.LogAccess(audit.Entry{
				EndpointPath:   "/api/v1/stages/current",
				HTTPMethod:     "GET",
				Success:        true,
				ResponseStatus: 200,
			})

			Expect(repo.accessLogs).To(HaveLen(1))
			Expect(repo.accessLogs[0].UserID).To(BeNil())
		})

		It("swallows store failures", func() {
			repo.failWith = errors.New("disk full")

			Expect(func() {
				service.LogAccess(audit.Entry{EndpointPath: "/api/v1/students", HTTPMethod: "GET"})
			}).NotTo(Panic())
		})
	})

	Describe("session lifecycle", func() {
		It("opens a session on login and finds it live", func() {
			err := service.RecordLogin(7, "token-abc", "10.0.0.1", "curl/8", time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())

			revoked, err := service.IsSessionRevoked("token-abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeFalse())
		})

		It("revokes on close and stays closed on repeat", func() {
			Expect(service.RecordLogin(7, "token-abc", "", "", time.Now().Add(time.Hour))).To(Succeed())

			Expect(service.CloseSession("token-abc")).To(Succeed())
			Expect(service.CloseSession("token-abc")).To(Succeed())

			revoked, err := service.IsSessionRevoked("token-abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeTrue())
			Expect(repo.sessions["token-abc"].LogoutTime).NotTo(BeNil())
		})

		It("treats unknown tokens as revoked", func() {
			revoked, err := service.IsSessionRevoked("never-issued")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeTrue())
		})

		It("treats naturally expired sessions as revoked", func() {
			Expect(service.RecordLogin(7, "token-old", "", "", time.Now().Add(-time.Minute))).To(Succeed())

			revoked, err := service.IsSessionRevoked("token-old")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeTrue())
		})

		It("fails closed when the store errors", func() {
			repo.failWith = errors.New("connection refused")

			revoked, err := service.IsSessionRevoked("token-abc")
			Expect(err).To(HaveOccurred())
			Expect(revoked).To(BeTrue())
		})

		It("closes every live session of a user", func() {
			Expect(service.RecordLogin(7, "token-1", "", "", time.Now().Add(time.Hour))).To(Succeed())
			Expect(service.RecordLogin(7, "token-2", "", "", time.Now().Add(time.Hour))).To(Succeed())
			Expect(service.RecordLogin(8, "token-3", "", "", time.Now().Add(time.Hour))).To(Succeed())

			closed, err := service.CloseAllSessions(7)
			Expect(err).NotTo(HaveOccurred())
			Expect(closed).To(Equal(int64(2)))

			revoked, err := service.IsSessionRevoked("token-3")
			Expect(err).NotTo(HaveOccurred())
			Expect(revoked).To(BeFalse())
		})
	})

	Describe("ListAccessLogs", func() {
		It("filters by user and outcome", func() {
			userID := int64(7)
			otherID := int64(8)
			service.LogAccess(audit.Entry{UserID: &userID, EndpointPath: "/a", HTTPMethod: "GET", Success: true})
			service.LogAccess(audit.Entry{UserID: &userID, EndpointPath: "/b", HTTPMethod: "GET", Success: false})
			service.LogAccess(audit.Entry{UserID: &otherID, EndpointPath: "/c", HTTPMethod: "GET", Success: true})

			success := false
			logs, err := service.ListAccessLogs(audit.AccessLogFilter{UserID: &userID, Success: &success})
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].EndpointPath).To(Equal("/b"))
		})
	})
})
