package middleware_test

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/admission-portal/internal"
	"github.com/frahmantamala/admission-portal/internal/audit"
	"github.com/frahmantamala/admission-portal/internal/auth"
	acDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/accesscontrol"
	stageDatamodel "github.com/frahmantamala/admission-portal/internal/core/datamodel/stage"
	"github.com/frahmantamala/admission-portal/internal/transport/middleware"
)

func TestGate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "AccessGate Suite")
}

type stubVerifier struct {
	claims *auth.Claims
	err    error
}

func (s *stubVerifier) VerifyAccessToken(string) (*auth.Claims, error) {
	return s.claims, s.err
}

type stubResolver struct {
	user *internal.CurrentUser
	err  error
}

func (s *stubResolver) ResolveCurrentUser(int64) (*internal.CurrentUser, error) {
	return s.user, s.err
}

type stubStages struct {
	current *stageDatamodel.Stage
	err     error
}

func (s *stubStages) BlockedStage(path string) (*stageDatamodel.Stage, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	if s.current == nil {
		return nil, false, nil
	}
	return s.current, s.current.BlockedEndpoints.Contains(path), nil
}

type stubRegistry struct {
	allowed bool
	err     error
}

func (s *stubRegistry) CheckEndpointAccess(*internal.CurrentUser, string, string) (bool, error) {
	return s.allowed, s.err
}

type captureAuditor struct {
	entries []audit.Entry
}

func (c *captureAuditor) LogAccess(entry audit.Entry) {
	c.entries = append(c.entries, entry)
}

var _ = Describe("AccessGate", func() {
	var (
		verifier *stubVerifier
		resolver *stubResolver
		stages   *stubStages
		registry *stubRegistry
		auditor  *captureAuditor
		gate     *middleware.AccessGate
		lg       *slog.Logger

		downstreamCalled bool
		downstreamUser   *internal.CurrentUser
		handler          http.Handler
	)

	BeforeEach(func() {
		verifier = &stubVerifier{err: internal.ErrInvalidToken}
		resolver = &stubResolver{}
		stages = &stubStages{}
		registry = &stubRegistry{allowed: true}
		auditor = &captureAuditor{}
		lg = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		gate = middleware.NewAccessGate(verifier, resolver, stages, registry, auditor, lg)

		downstreamCalled = false
		downstreamUser = nil
		handler = gate.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			downstreamCalled = true
			downstreamUser, _ = internal.UserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
	})

	login := func(userID int64, permissions ...string) {
		verifier.claims = &auth.Claims{UserID: userID}
		verifier.err = nil
		resolver.user = &internal.CurrentUser{ID: userID, Role: "admin", Permissions: permissions}
	}

	do := func(method, path string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "192.0.2.10:54321"
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("bypasses the gate for skip-listed paths without an audit row", func() {
		rec := do(http.MethodPost, "/api/v1/auth/login", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(downstreamCalled).To(BeTrue())
		Expect(auditor.entries).To(BeEmpty())
	})

	It("passes anonymous requests through with a null-user audit row", func() {
		rec := do(http.MethodGet, "/api/v1/students", nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(downstreamCalled).To(BeTrue())
		Expect(downstreamUser).To(BeNil())
		Expect(auditor.entries).To(HaveLen(1))
		Expect(auditor.entries[0].UserID).To(BeNil())
		Expect(auditor.entries[0].Success).To(BeTrue())
	})

	It("treats an invalid token as anonymous rather than an error", func() {
		rec := do(http.MethodGet, "/api/v1/students", map[string]string{"Authorization": "Bearer garbage"})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(downstreamUser).To(BeNil())
	})

	It("resolves identity into the request context", func() {
		login(7, "student_read")

		rec := do(http.MethodGet, "/api/v1/students", map[string]string{"Authorization": "Bearer token"})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(downstreamUser).NotTo(BeNil())
		Expect(downstreamUser.ID).To(Equal(int64(7)))
		Expect(*auditor.entries[0].UserID).To(Equal(int64(7)))
	})

	Describe("stage gate", func() {
		BeforeEach(func() {
			stages.current = &stageDatamodel.Stage{
				Name:             "College Registration",
				Description:      "Stage 1: Colleges can register and submit their details",
				BlockedEndpoints: acDatamodel.StringList{"/api/v1/students/submit"},
			}
		})

		It("blocks a listed endpoint for anonymous callers", func() {
			rec := do(http.MethodPost, "/api/v1/students/submit", nil)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(downstreamCalled).To(BeFalse())
			Expect(rec.Body.String()).To(ContainSubstring("Endpoint blocked in current stage"))
			Expect(rec.Body.String()).To(ContainSubstring("College Registration"))
			Expect(rec.Body.String()).To(ContainSubstring("blocked_endpoints"))
		})

		It("blocks a listed endpoint regardless of identity", func() {
			login(1, "system_admin")

			rec := do(http.MethodPost, "/api/v1/students/submit", map[string]string{"Authorization": "Bearer token"})

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(downstreamCalled).To(BeFalse())
			Expect(auditor.entries).To(HaveLen(1))
			Expect(auditor.entries[0].Success).To(BeFalse())
			Expect(auditor.entries[0].ResponseStatus).To(Equal(http.StatusForbidden))
		})

		It("leaves unlisted endpoints alone", func() {
			rec := do(http.MethodGet, "/api/v1/students", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("does not block when the stage store errors", func() {
			stages.err = errors.New("connection refused")
			rec := do(http.MethodPost, "/api/v1/students/submit", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("registry gate", func() {
		It("denies an identified caller the registry rejects", func() {
			login(7, "student_read")
			registry.allowed = false

			rec := do(http.MethodGet, "/api/v1/admin", map[string]string{"Authorization": "Bearer token"})

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(downstreamCalled).To(BeFalse())
			Expect(auditor.entries[0].Success).To(BeFalse())
		})

		It("fails closed when the registry errors", func() {
			login(7, "student_read")
			registry.err = errors.New("connection refused")

			rec := do(http.MethodGet, "/api/v1/admin", map[string]string{"Authorization": "Bearer token"})

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(downstreamCalled).To(BeFalse())
		})

		It("skips the registry for anonymous requests", func() {
			registry.allowed = false
			rec := do(http.MethodGet, "/api/v1/admin", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("audit row", func() {
		It("writes exactly one row with method, action, resource and timing", func() {
			login(7, "student_read")

			do(http.MethodPost, "/api/v1/students", map[string]string{
				"Authorization": "Bearer token",
				"User-Agent":    "curl/8",
			})

			Expect(auditor.entries).To(HaveLen(1))
			entry := auditor.entries[0]
			Expect(entry.HTTPMethod).To(Equal(http.MethodPost))
			Expect(entry.Action).To(Equal(acDatamodel.AuditCreate))
			Expect(entry.ResourceType).NotTo(BeNil())
			Expect(*entry.ResourceType).To(Equal(acDatamodel.ResourceStudent))
			Expect(entry.UserAgent).To(Equal("curl/8"))
			Expect(entry.ExecutionTimeMs).To(BeNumerically(">=", 0))
		})

		It("records the downstream failure status", func() {
			handler = gate.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
			}))

			do(http.MethodPost, "/api/v1/students", nil)

			Expect(auditor.entries).To(HaveLen(1))
			Expect(auditor.entries[0].Success).To(BeFalse())
			Expect(auditor.entries[0].ResponseStatus).To(Equal(http.StatusConflict))
			Expect(auditor.entries[0].ErrorMessage).To(Equal(http.StatusText(http.StatusConflict)))
		})

		It("records the 500 the client receives when the downstream handler panics", func() {
			handler = middleware.RecoveryMiddleware(lg)(gate.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("student lookup exploded")
			})))

			rec := do(http.MethodGet, "/api/v1/students", nil)

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(auditor.entries).To(HaveLen(1))
			Expect(auditor.entries[0].Success).To(BeFalse())
			Expect(auditor.entries[0].ResponseStatus).To(Equal(http.StatusInternalServerError))
			Expect(auditor.entries[0].ErrorMessage).To(Equal("student lookup exploded"))
		})

		It("prefers the first X-Forwarded-For hop for the client IP", func() {
			do(http.MethodGet, "/api/v1/students", map[string]string{
				"X-Forwarded-For": "203.0.113.7, 10.0.0.2",
				"X-Real-IP":       "10.0.0.9",
			})
			Expect(auditor.entries[0].RequestIP).To(Equal("203.0.113.7"))
		})

		It("falls back to X-Real-IP then the peer address", func() {
			do(http.MethodGet, "/api/v1/students", map[string]string{"X-Real-IP": "10.0.0.9"})
			Expect(auditor.entries[0].RequestIP).To(Equal("10.0.0.9"))

			do(http.MethodGet, "/api/v1/students", nil)
			Expect(auditor.entries[1].RequestIP).To(Equal("192.0.2.10"))
		})
	})
})
