package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type stubResolver struct {
	permissions map[string][]string
	err         error
}

func (s *stubResolver) RolePermissions(roleName string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.permissions[roleName], nil
}

var _ = ginkgo.Describe("Guard", func() {
	var (
		guard    *Guard
		resolver *stubResolver
		okCalled bool
		handler  http.Handler
	)

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		okCalled = true
		w.WriteHeader(http.StatusOK)
	})

	request := func(p *Principal) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if p != nil {
			req = req.WithContext(ContextWithPrincipal(req.Context(), p))
		}
		return req
	}

	ginkgo.BeforeEach(func() {
		okCalled = false
		resolver = &stubResolver{
			permissions: map[string][]string{
				RoleAdmin:   {"read:report", "delete:user"},
				RoleManager: {"read:report"},
				RoleUser:    {"read:activity"},
			},
		}
		guard = NewGuard(resolver, testLogger)
	})

	ginkgo.Describe("HasPermission", func() {
		ginkgo.It("should match only the exact action and subject pair", func() {
			permissions := []string{"read:report", "create:activity"}

			gomega.Expect(HasPermission(permissions, "read", "report")).To(gomega.BeTrue())
			gomega.Expect(HasPermission(permissions, "read", "activity")).To(gomega.BeFalse())
			gomega.Expect(HasPermission(permissions, "delete", "report")).To(gomega.BeFalse())
		})

		ginkgo.It("should not treat any permission as a wildcard", func() {
			gomega.Expect(HasPermission([]string{"*:*", "admin"}, "read", "report")).To(gomega.BeFalse())
		})

		ginkgo.It("should reject on an empty set", func() {
			gomega.Expect(HasPermission(nil, "read", "report")).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("RequireRoles", func() {
		ginkgo.BeforeEach(func() {
			handler = guard.RequireRoles(RoleAdmin)(okHandler)
		})

		ginkgo.It("should pass through a principal holding an allowed role", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(&Principal{ID: 1, Role: RoleAdmin}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(okCalled).To(gomega.BeTrue())
		})

		ginkgo.It("should return 403 for a known principal with a different role", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(&Principal{ID: 2, Role: RoleUser}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(okCalled).To(gomega.BeFalse())
		})

		ginkgo.It("should return 401 when no principal is in context", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(okCalled).To(gomega.BeFalse())
		})

		ginkgo.It("should accept any role from the allow-list", func() {
			multi := guard.RequireRoles(RoleAdmin, RoleManager)(okHandler)

			rec := httptest.NewRecorder()
			multi.ServeHTTP(rec, request(&Principal{ID: 3, Role: RoleManager}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})

	ginkgo.Describe("RequirePermission", func() {
		ginkgo.BeforeEach(func() {
			handler = guard.RequirePermission("read", "report")(okHandler)
		})

		ginkgo.It("should pass through when the role currently holds the permission", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(&Principal{ID: 3, Role: RoleManager}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(okCalled).To(gomega.BeTrue())
		})

		ginkgo.It("should return 403 when the permission is missing", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(&Principal{ID: 2, Role: RoleUser}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(okCalled).To(gomega.BeFalse())
		})

		ginkgo.It("should return 401 when no principal is in context", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should reflect a permission revoked after token issuance", func() {
			resolver.permissions[RoleManager] = nil

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(&Principal{ID: 3, Role: RoleManager}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("should return 500 when the permission lookup fails", func() {
			resolver.err = errors.New("store down")

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(&Principal{ID: 3, Role: RoleManager}))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
		})
	})

	ginkgo.Describe("HasRole", func() {
		ginkgo.It("should compare role names exactly", func() {
			p := &Principal{ID: 1, Role: RoleManager}

			gomega.Expect(HasRole(p, []string{RoleManager})).To(gomega.BeTrue())
			gomega.Expect(HasRole(p, []string{RoleAdmin})).To(gomega.BeFalse())
			gomega.Expect(HasRole(p, []string{"manager"})).To(gomega.BeFalse())
		})
	})
})
