package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
)

func newGuardedRouter(auth *service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GuardMutations(auth, models.RoleAdmin))
	r.GET("/lessons", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/lessons", func(c *gin.Context) {
		claims := CurrentClaims(c)
		c.String(http.StatusCreated, claims.Subject)
	})
	return r
}

func issue(t *testing.T, auth *service.AuthService, role models.UserRole) string {
	t.Helper()
	token, _, err := auth.IssueToken("registrar", role)
	require.NoError(t, err)
	return token
}

func TestMutationsRequireAdminToken(t *testing.T) {
	auth := service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: "s3cret", AccessTokenExpiry: time.Hour})
	router := newGuardedRouter(auth)

	cases := []struct {
		name   string
		method string
		header string
		status int
	}{
		{name: "read is public", method: http.MethodGet, status: http.StatusOK},
		{name: "missing token", method: http.MethodPost, status: http.StatusUnauthorized},
		{name: "malformed header", method: http.MethodPost, header: "Token abc", status: http.StatusUnauthorized},
		{name: "invalid token", method: http.MethodPost, header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "viewer forbidden", method: http.MethodPost, header: "Bearer " + issue(t, auth, models.RoleViewer), status: http.StatusForbidden},
		{name: "admin allowed", method: http.MethodPost, header: "Bearer " + issue(t, auth, models.RoleAdmin), status: http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/lessons", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusCreated {
				assert.Equal(t, "registrar", rec.Body.String())
			}
		})
	}
}

func TestJWTAndRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: "s3cret", AccessTokenExpiry: time.Hour})
	r := gin.New()
	r.GET("/admin", JWT(auth), RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, auth, models.RoleViewer))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "bearer "+issue(t, auth, models.RoleAdmin))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/ping", "/ping", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)
}

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(Audit(zap.New(core)))
	r.GET("/lessons", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/lessons/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/lessons", func(c *gin.Context) { c.Status(http.StatusConflict) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/lessons", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/lessons", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/lessons/3", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "anonymous", fields["actor"])
	assert.Equal(t, "/lessons/:id", fields["route"])
	assert.Equal(t, int64(http.StatusNoContent), fields["status"])
}
