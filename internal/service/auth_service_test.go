package service

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "timetable-api"})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	token, expiresAt, err := svc.IssueToken("registrar", models.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "registrar", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "timetable-api", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthServiceRejectsBadInput(t *testing.T) {
	svc := newTestAuthService()

	_, _, err := svc.IssueToken("", models.RoleAdmin)
	assert.Error(t, err)
	_, _, err = svc.IssueToken("ops", models.UserRole("ROOT"))
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-token")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	svc := newTestAuthService()

	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", AccessTokenExpiry: time.Hour, Issuer: "timetable-api"})
	token, _, err := other.IssueToken("ops", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	wrongIssuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "elsewhere"})
	token, _, err = wrongIssuer.IssueToken("ops", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	expired := newTestAuthService()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.IssueToken("ops", models.RoleViewer)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
