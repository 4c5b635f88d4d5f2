package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tenant-task-api/internal/auth"
	"github.com/yukikurage/tenant-task-api/internal/constants"
	apierrors "github.com/yukikurage/tenant-task-api/internal/errors"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/repository"
	"github.com/yukikurage/tenant-task-api/internal/services"
	"github.com/yukikurage/tenant-task-api/internal/testutil"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	credentials *auth.CredentialService
	revocations *repository.MemoryRevocationStore
	router      *gin.Engine
	users       map[models.Role]*models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		db:          testutil.NewDB(t),
		credentials: auth.NewCredentialService("test-secret", time.Hour, "test"),
		revocations: repository.NewMemoryRevocationStore(),
	}
	testutil.CreateTenant(t, f.db, "acme")
	f.users = map[models.Role]*models.User{
		models.RoleManager:  testutil.CreateUser(t, f.db, "acme", "boss@acme.test", models.RoleManager),
		models.RoleEmployee: testutil.CreateUser(t, f.db, "acme", "worker@acme.test", models.RoleEmployee),
	}
	authSvc := services.NewAuthService(repository.NewUserRepository(f.db), f.credentials, f.revocations)

	f.router = gin.New()
	f.router.Use(RequestID())
	f.router.GET("/me", RequireAuth(authSvc), func(c *gin.Context) {
		claims, _ := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"uid": claims.UserID, "tid": claims.TenantID})
	})
	f.router.GET("/admin", RequireAuth(authSvc), RequireRole(models.RoleManager), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	f.router.GET("/optional", OptionalAuth(authSvc), func(c *gin.Context) {
		_, ok := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	return f
}

func (f *fixture) issue(t *testing.T, role models.Role) string {
	t.Helper()
	token, _, err := f.credentials.Issue(f.users[role].ID, role, "acme")
	require.NoError(t, err)
	return token
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var body apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth_Cookie(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: f.issue(t, models.RoleEmployee)})

	w := f.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tid":"acme"`)
	assert.NotEmpty(t, w.Header().Get(constants.RequestIDHeader))
}

func TestRequireAuth_BearerFallback(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.issue(t, models.RoleEmployee))

	assert.Equal(t, http.StatusOK, f.do(req).Code)
}

func TestRequireAuth_Rejections(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, decodeError(t, w).Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	expired, _, err := f.credentials.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}).Issue(f.users[models.RoleManager].ID, models.RoleManager, "acme")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: expired})
	w = f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeTokenExpired, decodeError(t, w).Code)
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	f := newFixture(t)
	token := f.issue(t, models.RoleManager)
	claims, err := f.credentials.Verify(token)
	require.NoError(t, err)
	require.NoError(t, f.revocations.Revoke(context.Background(), claims.TokenID, claims.ExpiresAt))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: token})
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestRequireAuth_DeletedAccount(t *testing.T) {
	f := newFixture(t)
	token := f.issue(t, models.RoleEmployee)
	require.NoError(t, f.db.Delete(f.users[models.RoleEmployee]).Error)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: token})
	w := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, decodeError(t, w).Code)
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: f.issue(t, models.RoleEmployee)})
	w := f.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apierrors.ErrCodeForbidden, decodeError(t, w).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: f.issue(t, models.RoleManager)})
	assert.Equal(t, http.StatusNoContent, f.do(req).Code)
}

func TestOptionalAuth(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/optional", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: f.issue(t, models.RoleEmployee)})
	assert.Contains(t, f.do(req).Body.String(), `"authenticated":true`)
}

func TestRequestID_ReusesHeader(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set(constants.RequestIDHeader, "req-123")

	assert.Equal(t, "req-123", f.do(req).Header().Get(constants.RequestIDHeader))
}
