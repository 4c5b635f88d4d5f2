package handlers

import (
	"net/http"
	"strings"

	"github.com/yukikurage/tenant-task-api/internal/constants"
	"github.com/yukikurage/tenant-task-api/internal/dto"
	apierrors "github.com/yukikurage/tenant-task-api/internal/errors"
)

func (suite *APITestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/health", nil, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestSignup() {
	w := suite.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"tenantId": "globex",
		"email":    "hank@globex.test",
		"password": "supersecret",
	}, nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var user dto.UserDTO
	suite.decode(w, &user)
	suite.Equal("globex", user.TenantID)
	suite.Equal("manager", string(user.Role))
	suite.NotContains(w.Body.String(), "password")
}

func (suite *APITestSuite) TestSignup_Errors() {
	w := suite.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "not-an-email",
		"password": "supersecret",
	}, nil)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)
	suite.Contains(w.Body.String(), `"field":"email"`)

	w = suite.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "boss@acme.test",
		"password": "supersecret",
	}, nil)
	suite.assertError(w, http.StatusConflict, apierrors.ErrCodeAlreadyExists)

	w = suite.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"tenantId": "acme",
		"email":    "fresh@acme.test",
		"password": "supersecret",
	}, nil)
	suite.assertError(w, http.StatusConflict, apierrors.ErrCodeConflict)

	w = suite.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "short@pw.test",
		"password": "short",
	}, nil)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)
	suite.Contains(w.Body.String(), `"field":"password"`)
}

func (suite *APITestSuite) TestLogin_SetsCookie() {
	w := suite.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "boss@acme.test",
		"password": "password123",
	}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var token *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == constants.TokenCookieName {
			token = c
		}
	}
	suite.Require().NotNil(token)
	suite.True(token.HttpOnly)
	suite.Equal(http.SameSiteLaxMode, token.SameSite)
	suite.NotEmpty(token.Value)
	suite.Contains(w.Body.String(), `"tenantId":"acme"`)

	me, _ := http.NewRequest(http.MethodGet, "/api/auth/me", nil)
	me.AddCookie(token)
	suite.Equal(http.StatusOK, suite.serve(me).Code)
}

func (suite *APITestSuite) TestLogin_InvalidCredentials() {
	w := suite.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "boss@acme.test",
		"password": "wrong-password",
	}, nil)
	suite.assertError(w, http.StatusUnauthorized, apierrors.ErrCodeInvalidCredentials)

	w = suite.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@acme.test",
		"password": "password123",
	}, nil)
	suite.assertError(w, http.StatusUnauthorized, apierrors.ErrCodeInvalidCredentials)
}

func (suite *APITestSuite) TestMe() {
	w := suite.request(http.MethodGet, "/api/auth/me", nil, suite.employee)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "worker@acme.test")
}

func (suite *APITestSuite) TestLogout_RevokesCookieToken() {
	token := suite.tokenFor(suite.manager)

	logout, _ := http.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	logout.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: token})
	w := suite.serve(logout)
	suite.Equal(http.StatusOK, w.Code)
	suite.True(strings.Contains(w.Header().Get("Set-Cookie"), constants.TokenCookieName+"="))

	me, _ := http.NewRequest(http.MethodGet, "/api/auth/me", nil)
	me.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: token})
	suite.Equal(http.StatusUnauthorized, suite.serve(me).Code)

	anonymous := suite.request(http.MethodPost, "/api/auth/logout", nil, nil)
	suite.Equal(http.StatusOK, anonymous.Code)
}
