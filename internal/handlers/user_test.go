package handlers

import (
	"net/http"

	"github.com/yukikurage/tenant-task-api/internal/dto"
	apierrors "github.com/yukikurage/tenant-task-api/internal/errors"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/testutil"
)

func (suite *APITestSuite) TestEmployeeForbiddenOnManagerRoutes() {
	task := testutil.CreateTask(suite.T(), suite.db, "Task", suite.employee, suite.manager)

	routes := []struct {
		method string
		url    string
		body   any
	}{
		{http.MethodGet, "/api/users", nil},
		{http.MethodPost, "/api/users", map[string]string{"email": "x@acme.test", "password": "password123"}},
		{http.MethodDelete, "/api/users/" + suite.manager.ID, nil},
		{http.MethodPost, "/api/tasks", map[string]string{"title": "T", "description": "D", "assignedTo": suite.employee.ID}},
		{http.MethodPatch, "/api/tasks/" + task.ID + "/status", map[string]string{"status": "in-progress"}},
		{http.MethodDelete, "/api/tasks/" + task.ID, nil},
	}

	for _, rt := range routes {
		w := suite.request(rt.method, rt.url, rt.body, suite.employee)
		suite.assertError(w, http.StatusForbidden, apierrors.ErrCodeForbidden)
	}
}

func (suite *APITestSuite) TestUnauthenticatedRejected() {
	for _, url := range []string{"/api/users", "/api/tasks", "/api/auth/me"} {
		w := suite.request(http.MethodGet, url, nil, nil)
		suite.assertError(w, http.StatusUnauthorized, apierrors.ErrCodeUnauthorized)
	}
}

func (suite *APITestSuite) TestCreateUser() {
	w := suite.request(http.MethodPost, "/api/users", map[string]string{
		"name":     "New Hire",
		"email":    "hire@acme.test",
		"password": "password123",
		"tenantId": "globex",
	}, suite.manager)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var user dto.UserDTO
	suite.decode(w, &user)
	suite.Equal("acme", user.TenantID)
	suite.Equal(models.RoleEmployee, user.Role)

	w = suite.request(http.MethodPost, "/api/users", map[string]string{
		"email":    "hire@acme.test",
		"password": "password123",
	}, suite.manager)
	suite.assertError(w, http.StatusConflict, apierrors.ErrCodeAlreadyExists)

	w = suite.request(http.MethodPost, "/api/users", map[string]string{
		"email":    "bad-role@acme.test",
		"password": "password123",
		"role":     "admin",
	}, suite.manager)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)
}

func (suite *APITestSuite) TestListUsers_TenantScoped() {
	testutil.CreateUser(suite.T(), suite.db, "globex", "g@globex.test", models.RoleEmployee)

	w := suite.request(http.MethodGet, "/api/users", nil, suite.manager)
	suite.Require().Equal(http.StatusOK, w.Code)

	var body struct {
		Users []dto.UserDTO `json:"users"`
	}
	suite.decode(w, &body)
	suite.Len(body.Users, 2)
	suite.NotContains(w.Body.String(), "$2a$")
}

func (suite *APITestSuite) TestDeleteUser() {
	w := suite.request(http.MethodDelete, "/api/users/"+suite.manager.ID, nil, suite.manager)
	suite.assertError(w, http.StatusForbidden, apierrors.ErrCodeInvalidOperation)

	foreign := testutil.CreateUser(suite.T(), suite.db, "globex", "g@globex.test", models.RoleEmployee)
	w = suite.request(http.MethodDelete, "/api/users/"+foreign.ID, nil, suite.manager)
	suite.assertError(w, http.StatusForbidden, apierrors.ErrCodeForbidden)

	w = suite.request(http.MethodDelete, "/api/users/"+suite.employee.ID, nil, suite.manager)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodDelete, "/api/users/"+suite.employee.ID, nil, suite.manager)
	suite.assertError(w, http.StatusNotFound, apierrors.ErrCodeNotFound)
}

func (suite *APITestSuite) TestDeletedManagerTokenRejected() {
	peer := testutil.CreateUser(suite.T(), suite.db, "acme", "peer@acme.test", models.RoleManager)

	w := suite.request(http.MethodDelete, "/api/users/"+peer.ID, nil, suite.manager)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	attempts := []struct {
		method string
		url    string
		body   any
	}{
		{http.MethodDelete, "/api/users/" + suite.employee.ID, nil},
		{http.MethodPost, "/api/tasks", map[string]string{"title": "T", "description": "D", "assignedTo": suite.employee.ID}},
	}
	for _, a := range attempts {
		w = suite.request(a.method, a.url, a.body, peer)
		suite.assertError(w, http.StatusUnauthorized, apierrors.ErrCodeUnauthorized)
	}

	var count int64
	suite.Require().NoError(suite.db.Model(&models.User{}).Where("id = ?", suite.employee.ID).Count(&count).Error)
	suite.EqualValues(1, count)
}
