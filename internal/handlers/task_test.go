package handlers

import (
	"fmt"
	"net/http"

	"github.com/yukikurage/tenant-task-api/internal/dto"
	apierrors "github.com/yukikurage/tenant-task-api/internal/errors"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/testutil"
)

func (suite *APITestSuite) TestCreateTask() {
	w := suite.request(http.MethodPost, "/api/tasks", map[string]string{
		"title":       "Write report",
		"description": "Quarterly numbers",
		"assignedTo":  "worker@acme.test",
		"priority":    "high",
		"dueDate":     "2030-03-01",
		"tenantId":    "globex",
		"assignedBy":  "someone-else",
	}, suite.manager)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal("acme", task.TenantID)
	suite.Equal(suite.employee.ID, task.AssignedTo)
	suite.Equal(suite.manager.ID, task.AssignedBy)
	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Equal(models.TaskPriorityHigh, task.Priority)
	suite.Require().NotNil(task.Assignee)
	suite.Equal("worker@acme.test", task.Assignee.Email)

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, "id = ?", task.ID).Error)
	suite.Equal("acme", stored.TenantID)
	suite.Equal(suite.manager.ID, stored.AssignedBy)
}

func (suite *APITestSuite) TestCreateTask_Validation() {
	w := suite.request(http.MethodPost, "/api/tasks", map[string]string{
		"title": "No description",
	}, suite.manager)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)
	suite.Contains(w.Body.String(), `"field":"description"`)
	suite.Contains(w.Body.String(), `"field":"assignedTo"`)

	foreign := testutil.CreateUser(suite.T(), suite.db, "globex", "g@globex.test", models.RoleEmployee)
	w = suite.request(http.MethodPost, "/api/tasks", map[string]string{
		"title":       "Leak",
		"description": "Cross tenant",
		"assignedTo":  foreign.ID,
	}, suite.manager)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)

	w = suite.request(http.MethodPost, "/api/tasks", map[string]string{
		"title":       "Bad date",
		"description": "D",
		"assignedTo":  suite.employee.ID,
		"dueDate":     "tomorrow",
	}, suite.manager)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)
	suite.Contains(w.Body.String(), `"field":"dueDate"`)
}

func (suite *APITestSuite) TestListTasks_Pagination() {
	for i := 0; i < 25; i++ {
		testutil.CreateTask(suite.T(), suite.db, fmt.Sprintf("Task %02d", i), suite.employee, suite.manager)
	}

	w := suite.request(http.MethodGet, "/api/tasks?page=3&limit=10", nil, suite.manager)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var page dto.TaskListResponse
	suite.decode(w, &page)
	suite.Len(page.Tasks, 5)
	suite.Equal(3, page.Pagination.CurrentPage)
	suite.Equal(3, page.Pagination.TotalPages)
	suite.EqualValues(25, page.Pagination.TotalTasks)
	suite.False(page.Pagination.HasNextPage)
	suite.True(page.Pagination.HasPrevPage)

	w = suite.request(http.MethodGet, "/api/tasks?page=4&limit=10", nil, suite.manager)
	suite.assertError(w, http.StatusNotFound, apierrors.ErrCodePageOutOfRange)

	w = suite.request(http.MethodGet, "/api/tasks?page=abc", nil, suite.manager)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)

	w = suite.request(http.MethodGet, "/api/tasks?limit=500", nil, suite.manager)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)
}

func (suite *APITestSuite) TestListTasks_EmptyTenant() {
	w := suite.request(http.MethodGet, "/api/tasks", nil, suite.manager)
	suite.Require().Equal(http.StatusOK, w.Code)

	var page dto.TaskListResponse
	suite.decode(w, &page)
	suite.Empty(page.Tasks)
	suite.True(page.Pagination.NoResults)
	suite.Equal(0, page.Pagination.TotalPages)
}

func (suite *APITestSuite) TestListTasks_EmployeeScope() {
	testutil.CreateTask(suite.T(), suite.db, "Theirs", suite.manager, suite.manager)
	testutil.CreateTask(suite.T(), suite.db, "Mine", suite.employee, suite.manager)

	w := suite.request(http.MethodGet, "/api/tasks?assignedTo="+suite.manager.ID, nil, suite.employee)
	suite.Require().Equal(http.StatusOK, w.Code)

	var page dto.TaskListResponse
	suite.decode(w, &page)
	suite.Require().Len(page.Tasks, 1)
	suite.Equal("Mine", page.Tasks[0].Title)
}

func (suite *APITestSuite) TestListTasks_SortAndFilter() {
	low := testutil.CreateTask(suite.T(), suite.db, "Low", suite.employee, suite.manager)
	urgent := testutil.CreateTask(suite.T(), suite.db, "Urgent", suite.employee, suite.manager)
	suite.Require().NoError(suite.db.Model(low).Update("priority", models.TaskPriorityLow).Error)
	suite.Require().NoError(suite.db.Model(urgent).Update("priority", models.TaskPriorityUrgent).Error)

	w := suite.request(http.MethodGet, "/api/tasks?sortBy=priority&sortOrder=desc", nil, suite.manager)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page dto.TaskListResponse
	suite.decode(w, &page)
	suite.Require().Len(page.Tasks, 2)
	suite.Equal("Urgent", page.Tasks[0].Title)

	w = suite.request(http.MethodGet, "/api/tasks?priority=low", nil, suite.manager)
	suite.decode(w, &page)
	suite.Require().Len(page.Tasks, 1)
	suite.Equal("Low", page.Tasks[0].Title)

	w = suite.request(http.MethodGet, "/api/tasks?sortBy=secret", nil, suite.manager)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)
}

func (suite *APITestSuite) TestGetTask() {
	task := testutil.CreateTask(suite.T(), suite.db, "Visible", suite.employee, suite.manager)
	foreign := testutil.CreateUser(suite.T(), suite.db, "globex", "g@globex.test", models.RoleManager)

	w := suite.request(http.MethodGet, "/api/tasks/"+task.ID, nil, suite.employee)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/"+task.ID, nil, foreign)
	suite.assertError(w, http.StatusForbidden, apierrors.ErrCodeForbidden)

	w = suite.request(http.MethodGet, "/api/tasks/does-not-exist", nil, suite.manager)
	suite.assertError(w, http.StatusNotFound, apierrors.ErrCodeNotFound)
}

func (suite *APITestSuite) TestUpdateTaskStatus() {
	task := testutil.CreateTask(suite.T(), suite.db, "Flow", suite.employee, suite.manager)
	url := "/api/tasks/" + task.ID + "/status"

	w := suite.request(http.MethodPatch, url, map[string]string{"status": "in-progress"}, suite.manager)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), `"status":"in-progress"`)

	w = suite.request(http.MethodPatch, url, map[string]string{"status": "pending"}, suite.manager)
	suite.assertError(w, http.StatusConflict, apierrors.ErrCodeInvalidTransition)

	w = suite.request(http.MethodPatch, url, map[string]string{"status": "archived"}, suite.manager)
	suite.assertError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput)

	w = suite.request(http.MethodPatch, "/api/tasks/missing/status", map[string]string{"status": "completed"}, suite.manager)
	suite.assertError(w, http.StatusNotFound, apierrors.ErrCodeNotFound)
}

func (suite *APITestSuite) TestDeleteTask() {
	task := testutil.CreateTask(suite.T(), suite.db, "Doomed", suite.employee, suite.manager)
	foreign := testutil.CreateUser(suite.T(), suite.db, "globex", "g@globex.test", models.RoleManager)

	w := suite.request(http.MethodDelete, "/api/tasks/"+task.ID, nil, foreign)
	suite.assertError(w, http.StatusForbidden, apierrors.ErrCodeForbidden)

	w = suite.request(http.MethodDelete, "/api/tasks/"+task.ID, nil, suite.manager)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodDelete, "/api/tasks/"+task.ID, nil, suite.manager)
	suite.assertError(w, http.StatusNotFound, apierrors.ErrCodeNotFound)
}
