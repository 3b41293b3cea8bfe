package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kawasumi/task-tracker-api/internal/constants"
	"github.com/kawasumi/task-tracker-api/internal/database"
	"github.com/kawasumi/task-tracker-api/internal/dto"
	"github.com/kawasumi/task-tracker-api/internal/middleware"
	"github.com/kawasumi/task-tracker-api/internal/models"
	"github.com/kawasumi/task-tracker-api/internal/repository"
	"github.com/kawasumi/task-tracker-api/internal/services"
	"github.com/kawasumi/task-tracker-api/internal/validation"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *TaskHandler
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	gin.SetMode(gin.TestMode)
	validation.Init()

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(&models.User{}, &models.Task{})
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	userRepo := repository.NewUserRepository(suite.db)
	taskRepo := repository.NewTaskRepository(suite.db)
	suite.handler = NewTaskHandler(services.NewTaskService(taskRepo, userRepo))
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskHandlerTestSuite) createTestUser(username, email string) *models.User {
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hashedpassword",
	}
	suite.db.Create(user)
	return user
}

func (suite *TaskHandlerTestSuite) createTestTask(title string, creatorID uint64, assigneeID *uint64) *models.Task {
	task := &models.Task{
		Title:       title,
		Description: "Test Description",
		CreatorID:   creatorID,
		AssigneeID:  assigneeID,
	}
	suite.db.Create(task)
	return task
}

// newRouter builds the task routes with the given user already
// authenticated, mirroring the production route wiring.
func (suite *TaskHandlerTestSuite) newRouter(userID uint64) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
	})
	r.GET("/api/tasks", suite.handler.ListTasks)
	r.POST("/api/tasks", suite.handler.CreateTask)
	r.GET("/api/tasks/:id", middleware.RequireTaskAccess(), suite.handler.GetTask)
	r.PATCH("/api/tasks/:id", middleware.RequireTaskAccess(), suite.handler.UpdateTask)
	r.DELETE("/api/tasks/:id", middleware.RequireTaskAccess(), suite.handler.DeleteTask)
	r.POST("/api/tasks/:id/start", middleware.RequireTaskAccess(), suite.handler.StartTask)
	r.POST("/api/tasks/:id/complete", middleware.RequireTaskAccess(), suite.handler.CompleteTask)
	return r
}

func (suite *TaskHandlerTestSuite) do(r *gin.Engine, method, url string, payload interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if payload != nil {
		body, err := json.Marshal(payload)
		suite.Require().NoError(err)
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) TestCreateTask_EndToEnd() {
	alice := suite.createTestUser("alice", "alice@x.com")
	r := suite.newRouter(alice.ID)

	dueDate := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	w := suite.do(r, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":    "Test Task",
		"type":     "individual",
		"priority": "high",
		"due_date": dueDate,
	})

	suite.Equal(http.StatusCreated, w.Code)

	var created dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	suite.Equal("Test Task", created.Title)
	suite.Equal(alice.ID, created.CreatorID)
	suite.Equal(models.PriorityHigh, created.Priority)
	suite.Equal(models.TaskTypeIndividual, created.Type)
	suite.Equal(models.TaskStateCreated, created.State)

	// The task shows up in alice's list.
	w = suite.do(r, http.MethodGet, "/api/tasks", nil)
	suite.Equal(http.StatusOK, w.Code)

	var list dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	suite.Require().Len(list.Tasks, 1)
	suite.Equal(created.ID, list.Tasks[0].ID)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_PastDueDateRejected() {
	alice := suite.createTestUser("alice", "alice@x.com")
	r := suite.newRouter(alice.ID)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	w := suite.do(r, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":    "Late Task",
		"due_date": yesterday,
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "VALIDATION_FAILED")

	// No row was persisted.
	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.EqualValues(0, count)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_EndBeforeStartRejected() {
	alice := suite.createTestUser("alice", "alice@x.com")
	r := suite.newRouter(alice.ID)

	start := time.Now().Add(2 * time.Hour).Format(time.RFC3339)
	end := time.Now().Add(1 * time.Hour).Format(time.RFC3339)
	w := suite.do(r, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":      "Backwards Task",
		"start_time": start,
		"end_time":   end,
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "VALIDATION_FAILED")
}

func (suite *TaskHandlerTestSuite) TestCreateTask_AssigneeMustExist() {
	alice := suite.createTestUser("alice", "alice@x.com")
	r := suite.newRouter(alice.ID)

	w := suite.do(r, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":       "Orphan Assignment",
		"assignee_id": uint64(9999),
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "VALIDATION_FAILED")
}

func (suite *TaskHandlerTestSuite) TestOutsiderDeniedEverywhere() {
	alice := suite.createTestUser("alice", "alice@x.com")
	bob := suite.createTestUser("bob", "bob@x.com")
	task := suite.createTestTask("Alice's Task", alice.ID, nil)

	r := suite.newRouter(bob.ID)
	base := fmt.Sprintf("/api/tasks/%d", task.ID)

	requests := []struct {
		method string
		url    string
		body   interface{}
	}{
		{http.MethodPatch, base, map[string]interface{}{"title": "Hijacked"}},
		{http.MethodDelete, base, nil},
		{http.MethodPost, base + "/start", nil},
		{http.MethodPost, base + "/complete", nil},
	}

	for _, req := range requests {
		w := suite.do(r, req.method, req.url, req.body)
		suite.Equal(http.StatusForbidden, w.Code, "%s %s", req.method, req.url)
	}

	// The row is untouched.
	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Equal("Alice's Task", stored.Title)
	suite.Nil(stored.StartTime)
	suite.Nil(stored.EndTime)
}

func (suite *TaskHandlerTestSuite) TestAssigneeCanAct() {
	alice := suite.createTestUser("alice", "alice@x.com")
	bob := suite.createTestUser("bob", "bob@x.com")
	task := suite.createTestTask("Shared Task", alice.ID, &bob.ID)

	r := suite.newRouter(bob.ID)

	w := suite.do(r, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID),
		map[string]interface{}{"title": "Updated by assignee"})
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/start", task.ID), nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *TaskHandlerTestSuite) TestStartTask_Idempotent() {
	alice := suite.createTestUser("alice", "alice@x.com")
	task := suite.createTestTask("Timed Task", alice.ID, nil)
	r := suite.newRouter(alice.ID)

	url := fmt.Sprintf("/api/tasks/%d/start", task.ID)

	w := suite.do(r, http.MethodPost, url, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.NotContains(w.Body.String(), "warning")

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Require().NotNil(stored.StartTime)
	firstStart := *stored.StartTime

	// Second start: warning, start time unchanged.
	w = suite.do(r, http.MethodPost, url, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "warning")

	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Require().NotNil(stored.StartTime)
	suite.True(firstStart.Equal(*stored.StartTime))
}

func (suite *TaskHandlerTestSuite) TestCompleteTask_BeforeStartAllowed() {
	alice := suite.createTestUser("alice", "alice@x.com")
	task := suite.createTestTask("Skipped Task", alice.ID, nil)
	r := suite.newRouter(alice.ID)

	w := suite.do(r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/complete", task.ID), nil)
	suite.Equal(http.StatusOK, w.Code)

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Nil(stored.StartTime)
	suite.NotNil(stored.EndTime)
	suite.Equal(models.TaskStateCompleted, stored.State())

	// Completing again is a warning no-op.
	w = suite.do(r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/complete", task.ID), nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "warning")
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_TimerFieldsRejected() {
	alice := suite.createTestUser("alice", "alice@x.com")
	task := suite.createTestTask("Guarded Task", alice.ID, nil)
	r := suite.newRouter(alice.ID)

	w := suite.do(r, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID),
		map[string]interface{}{
			"start_time": time.Now().Add(time.Hour).Format(time.RFC3339),
		})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "VALIDATION_FAILED")

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.Nil(stored.StartTime)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_OutsiderForbiddenRowSurvives() {
	alice := suite.createTestUser("alice", "alice@x.com")
	bob := suite.createTestUser("bob", "bob@x.com")
	task := suite.createTestTask("Protected Task", alice.ID, nil)

	w := suite.do(suite.newRouter(bob.ID), http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	suite.Equal(http.StatusForbidden, w.Code)

	var count int64
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.EqualValues(1, count)

	// The creator can delete it.
	w = suite.do(suite.newRouter(alice.ID), http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	suite.Equal(http.StatusOK, w.Code)

	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.EqualValues(0, count)
}

func (suite *TaskHandlerTestSuite) TestListTasks_VisibilityIsCreatorOrAssignee() {
	alice := suite.createTestUser("alice", "alice@x.com")
	bob := suite.createTestUser("bob", "bob@x.com")
	carol := suite.createTestUser("carol", "carol@x.com")

	suite.createTestTask("Alice's own", alice.ID, nil)
	suite.createTestTask("Assigned to alice", bob.ID, &alice.ID)
	suite.createTestTask("Bob's private", bob.ID, nil)

	w := suite.do(suite.newRouter(alice.ID), http.MethodGet, "/api/tasks", nil)
	suite.Equal(http.StatusOK, w.Code)

	var list dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	suite.Len(list.Tasks, 2)

	w = suite.do(suite.newRouter(carol.ID), http.MethodGet, "/api/tasks", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	suite.Len(list.Tasks, 0)
}

func (suite *TaskHandlerTestSuite) TestGetTask_NotFound() {
	alice := suite.createTestUser("alice", "alice@x.com")

	w := suite.do(suite.newRouter(alice.ID), http.MethodGet, "/api/tasks/9999", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
