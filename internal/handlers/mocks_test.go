package handlers_test

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"task-manager/server/internal/middleware"
	"task-manager/server/internal/models"
	"task-manager/server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

var errDatabase = errors.New("database is gone")

type MockTaskService struct {
	shouldReturnError bool
	err               error
	task              *models.Task

	lastActor  *models.User
	lastInput  services.TaskInput
	lastStatus models.Status
	lastFilter *models.Status
	lastItems  []models.ChecklistItem
	deleted    []uuid.UUID
}

func (m *MockTaskService) result() (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.shouldReturnError {
		return nil, errDatabase
	}
	if m.task != nil {
		return m.task, nil
	}
	return &models.Task{ID: uuid.Must(uuid.NewV4()), Title: "Test Task"}, nil
}

func (m *MockTaskService) List(_ context.Context, actor *models.User, status *models.Status) (*services.TaskList, error) {
	m.lastActor = actor
	m.lastFilter = status
	if m.shouldReturnError {
		return nil, errDatabase
	}
	return &services.TaskList{Tasks: []models.Task{}, StatusSummary: services.StatusSummary{All: 3}}, nil
}

func (m *MockTaskService) Get(_ context.Context, id uuid.UUID) (*models.Task, error) {
	return m.result()
}

func (m *MockTaskService) Create(_ context.Context, actor *models.User, input services.TaskInput) (*models.Task, error) {
	m.lastActor = actor
	m.lastInput = input
	return m.result()
}

func (m *MockTaskService) Update(_ context.Context, actor *models.User, id uuid.UUID, input services.TaskInput) (*models.Task, error) {
	m.lastActor = actor
	m.lastInput = input
	return m.result()
}

func (m *MockTaskService) Delete(_ context.Context, id uuid.UUID) error {
	_, err := m.result()
	if err == nil {
		m.deleted = append(m.deleted, id)
	}
	return err
}

func (m *MockTaskService) UpdateStatus(_ context.Context, actor *models.User, id uuid.UUID, status models.Status) (*models.Task, error) {
	m.lastActor = actor
	m.lastStatus = status
	return m.result()
}

func (m *MockTaskService) UpdateChecklist(_ context.Context, actor *models.User, id uuid.UUID, items []models.ChecklistItem) (*models.Task, error) {
	m.lastActor = actor
	m.lastItems = items
	return m.result()
}

func (m *MockTaskService) Overdue(_ context.Context, now time.Time) ([]models.Task, error) {
	return nil, nil
}

type MockAuthService struct {
	err      error
	user     *models.User
	lastReq  services.RegistrationRequest
	lastEdit services.ProfileUpdate
}

func (m *MockAuthService) result() (*services.AuthResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &services.AuthResult{User: m.user, Token: "signed-token"}, nil
}

func (m *MockAuthService) Register(_ context.Context, req services.RegistrationRequest) (*services.AuthResult, error) {
	m.lastReq = req
	return m.result()
}

func (m *MockAuthService) Login(_ context.Context, email, password string) (*services.AuthResult, error) {
	return m.result()
}

func (m *MockAuthService) Profile(_ context.Context, userID uuid.UUID) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *MockAuthService) UpdateProfile(_ context.Context, userID uuid.UUID, update services.ProfileUpdate) (*services.AuthResult, error) {
	m.lastEdit = update
	return m.result()
}

type MockImageSaver struct {
	err error
}

func (m *MockImageSaver) Save(fh *multipart.FileHeader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "1700000000000-" + fh.Filename, nil
}

func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			middleware.SetCurrentUser(c, user)
		}
		c.Next()
	}
}

func testUser(role models.Role) *models.User {
	return &models.User{ID: uuid.Must(uuid.NewV4()), Name: "Tester", Email: "tester@example.com", Role: role}
}
