package services

import (
	"context"
	"testing"
	"time"

	"task-manager/server/internal/config"
	"task-manager/server/internal/database"
	"task-manager/server/internal/models"
	"task-manager/server/internal/repositories"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

type fixture struct {
	users repositories.UserRepository
	tasks repositories.TaskRepository
	cfg   config.AuthConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:   "sqlite",
		DSN:      ":memory:",
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(pool.DB))
	t.Cleanup(func() { pool.Close() })

	return &fixture{
		users: repositories.NewUserRepository(pool.DB),
		tasks: repositories.NewTaskRepository(pool.DB),
		cfg: config.AuthConfig{
			JWTSecret:        "test-secret",
			TokenTTL:         time.Hour,
			BCryptCost:       bcrypt.MinCost,
			AdminInviteToken: "let-me-in",
		},
	}
}

func (f *fixture) user(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Password: "hash", Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) taskService() *TaskServiceImpl {
	return NewTaskService(f.tasks, f.users)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func checklist(done ...bool) []models.ChecklistItem {
	items := make([]models.ChecklistItem, len(done))
	for i, d := range done {
		items[i] = models.ChecklistItem{Text: "step", Completed: d}
	}
	return items
}
