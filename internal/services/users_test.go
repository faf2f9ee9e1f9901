package services

import (
	"context"
	"testing"
	"time"

	"task-manager/server/internal/models"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ListMembersWithCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin", models.RoleAdmin)
	busy := f.user(t, "busy", models.RoleMember)
	idle := f.user(t, "idle", models.RoleMember)

	for _, status := range []models.Status{models.StatusPending, models.StatusPending, models.StatusCompleted} {
		require.NoError(t, f.tasks.Create(ctx, &models.Task{
			Title:      "work",
			Status:     status,
			DueDate:    time.Now().Add(time.Hour),
			CreatedBy:  admin.ID,
			AssignedTo: []models.User{*busy, *admin},
		}))
	}

	members, err := NewUserService(f.users, f.tasks).ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)

	byEmail := map[string]MemberSummary{}
	for _, m := range members {
		byEmail[m.Email] = m
	}
	assert.NotContains(t, byEmail, admin.Email)
	assert.Equal(t, int64(2), byEmail[busy.Email].PendingTasks)
	assert.Equal(t, int64(0), byEmail[busy.Email].InProgressTasks)
	assert.Equal(t, int64(1), byEmail[busy.Email].CompletedTasks)
	assert.Equal(t, MemberSummary{User: byEmail[idle.Email].User}, byEmail[idle.Email])
}

func TestUserService_GetByID(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.tasks)
	u := f.user(t, "mia", models.RoleMember)

	got, err := svc.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "mia@example.com", got.Email)

	_, err = svc.GetByID(context.Background(), uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrNotFound)
}
