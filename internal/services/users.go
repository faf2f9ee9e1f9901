package services

import (
	"context"
	"fmt"

	"task-manager/server/internal/models"
	"task-manager/server/internal/repositories"

	"github.com/gofrs/uuid"
)

// MemberSummary is a member account with its task counts by status.
type MemberSummary struct {
	models.User
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

type UserService interface {
	ListMembers(ctx context.Context) ([]MemberSummary, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type UserServiceImpl struct {
	users repositories.UserRepository
	tasks repositories.TaskRepository
}

func NewUserService(users repositories.UserRepository, tasks repositories.TaskRepository) *UserServiceImpl {
	return &UserServiceImpl{users: users, tasks: tasks}
}

func (s *UserServiceImpl) ListMembers(ctx context.Context) ([]MemberSummary, error) {
	members, err := s.users.ListByRole(ctx, models.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	counts, err := s.tasks.CountByAssignee(ctx)
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}

	out := make([]MemberSummary, 0, len(members))
	for _, m := range members {
		byStatus := counts[m.ID]
		out = append(out, MemberSummary{
			User:            m,
			PendingTasks:    byStatus[models.StatusPending],
			InProgressTasks: byStatus[models.StatusInProgress],
			CompletedTasks:  byStatus[models.StatusCompleted],
		})
	}
	return out, nil
}

func (s *UserServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "load user")
	}
	return user, nil
}
