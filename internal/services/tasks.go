package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"task-manager/server/internal/models"
	"task-manager/server/internal/repositories"

	"github.com/gofrs/uuid"
)

const (
	taskNotFound     = "Task not found"
	taskNotPermitted = "Not authorized to update this task"
)

// TaskInput carries create/update fields. Nil pointers and nil slices mean
// "not supplied"; on update they keep the stored value.
type TaskInput struct {
	Title         *string
	Description   *string
	Priority      *models.Priority
	DueDate       *time.Time
	Attachments   []string
	AssignedTo    []uuid.UUID
	TodoChecklist []models.ChecklistItem
}

type StatusSummary struct {
	All             int64 `json:"all"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

type TaskList struct {
	Tasks         []models.Task `json:"tasks"`
	StatusSummary StatusSummary `json:"statusSummary"`
}

type TaskService interface {
	List(ctx context.Context, actor *models.User, status *models.Status) (*TaskList, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, actor *models.User, input TaskInput) (*models.Task, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, input TaskInput) (*models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, actor *models.User, id uuid.UUID, status models.Status) (*models.Task, error)
	UpdateChecklist(ctx context.Context, actor *models.User, id uuid.UUID, items []models.ChecklistItem) (*models.Task, error)
	Overdue(ctx context.Context, now time.Time) ([]models.Task, error)
}

type TaskServiceImpl struct {
	tasks repositories.TaskRepository
	users repositories.UserRepository
}

func NewTaskService(tasks repositories.TaskRepository, users repositories.UserRepository) *TaskServiceImpl {
	return &TaskServiceImpl{tasks: tasks, users: users}
}

// ParseDueDate accepts RFC 3339 timestamps and plain dates. Dates are
// interpreted as midnight UTC.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, validation("Invalid due date %q", raw)
}

// scopeFor limits members to their own assignments. Admins see everything.
func scopeFor(actor *models.User) repositories.TaskFilter {
	if actor.IsAdmin() {
		return repositories.TaskFilter{}
	}
	id := actor.ID
	return repositories.TaskFilter{AssigneeID: &id}
}

func canMutate(actor *models.User, task *models.Task) bool {
	return actor.IsAdmin() || task.IsAssignedTo(actor.ID)
}

func (s *TaskServiceImpl) List(ctx context.Context, actor *models.User, status *models.Status) (*TaskList, error) {
	scope := scopeFor(actor)

	filter := scope
	filter.Status = status
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	total, err := s.tasks.Count(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	byStatus, err := s.tasks.CountByStatus(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}

	return &TaskList{
		Tasks: tasks,
		StatusSummary: StatusSummary{
			All:             total,
			PendingTasks:    byStatus[models.StatusPending],
			InProgressTasks: byStatus[models.StatusInProgress],
			CompletedTasks:  byStatus[models.StatusCompleted],
		},
	}, nil
}

func (s *TaskServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, taskNotFound, "load task")
	}
	return task, nil
}

// resolveAssignees loads every referenced user, rejecting unknown ids.
func (s *TaskServiceImpl) resolveAssignees(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	users, err := s.users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load assignees: %w", err)
	}
	if len(users) != len(unique) {
		return nil, validation("One or more assigned users do not exist")
	}
	return users, nil
}

func (s *TaskServiceImpl) Create(ctx context.Context, actor *models.User, input TaskInput) (*models.Task, error) {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return nil, validation("Title is required")
	}
	if input.DueDate == nil || input.DueDate.IsZero() {
		return nil, validation("Due date is required")
	}
	if input.Priority != nil && *input.Priority != 0 && !input.Priority.Valid() {
		return nil, validation("Invalid priority")
	}

	assignees, err := s.resolveAssignees(ctx, input.AssignedTo)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       strings.TrimSpace(*input.Title),
		Description: stringOr(input.Description, ""),
		Priority:    priorityOr(input.Priority, models.PriorityMedium),
		Status:      models.StatusPending,
		DueDate:     input.DueDate.UTC(),
		CreatedBy:   actor.ID,
		Attachments: stringsOr(input.Attachments, []string{}),
		AssignedTo:  assignees,
	}
	if input.TodoChecklist != nil {
		task.ReplaceChecklist(input.TodoChecklist)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return s.Get(ctx, task.ID)
}

// loadForUpdate fetches the task and enforces the assignee-or-admin rule.
func (s *TaskServiceImpl) loadForUpdate(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canMutate(actor, task) {
		return nil, forbidden(taskNotPermitted)
	}
	return task, nil
}

func (s *TaskServiceImpl) save(ctx context.Context, task *models.Task) (*models.Task, error) {
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	return s.Get(ctx, task.ID)
}

func (s *TaskServiceImpl) Update(ctx context.Context, actor *models.User, id uuid.UUID, input TaskInput) (*models.Task, error) {
	task, err := s.loadForUpdate(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if input.Priority != nil && *input.Priority != 0 && !input.Priority.Valid() {
		return nil, validation("Invalid priority")
	}

	task.Title = stringOr(input.Title, task.Title)
	task.Description = stringOr(input.Description, task.Description)
	task.Priority = priorityOr(input.Priority, task.Priority)
	task.DueDate = timeOr(input.DueDate, task.DueDate)
	task.Attachments = stringsOr(input.Attachments, task.Attachments)

	if input.TodoChecklist != nil {
		task.ReplaceChecklist(input.TodoChecklist)
	}
	if input.AssignedTo != nil {
		assignees, err := s.resolveAssignees(ctx, input.AssignedTo)
		if err != nil {
			return nil, err
		}
		task.AssignedTo = assignees
	}

	return s.save(ctx, task)
}

func (s *TaskServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return notFoundOr(err, taskNotFound, "delete task")
	}
	return nil
}

func (s *TaskServiceImpl) UpdateStatus(ctx context.Context, actor *models.User, id uuid.UUID, status models.Status) (*models.Task, error) {
	task, err := s.loadForUpdate(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := task.SetStatus(status); err != nil {
		return nil, validation("Invalid status")
	}
	return s.save(ctx, task)
}

func (s *TaskServiceImpl) UpdateChecklist(ctx context.Context, actor *models.User, id uuid.UUID, items []models.ChecklistItem) (*models.Task, error) {
	task, err := s.loadForUpdate(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	task.ReplaceChecklist(items)
	return s.save(ctx, task)
}

// Overdue lists every unfinished task whose due date is before now.
func (s *TaskServiceImpl) Overdue(ctx context.Context, now time.Time) ([]models.Task, error) {
	at := now.UTC()
	tasks, err := s.tasks.List(ctx, repositories.TaskFilter{OverdueAt: &at})
	if err != nil {
		return nil, fmt.Errorf("list overdue tasks: %w", err)
	}
	return tasks, nil
}
