package services

import (
	"context"
	"fmt"
	"time"

	"task-manager/server/internal/models"
	"task-manager/server/internal/repositories"

	"github.com/gofrs/uuid"
)

const recentTaskLimit = 10

type DashboardStatistics struct {
	TotalTasks      int64 `json:"totalTasks"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
	OverdueTasks    int64 `json:"overdueTasks"`
}

type DashboardCharts struct {
	TaskDistribution map[string]int64 `json:"taskDistribution"`
	PriorityLevels   map[string]int64 `json:"priorityLevels"`
}

// RecentTask is the trimmed task shape listed on dashboards.
type RecentTask struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Status    models.Status   `json:"status"`
	Priority  models.Priority `json:"priority"`
	DueDate   time.Time       `json:"dueDate"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Dashboard struct {
	Statistics  DashboardStatistics `json:"statistics"`
	Charts      DashboardCharts     `json:"charts"`
	RecentTasks []RecentTask        `json:"recentTasks"`
}

type DashboardService interface {
	Global(ctx context.Context) (*Dashboard, error)
	ForUser(ctx context.Context, userID uuid.UUID) (*Dashboard, error)
}

type DashboardServiceImpl struct {
	tasks repositories.TaskRepository
	now   func() time.Time
}

func NewDashboardService(tasks repositories.TaskRepository) *DashboardServiceImpl {
	return &DashboardServiceImpl{tasks: tasks, now: time.Now}
}

func (s *DashboardServiceImpl) Global(ctx context.Context) (*Dashboard, error) {
	return s.build(ctx, repositories.TaskFilter{})
}

func (s *DashboardServiceImpl) ForUser(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	return s.build(ctx, repositories.TaskFilter{AssigneeID: &userID})
}

func (s *DashboardServiceImpl) build(ctx context.Context, scope repositories.TaskFilter) (*Dashboard, error) {
	total, err := s.tasks.Count(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	overdueScope := scope
	now := s.now().UTC()
	overdueScope.OverdueAt = &now
	overdue, err := s.tasks.Count(ctx, overdueScope)
	if err != nil {
		return nil, fmt.Errorf("count overdue tasks: %w", err)
	}

	byStatus, err := s.tasks.CountByStatus(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("group tasks by status: %w", err)
	}
	byPriority, err := s.tasks.CountByPriority(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("group tasks by priority: %w", err)
	}

	recent, err := s.tasks.Recent(ctx, scope, recentTaskLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent tasks: %w", err)
	}

	return &Dashboard{
		Statistics: DashboardStatistics{
			TotalTasks:      total,
			PendingTasks:    byStatus[models.StatusPending],
			InProgressTasks: byStatus[models.StatusInProgress],
			CompletedTasks:  byStatus[models.StatusCompleted],
			OverdueTasks:    overdue,
		},
		Charts: DashboardCharts{
			TaskDistribution: statusDistribution(byStatus, total),
			PriorityLevels:   priorityDistribution(byPriority),
		},
		RecentTasks: projectRecent(recent),
	}, nil
}

// statusDistribution reindexes grouped counts onto every status label so
// empty buckets are reported as zero.
func statusDistribution(counts map[models.Status]int64, total int64) map[string]int64 {
	out := make(map[string]int64, len(models.Statuses)+1)
	for _, status := range models.Statuses {
		out[models.StatusLabels[status]] = counts[status]
	}
	out["All"] = total
	return out
}

func priorityDistribution(counts map[models.Priority]int64) map[string]int64 {
	out := make(map[string]int64, len(models.Priorities))
	for _, priority := range models.Priorities {
		out[models.PriorityLabels[priority]] = counts[priority]
	}
	return out
}

func projectRecent(tasks []models.Task) []RecentTask {
	out := make([]RecentTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, RecentTask{
			ID:        t.ID,
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			DueDate:   t.DueDate,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}
