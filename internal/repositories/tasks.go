package repositories

import (
	"context"
	"fmt"
	"time"

	"task-manager/server/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskFilter narrows task queries. Nil fields are ignored.
type TaskFilter struct {
	AssigneeID *uuid.UUID
	Status     *models.Status
	OverdueAt  *time.Time
}

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	Recent(ctx context.Context, filter TaskFilter, limit int) ([]models.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int64, error)
	CountByStatus(ctx context.Context, filter TaskFilter) (map[models.Status]int64, error)
	CountByPriority(ctx context.Context, filter TaskFilter) (map[models.Priority]int64, error)
	CountByAssignee(ctx context.Context) (map[uuid.UUID]map[models.Status]int64, error)
}

type GormTaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) scoped(ctx context.Context, filter TaskFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Task{})
	if filter.AssigneeID != nil {
		assigned := r.db.Table("task_assignees").Select("task_id").Where("user_id = ?", *filter.AssigneeID)
		q = q.Where("tasks.id IN (?)", assigned)
	}
	if filter.Status != nil {
		q = q.Where("tasks.status = ?", *filter.Status)
	}
	if filter.OverdueAt != nil {
		q = q.Where("tasks.status <> ? AND tasks.due_date < ?", models.StatusCompleted, filter.OverdueAt.UTC())
	}
	return q
}

func withRelations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("TodoChecklist", func(db *gorm.DB) *gorm.DB {
			return db.Order("checklist_items.position ASC")
		}).
		Preload("AssignedTo", func(db *gorm.DB) *gorm.DB {
			return db.Order("users.name ASC")
		})
}

// Create inserts the task with its checklist and assignee links. Assigned
// users must already exist.
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignees := task.AssignedTo
		if err := tx.Omit("AssignedTo").Create(task).Error; err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		task.AssignedTo = assignees
		if len(assignees) == 0 {
			return nil
		}
		if err := tx.Model(task).Omit("AssignedTo.*").Association("AssignedTo").Replace(assignees); err != nil {
			return fmt.Errorf("link assignees: %w", err)
		}
		return nil
	})
}

// Save writes every mutable column and replaces the checklist and the
// assignee set wholesale. There is no version check: the last save wins.
func (r *GormTaskRepository) Save(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(task).
			Select("title", "description", "priority", "status", "due_date", "progress", "attachments", "updated_at").
			Omit(clause.Associations).
			Updates(task).Error
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.ChecklistItem{}).Error; err != nil {
			return fmt.Errorf("clear checklist: %w", err)
		}
		if len(task.TodoChecklist) > 0 {
			for i := range task.TodoChecklist {
				task.TodoChecklist[i].ID = uuid.Nil
				task.TodoChecklist[i].TaskID = task.ID
				task.TodoChecklist[i].Position = i
			}
			if err := tx.Create(&task.TodoChecklist).Error; err != nil {
				return fmt.Errorf("insert checklist: %w", err)
			}
		}

		assignees := tx.Model(task).Omit("AssignedTo.*").Association("AssignedTo")
		if len(task.AssignedTo) == 0 {
			err = assignees.Clear()
		} else {
			err = assignees.Replace(task.AssignedTo)
		}
		if err != nil {
			return fmt.Errorf("replace assignees: %w", err)
		}
		return nil
	})
}

// Delete removes the task, its checklist and its assignee links. Users are untouched.
func (r *GormTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task := models.Task{ID: id}
		if err := tx.Model(&task).Association("AssignedTo").Clear(); err != nil {
			return fmt.Errorf("unlink assignees: %w", err)
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.ChecklistItem{}).Error; err != nil {
			return fmt.Errorf("delete checklist: %w", err)
		}
		result := tx.Delete(&models.Task{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindByID returns gorm.ErrRecordNotFound when no task matches.
func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := withRelations(r.db.WithContext(ctx)).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	tasks := []models.Task{}
	err := withRelations(r.scoped(ctx, filter)).
		Order("tasks.created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *GormTaskRepository) Recent(ctx context.Context, filter TaskFilter, limit int) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.scoped(ctx, filter).
		Select("id", "title", "status", "priority", "due_date", "created_at").
		Order("tasks.created_at DESC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

func (r *GormTaskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var n int64
	err := r.scoped(ctx, filter).Count(&n).Error
	return n, err
}

type bucketCount struct {
	Bucket int
	Total  int64
}

func (r *GormTaskRepository) groupCount(ctx context.Context, filter TaskFilter, column string) ([]bucketCount, error) {
	var rows []bucketCount
	err := r.scoped(ctx, filter).
		Select(fmt.Sprintf("tasks.%s AS bucket, COUNT(*) AS total", column)).
		Group("tasks." + column).
		Scan(&rows).Error
	return rows, err
}

// CountByStatus only returns statuses that have at least one task.
func (r *GormTaskRepository) CountByStatus(ctx context.Context, filter TaskFilter) (map[models.Status]int64, error) {
	rows, err := r.groupCount(ctx, filter, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[models.Status]int64, len(rows))
	for _, row := range rows {
		out[models.Status(row.Bucket)] = row.Total
	}
	return out, nil
}

func (r *GormTaskRepository) CountByPriority(ctx context.Context, filter TaskFilter) (map[models.Priority]int64, error) {
	rows, err := r.groupCount(ctx, filter, "priority")
	if err != nil {
		return nil, err
	}
	out := make(map[models.Priority]int64, len(rows))
	for _, row := range rows {
		out[models.Priority(row.Bucket)] = row.Total
	}
	return out, nil
}

// CountByAssignee returns per-user task counts keyed by status.
func (r *GormTaskRepository) CountByAssignee(ctx context.Context) (map[uuid.UUID]map[models.Status]int64, error) {
	var rows []struct {
		UserID uuid.UUID
		Status models.Status
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Table("task_assignees").
		Select("task_assignees.user_id AS user_id, tasks.status AS status, COUNT(*) AS total").
		Joins("JOIN tasks ON tasks.id = task_assignees.task_id").
		Group("task_assignees.user_id, tasks.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]map[models.Status]int64)
	for _, row := range rows {
		if out[row.UserID] == nil {
			out[row.UserID] = make(map[models.Status]int64)
		}
		out[row.UserID][row.Status] = row.Total
	}
	return out, nil
}
