package models

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID            uuid.UUID       `json:"id" gorm:"primaryKey;type:char(36)"`
	Title         string          `json:"title" gorm:"not null"`
	Description   string          `json:"description"`
	Priority      Priority        `json:"priority" gorm:"not null;default:2"`
	Status        Status          `json:"status" gorm:"not null;default:0;index"`
	DueDate       time.Time       `json:"dueDate" gorm:"not null;index"`
	Progress      int             `json:"progress" gorm:"not null;default:0"`
	CreatedBy     uuid.UUID       `json:"createdBy" gorm:"type:char(36);index"`
	Attachments   []string        `json:"attachments" gorm:"serializer:json;type:text"`
	TodoChecklist []ChecklistItem `json:"todoChecklist" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	AssignedTo    []User          `json:"assignedTo" gorm:"many2many:task_assignees;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type ChecklistItem struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:char(36)"`
	TaskID    uuid.UUID `json:"-" gorm:"type:char(36);index;not null"`
	Position  int       `json:"-" gorm:"not null"`
	Text      string    `json:"text" gorm:"not null"`
	Completed bool      `json:"completed"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func (i *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	i.ID = id
	return nil
}

// MarshalJSON projects assignees down to their public summary and adds the
// completed checklist count.
func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task

	assignees := make([]UserSummary, 0, len(t.AssignedTo))
	for _, u := range t.AssignedTo {
		assignees = append(assignees, u.Summary())
	}
	checklist := t.TodoChecklist
	if checklist == nil {
		checklist = []ChecklistItem{}
	}
	attachments := t.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	return json.Marshal(struct {
		plain
		AssignedTo         []UserSummary   `json:"assignedTo"`
		TodoChecklist      []ChecklistItem `json:"todoChecklist"`
		Attachments        []string        `json:"attachments"`
		CompletedTodoCount int             `json:"completedTodoCount"`
	}{
		plain:              plain(t),
		AssignedTo:         assignees,
		TodoChecklist:      checklist,
		Attachments:        attachments,
		CompletedTodoCount: t.CompletedTodoCount(),
	})
}

func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	for _, u := range t.AssignedTo {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func (t *Task) AssigneeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.AssignedTo))
	for _, u := range t.AssignedTo {
		ids = append(ids, u.ID)
	}
	return ids
}

// IsOverdue reports whether an unfinished task's due date is strictly before now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusCompleted && t.DueDate.Before(now)
}
