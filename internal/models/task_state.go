package models

import "math"

// SetStatus applies a direct status transition. The zero status is treated as
// "not supplied" and leaves the current status alone. Whenever the resulting
// status is Completed, every checklist item is forced to completed and
// progress is pinned to 100, whatever the checklist said before.
func (t *Task) SetStatus(status Status) error {
	if status != StatusPending {
		if !status.Valid() {
			return ErrInvalidStatus
		}
		t.Status = status
	}

	if t.Status == StatusCompleted {
		for i := range t.TodoChecklist {
			t.TodoChecklist[i].Completed = true
		}
		t.Progress = 100
	}
	return nil
}

// ReplaceChecklist discards the current checklist and derives progress and
// status from the new one. The derived status always overwrites whatever was
// set before, so the later of SetStatus and ReplaceChecklist wins.
func (t *Task) ReplaceChecklist(items []ChecklistItem) {
	replaced := make([]ChecklistItem, len(items))
	for i, item := range items {
		replaced[i] = ChecklistItem{
			TaskID:    t.ID,
			Position:  i,
			Text:      item.Text,
			Completed: item.Completed,
		}
	}
	t.TodoChecklist = replaced

	completed := countCompleted(replaced)
	t.Progress = ChecklistProgress(completed, len(replaced))
	t.Status = ProgressStatus(t.Progress)
}

func (t *Task) CompletedTodoCount() int {
	return countCompleted(t.TodoChecklist)
}

// ChecklistProgress is round(100*completed/total) with halves rounded up, or 0
// for an empty checklist.
func ChecklistProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	ratio := float64(completed) / float64(total) * 100
	return int(math.Floor(ratio + 0.5))
}

// ProgressStatus maps a rounded checklist percentage to a status, so a
// 199/200 checklist (100%) is Completed and 1/201 (0%) is Pending.
func ProgressStatus(progress int) Status {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress <= 0:
		return StatusPending
	default:
		return StatusInProgress
	}
}

func countCompleted(items []ChecklistItem) int {
	n := 0
	for _, item := range items {
		if item.Completed {
			n++
		}
	}
	return n
}
