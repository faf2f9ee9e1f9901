package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"task-manager/server/internal/models"
	"task-manager/server/internal/repositories"

	"github.com/xuri/excelize/v2"
)

const SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Report is a fully rendered workbook ready to be sent as an attachment.
type Report struct {
	FileName string
	Content  []byte
}

type reportColumn struct {
	Header string
	Width  float64
}

var taskReportColumns = []reportColumn{
	{"Task ID", 25},
	{"Title", 30},
	{"Description", 50},
	{"Priority", 15},
	{"Status", 20},
	{"Due Date", 20},
	{"Assigned To", 30},
}

var userReportColumns = []reportColumn{
	{"User Name", 25},
	{"Email", 30},
	{"Total Assigned Tasks", 20},
	{"Pending Tasks", 20},
	{"In Progress Tasks", 20},
	{"Completed Tasks", 20},
}

type ReportService interface {
	ExportTasks(ctx context.Context) (*Report, error)
	ExportUsers(ctx context.Context) (*Report, error)
}

type ReportServiceImpl struct {
	tasks repositories.TaskRepository
	users repositories.UserRepository
}

func NewReportService(tasks repositories.TaskRepository, users repositories.UserRepository) *ReportServiceImpl {
	return &ReportServiceImpl{tasks: tasks, users: users}
}

func (s *ReportServiceImpl) ExportTasks(ctx context.Context) (*Report, error) {
	tasks, err := s.tasks.List(ctx, repositories.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	rows := make([][]interface{}, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []interface{}{
			t.ID.String(),
			t.Title,
			t.Description,
			t.Priority.String(),
			t.Status.String(),
			t.DueDate.UTC().Format("2006-01-02"),
			assigneeLabel(t.AssignedTo),
		})
	}

	content, err := renderSheet("Tasks Report", taskReportColumns, rows)
	if err != nil {
		return nil, fmt.Errorf("render tasks report: %w", err)
	}
	return &Report{FileName: "tasks-report.xlsx", Content: content}, nil
}

type memberTally struct {
	total, pending, inProgress, completed int
}

func (s *ReportServiceImpl) ExportUsers(ctx context.Context) (*Report, error) {
	members, err := s.users.ListByRole(ctx, models.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	tasks, err := s.tasks.List(ctx, repositories.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tallies := make(map[string]*memberTally, len(members))
	for _, m := range members {
		tallies[m.ID.String()] = &memberTally{}
	}
	for _, t := range tasks {
		for _, u := range t.AssignedTo {
			tally, ok := tallies[u.ID.String()]
			if !ok {
				continue
			}
			tally.total++
			switch t.Status {
			case models.StatusPending:
				tally.pending++
			case models.StatusInProgress:
				tally.inProgress++
			case models.StatusCompleted:
				tally.completed++
			}
		}
	}

	rows := make([][]interface{}, 0, len(members))
	for _, m := range members {
		tally := tallies[m.ID.String()]
		rows = append(rows, []interface{}{
			m.Name,
			m.Email,
			tally.total,
			tally.pending,
			tally.inProgress,
			tally.completed,
		})
	}

	content, err := renderSheet("User Task Report", userReportColumns, rows)
	if err != nil {
		return nil, fmt.Errorf("render user report: %w", err)
	}
	return &Report{FileName: "user-task-report.xlsx", Content: content}, nil
}

func assigneeLabel(users []models.User) string {
	if len(users) == 0 {
		return "Not Assigned"
	}
	parts := make([]string, 0, len(users))
	for _, u := range users {
		parts = append(parts, fmt.Sprintf("%s (%s)", u.Name, u.Email))
	}
	return strings.Join(parts, ", ")
}

// renderSheet writes a single-sheet workbook through the stream writer and
// returns the encoded bytes.
func renderSheet(name string, columns []reportColumn, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return nil, err
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col.Header
		if err := sw.SetColWidth(i+1, i+1, col.Width); err != nil {
			return nil, err
		}
	}

	cell, _ := excelize.CoordinatesToCellName(1, 1)
	if err := sw.SetRow(cell, header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
