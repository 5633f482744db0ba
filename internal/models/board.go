package models

import (
	"fmt"
	"strings"
	"time"
)

// Priority ranks a task on the board.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority normalises s; an empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("priority %q: %w", s, ErrInvalid)
	}
}

// KanbanColumn is one column of a project board.
type KanbanColumn struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	Title         string    `json:"title"`
	OrderIndex    int       `json:"order_index"`
	BgColor       string    `json:"bg_color"`
	HeaderBgColor string    `json:"header_bg_color"`
	DotColor      string    `json:"dot_color"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ColumnPatch is a partial column update; nil fields are left unchanged.
type ColumnPatch struct {
	Title         *string `json:"title,omitempty"`
	OrderIndex    *int    `json:"order_index,omitempty"`
	BgColor       *string `json:"bg_color,omitempty"`
	HeaderBgColor *string `json:"header_bg_color,omitempty"`
	DotColor      *string `json:"dot_color,omitempty"`
}

// Apply writes the set fields of the patch onto c.
func (cp ColumnPatch) Apply(c *KanbanColumn) {
	if cp.Title != nil {
		c.Title = *cp.Title
	}
	if cp.OrderIndex != nil {
		c.OrderIndex = *cp.OrderIndex
	}
	if cp.BgColor != nil {
		c.BgColor = *cp.BgColor
	}
	if cp.HeaderBgColor != nil {
		c.HeaderBgColor = *cp.HeaderBgColor
	}
	if cp.DotColor != nil {
		c.DotColor = *cp.DotColor
	}
}

// Task is a card that lives in exactly one column at a time.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	ColumnID    string     `json:"column_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	OrderIndex  int        `json:"order_index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	c := t
	c.StartDate = cloneTime(t.StartDate)
	c.DueDate = cloneTime(t.DueDate)
	return c
}

// TaskPatch is a partial task update; nil fields are left unchanged.
// A non-nil ColumnID moves the task to another column.
type TaskPatch struct {
	ColumnID    *string    `json:"column_id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	OrderIndex  *int       `json:"order_index,omitempty"`
}

// Apply writes the set fields of the patch onto t.
func (tp TaskPatch) Apply(t *Task) {
	if tp.ColumnID != nil {
		t.ColumnID = *tp.ColumnID
	}
	if tp.Title != nil {
		t.Title = *tp.Title
	}
	if tp.Description != nil {
		t.Description = *tp.Description
	}
	if tp.Priority != nil {
		t.Priority = *tp.Priority
	}
	if tp.StartDate != nil {
		t.StartDate = cloneTime(tp.StartDate)
	}
	if tp.DueDate != nil {
		t.DueDate = cloneTime(tp.DueDate)
	}
	if tp.OrderIndex != nil {
		t.OrderIndex = *tp.OrderIndex
	}
}

// ColumnWithTasks groups a column with the tasks displayed in it.
type ColumnWithTasks struct {
	KanbanColumn
	Tasks []Task `json:"tasks"`
}

// Clone returns a deep copy of the column and its task list.
func (c ColumnWithTasks) Clone() ColumnWithTasks {
	out := ColumnWithTasks{KanbanColumn: c.KanbanColumn}
	if c.Tasks != nil {
		out.Tasks = make([]Task, len(c.Tasks))
		for i, t := range c.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	return out
}

// GroupTasks builds the column to tasks grouping for a board. Columns keep
// their given order; tasks keep their given order within each column.
func GroupTasks(columns []KanbanColumn, tasks []Task) []ColumnWithTasks {
	out := make([]ColumnWithTasks, 0, len(columns))
	for _, col := range columns {
		grouped := ColumnWithTasks{KanbanColumn: col, Tasks: []Task{}}
		for _, t := range tasks {
			if t.ColumnID == col.ID {
				grouped.Tasks = append(grouped.Tasks, t.Clone())
			}
		}
		out = append(out, grouped)
	}
	return out
}
