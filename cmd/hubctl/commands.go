package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"hub/internal/models"
)

type whoamiCmd struct{}

func (c *whoamiCmd) Execute([]string) error {
	s := newSession()
	if err := s.users.Load(s.ctx); err != nil {
		return err
	}
	u := s.users.Current()
	fmt.Printf("%s\t%s <%s>\t@%s\n", u.ID, u.Name, u.Email, u.Username)
	return nil
}

type projectsCmd struct{}

func (c *projectsCmd) Execute([]string) error {
	s := newSession()
	if err := s.withProjects(); err != nil {
		return err
	}
	printProjects(s.projects.List())
	return nil
}

type createProjectCmd struct {
	Name        string `long:"name" description:"Project name"`
	Description string `long:"description" description:"Project description"`
	Icon        string `long:"icon" description:"Project icon"`
	Favorite    bool   `long:"favorite" description:"Mark as favorite"`
	Progress    int    `long:"progress" description:"Progress 0..100"`
	Status      int64  `long:"status" description:"Status id; the first status when omitted"`
}

func (c *createProjectCmd) Execute([]string) error {
	s := newSession()
	if err := s.withProjects(); err != nil {
		return err
	}
	draft := models.ProjectDraft{
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		IsFavorite:  c.Favorite,
		Progress:    c.Progress,
	}
	if c.Status > 0 {
		draft.StatusID = &c.Status
	}
	if _, err := s.projects.Create(s.ctx, draft); err != nil {
		return err
	}
	printProjects(s.projects.List())
	return nil
}

type favoriteCmd struct {
	Off  bool `long:"off" description:"Remove the favorite mark"`
	Args struct {
		ProjectID string `positional-arg-name:"project-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *favoriteCmd) Execute([]string) error {
	s := newSession()
	if err := s.withProjects(); err != nil {
		return err
	}
	fav := !c.Off
	if _, err := s.projects.Update(s.ctx, c.Args.ProjectID, models.ProjectPatch{IsFavorite: &fav}); err != nil {
		return err
	}
	printProjects(s.projects.List())
	return nil
}

type deleteProjectCmd struct {
	Args struct {
		ProjectID string `positional-arg-name:"project-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *deleteProjectCmd) Execute([]string) error {
	s := newSession()
	if err := s.withProjects(); err != nil {
		return err
	}
	if err := s.projects.Delete(s.ctx, c.Args.ProjectID); err != nil {
		return err
	}
	printProjects(s.projects.List())
	return nil
}

type boardCmd struct {
	Args struct {
		ProjectID string `positional-arg-name:"project-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *boardCmd) Execute([]string) error {
	s := newSession()
	if err := s.withBoard(c.Args.ProjectID); err != nil {
		return err
	}
	printBoard(s.board.Columns())
	return nil
}

type addColumnCmd struct {
	Project  string `long:"project" required:"yes" description:"Project id"`
	Title    string `long:"title" required:"yes" description:"Column title"`
	BgColor  string `long:"bg" description:"Background color"`
	HeaderBg string `long:"header-bg" description:"Header background color"`
	DotColor string `long:"dot" description:"Dot color"`
}

func (c *addColumnCmd) Execute([]string) error {
	s := newSession()
	if err := s.withBoard(c.Project); err != nil {
		return err
	}
	_, err := s.board.CreateColumn(s.ctx, models.KanbanColumn{
		ProjectID:     c.Project,
		Title:         c.Title,
		OrderIndex:    len(s.board.Columns()),
		BgColor:       c.BgColor,
		HeaderBgColor: c.HeaderBg,
		DotColor:      c.DotColor,
	})
	if err != nil {
		return err
	}
	printBoard(s.board.Columns())
	return nil
}

type reorderColumnsCmd struct {
	Project string `long:"project" required:"yes" description:"Project id"`
	Args    struct {
		ColumnIDs []string `positional-arg-name:"column-id" required:"1"`
	} `positional-args:"yes"`
}

func (c *reorderColumnsCmd) Execute([]string) error {
	s := newSession()
	if err := s.withBoard(c.Project); err != nil {
		return err
	}
	if err := s.board.ReorderColumns(s.ctx, c.Args.ColumnIDs); err != nil {
		return err
	}
	printBoard(s.board.Columns())
	return nil
}

type addTaskCmd struct {
	Project     string `long:"project" required:"yes" description:"Project id"`
	Column      string `long:"column" required:"yes" description:"Column id"`
	Title       string `long:"title" required:"yes" description:"Task title"`
	Description string `long:"description" description:"Task description"`
	Priority    string `long:"priority" choice:"LOW" choice:"MEDIUM" choice:"HIGH" default:"MEDIUM" description:"Task priority"`
}

func (c *addTaskCmd) Execute([]string) error {
	s := newSession()
	if err := s.withBoard(c.Project); err != nil {
		return err
	}
	priority, err := models.ParsePriority(c.Priority)
	if err != nil {
		return err
	}
	order := 0
	for _, col := range s.board.Columns() {
		if col.ID == c.Column {
			order = len(col.Tasks)
		}
	}
	_, err = s.board.CreateTask(s.ctx, models.Task{
		ProjectID:   c.Project,
		ColumnID:    c.Column,
		Title:       c.Title,
		Description: c.Description,
		Priority:    priority,
		OrderIndex:  order,
	})
	if err != nil {
		return err
	}
	printBoard(s.board.Columns())
	return nil
}

type moveTaskCmd struct {
	Project string `long:"project" required:"yes" description:"Project id"`
	Task    string `long:"task" required:"yes" description:"Task id"`
	Column  string `long:"column" required:"yes" description:"Target column id"`
	Index   int    `long:"index" description:"Target position within the column"`
}

func (c *moveTaskCmd) Execute([]string) error {
	s := newSession()
	if err := s.withBoard(c.Project); err != nil {
		return err
	}
	if _, err := s.board.MoveTask(s.ctx, c.Task, c.Column, c.Index); err != nil {
		return err
	}
	printBoard(s.board.Columns())
	return nil
}

type reorderTasksCmd struct {
	Project string `long:"project" required:"yes" description:"Project id"`
	Column  string `long:"column" required:"yes" description:"Column id"`
	Args    struct {
		TaskIDs []string `positional-arg-name:"task-id" required:"1"`
	} `positional-args:"yes"`
}

func (c *reorderTasksCmd) Execute([]string) error {
	s := newSession()
	if err := s.withBoard(c.Project); err != nil {
		return err
	}
	if err := s.board.ReorderTasks(s.ctx, c.Column, c.Args.TaskIDs); err != nil {
		return err
	}
	printBoard(s.board.Columns())
	return nil
}

type waitlistCmd struct {
	Args struct {
		Email string `positional-arg-name:"email" required:"yes"`
	} `positional-args:"yes"`
}

func (c *waitlistCmd) Execute([]string) error {
	s := newSession()
	entry, err := s.api.JoinWaitlist(s.ctx, c.Args.Email)
	if err != nil {
		return err
	}
	fmt.Printf("joined waitlist as %s\n", entry.Email)
	return nil
}

func printProjects(projects []models.Project) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFAV\tNAME\tSTATUS\tPROGRESS")
	for _, p := range projects {
		fav := ""
		if p.IsFavorite {
			fav = "*"
		}
		status := "-"
		if p.Status != nil {
			status = p.Status.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%d%%\n", p.ID, fav, p.Icon, p.Name, status, p.Progress)
	}
	_ = w.Flush()
}

func printBoard(columns []models.ColumnWithTasks) {
	for _, col := range columns {
		fmt.Printf("[%d] %s (%s)\n", col.OrderIndex, col.Title, col.ID)
		if len(col.Tasks) == 0 {
			fmt.Println("    (empty)")
		}
		for _, t := range col.Tasks {
			line := fmt.Sprintf("    %d. %s [%s] (%s)", t.OrderIndex, t.Title, t.Priority, t.ID)
			if t.Description != "" {
				line += " - " + strings.TrimSpace(t.Description)
			}
			fmt.Println(line)
		}
	}
}
