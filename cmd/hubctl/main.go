// Command hubctl drives a hub server through the optimistic client stores.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"hub/internal/client"
	"hub/internal/logger"
	"hub/internal/store"
)

type options struct {
	API      string        `long:"api" env:"HUB_API_URL" default:"http://localhost:8080" description:"Base URL of the hub server"`
	Timeout  time.Duration `long:"timeout" env:"HUB_TIMEOUT" default:"10s" description:"Per request timeout"`
	LogLevel string        `long:"log-level" env:"HUB_LOG_LEVEL" default:"warn" description:"Log level for store diagnostics"`
}

var (
	opts   options
	parser = flags.NewParser(&opts, flags.Default)
)

func main() {
	register()
	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func register() {
	add := func(name, short string, cmd flags.Commander) {
		if _, err := parser.AddCommand(name, short, "", cmd); err != nil {
			panic(err)
		}
	}
	add("whoami", "Show the workspace user", &whoamiCmd{})
	add("projects", "List active projects", &projectsCmd{})
	add("create-project", "Create a project", &createProjectCmd{})
	add("favorite", "Mark or unmark a project as favorite", &favoriteCmd{})
	add("delete-project", "Soft-delete a project", &deleteProjectCmd{})
	add("board", "Show the columns and tasks of a project", &boardCmd{})
	add("add-column", "Add a column to a project", &addColumnCmd{})
	add("reorder-columns", "Reorder the columns of a project", &reorderColumnsCmd{})
	add("add-task", "Add a task to a column", &addTaskCmd{})
	add("move-task", "Move a task to a column and position", &moveTaskCmd{})
	add("reorder-tasks", "Reorder the tasks of a column", &reorderTasksCmd{})
	add("waitlist", "Join the waitlist", &waitlistCmd{})
}

// session holds the stores of one CLI invocation.
type session struct {
	ctx      context.Context
	api      *client.Client
	users    *store.UserStore
	projects *store.ProjectStore
	board    *store.BoardStore
}

func newSession() *session {
	log := logger.NewWithWriter(opts.LogLevel, os.Stderr)
	api := client.New(opts.API, opts.Timeout)
	users := store.NewUserStore(api, log)
	return &session{
		ctx:      context.Background(),
		api:      api,
		users:    users,
		projects: store.NewProjectStore(api, users, log),
		board:    store.NewBoardStore(api, log),
	}
}

// withProjects loads the user and their active projects.
func (s *session) withProjects() error {
	if err := s.users.Load(s.ctx); err != nil {
		return err
	}
	return s.projects.Refresh(s.ctx)
}

// withBoard loads the board of projectID and selects it.
func (s *session) withBoard(projectID string) error {
	if err := s.board.FetchColumnsAndTasks(s.ctx, projectID); err != nil {
		return err
	}
	s.board.SetCurrentProject(projectID)
	return nil
}
