package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/notification"
	notificationrepo "github.com/taskdeck/taskdeck/internal/notification/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/task"
	taskrepo "github.com/taskdeck/taskdeck/internal/task/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/user"
	userrepo "github.com/taskdeck/taskdeck/internal/user/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/workspace"
	workspacerepo "github.com/taskdeck/taskdeck/internal/workspace/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

var (
	app    = kingpin.New("taskdeck-admin", "Operational tooling for a taskdeck database")
	dbPath = app.Flag("db", "Path to the sqlite database").Envar("TASKDECK_DB_PATH").Default(".taskdeck/taskdeck.db").String()

	seedCmd  = app.Command("seed", "Load users, workspaces and tasks from a YAML fixture")
	seedFile = seedCmd.Arg("file", "Fixture file").Required().String()

	remindCmd = app.Command("remind", "Run a single due-date reminder scan")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	db, err := storage.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	switch command {
	case seedCmd.FullCommand():
		err = runSeed(ctx, db, *seedFile)
	case remindCmd.FullCommand():
		err = runRemind(ctx, db)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type fixture struct {
	Users []struct {
		FirstName string `yaml:"firstName"`
		LastName  string `yaml:"lastName"`
		Email     string `yaml:"email"`
		Password  string `yaml:"password"`
	} `yaml:"users"`
	Workspaces []struct {
		Name    string   `yaml:"name"`
		Owner   string   `yaml:"owner"`
		Members []string `yaml:"members"`
	} `yaml:"workspaces"`
	Tasks []struct {
		Workspace  string `yaml:"workspace"`
		Title      string `yaml:"title"`
		Priority   string `yaml:"priority"`
		Status     string `yaml:"status"`
		DueDate    string `yaml:"dueDate"`
		CreatedBy  string `yaml:"createdBy"`
		AssignedTo string `yaml:"assignedTo"`
	} `yaml:"tasks"`
}

// runSeed loads the fixture in declaration order: users, then workspaces
// with their members, then tasks. Users that already exist are reused by
// email, so re-running a fixture is safe.
func runSeed(ctx context.Context, db *storage.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("failed to parse fixture: %w", err)
	}

	users := userrepo.NewSQLiteRepository(db)
	workspaces := workspacerepo.NewSQLiteRepository(db)
	tasks := taskrepo.NewSQLiteRepository(db)
	now := time.Now()

	byEmail := map[string]*user.User{}
	lookup := func(email string) (*user.User, error) {
		email = strings.ToLower(strings.TrimSpace(email))
		if u, ok := byEmail[email]; ok {
			return u, nil
		}
		u, err := users.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("unknown user %q: %w", email, err)
		}
		byEmail[email] = u
		return u, nil
	}

	for _, f := range fx.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %q: %w", f.Email, err)
		}
		u := &user.User{
			ID:           ulid.Make().String(),
			FirstName:    f.FirstName,
			LastName:     f.LastName,
			Email:        strings.ToLower(strings.TrimSpace(f.Email)),
			PasswordHash: string(hash),
			CreatedAt:    now,
		}
		if err := users.Create(ctx, u); err != nil {
			if !cerr.IsCode(err, cerr.AlreadyExists) {
				return err
			}
			continue
		}
		byEmail[u.Email] = u
		fmt.Printf("created user %s (%s)\n", u.Email, u.ID)
	}

	wsByName := map[string]*workspace.Workspace{}
	for _, f := range fx.Workspaces {
		owner, err := lookup(f.Owner)
		if err != nil {
			return err
		}
		ws := &workspace.Workspace{
			ID:        ulid.Make().String(),
			Name:      f.Name,
			CreatedBy: owner.ID,
			CreatedAt: now,
		}
		if err := workspaces.Create(ctx, ws); err != nil {
			return err
		}
		wsByName[ws.Name] = ws
		fmt.Printf("created workspace %s (%s)\n", ws.Name, ws.ID)

		for _, email := range f.Members {
			member, err := lookup(email)
			if err != nil {
				return err
			}
			m := &workspace.Member{
				WorkspaceID: ws.ID,
				UserID:      member.ID,
				Role:        workspace.RoleMember,
				CreatedAt:   now,
			}
			if err := workspaces.AddMember(ctx, m); err != nil {
				return err
			}
		}
	}

	for _, f := range fx.Tasks {
		ws, ok := wsByName[f.Workspace]
		if !ok {
			return fmt.Errorf("unknown workspace %q", f.Workspace)
		}
		creator, err := lookup(f.CreatedBy)
		if err != nil {
			return err
		}
		status := task.StatusPending
		if f.Status != "" {
			status, err = task.ParseStatus(f.Status)
			if err != nil {
				return err
			}
		}
		t := &task.Task{
			ID:          ulid.Make().String(),
			WorkspaceID: &ws.ID,
			Title:       f.Title,
			Priority:    task.NormalizePriority(f.Priority),
			Status:      status,
			CreatedBy:   creator.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if f.DueDate != "" {
			due, err := time.Parse("2006-01-02", f.DueDate)
			if err != nil {
				return fmt.Errorf("invalid due date %q: %w", f.DueDate, err)
			}
			t.DueDate = &due
		}
		if f.AssignedTo != "" {
			assignee, err := lookup(f.AssignedTo)
			if err != nil {
				return err
			}
			t.AssignedTo = &assignee.ID
		}
		if err := tasks.Create(ctx, t); err != nil {
			return err
		}
		fmt.Printf("created task %s (%s)\n", t.Title, t.ID)
	}

	return nil
}

// runRemind performs one due-date scan with the configured windows and no
// push delivery, useful from cron next to a running server.
func runRemind(ctx context.Context, db *storage.DB) error {
	var env config.ScannerEnv
	if err := config.LoadScannerEnv(&env); err != nil {
		return err
	}
	scanner := notification.NewScanner(
		db,
		taskrepo.NewSQLiteRepository(db),
		notificationrepo.NewSQLiteRepository(db),
		nil,
		&env,
	)
	if err := scanner.RunOnce(ctx, time.Now()); err != nil {
		return err
	}
	fmt.Println("reminder scan complete")
	return nil
}
