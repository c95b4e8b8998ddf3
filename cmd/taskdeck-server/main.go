package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/assignment"
	assignmentrepo "github.com/taskdeck/taskdeck/internal/assignment/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/comment"
	commentrepo "github.com/taskdeck/taskdeck/internal/comment/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/notification"
	notificationrepo "github.com/taskdeck/taskdeck/internal/notification/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/pushsubscription"
	pushsubrepo "github.com/taskdeck/taskdeck/internal/pushsubscription/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/realtime"
	"github.com/taskdeck/taskdeck/internal/task"
	taskrepo "github.com/taskdeck/taskdeck/internal/task/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/user"
	userrepo "github.com/taskdeck/taskdeck/internal/user/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/workspace"
	workspacerepo "github.com/taskdeck/taskdeck/internal/workspace/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/clog"
	"github.com/taskdeck/taskdeck/pkg/panicerr"
	"github.com/taskdeck/taskdeck/pkg/storage"

	server "github.com/taskdeck/taskdeck/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	db, err := storage.Open(env.DBEnv.Path)
	if err != nil {
		slog.Error("failed to open database", "path", env.DBEnv.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	userRepo := userrepo.NewSQLiteRepository(db)
	workspaceRepo := workspacerepo.NewSQLiteRepository(db)
	taskRepo := taskrepo.NewSQLiteRepository(db)
	assignmentRepo := assignmentrepo.NewSQLiteRepository(db)
	commentRepo := commentrepo.NewSQLiteRepository(db)
	notificationRepo := notificationrepo.NewSQLiteRepository(db)
	pushSubRepo := pushsubrepo.NewSQLiteRepository(db)

	// Setup domain services
	tokens := auth.NewTokens(&env.AuthEnv)
	resolver := access.NewResolver(workspaceRepo)
	ledger := assignment.NewLedger(db, taskRepo, userRepo, workspaceRepo, assignmentRepo, bus)
	hub := realtime.NewHub()

	// Setup push notification
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := notification.NewSender(vapidEnv, pushSubRepo)

	// Setup servers
	authServer := auth.NewServer(userRepo, tokens)
	userServer := user.NewServer(userRepo)
	workspaceServer := workspace.NewServer(workspaceRepo, userRepo)
	taskServer := task.NewServer(taskRepo, workspaceRepo, resolver, ledger, bus)
	commentServer := comment.NewServer(commentRepo, taskRepo, userRepo, resolver, hub, bus)
	notificationServer := notification.NewServer(notificationRepo)
	pushServer := pushsubscription.NewServer(vapidEnv, pushSubRepo)
	realtimeServer := realtime.NewServer(hub, tokens, taskRepo, resolver)

	srv := server.NewServer(
		env,
		tokens,
		authServer,
		userServer,
		workspaceServer,
		taskServer,
		commentServer,
		notificationServer,
		pushServer,
		realtimeServer,
	)

	// Setup background workers
	engine := notification.NewEngine(bus, notificationRepo, pushSender)
	scanner := notification.NewScanner(db, taskRepo, notificationRepo, pushSender, &env.ScannerEnv)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	startWorker := func(name string, start func(context.Context)) {
		safe := panicerr.SafeContext(func(ctx context.Context) error {
			start(ctx)
			return nil
		})
		go func() {
			if err := safe(ctx); err != nil {
				slog.Error("background worker crashed", "worker", name, "error", err)
			}
		}()
	}
	startWorker("notification-engine", engine.Start)
	startWorker("due-date-scanner", scanner.Start)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after the base context is
	// cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
