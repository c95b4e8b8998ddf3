package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/comment"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/notification"
	"github.com/taskdeck/taskdeck/internal/pushsubscription"
	"github.com/taskdeck/taskdeck/internal/realtime"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/internal/user"
	"github.com/taskdeck/taskdeck/internal/workspace"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/clog"
)

type Server struct {
	server             *http.Server
	env                *config.Env
	tokens             *auth.Tokens
	authServer         *auth.Server
	userServer         *user.Server
	workspaceServer    *workspace.Server
	taskServer         *task.Server
	commentServer      *comment.Server
	notificationServer *notification.Server
	pushServer         *pushsubscription.Server
	realtimeServer     *realtime.Server
}

func NewServer(
	env *config.Env,
	tokens *auth.Tokens,
	authServer *auth.Server,
	userServer *user.Server,
	workspaceServer *workspace.Server,
	taskServer *task.Server,
	commentServer *comment.Server,
	notificationServer *notification.Server,
	pushServer *pushsubscription.Server,
	realtimeServer *realtime.Server,
) *Server {
	return &Server{
		env:                env,
		tokens:             tokens,
		authServer:         authServer,
		userServer:         userServer,
		workspaceServer:    workspaceServer,
		taskServer:         taskServer,
		commentServer:      commentServer,
		notificationServer: notificationServer,
		pushServer:         pushServer,
		realtimeServer:     realtimeServer,
	}
}

// ListenAndServe starts the HTTP server. The provided context is used as
// the base context for all incoming requests via http.Server.BaseContext,
// so cancelling it on shutdown also ends open websocket sessions.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})

		r.Post("/auth/register", s.authServer.Register)
		r.Post("/auth/login", s.authServer.Login)
		r.Post("/auth/logout", s.authServer.Logout)
		r.Get("/push/vapid-public-key", s.pushServer.VAPIDPublicKey)

		r.Group(func(r chi.Router) {
			r.Use(s.tokens.Middleware())

			r.Get("/users", s.userServer.ListUsers)

			r.Route("/workspaces", func(r chi.Router) {
				r.Post("/", s.workspaceServer.CreateWorkspace)
				r.Get("/", s.workspaceServer.ListWorkspaces)
				r.Route("/{workspaceID}", func(r chi.Router) {
					r.Put("/", s.workspaceServer.UpdateWorkspace)
					r.Delete("/", s.workspaceServer.DeleteWorkspace)
					r.Post("/members", s.workspaceServer.AddMember)
					r.Get("/members", s.workspaceServer.ListMembers)

					r.Route("/tasks", func(r chi.Router) {
						r.Post("/", s.taskServer.CreateTask)
						r.Get("/", s.taskServer.ListTasks)
						r.Delete("/", s.taskServer.BulkDeleteTasks)
						r.Put("/{taskID}", s.taskServer.UpdateTask)
						r.Put("/{taskID}/assign", s.taskServer.AssignTask)
					})
				})
			})

			r.Route("/admin/tasks", func(r chi.Router) {
				r.Post("/", s.taskServer.CreateGlobalTask)
				r.Get("/", s.taskServer.ListGlobalTasks)
				r.Delete("/", s.taskServer.BulkDeleteGlobalTasks)
				r.Put("/{taskID}", s.taskServer.UpdateGlobalTask)
				r.Put("/{taskID}/assign", s.taskServer.AssignGlobalTask)
			})

			r.Route("/tasks/{taskID}/comments", func(r chi.Router) {
				r.Post("/", s.commentServer.CreateComment)
				r.Get("/", s.commentServer.ListComments)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.notificationServer.ListNotifications)
				r.Put("/{notificationID}/read", s.notificationServer.MarkRead)
			})

			r.Route("/push/subscriptions", func(r chi.Router) {
				r.Post("/", s.pushServer.Subscribe)
				r.Delete("/", s.pushServer.Unsubscribe)
			})
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle("/ws", s.realtimeServer.Handler())

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(mux), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
