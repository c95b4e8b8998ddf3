package notification

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

type listNotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
}

func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}
	ns, err := s.repo.ListByUser(ctx, auth.ActorID(ctx), limit)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, listNotificationsResponse{Notifications: ns})
}

func (s *Server) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.repo.MarkRead(ctx, chi.URLParam(r, "notificationID"), auth.ActorID(ctx)); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]string{"message": "notification read"})
}
