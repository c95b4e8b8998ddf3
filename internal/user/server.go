package user

import (
	"net/http"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

type listUsersResponse struct {
	Users []*User `json:"users"`
}

// ListUsers backs the member picker: every authenticated user may see the
// directory of registered users.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, listUsersResponse{Users: users})
}
