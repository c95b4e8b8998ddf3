package workspace

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/user"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

type Server struct {
	repo  Repository
	users user.Repository
}

func NewServer(repo Repository, users user.Repository) *Server {
	return &Server{repo: repo, users: users}
}

// getOwned loads the workspace and verifies the actor owns it. Missing and
// forbidden are reported identically as not found.
func (s *Server) getOwned(r *http.Request, actorID string) (*Workspace, error) {
	ws, err := s.repo.Get(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		return nil, err
	}
	if ws.CreatedBy != actorID {
		return nil, cerr.NewError(cerr.NotFound, "workspace not found", nil)
	}
	return ws, nil
}

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

type workspaceResponse struct {
	Workspace *Workspace `json:"workspace"`
}

func (s *Server) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "workspace name is required", nil)
		return
	}

	ws := &Workspace{
		ID:        ulid.Make().String(),
		Name:      req.Name,
		CreatedBy: auth.ActorID(ctx),
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, ws); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, workspaceResponse{Workspace: ws})
}

type listWorkspacesResponse struct {
	Workspaces []*Workspace `json:"workspaces"`
}

func (s *Server) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wss, err := s.repo.ListByUser(ctx, auth.ActorID(ctx))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, listWorkspacesResponse{Workspaces: wss})
}

func (s *Server) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "workspace name is required", nil)
		return
	}

	ws, err := s.getOwned(r, auth.ActorID(ctx))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	ws.Name = req.Name
	if err := s.repo.Update(ctx, ws); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, workspaceResponse{Workspace: ws})
}

func (s *Server) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, err := s.getOwned(r, auth.ActorID(ctx))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Delete(ctx, ws.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]string{"message": "workspace deleted"})
}

type addMemberRequest struct {
	Email string `json:"email"`
}

type memberResponse struct {
	Member *Member `json:"member"`
}

func (s *Server) AddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	ws, err := s.getOwned(r, auth.ActorID(ctx))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	m := &Member{
		WorkspaceID: ws.ID,
		UserID:      u.ID,
		Role:        RoleMember,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.AddMember(ctx, m); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, memberResponse{Member: m})
}

type listMembersResponse struct {
	Members []*Member `json:"members"`
}

func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)
	ws, err := s.repo.Get(ctx, chi.URLParam(r, "workspaceID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if ws.CreatedBy != actorID {
		isMember, err := s.repo.IsMember(ctx, ws.ID, actorID)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		if !isMember {
			cerr.SetNewJSONError(ctx, cerr.NotFound, "workspace not found", nil)
			return
		}
	}
	members, err := s.repo.ListMembers(ctx, ws.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, listMembersResponse{Members: members})
}
