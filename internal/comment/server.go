package comment

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/realtime"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/internal/user"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

type Server struct {
	repo     Repository
	tasks    task.Repository
	users    user.Repository
	resolver *access.Resolver
	hub      *realtime.Hub
	eventBus *eventbus.Bus
}

func NewServer(
	repo Repository,
	tasks task.Repository,
	users user.Repository,
	resolver *access.Resolver,
	hub *realtime.Hub,
	eventBus *eventbus.Bus,
) *Server {
	return &Server{
		repo:     repo,
		tasks:    tasks,
		users:    users,
		resolver: resolver,
		hub:      hub,
		eventBus: eventBus,
	}
}

type createCommentRequest struct {
	Text string `json:"text"`
}

type commentResponse struct {
	Comment *Comment `json:"comment"`
}

type listCommentsResponse struct {
	Comments []*Comment `json:"comments"`
}

// viewableTask loads the task and verifies the actor may see it. Callers
// get not found whether the task is missing or merely out of reach.
func (s *Server) viewableTask(r *http.Request, actorID string) (*task.Task, error) {
	ctx := r.Context()
	t, err := s.tasks.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		return nil, err
	}
	ok, err := s.resolver.CanViewTask(ctx, actorID, t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return t, nil
}

// CreateComment handles POST /tasks/{taskID}/comments. The comment is
// fanned out to the task's live subscribers only after the insert
// succeeds, so every broadcast comment is also in the history.
func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "comment text is required", nil)
		return
	}

	t, err := s.viewableTask(r, actorID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	author, err := s.users.Get(ctx, actorID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	c := &Comment{
		ID:         ulid.Make().String(),
		TaskID:     t.ID,
		UserID:     actorID,
		Text:       text,
		CreatedAt:  time.Now(),
		AuthorName: author.FirstName + " " + author.LastName,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.hub.Publish(t.ID, realtime.NewCommentMessage(c))
	s.eventBus.PublishNew(eventbus.EventCommentCreated, t.ID, actorID, map[string]string{
		"comment_id": c.ID,
	})

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, commentResponse{Comment: c})
}

// ListComments handles GET /tasks/{taskID}/comments, oldest first.
func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, err := s.viewableTask(r, auth.ActorID(ctx))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cs, err := s.repo.ListByTask(ctx, t.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, listCommentsResponse{Comments: cs})
}
