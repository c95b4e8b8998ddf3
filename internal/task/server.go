package task

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/access"
	"github.com/taskdeck/taskdeck/internal/assignment"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/workspace"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

type Server struct {
	repo       Repository
	workspaces workspace.Repository
	resolver   *access.Resolver
	ledger     *assignment.Ledger
	eventBus   *eventbus.Bus
}

func NewServer(
	repo Repository,
	workspaces workspace.Repository,
	resolver *access.Resolver,
	ledger *assignment.Ledger,
	eventBus *eventbus.Bus,
) *Server {
	return &Server{
		repo:       repo,
		workspaces: workspaces,
		resolver:   resolver,
		ledger:     ledger,
		eventBus:   eventBus,
	}
}

type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assignedTo"`
}

type taskResponse struct {
	Task *Task `json:"task"`
}

type listTasksResponse struct {
	Tasks []*Task `json:"tasks"`
	Total int     `json:"total"`
}

func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q", s)
	}
	return &t, nil
}

// CreateTask handles POST /workspaces/{workspaceID}/tasks.
func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	ws, err := s.workspaces.Get(ctx, chi.URLParam(r, "workspaceID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	ok, err := s.resolver.CanCreateTask(ctx, actorID, ws)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "workspace not found", nil)
		return
	}
	s.create(w, r, &ws.ID)
}

// CreateGlobalTask handles POST /admin/tasks for the pool of tasks
// without a workspace.
func (s *Server) CreateGlobalTask(w http.ResponseWriter, r *http.Request) {
	s.create(w, r, nil)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, workspaceID *string) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	title := ""
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}
	if title == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "task title is required", nil)
		return
	}

	priority := PriorityMedium
	if req.Priority != nil {
		priority = NormalizePriority(*req.Priority)
	}
	var dueDate *time.Time
	if req.DueDate != nil {
		var err error
		dueDate, err = parseDueDate(*req.DueDate)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
			return
		}
	}
	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	now := time.Now()
	t := &Task{
		ID:          ulid.Make().String(),
		WorkspaceID: workspaceID,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      StatusPending,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.EventTaskCreated, t.ID, actorID, map[string]string{
		"task_title": t.Title,
	})

	if req.AssignedTo != nil && strings.TrimSpace(*req.AssignedTo) != "" {
		var err error
		t, _, err = s.ledger.Assign(ctx, actorID, t, *req.AssignedTo)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, taskResponse{Task: t})
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	filter := ListFilter{
		Status:   strings.ToLower(q.Get("status")),
		Priority: strings.ToLower(q.Get("priority")),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}

// ListTasks handles GET /workspaces/{workspaceID}/tasks. Owners and
// members see every task; anyone else sees only tasks assigned to them,
// and gets not found when that leaves nothing.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	ws, err := s.workspaces.Get(ctx, chi.URLParam(r, "workspaceID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	filter := filterFromQuery(r)

	ok, err := s.resolver.CanCreateTask(ctx, actorID, ws)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if !ok {
		filter.AssignedTo = actorID
	}

	tasks, total, err := s.repo.ListByWorkspace(ctx, ws.ID, filter)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if !ok && total == 0 {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "workspace not found", nil)
		return
	}
	cerr.SetJSONResponse(ctx, listTasksResponse{Tasks: tasks, Total: total})
}

// ListGlobalTasks handles GET /admin/tasks: each caller sees the pool
// tasks they created or are assigned to.
func (s *Server) ListGlobalTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	tasks, _, err := s.repo.ListGlobal(ctx, filterFromQuery(r))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	visible := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if t.CreatedBy == actorID || (t.AssignedTo != nil && *t.AssignedTo == actorID) {
			visible = append(visible, t)
		}
	}
	cerr.SetJSONResponse(ctx, listTasksResponse{Tasks: visible, Total: len(visible)})
}

// getMutable loads the task, checks it belongs to the routed scope and
// that the actor may mutate it.
func (s *Server) getMutable(r *http.Request, actorID string, workspaceScoped bool) (*Task, error) {
	ctx := r.Context()
	t, err := s.repo.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		return nil, err
	}
	if workspaceScoped {
		if t.WorkspaceID == nil || *t.WorkspaceID != chi.URLParam(r, "workspaceID") {
			return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
		}
	} else if t.WorkspaceID != nil {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	ok, err := s.resolver.CanMutateTask(ctx, actorID, t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return t, nil
}

// UpdateTask handles PUT /workspaces/{workspaceID}/tasks/{taskID};
// only supplied fields are persisted.
func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, true)
}

// UpdateGlobalTask handles PUT /admin/tasks/{taskID}.
func (s *Server) UpdateGlobalTask(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, false)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, workspaceScoped bool) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	t, err := s.getMutable(r, actorID, workspaceScoped)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	// Assignee changes go through the ledger, never a direct field write.
	if req.AssignedTo != nil && strings.TrimSpace(*req.AssignedTo) != "" {
		t, _, err = s.ledger.Assign(ctx, actorID, t, *req.AssignedTo)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "task title is required", nil)
			return
		}
		t.Title = title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.DueDate != nil {
		dueDate, err := parseDueDate(*req.DueDate)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
			return
		}
		t.DueDate = dueDate
	}
	if req.Priority != nil {
		t.Priority = NormalizePriority(*req.Priority)
	}

	oldStatus := t.Status
	if req.Status != nil {
		status, err := ParseStatus(*req.Status)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), nil)
			return
		}
		t.Status = status
	}

	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if t.Status != oldStatus && t.AssignedTo != nil {
		s.eventBus.PublishNew(eventbus.EventTaskStatusChanged, t.ID, actorID, map[string]string{
			"old_status":  string(oldStatus),
			"new_status":  string(t.Status),
			"assignee_id": *t.AssignedTo,
			"task_title":  t.Title,
		})
	}

	cerr.SetJSONResponse(ctx, taskResponse{Task: t})
}

type assignRequest struct {
	AssignedTo string `json:"assignedTo"`
}

type assignResponse struct {
	Task   *Task              `json:"task"`
	Record *assignment.Record `json:"record"`
}

// AssignTask handles PUT /workspaces/{workspaceID}/tasks/{taskID}/assign.
// Non-members may assign a task to themselves, which makes them a member.
func (s *Server) AssignTask(w http.ResponseWriter, r *http.Request) {
	s.assign(w, r, true)
}

// AssignGlobalTask handles PUT /admin/tasks/{taskID}/assign.
func (s *Server) AssignGlobalTask(w http.ResponseWriter, r *http.Request) {
	s.assign(w, r, false)
}

func (s *Server) assign(w http.ResponseWriter, r *http.Request, workspaceScoped bool) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.AssignedTo) == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "assignee is required", nil)
		return
	}

	t, err := s.repo.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if workspaceScoped {
		if t.WorkspaceID == nil || *t.WorkspaceID != chi.URLParam(r, "workspaceID") {
			cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
			return
		}
	} else if t.WorkspaceID != nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
		return
	}

	// Self-assignment is the one mutation open to non-members; anything
	// else still requires mutate access.
	assignee, err := s.ledger.ResolveAssignee(ctx, req.AssignedTo)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if assignee.ID != actorID {
		ok, err := s.resolver.CanMutateTask(ctx, actorID, t)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		if !ok {
			cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
			return
		}
	}

	t, rec, err := s.ledger.Assign(ctx, actorID, t, req.AssignedTo)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, assignResponse{Task: t, Record: rec})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type bulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// BulkDeleteTasks handles DELETE /workspaces/{workspaceID}/tasks. Only
// the workspace owner may delete; zero matched rows is an error, not a
// silent no-op.
func (s *Server) BulkDeleteTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if len(req.IDs) == 0 {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "task ids are required", nil)
		return
	}

	ws, err := s.workspaces.Get(ctx, chi.URLParam(r, "workspaceID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if !s.resolver.CanViewWorkspace(ctx, actorID, ws) {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "workspace not found", nil)
		return
	}

	deleted, err := s.repo.DeleteByIDs(ctx, &ws.ID, req.IDs)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if deleted == 0 {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "no tasks deleted", nil)
		return
	}
	for _, id := range req.IDs {
		s.eventBus.PublishNew(eventbus.EventTaskDeleted, id, actorID, nil)
	}
	cerr.SetJSONResponse(ctx, bulkDeleteResponse{Deleted: deleted})
}

// BulkDeleteGlobalTasks handles DELETE /admin/tasks; callers may only
// delete pool tasks they created.
func (s *Server) BulkDeleteGlobalTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if len(req.IDs) == 0 {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "task ids are required", nil)
		return
	}

	owned := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		t, err := s.repo.Get(ctx, id)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				continue
			}
			cerr.SetJSONError(ctx, err)
			return
		}
		if t.WorkspaceID == nil && t.CreatedBy == actorID {
			owned = append(owned, id)
		}
	}

	deleted, err := s.repo.DeleteByIDs(ctx, nil, owned)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if deleted == 0 {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "no tasks deleted", nil)
		return
	}
	for _, id := range owned {
		s.eventBus.PublishNew(eventbus.EventTaskDeleted, id, actorID, nil)
	}
	cerr.SetJSONResponse(ctx, bulkDeleteResponse{Deleted: deleted})
}
