package workspace_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/user"
	userrepo "github.com/taskdeck/taskdeck/internal/user/repositoryimpl"
	"github.com/taskdeck/taskdeck/internal/workspace"
	workspacerepo "github.com/taskdeck/taskdeck/internal/workspace/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

type fixture struct {
	db         *storage.DB
	users      user.Repository
	workspaces workspace.Repository
	server     *workspace.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:         db,
		users:      userrepo.NewSQLiteRepository(db),
		workspaces: workspacerepo.NewSQLiteRepository(db),
	}
	f.server = workspace.NewServer(f.workspaces, f.users)
	return f
}

func (f *fixture) do(t *testing.T, actorID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.ContextWithActor(req.Context(), actorID)))
		})
	})
	r.Post("/workspaces", f.server.CreateWorkspace)
	r.Get("/workspaces", f.server.ListWorkspaces)
	r.Put("/workspaces/{workspaceID}", f.server.UpdateWorkspace)
	r.Delete("/workspaces/{workspaceID}", f.server.DeleteWorkspace)
	r.Post("/workspaces/{workspaceID}/members", f.server.AddMember)
	r.Get("/workspaces/{workspaceID}/members", f.server.ListMembers)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createUser(t *testing.T, email string) *user.User {
	t.Helper()
	u := &user.User{
		ID:           ulid.Make().String(),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

type workspaceEnvelope struct {
	Workspace *workspace.Workspace `json:"workspace"`
}

func (f *fixture) createWorkspaceHTTP(t *testing.T, actorID, name string) *workspace.Workspace {
	t.Helper()
	rec := f.do(t, actorID, http.MethodPost, "/workspaces", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp workspaceEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Workspace
}

func TestCreateAndListWorkspaces(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@example.com")
	other := f.createUser(t, "other@example.com")

	ws := f.createWorkspaceHTTP(t, owner.ID, "Marketing")
	assert.Equal(t, owner.ID, ws.CreatedBy)

	rec := f.do(t, owner.ID, http.MethodGet, "/workspaces", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Workspaces []*workspace.Workspace `json:"workspaces"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Workspaces, 1)

	rec = f.do(t, other.ID, http.MethodGet, "/workspaces", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp.Workspaces = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Workspaces)
}

func TestUpdateWorkspaceOwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@example.com")
	other := f.createUser(t, "other@example.com")
	ws := f.createWorkspaceHTTP(t, owner.ID, "Marketing")

	rec := f.do(t, other.ID, http.MethodPut, "/workspaces/"+ws.ID, `{"name":"Hijacked"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, owner.ID, http.MethodPut, "/workspaces/"+ws.ID, `{"name":"Sales"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := f.workspaces.Get(context.Background(), ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sales", stored.Name)
}

func TestDeleteWorkspaceOwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@example.com")
	member := f.createUser(t, "member@example.com")
	ws := f.createWorkspaceHTTP(t, owner.ID, "Marketing")
	require.NoError(t, f.workspaces.AddMember(context.Background(), &workspace.Member{
		WorkspaceID: ws.ID,
		UserID:      member.ID,
		Role:        workspace.RoleMember,
		CreatedAt:   time.Now(),
	}))

	rec := f.do(t, member.ID, http.MethodDelete, "/workspaces/"+ws.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, owner.ID, http.MethodDelete, "/workspaces/"+ws.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := f.workspaces.Get(context.Background(), ws.ID)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestAddMemberByEmail(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@example.com")
	member := f.createUser(t, "member@example.com")
	ws := f.createWorkspaceHTTP(t, owner.ID, "Marketing")

	rec := f.do(t, owner.ID, http.MethodPost, "/workspaces/"+ws.ID+"/members",
		`{"email":"Member@Example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	isMember, err := f.workspaces.IsMember(context.Background(), ws.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestAddMemberUnknownEmail(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@example.com")
	ws := f.createWorkspaceHTTP(t, owner.ID, "Marketing")

	rec := f.do(t, owner.ID, http.MethodPost, "/workspaces/"+ws.ID+"/members",
		`{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMembersVisibleToMembers(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "owner@example.com")
	member := f.createUser(t, "member@example.com")
	stranger := f.createUser(t, "stranger@example.com")
	ws := f.createWorkspaceHTTP(t, owner.ID, "Marketing")
	require.NoError(t, f.workspaces.AddMember(context.Background(), &workspace.Member{
		WorkspaceID: ws.ID,
		UserID:      member.ID,
		Role:        workspace.RoleMember,
		CreatedAt:   time.Now(),
	}))

	rec := f.do(t, member.ID, http.MethodGet, "/workspaces/"+ws.ID+"/members", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, stranger.ID, http.MethodGet, "/workspaces/"+ws.ID+"/members", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
