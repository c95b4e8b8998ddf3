package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/user"
	userrepo "github.com/taskdeck/taskdeck/internal/user/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

func newRouter(t *testing.T) (chi.Router, *auth.Tokens) {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens := auth.NewTokens(&config.AuthEnv{JWTSecret: "test-secret", TokenTTL: time.Hour})
	server := auth.NewServer(userrepo.NewSQLiteRepository(db), tokens)

	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	r.Post("/auth/register", server.Register)
	r.Post("/auth/login", server.Login)
	r.Post("/auth/logout", server.Logout)
	r.Group(func(r chi.Router) {
		r.Use(tokens.Middleware())
		r.Get("/me", func(w http.ResponseWriter, req *http.Request) {
			cerr.SetJSONResponse(req.Context(), map[string]string{"userId": auth.ActorID(req.Context())})
		})
	})
	return r, tokens
}

func do(r http.Handler, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterThenLogin(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(r, http.MethodPost, "/auth/register",
		`{"firstName":"Ann","lastName":"Lee","email":"Ann@Example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg struct {
		User *user.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, "ann@example.com", reg.User.Email, "emails are normalized to lowercase")
	assert.NotContains(t, rec.Body.String(), "password", "the hash must never be serialized")

	rec = do(r, http.MethodPost, "/auth/login",
		`{"email":"ann@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(r, http.MethodPost, "/auth/register",
		`{"firstName":"Ann","lastName":"Lee","email":"ann@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(r, http.MethodPost, "/auth/login",
		`{"email":"ann@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, http.MethodPost, "/auth/login",
		`{"email":"ghost@example.com","password":"hunter2"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "unknown account and bad password must be indistinguishable")
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(r, http.MethodPost, "/auth/register",
		`{"firstName":"Ann","lastName":"Lee","email":"not-an-email","password":"hunter2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/auth/register",
		`{"firstName":"Ann","lastName":"Lee","email":"ann@example.com","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, _ := newRouter(t)

	body := `{"firstName":"Ann","lastName":"Lee","email":"ann@example.com","password":"hunter2"}`
	rec := do(r, http.MethodPost, "/auth/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(r, http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMiddlewareAcceptsCookieAndBearer(t *testing.T) {
	r, tokens := newRouter(t)

	signed, _, err := tokens.Issue("user-1", "dev@example.com")
	require.NoError(t, err)

	rec := do(r, http.MethodGet, "/me", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "token", Value: signed})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")

	rec = do(r, http.MethodGet, "/me", "", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+signed)
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
