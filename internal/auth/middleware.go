package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/clog"
)

type actorKey struct{}

// ActorID returns the authenticated user id stored by Middleware, or ""
// when the request is unauthenticated.
func ActorID(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok {
		return id
	}
	return ""
}

func ContextWithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// TokenFromRequest extracts the session token from the `token` cookie or
// an Authorization bearer header, cookie first to match the web client.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie("token"); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

func (t *Tokens) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tokenString := TokenFromRequest(r)
			if tokenString == "" {
				cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "missing token", nil)
				return
			}
			claims, err := t.Verify(tokenString)
			if err != nil {
				cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "invalid token", err)
				return
			}
			clog.AddAttribute(ctx, "user_id", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ContextWithActor(ctx, claims.Subject)))
		})
	}
}
