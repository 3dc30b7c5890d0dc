package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/auth"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/handler/http/response"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	sessionKey contextKey = "session"
	tokenKey   contextKey = "token"
)

// SessionResolver loads the gateway session named in an access token.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (session.Session, error)
}

// TokenFromQuery reads the token query parameter. EventSource cannot send
// an Authorization header.
func TokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get("token")
}

func rawToken(r *http.Request) string {
	if token := jwtauth.TokenFromHeader(r); token != "" {
		return token
	}
	return TokenFromQuery(r)
}

// AuthRequired rejects requests without a verified access token whose
// session is still active, and puts that session in the request context.
func AuthRequired(jwtService jwt.Service, sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, mapClaims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			claims, err := jwtService.ParseClaims(mapClaims)
			if err != nil || claims.Type != jwt.TokenTypeAccess {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			raw := rawToken(r)
			if jwtService.IsTokenRevoked(raw) {
				response.HandleError(w, auth.ErrSessionRevoked)
				return
			}

			sess, err := sessions.ResolveSession(r.Context(), claims.SessionID)
			if err != nil {
				response.HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			ctx = context.WithValue(ctx, tokenKey, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

func SessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(session.Session)
	return sess, ok
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
