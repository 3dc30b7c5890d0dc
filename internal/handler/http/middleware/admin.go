package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/auth"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AdminOnly must run after AuthRequired. Both the token claim and the
// session user have to agree on the admin role.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		admin, ok := claims["is_admin"].(bool)
		if !admin || !ok {
			response.HandleError(w, user.ErrAdminPrivilegeRequired)
			return
		}

		sess, ok := SessionFromContext(r.Context())
		if !ok || !sess.User.IsAdmin() {
			response.HandleError(w, user.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
