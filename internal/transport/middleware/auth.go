package middleware

import (
	"net/http"

	"github.com/frahmantamala/rsms-admin/internal"
	"github.com/frahmantamala/rsms-admin/internal/session"
	"github.com/frahmantamala/rsms-admin/internal/transport"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

// BearerSession forwards the caller's bearer token to the records API
// through the request context. The token is not verified here; the records
// API decides. Requests without one are refused.
func BearerSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := transport.BearerToken(r)
		if err := session.Check(token); err != nil {
			base := transport.NewBaseHandler(logger.From(r.Context()))
			base.WriteAppError(w, err, internal.ErrMissingToken.Message)
			return
		}

		ctx := session.WithToken(r.Context(), token)
		if actor := session.Subject(token); actor != "" {
			ctx = internal.ContextWithActor(ctx, actor)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
