package authenticate

import (
	"WaReply/internal/lib/api/response"
	"WaReply/internal/lib/sl"
	"crypto/subtle"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"strings"
)

// New guards routes with a static bearer key.
func New(log *slog.Logger, key string) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			logger := log.With(
				mod,
				slog.String("path", r.URL.Path),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			header := r.Header.Get("Authorization")
			if len(header) == 0 {
				logger.Debug("authorization header not found")
				authFailed(w, r, "Authorization header not found")
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || len(token) == 0 {
				logger.Debug("token not found")
				authFailed(w, r, "Token not found")
				return
			}

			if key == "" || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				logger.With(sl.Secret("token", token)).Warn("invalid token")
				authFailed(w, r, "Unauthorized: invalid token")
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
