package dispatch

import (
	"WaReply/internal/lib/api/response"
	"WaReply/internal/lib/sl"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"strconv"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// List returns the latest dispatch records for the sender in the "from" query.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.dispatch"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Dispatch log not enabled"))
			return
		}

		from := r.URL.Query().Get("from")
		if from == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Query parameter 'from' is required"))
			return
		}

		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Invalid limit"))
				return
			}
			limit = min(n, maxLimit)
		}

		records, err := handler.GetDispatches(r.Context(), from, limit)
		if err != nil {
			logger.Error("get dispatches", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to get dispatches"))
			return
		}

		render.JSON(w, r, response.Ok(records))
	}
}
