package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"LiveCS/internal/lib/api/response"
	"LiveCS/internal/lib/sl"
)

type SweepRequest struct {
	// Cutoff overrides the retention-window default when set. RFC 3339.
	Cutoff *time.Time `json:"cutoff,omitempty"`
}

// Sweep triggers an on-demand retention sweep and reports what it removed.
func Sweep(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.admin"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req SweepRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				logger.Error("failed to decode request body", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Invalid request body"))
				return
			}
		}

		var (
			stats interface{}
			err   error
		)
		if req.Cutoff != nil {
			stats, err = handler.SweepBefore(r.Context(), *req.Cutoff)
		} else {
			stats, err = handler.Sweep(r.Context())
		}
		if err != nil {
			logger.Error("on-demand sweep", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Sweep failed"))
			return
		}

		render.JSON(w, r, response.Ok(stats))
	}
}
