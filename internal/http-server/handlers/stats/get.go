package stats

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"LiveCS/internal/lib/api/response"
	"LiveCS/internal/lib/sl"
)

// Get returns the live-visitor count for one domain.
func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.stats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		domainID := chi.URLParam(r, "domainID")
		if domainID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Missing domain id"))
			return
		}

		result, err := handler.GetDomainStats(domainID)
		if err != nil {
			logger.Error("domain stats", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Stats not available"))
			return
		}

		render.JSON(w, r, response.Ok(result))
	}
}

// GetAll returns live-visitor counts for every domain with visitors.
func GetAll(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.stats"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := handler.GetAllDomainStats()
		if err != nil {
			logger.Error("all domain stats", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Stats not available"))
			return
		}

		render.JSON(w, r, response.Ok(result))
	}
}
