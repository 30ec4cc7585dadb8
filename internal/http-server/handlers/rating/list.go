package rating

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"LiveCS/entity"
	"LiveCS/internal/lib/api/response"
	"LiveCS/internal/lib/sl"
)

// List returns a domain's satisfaction ratings, newest first. Dashboard
// surface, behind the api key.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.rating"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		domainID := chi.URLParam(r, "domainID")
		if domainID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Missing domain id"))
			return
		}

		ratings, err := handler.ListRatings(r.Context(), domainID)
		if err != nil {
			if errors.Is(err, entity.ErrDomainNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("Domain not found"))
				return
			}
			logger.Error("list ratings", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list ratings"))
			return
		}

		render.JSON(w, r, response.Ok(ratings))
	}
}
