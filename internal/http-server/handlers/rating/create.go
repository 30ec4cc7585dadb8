package rating

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"LiveCS/entity"
	"LiveCS/internal/lib/api/response"
	"LiveCS/internal/lib/sl"
)

type CreateRequest struct {
	DomainID  string `json:"domain_id" validate:"required"`
	VisitorID string `json:"visitor_id" validate:"required"`
	Rating    string `json:"rating" validate:"required,oneof=positive negative"`
	Comment   string `json:"comment" validate:"omitempty,max=2000"`
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.rating"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid rating request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request"))
			return
		}

		record, err := handler.SaveRating(r.Context(), req.DomainID, req.VisitorID, req.Rating, req.Comment)
		if err != nil {
			switch {
			case errors.Is(err, entity.ErrInvalidInput):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error(err.Error()))
			case errors.Is(err, entity.ErrDomainNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("Domain not found"))
			default:
				logger.Error("save rating", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Failed to save rating"))
			}
			return
		}

		logger.With(
			slog.String("domain_id", req.DomainID),
			slog.String("rating", req.Rating),
		).Debug("rating saved")

		render.JSON(w, r, response.Ok(record))
	}
}
