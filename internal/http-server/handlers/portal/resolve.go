package portal

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

type ResolveRequest struct {
	DomainID string `json:"domain_id" validate:"required"`
	IP       string `json:"ip" validate:"required,ip"`
}

// ProfileRequired is rendered when the domain wants the widget's contact form
// filled before a customer record exists.
type ProfileRequired struct {
	ProfileRequired bool `json:"profile_required"`
}

func Resolve(log *slog.Logger, handler Core) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.portal"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid resolve request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request"))
			return
		}

		resolution, err := handler.Resolve(r.Context(), req.DomainID, req.IP)
		if err != nil {
			renderResolveError(w, r, logger, err)
			return
		}

		logger.With(
			slog.String("domain_id", req.DomainID),
			slog.String("customer_id", resolution.Customer.UUID),
			slog.String("room_id", resolution.ActiveRoom.UUID),
		).Debug("visitor resolved")

		render.JSON(w, r, response.Ok(resolution))
	}
}

func renderResolveError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, entity.ErrProfileRequired):
		render.JSON(w, r, response.Ok(ProfileRequired{ProfileRequired: true}))
	case errors.Is(err, entity.ErrInvalidInput):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
	case errors.Is(err, entity.ErrDomainNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Domain not found"))
	default:
		logger.Error("resolve visitor", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Resolve failed"))
	}
}
