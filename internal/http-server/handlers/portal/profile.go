package portal

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"LiveCS/entity"
	"LiveCS/internal/lib/api/response"
	"LiveCS/internal/lib/sl"
)

type ProfileRequest struct {
	DomainID    string `json:"domain_id" validate:"required"`
	IP          string `json:"ip" validate:"required,ip"`
	Name        string `json:"name" validate:"omitempty"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty"`
	CountryCode string `json:"country_code" validate:"omitempty"`
}

// SubmitProfile accepts the widget's profile form, creating the customer and
// their first room, or enriching an already known customer.
func SubmitProfile(log *slog.Logger, handler Core) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.portal"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid profile request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request"))
			return
		}

		profile := entity.Profile{
			Name:        req.Name,
			Email:       req.Email,
			Phone:       req.Phone,
			CountryCode: req.CountryCode,
		}

		resolution, err := handler.SubmitProfile(r.Context(), req.DomainID, req.IP, profile)
		if err != nil {
			renderResolveError(w, r, logger, err)
			return
		}

		logger.With(
			slog.String("domain_id", req.DomainID),
			slog.String("customer_id", resolution.Customer.UUID),
		).Debug("profile submitted")

		render.JSON(w, r, response.Ok(resolution))
	}
}
