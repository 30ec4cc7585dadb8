package room

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

// Delete removes a conversation and its messages on explicit operator
// request.
func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.room"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		roomID := chi.URLParam(r, "roomID")
		if roomID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Missing room id"))
			return
		}

		if err := handler.DeleteRoom(r.Context(), roomID); err != nil {
			if errors.Is(err, entity.ErrRoomNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("Room not found"))
				return
			}
			logger.Error("delete room", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to delete room"))
			return
		}

		logger.With(slog.String("room_id", roomID)).Info("room deleted")
		render.JSON(w, r, response.Ok(nil))
	}
}
