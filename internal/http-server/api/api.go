package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"LiveCS/internal/config"
	"LiveCS/internal/http-server/handlers/admin"
	"LiveCS/internal/http-server/handlers/errors"
	"LiveCS/internal/http-server/handlers/portal"
	"LiveCS/internal/http-server/handlers/rating"
	"LiveCS/internal/http-server/handlers/room"
	"LiveCS/internal/http-server/handlers/stats"
	"LiveCS/internal/http-server/middleware/authenticate"
	"LiveCS/internal/http-server/middleware/timeout"
	"LiveCS/internal/lib/sl"
	"LiveCS/internal/ws"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	portal.Core
	room.Core
	rating.Core
	stats.Core
	admin.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	// Realtime transport lives outside the JSON middleware chain.
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, log, w, r)
	})

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(timeout.Timeout(15))
		v1.Use(render.SetContentType(render.ContentTypeJSON))

		// Widget-facing surface: anonymous visitors, no api key.
		v1.Group(func(pub chi.Router) {
			pub.Route("/portal", func(r chi.Router) {
				r.Post("/resolve", portal.Resolve(log, handler))
				r.Post("/profile", portal.SubmitProfile(log, handler))
			})
			pub.Post("/ratings", rating.Create(log, handler))
		})

		// Operator/admin surface.
		v1.Group(func(priv chi.Router) {
			priv.Use(authenticate.New(log, handler))
			priv.Route("/rooms", func(r chi.Router) {
				r.Get("/{roomID}/messages", room.Messages(log, handler))
				r.Delete("/{roomID}", room.Delete(log, handler))
			})
			priv.Get("/ratings/{domainID}", rating.List(log, handler))
			priv.Route("/stats", func(r chi.Router) {
				r.Get("/", stats.GetAll(log, handler))
				r.Get("/{domainID}", stats.Get(log, handler))
			})
			priv.Post("/admin/sweep", admin.Sweep(log, handler))
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
