package main

import (
	"LiveCS/ai/gpt"
	"LiveCS/impl/core"
	"LiveCS/internal/config"
	repository "LiveCS/internal/database"
	"LiveCS/internal/http-server/api"
	"LiveCS/internal/lib/logger"
	"LiveCS/internal/lib/sl"
	"LiveCS/internal/ws"
	"context"
	"flag"
	"log/slog"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting livecs", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(conf.Retention(), conf.InactivityGap(), lg)
	handler.SetAuthKey(conf.Listen.ApiKey)

	ctx := context.Background()

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		handler.SetRepository(db)
		if err := db.EnsureIndexes(ctx); err != nil {
			lg.With(
				sl.Err(err),
			).Error("ensure mongo indexes")
		}
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	responder := gpt.NewResponder(conf, lg)
	if responder != nil {
		handler.SetAssistant(responder)
		lg.With(
			sl.Secret("openai_key", conf.OpenAI.ApiKey),
			slog.String("model", conf.OpenAI.Model),
		).Info("assistant responder initialized")
	}

	presence := ws.NewTracker(conf.PresenceTimeout())
	hub := ws.NewHub(presence, lg)
	hub.SetHandler(handler)
	handler.SetFanout(hub)
	handler.SetPresence(presence)

	go hub.Run()
	go presence.Run(ctx)
	go handler.RunSweeper(ctx, conf.SweepInterval())

	lg.With(
		slog.Duration("retention", conf.Retention()),
		slog.Duration("inactivity_gap", conf.InactivityGap()),
		slog.Duration("presence_timeout", conf.PresenceTimeout()),
	).Info("realtime core initialized")

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, hub)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
