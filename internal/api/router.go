package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/operating-room-scheduling/internal/surgery"
)

// Scheduler is what the HTTP layer needs from surgery.Scheduler.
type Scheduler interface {
	Schedule(ctx context.Context, doctorType string) (surgery.Request, error)
	Request(id int64) (surgery.Request, error)
	Queue() []surgery.Request
	Rooms() []surgery.RoomView
}

type RouterConfig struct {
	Scheduler Scheduler
	Logger    zerolog.Logger
	Checks    map[string]DependencyCheck // optional readiness checks by name
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/schedule", scheduleHandler(cfg.Scheduler))
	r.Get("/requests/{id}", getRequestHandler(cfg.Scheduler))
	r.Get("/queue", listQueueHandler(cfg.Scheduler))
	r.Get("/rooms", listRoomsHandler(cfg.Scheduler))

	return r
}
