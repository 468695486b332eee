package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/smartstudy/smartstudy/internal/respond"
)

// PingFunc checks that the database answers.
type PingFunc func(ctx context.Context) error

type HomeHandler struct {
	ping PingFunc
}

func NewHomeHandler(ping PingFunc) *HomeHandler {
	return &HomeHandler{ping: ping}
}

func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	respond.Text(w, http.StatusOK, "Social Learning Platform API is running")
}

func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		err := h.ping(r.Context())
		if err != nil {
			slog.Error("health check failed", "error", err)
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respond.OK(w, map[string]string{"status": "ok"})
}

func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusNotFound, "Not found")
}
