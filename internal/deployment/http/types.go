package http

import "github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/service"

type Handler struct {
	tracker *service.Tracker
}

func New(tracker *service.Tracker) *Handler {
	return &Handler{tracker: tracker}
}
