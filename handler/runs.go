package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/utils"
	"github.com/LexiconIndonesia/jobscout-service/common/work"
)

type RunHandler struct {
	tracker *work.RunTracker
	router  *chi.Mux
}

func NewRunHandler(tracker *work.RunTracker) *RunHandler {
	router := chi.NewRouter()

	h := &RunHandler{
		tracker: tracker,
		router:  router,
	}

	router.Get("/", h.handleListRunning)
	return h
}

func (h *RunHandler) Router() *chi.Mux {
	return h.router
}

func (h *RunHandler) handleListRunning(w http.ResponseWriter, r *http.Request) {
	running, err := h.tracker.ListRunning(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list running sites")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list running sites")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"running": running})
}
