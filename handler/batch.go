package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/messaging"
	"github.com/LexiconIndonesia/jobscout-service/common/utils"
)

type BatchHandler struct {
	broker *messaging.NatsBroker
	router *chi.Mux
}

func NewBatchHandler(broker *messaging.NatsBroker) *BatchHandler {
	router := chi.NewRouter()

	h := &BatchHandler{
		broker: broker,
		router: router,
	}

	router.Post("/scout", h.handleBatchScout)
	router.Post("/scrape", h.handleBatchScrape)
	return h
}

func (h *BatchHandler) Router() *chi.Mux {
	return h.router
}

type BatchParams struct {
	Enhanced bool `json:"enhanced"`
	MaxPages int  `json:"max_pages" validate:"omitempty,min=1"`
	Force    bool `json:"force"`
}

func (h *BatchHandler) handleBatchScout(w http.ResponseWriter, r *http.Request) {
	h.publishBatch(w, r, "scout_only")
}

func (h *BatchHandler) handleBatchScrape(w http.ResponseWriter, r *http.Request) {
	h.publishBatch(w, r, "full")
}

func (h *BatchHandler) publishBatch(w http.ResponseWriter, r *http.Request, mode string) {
	var p BatchParams

	// An empty body means defaults.
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := messaging.BatchRunMessage{
		Mode:     mode,
		Enhanced: p.Enhanced,
		MaxPages: p.MaxPages,
		Force:    p.Force,
	}

	msg, err := json.Marshal(req)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to marshal message")
		return
	}

	if err := h.broker.PublishSync(r.Context(), messaging.SubjectBatchRun, msg); err != nil {
		log.Error().Err(err).Msg("Failed to publish batch request")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to publish message")
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "batch queued", "mode": mode})
}
