package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/messaging"
	"github.com/LexiconIndonesia/jobscout-service/common/utils"
)

type ScoutHandler struct {
	broker *messaging.NatsBroker
	router *chi.Mux
}

func NewScoutHandler(broker *messaging.NatsBroker) *ScoutHandler {
	router := chi.NewRouter()

	h := &ScoutHandler{
		broker: broker,
		router: router,
	}

	router.Post("/", h.handleScoutSite)
	return h
}

func (h *ScoutHandler) Router() *chi.Mux {
	return h.router
}

type ScoutSiteParams struct {
	CompanyName     string `json:"company_name" validate:"required"`
	CareerURL       string `json:"career_url" validate:"required,url"`
	DetailSampleURL string `json:"detail_sample_url" validate:"omitempty,url"`
	Enhanced        bool   `json:"enhanced"`
	Force           bool   `json:"force"`
}

func (h *ScoutHandler) handleScoutSite(w http.ResponseWriter, r *http.Request) {
	var p ScoutSiteParams

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := messaging.ScoutRunMessage{
		CompanyName:     p.CompanyName,
		CareerURL:       p.CareerURL,
		DetailSampleURL: p.DetailSampleURL,
		Enhanced:        p.Enhanced,
		Force:           p.Force,
	}

	msg, err := json.Marshal(req)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to marshal message")
		return
	}

	if err := h.broker.PublishSync(r.Context(), messaging.SubjectScoutRun, msg); err != nil {
		log.Error().Err(err).Msg("Failed to publish scout request")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to publish message")
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "scout queued"})
}
