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

type ScrapeHandler struct {
	broker *messaging.NatsBroker
	router *chi.Mux
}

func NewScrapeHandler(broker *messaging.NatsBroker) *ScrapeHandler {
	router := chi.NewRouter()

	h := &ScrapeHandler{
		broker: broker,
		router: router,
	}

	router.Post("/", h.handleScrapeSite)
	return h
}

func (h *ScrapeHandler) Router() *chi.Mux {
	return h.router
}

type ScrapeSiteParams struct {
	CompanyName string `json:"company_name" validate:"required"`
	CareerURL   string `json:"career_url" validate:"required,url"`
	Enhanced    bool   `json:"enhanced"`
	MaxPages    int    `json:"max_pages" validate:"omitempty,min=1"`
}

func (h *ScrapeHandler) handleScrapeSite(w http.ResponseWriter, r *http.Request) {
	var p ScrapeSiteParams

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := messaging.ScrapeRunMessage{
		CompanyName: p.CompanyName,
		CareerURL:   p.CareerURL,
		Enhanced:    p.Enhanced,
		MaxPages:    p.MaxPages,
	}

	msg, err := json.Marshal(req)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to marshal message")
		return
	}

	if err := h.broker.PublishSync(r.Context(), messaging.SubjectScrapeRun, msg); err != nil {
		log.Error().Err(err).Msg("Failed to publish scrape request")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to publish message")
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "scrape queued"})
}
