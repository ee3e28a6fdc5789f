package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/utils"
	"github.com/LexiconIndonesia/jobscout-service/configstore"
)

// ConfigHandler exposes the persisted selector configs. Deleting one is
// the explicit invalidation path, the next run re-scouts the site.
type ConfigHandler struct {
	store  *configstore.Store
	router *chi.Mux
}

func NewConfigHandler(store *configstore.Store) *ConfigHandler {
	router := chi.NewRouter()

	h := &ConfigHandler{
		store:  store,
		router: router,
	}

	router.Get("/", h.handleListConfigs)
	router.Get("/{siteID}", h.handleGetConfig)
	router.Delete("/{siteID}", h.handleInvalidateConfig)
	return h
}

func (h *ConfigHandler) Router() *chi.Mux {
	return h.router
}

func (h *ConfigHandler) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.store.List())
}

func (h *ConfigHandler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	cfg, ok := h.store.Get(siteID)
	if !ok {
		utils.WriteError(w, http.StatusNotFound, "No config for site "+siteID)
		return
	}

	utils.WriteJSON(w, http.StatusOK, cfg)
}

func (h *ConfigHandler) handleInvalidateConfig(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	if err := h.store.Delete(siteID); err != nil {
		log.Error().Str("site", siteID).Err(err).Msg("Failed to invalidate config")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to invalidate config")
		return
	}

	utils.WriteMessage(w, http.StatusOK, "config invalidated")
}
