package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LexiconIndonesia/jobscout-service/common/db"
	"github.com/LexiconIndonesia/jobscout-service/common/utils"
)

type HealthHandler struct {
	db     *db.DB
	router *chi.Mux
}

// NewHealthHandler creates the health endpoints. The database is optional,
// the service runs with file sinks only when Postgres is disabled.
func NewHealthHandler(database *db.DB) *HealthHandler {
	h := &HealthHandler{
		db: database,
	}

	r := chi.NewRouter()
	r.Get("/", h.handleHealthCheck)
	r.Get("/database", h.handleDatabaseHealth)

	h.router = r
	return h
}

func (h *HealthHandler) Router() *chi.Mux {
	return h.router
}

func (h *HealthHandler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "jobscout-service",
	}

	utils.WriteJSON(w, http.StatusOK, response)
}

func (h *HealthHandler) handleDatabaseHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	if h.db == nil {
		response["database"] = "disabled"
		utils.WriteJSON(w, http.StatusOK, response)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		response["status"] = "unhealthy"
		response["error"] = err.Error()
		utils.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	response["database"] = "healthy"
	utils.WriteJSON(w, http.StatusOK, response)
}
