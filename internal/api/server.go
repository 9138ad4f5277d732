package api

import (
	"encoding/json"
	"net/http"

	"receipt-server/internal/config"
	"receipt-server/internal/database"
)

type Server struct {
	config *config.Config
	store  *database.Store
}

func NewServer(cfg *config.Config, store *database.Store) *Server {
	return &Server{
		config: cfg,
		store:  store,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// @Summary      Health check
// @Tags         health
// @Produce      plain
// @Success      200 {string} string "OK"
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
