// Package handler serves the public questionnaire API: intake, processing
// status, results, questionnaire definitions and the read-only admin
// endpoints. All responses use the Spanish field names of the wire contract.
package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"maturix/internal/gateway/repository/artifact"
	"maturix/internal/gateway/repository/evaluation"
	"maturix/internal/gateway/repository/session"
	"maturix/internal/gateway/service/processor"
)

// Service implements all gateway HTTP handlers.
type Service struct {
	defs      evaluation.Store
	sessions  session.Store
	processor *processor.Service
	artifacts artifact.Store
	logger    *log.Logger
}

func NewService(defs evaluation.Store, sessions session.Store, proc *processor.Service, artifacts artifact.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		defs:      defs,
		sessions:  sessions,
		processor: proc,
		artifacts: artifacts,
		logger:    logger,
	}
}

// BuildMux registers all routes on a new ServeMux.
func BuildMux(s *Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/cuestionario/enviar", s.HandleIntake)
	mux.HandleFunc("GET /api/cuestionario/{sesionId}/estado", s.HandleStatus)
	mux.HandleFunc("GET /api/cuestionario/{sesionId}/resultados", s.HandleResults)
	mux.HandleFunc("GET /api/cuestionario/{sesionId}/reporte", s.HandleReport)
	mux.HandleFunc("GET /api/cuestionario/{sesionId}/watch", s.HandleWatch)
	mux.HandleFunc("GET /api/evaluaciones/{evaluacionId}", s.HandleEvaluation)
	mux.HandleFunc("GET /api/admin/sesiones", s.HandleAdminSessions)
	mux.HandleFunc("GET /api/admin/estadisticas", s.HandleAdminStats)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
