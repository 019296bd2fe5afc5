package handler

import (
	"math"
	"net/http"
	"time"

	"maturix/internal/gateway/repository/session"
)

type adminSessionJSON struct {
	SessionID    string   `json:"sesionId"`
	CompanyName  string   `json:"empresa"`
	CompanyEmail string   `json:"email"`
	EvaluationID string   `json:"evaluacionId"`
	State        string   `json:"estado"`
	GlobalScore  *float64 `json:"puntajeGlobal"`
	CreatedAt    string   `json:"createdAt"`
}

// HandleAdminSessions lists all evaluation sessions with their company and
// score, newest first.
func (s *Service) HandleAdminSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		s.logger.Printf("admin: list sessions: %v", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	out := make([]adminSessionJSON, 0, len(sessions))
	for _, sess := range sessions {
		entry := adminSessionJSON{
			SessionID:    sess.ID,
			EvaluationID: sess.EvaluationID,
			State:        sess.State,
			GlobalScore:  sess.GlobalScore,
			CreatedAt:    sess.CreatedAt.UTC().Format(time.RFC3339),
		}
		if company, cerr := s.sessions.GetCompany(ctx, sess.CompanyID); cerr == nil {
			entry.CompanyName = company.Name
			entry.CompanyEmail = company.Email
		}
		out = append(out, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sesiones": out,
		"total":    len(out),
	})
}

// HandleAdminStats returns session counts by state and the average global
// score across finalized sessions.
func (s *Service) HandleAdminStats(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListSessions(r.Context())
	if err != nil {
		s.logger.Printf("admin: list sessions: %v", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	counts := map[string]int{
		session.StateCompleted:  0,
		session.StateProcessing: 0,
		session.StateFinalized:  0,
		session.StateError:      0,
	}
	var scoreSum float64
	scored := 0
	for _, sess := range sessions {
		counts[sess.State]++
		if sess.State == session.StateFinalized && sess.GlobalScore != nil {
			scoreSum += *sess.GlobalScore
			scored++
		}
	}

	avg := 0.0
	if scored > 0 {
		avg = math.Round(scoreSum/float64(scored)*100) / 100
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalSesiones":        len(sessions),
		"sesionesPorEstado":    counts,
		"puntajeGlobalPromedio": avg,
	})
}
