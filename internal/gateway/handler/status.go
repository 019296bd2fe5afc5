package handler

import (
	"net/http"
	"strings"

	"maturix/internal/gateway/service/processor"
)

type stageJSON struct {
	Name      string `json:"nombre"`
	Completed bool   `json:"completada"`
}

type statusJSON struct {
	SessionID    string      `json:"sesionId"`
	State        string      `json:"estado"`
	Progress     int         `json:"progreso"`
	CurrentStage string      `json:"etapaActual"`
	Stages       []stageJSON `json:"etapas"`
	Error        string      `json:"error,omitempty"`
}

// HandleStatus reports how far the session's processing pipeline has
// advanced.
func (s *Service) HandleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("sesionId"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sesionId es requerido")
		return
	}

	st, err := s.processor.Status(r.Context(), sessionID)
	if err != nil {
		if processor.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Sesión no encontrada")
			return
		}
		s.logger.Printf("status: session %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	writeJSON(w, http.StatusOK, toStatusJSON(st))
}

func toStatusJSON(st processor.Status) statusJSON {
	out := statusJSON{
		SessionID:    st.SessionID,
		State:        st.State,
		Progress:     st.Progress,
		CurrentStage: st.CurrentStage,
		Stages:       make([]stageJSON, 0, len(st.Stages)),
		Error:        st.Error,
	}
	for _, stage := range st.Stages {
		out.Stages = append(out.Stages, stageJSON{Name: stage.Name, Completed: stage.Completed})
	}
	return out
}
