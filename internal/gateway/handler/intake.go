package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"maturix/internal/gateway/repository/evaluation"
	"maturix/internal/gateway/repository/session"
)

type intakeCompany struct {
	Name  string `json:"nombre"`
	Email string `json:"email"`
	Phone string `json:"telefono"`
}

type intakeCharacterization struct {
	FieldID string          `json:"campoId"`
	Value   json.RawMessage `json:"valor"`
}

type intakeResponse struct {
	QuestionID        string   `json:"preguntaId"`
	SelectedOptionIDs []string `json:"opcionesSeleccionadas"`
	Justification     string   `json:"justificacion"`
}

type intakeMetadata struct {
	StartedAt   string `json:"startedAt"`
	CompletedAt string `json:"completedAt"`
	IPAddress   string `json:"ipAddress"`
	UserAgent   string `json:"userAgent"`
}

type intakePayload struct {
	EvaluationID     string                   `json:"evaluacionId"`
	Company          intakeCompany            `json:"empresa"`
	Characterization []intakeCharacterization `json:"caracterizacion"`
	Responses        []intakeResponse         `json:"respuestas"`
	Metadata         intakeMetadata           `json:"metadata"`
}

// HandleIntake receives a completed questionnaire, persists everything and
// enqueues background processing. Responds 202 immediately.
func (s *Service) HandleIntake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in intakePayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo JSON inválido")
		return
	}
	in.EvaluationID = strings.TrimSpace(in.EvaluationID)
	in.Company.Name = strings.TrimSpace(in.Company.Name)
	in.Company.Email = strings.TrimSpace(in.Company.Email)
	if in.EvaluationID == "" {
		writeError(w, http.StatusBadRequest, "evaluacionId es requerido")
		return
	}
	if in.Company.Name == "" || in.Company.Email == "" {
		writeError(w, http.StatusBadRequest, "nombre y email de la empresa son requeridos")
		return
	}
	if len(in.Responses) == 0 {
		writeError(w, http.StatusBadRequest, "respuestas es requerido")
		return
	}

	eval, err := s.defs.GetEvaluation(ctx, in.EvaluationID)
	if err != nil {
		if errors.Is(err, evaluation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Evaluación no encontrada")
			return
		}
		s.logger.Printf("intake: load evaluation %s: %v", in.EvaluationID, err)
		writeError(w, http.StatusInternalServerError, "Error procesando el cuestionario")
		return
	}
	if !eval.Active {
		writeError(w, http.StatusNotFound, "Evaluación no encontrada")
		return
	}

	company, err := s.sessions.UpsertCompany(ctx, in.Company.Name, in.Company.Email, in.Company.Phone)
	if err != nil {
		s.logger.Printf("intake: upsert company %s: %v", in.Company.Email, err)
		writeError(w, http.StatusInternalServerError, "Error procesando el cuestionario")
		return
	}

	for _, c := range in.Characterization {
		if strings.TrimSpace(c.FieldID) == "" {
			continue
		}
		if err := s.sessions.UpsertCharacterizationValue(ctx, session.CharacterizationValue{
			CompanyID:    company.ID,
			EvaluationID: in.EvaluationID,
			FieldID:      c.FieldID,
			Value:        rawToString(c.Value),
		}); err != nil {
			s.logger.Printf("intake: upsert characterization %s/%s: %v", company.ID, c.FieldID, err)
			writeError(w, http.StatusInternalServerError, "Error procesando el cuestionario")
			return
		}
	}

	now := time.Now().UTC()
	sess := session.Session{
		ID:           uuid.NewString(),
		CompanyID:    company.ID,
		EvaluationID: in.EvaluationID,
		State:        session.StateCompleted,
		StartedAt:    parseTimeOr(in.Metadata.StartedAt, now),
		CompletedAt:  parseTimeOr(in.Metadata.CompletedAt, now),
		IPAddress:    firstNonEmpty(in.Metadata.IPAddress, clientIP(r)),
		UserAgent:    firstNonEmpty(in.Metadata.UserAgent, r.UserAgent()),
		CreatedAt:    now,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		s.logger.Printf("intake: create session: %v", err)
		writeError(w, http.StatusInternalServerError, "Error procesando el cuestionario")
		return
	}

	for _, resp := range in.Responses {
		if err := s.sessions.CreateResponse(ctx, session.Response{
			ID:                uuid.NewString(),
			SessionID:         sess.ID,
			QuestionID:        resp.QuestionID,
			SelectedOptionIDs: resp.SelectedOptionIDs,
			Justification:     resp.Justification,
		}); err != nil {
			s.logger.Printf("intake: create response for session %s: %v", sess.ID, err)
			writeError(w, http.StatusInternalServerError, "Error procesando el cuestionario")
			return
		}
	}

	if err := s.sessions.UpdateSessionState(ctx, sess.ID, session.StateProcessing); err != nil {
		s.logger.Printf("intake: mark session %s processing: %v", sess.ID, err)
		writeError(w, http.StatusInternalServerError, "Error procesando el cuestionario")
		return
	}

	if err := s.processor.Enqueue(ctx, sess.ID); err != nil {
		s.logger.Printf("intake: enqueue session %s: %v", sess.ID, err)
		writeError(w, http.StatusInternalServerError, "Error procesando el cuestionario")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":               "accepted",
		"sesionId":             sess.ID,
		"message":              "Tu evaluación está siendo procesada",
		"estimatedTimeSeconds": 45,
		"pollingEndpoint":      fmt.Sprintf("/api/cuestionario/%s/estado", sess.ID),
	})
}

// rawToString keeps string values as-is and stores any other JSON value as
// its compact source text.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}

func parseTimeOr(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC()
	}
	return fallback
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return fwd
	}
	return r.RemoteAddr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
