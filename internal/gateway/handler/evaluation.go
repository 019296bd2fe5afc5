package handler

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"maturix/internal/gateway/repository/evaluation"
)

type optionJSON struct {
	ID    string  `json:"id"`
	Text  string  `json:"texto"`
	Score float64 `json:"puntaje"`
	Order int     `json:"orden"`
}

type questionJSON struct {
	ID                     string       `json:"id"`
	Text                   string       `json:"texto"`
	Type                   string       `json:"tipo"`
	RequiresJustification  bool         `json:"requiereJustificacion"`
	JustificationMandatory bool         `json:"justificacionObligatoria"`
	Order                  int          `json:"orden"`
	Weight                 float64      `json:"peso"`
	Options                []optionJSON `json:"opciones"`
}

type dimensionJSON struct {
	ID          string         `json:"id"`
	Name        string         `json:"nombre"`
	Description string         `json:"descripcion,omitempty"`
	Weight      float64        `json:"peso"`
	Order       int            `json:"orden"`
	Icon        string         `json:"icono,omitempty"`
	Color       string         `json:"color,omitempty"`
	Questions   []questionJSON `json:"preguntas"`
}

type fieldJSON struct {
	ID          string   `json:"id"`
	Name        string   `json:"nombre"`
	Label       string   `json:"label"`
	Type        string   `json:"tipo"`
	Options     []string `json:"opciones,omitempty"`
	Required    bool     `json:"requerido"`
	Order       int      `json:"orden"`
	Placeholder string   `json:"placeholder,omitempty"`
}

type evaluationJSON struct {
	Evaluation struct {
		ID      string `json:"id"`
		Name    string `json:"nombre"`
		Version string `json:"version"`
	} `json:"evaluacion"`
	Characterization struct {
		Fields []fieldJSON `json:"campos"`
	} `json:"caracterizacion"`
	Dimensions []dimensionJSON `json:"dimensiones"`
	Metadata   struct {
		TotalQuestions   int `json:"totalPreguntas"`
		TotalDimensions  int `json:"totalDimensiones"`
		EstimatedMinutes int `json:"tiempoEstimadoMinutos"`
	} `json:"metadata"`
}

// HandleEvaluation returns the full questionnaire definition used to render
// the wizard: characterization fields plus dimensions with their active
// questions and options, all in display order.
func (s *Service) HandleEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evaluationID := strings.TrimSpace(r.PathValue("evaluacionId"))
	if evaluationID == "" {
		writeError(w, http.StatusBadRequest, "evaluacionId es requerido")
		return
	}

	eval, err := s.defs.GetEvaluation(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, evaluation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Evaluación no encontrada")
			return
		}
		s.logger.Printf("evaluation: load %s: %v", evaluationID, err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if !eval.Active {
		writeError(w, http.StatusNotFound, "Evaluación no encontrada")
		return
	}

	var out evaluationJSON
	out.Evaluation.ID = eval.ID
	out.Evaluation.Name = eval.Name
	out.Evaluation.Version = eval.Version

	fields, err := s.defs.ListCharacterizationFields(ctx, evaluationID)
	if err != nil {
		s.logger.Printf("evaluation: list fields for %s: %v", evaluationID, err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	out.Characterization.Fields = make([]fieldJSON, 0, len(fields))
	for _, f := range fields {
		out.Characterization.Fields = append(out.Characterization.Fields, fieldJSON{
			ID:          f.ID,
			Name:        f.Name,
			Label:       f.Label,
			Type:        f.Type,
			Options:     f.Options,
			Required:    f.Required,
			Order:       f.Order,
			Placeholder: f.Placeholder,
		})
	}

	dims, err := s.defs.ListDimensions(ctx, evaluationID)
	if err != nil {
		s.logger.Printf("evaluation: list dimensions for %s: %v", evaluationID, err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	total := 0
	out.Dimensions = make([]dimensionJSON, 0, len(dims))
	for _, d := range dims {
		questions, qerr := s.defs.ListQuestions(ctx, d.ID)
		if qerr != nil {
			s.logger.Printf("evaluation: list questions for %s: %v", d.ID, qerr)
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
			return
		}
		dj := dimensionJSON{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Weight:      d.Weight,
			Order:       d.Order,
			Icon:        d.Icon,
			Color:       d.Color,
			Questions:   make([]questionJSON, 0, len(questions)),
		}
		for _, q := range questions {
			qj := questionJSON{
				ID:                     q.ID,
				Text:                   q.Text,
				Type:                   q.Type,
				RequiresJustification:  q.RequiresJustification,
				JustificationMandatory: q.JustificationMandatory,
				Order:                  q.Order,
				Weight:                 q.Weight,
				Options:                make([]optionJSON, 0, len(q.Options)),
			}
			for _, o := range q.Options {
				qj.Options = append(qj.Options, optionJSON{
					ID:    o.ID,
					Text:  o.Text,
					Score: o.Score,
					Order: o.Order,
				})
			}
			dj.Questions = append(dj.Questions, qj)
			total++
		}
		out.Dimensions = append(out.Dimensions, dj)
	}

	out.Metadata.TotalQuestions = total
	out.Metadata.TotalDimensions = len(dims)
	// ~45 seconds per question.
	out.Metadata.EstimatedMinutes = int(math.Ceil(float64(total) * 0.75))

	writeJSON(w, http.StatusOK, out)
}
