package evaluation

// Evaluation identifies one questionnaire version.
type Evaluation struct {
	ID          string
	Name        string
	Description string
	Version     string
	Active      bool
}

// CharacterizationField is one company-profile field attached to an evaluation.
type CharacterizationField struct {
	ID           string
	EvaluationID string
	Name         string
	Label        string
	Type         string
	Options      []string
	Required     bool
	Order        int
	Placeholder  string
}

// Dimension groups questions under one weighted axis of the evaluation.
type Dimension struct {
	ID           string
	EvaluationID string
	Name         string
	Description  string
	Weight       float64
	Order        int
	Icon         string
	Color        string
}

// Question answer types.
const (
	QuestionSingle   = "single"
	QuestionMultiple = "multiple"
)

type Question struct {
	ID                     string
	DimensionID            string
	Text                   string
	Type                   string
	Weight                 float64
	Order                  int
	RequiresJustification  bool
	JustificationMandatory bool
	Active                 bool
	Options                []Option
}

type Option struct {
	ID         string
	QuestionID string
	Text       string
	Score      float64
	Order      int
}

// RecommendationBand maps an inclusive [ScoreMin,ScoreMax] range of a dimension
// score to a maturity level and base recommendation text.
type RecommendationBand struct {
	ID               string
	DimensionID      string
	ScoreMin         float64
	ScoreMax         float64
	Level            string
	Title            string
	Description      string
	SuggestedActions string
}

// Contains reports whether score falls inside the band's inclusive range.
func (b RecommendationBand) Contains(score float64) bool {
	return score >= b.ScoreMin && score <= b.ScoreMax
}

// LLMConfig is the per-evaluation text-generation configuration.
type LLMConfig struct {
	EvaluationID string
	Provider     string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}
