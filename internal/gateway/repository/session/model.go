package session

import "time"

// Session lifecycle states. A session is created in StateCompleted (intake
// done), flipped to StateProcessing before the async run starts, and ends in
// StateFinalized or StateError. The Spanish values are the persisted wire
// contract inherited from the production data.
const (
	StateCompleted  = "completada"
	StateProcessing = "procesando"
	StateFinalized  = "finalizada"
	StateError      = "error"
)

// LLM log statuses.
const (
	LogSuccess = "success"
	LogError   = "error"
)

// Processing task states (one task per session run attempt).
const (
	TaskPending = "pending"
	TaskRunning = "running"
	TaskDone    = "done"
	TaskFailed  = "failed"
)

// Company is a respondent organization, unique by lowercased email.
type Company struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Session is one questionnaire attempt by one company.
type Session struct {
	ID           string
	CompanyID    string
	EvaluationID string
	State        string
	GlobalScore  *float64
	StartedAt    time.Time
	CompletedAt  time.Time
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
}

// Response is the answer to one question within a session. ComputedScore is
// back-filled by the scoring engine.
type Response struct {
	ID                string
	SessionID         string
	QuestionID        string
	SelectedOptionIDs []string
	Justification     string
	ComputedScore     *float64
}

// DimensionResult is the computed score for one (session, dimension) pair.
// BandID is empty when no recommendation band matched.
type DimensionResult struct {
	SessionID   string
	DimensionID string
	Score       float64
	Level       string
	BandID      string
}

// CharacterizationValue is one submitted company-profile value, unique per
// (company, field).
type CharacterizationValue struct {
	CompanyID    string
	EvaluationID string
	FieldID      string
	Value        string
}

// LLMLog is one record per LLM invocation attempt. Append-only.
type LLMLog struct {
	ID           string
	SessionID    string
	Prompt       string
	ResponseText string
	TokensIn     int
	TokensOut    int
	LatencyMs    int64
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// Report is the rendered output for a session. Append-only; latest wins.
type Report struct {
	ID        string
	SessionID string
	Kind      string
	HTML      string
	CreatedAt time.Time
}

// Task is the persisted processing record backing one asynchronous run.
type Task struct {
	SessionID string
	State     string
	Error     string
	UpdatedAt time.Time
}
