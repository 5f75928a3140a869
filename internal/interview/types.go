package interview

import (
	"strings"
	"time"
)

// Level is the candidate seniority estimated by the resume analyzer.
type Level string

const (
	LevelJunior Level = "junior"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
)

// ParseLevel normalizes a level label. Unknown labels resolve to mid.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "junior", "jr", "entry", "初级":
		return LevelJunior
	case "senior", "sr", "lead", "高级":
		return LevelSenior
	default:
		return LevelMid
	}
}

// Project is a project listed on the candidate's resume.
type Project struct {
	Name      string   `json:"name" yaml:"name"`
	TechStack []string `json:"tech_stack" yaml:"tech_stack"`
}

// Profile is the structured candidate background used to steer questions.
type Profile struct {
	Name              string    `json:"name" yaml:"name"`
	EstimatedLevel    Level     `json:"estimated_level" yaml:"estimated_level"`
	YearsOfExperience float64   `json:"years_of_experience" yaml:"years_of_experience"`
	FocusAreas        []string  `json:"focus_areas" yaml:"focus_areas"`
	Projects          []Project `json:"projects" yaml:"projects"`
	ScenarioLabel     string    `json:"scenario_design_label" yaml:"scenario_design_label"`
}

// Question is immutable once produced.
type Question struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Category       string   `json:"category"`
	Difficulty     int      `json:"difficulty"`
	ExpectedPoints []string `json:"expected_points,omitempty"`
	FollowUps      []string `json:"followups,omitempty"`
}

// Dimension is one scored axis of an answer.
type Dimension string

const (
	DimensionAccuracy     Dimension = "accuracy"
	DimensionCompleteness Dimension = "completeness"
	DimensionLogic        Dimension = "logic"
	DimensionDepth        Dimension = "depth"
)

// Dimensions lists the scored axes in report order.
func Dimensions() []Dimension {
	return []Dimension{DimensionAccuracy, DimensionCompleteness, DimensionLogic, DimensionDepth}
}

// Evaluation is the scored result for a single answer. It is never mutated
// after creation.
type Evaluation struct {
	QuestionID  string            `json:"question_id"`
	Scores      map[Dimension]int `json:"scores"`
	TotalScore  int               `json:"total_score"`
	Feedback    string            `json:"feedback"`
	Suggestions []string          `json:"suggestions"`
	Fallback    bool              `json:"fallback,omitempty"`
}

// Score returns the value of a dimension and whether the evaluation reported it.
func (e Evaluation) Score(d Dimension) (int, bool) {
	v, ok := e.Scores[d]
	return v, ok
}

func (e Evaluation) Accuracy() int     { return e.Scores[DimensionAccuracy] }
func (e Evaluation) Completeness() int { return e.Scores[DimensionCompleteness] }
func (e Evaluation) Logic() int        { return e.Scores[DimensionLogic] }
func (e Evaluation) Depth() int        { return e.Scores[DimensionDepth] }

// Role tags a conversation turn.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// Turn is one entry of the conversation history.
type Turn struct {
	Role       Role      `json:"role"`
	Phase      Phase     `json:"phase"`
	QuestionID string    `json:"question_id,omitempty"`
	Content    string    `json:"content"`
	At         time.Time `json:"at"`
}

// Session is the state of one interview. It is owned by the orchestrator and
// only mutated while the session lease is held.
type Session struct {
	ID      string
	Profile Profile
	Clock   *Clock
	Machine *Machine

	Questions       []Question
	QuestionIndex   int
	PendingFollowUp string
	FollowupCount   int
	TotalQuestions  int
	AskedIDs        map[string]struct{}

	// LastPrompt keys the prompt last written to History so that repeated
	// NextAction calls do not duplicate it.
	LastPrompt string

	History     []Turn
	Evaluations []Evaluation
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.Machine.Current()
}

// CurrentQuestion returns the unanswered question of the phase, if any.
func (s *Session) CurrentQuestion() (Question, bool) {
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.QuestionIndex], true
}

// Exhausted reports that every question of the phase has been answered.
func (s *Session) Exhausted() bool {
	return s.QuestionIndex >= len(s.Questions)
}

// ActionType tags the variants of Action.
type ActionType string

const (
	ActionQuestion       ActionType = "question"
	ActionFollowUp       ActionType = "followup"
	ActionDesignQuestion ActionType = "design_question"
	ActionClosing        ActionType = "closing"
	ActionCompleted      ActionType = "completed"
)

// Action is what the interviewer does next.
type Action struct {
	Type             ActionType `json:"type"`
	Phase            Phase      `json:"phase"`
	Question         *Question  `json:"question,omitempty"`
	Prompts          []string   `json:"prompts,omitempty"`
	FollowUp         string     `json:"followup,omitempty"`
	Progress         string     `json:"progress,omitempty"`
	PhaseMinutes     float64    `json:"phase_minutes,omitempty"`
	RemainingMinutes float64    `json:"remaining_minutes"`
	TimeWarning      bool       `json:"time_warning,omitempty"`
	Message          string     `json:"message,omitempty"`
}

// ResultType tags the outcome of processing an answer.
type ResultType string

const (
	ResultFollowUp     ResultType = "followup"
	ResultNextQuestion ResultType = "next_question"
	ResultAcknowledged ResultType = "acknowledged"
)

// AnswerResult is returned after an answer has been processed.
type AnswerResult struct {
	Type       ResultType  `json:"type"`
	FollowUp   string      `json:"followup,omitempty"`
	Trigger    string      `json:"trigger,omitempty"`
	Strategy   string      `json:"strategy,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// Report is the final scored result of a session.
type Report struct {
	SessionID         string                `json:"session_id"`
	Candidate         string                `json:"candidate"`
	DurationMinutes   float64               `json:"duration_minutes"`
	TotalQuestions    int                   `json:"total_questions"`
	TotalFollowups    int                   `json:"total_followups"`
	OverallScore      float64               `json:"overall_score"`
	DimensionAverages map[Dimension]float64 `json:"dimension_averages"`
	Level             Level                 `json:"level"`
	Recommendation    string                `json:"recommendation"`
	Narrative         string                `json:"narrative,omitempty"`
	Evaluations       []Evaluation          `json:"per_question_evaluations"`
}
