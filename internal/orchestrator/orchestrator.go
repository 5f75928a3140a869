// Package orchestrator runs interview sessions turn by turn.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spigell/interviewer/internal/corpus"
	"github.com/spigell/interviewer/internal/evaluator"
	"github.com/spigell/interviewer/internal/followup"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/report"
	"github.com/spigell/interviewer/internal/session"
	"go.uber.org/zap"
)

const (
	defaultQuestionsPerPhase = 5
	completedMessage         = "The interview is over. Thank you for your time."
	timeWarningMessage       = "We are almost out of time, please keep your answers short."
)

var (
	ErrSessionNotFound    = session.ErrSessionNotFound
	ErrInterviewCompleted = errors.New("interview already completed")
	ErrNoPendingQuestion  = errors.New("no pending question to answer")
)

// QuestionSupplier produces the questions of a phase.
type QuestionSupplier interface {
	QuestionsForPhase(ctx context.Context, phase interview.Phase, profile interview.Profile, count int) []interview.Question
}

// AnswerEvaluator scores an answer. It must not fail.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, req evaluator.Request) interview.Evaluation
}

// FollowUpPolicy decides and phrases follow-up questions.
type FollowUpPolicy interface {
	Decide(e interview.Evaluation, followupCount int, elapsedMinutes float64, maxFollowups int) (bool, followup.Strategy)
	FollowUp(q interview.Question, e interview.Evaluation, strategy followup.Strategy) (followup.Trigger, string)
}

// Reporter summarizes the evaluations of a session.
type Reporter interface {
	Aggregate(evaluations []interview.Evaluation) (report.Summary, error)
	Narrative(ctx context.Context, candidate string, summary report.Summary, evaluations []interview.Evaluation) string
}

// Options tune the orchestrator.
type Options struct {
	MaxFollowups      int
	QuestionsPerPhase int
	Clock             interview.ClockConfig
	// References supplies reference answers used as evaluation context.
	References corpus.ReferenceProvider
	NewID      func() string
}

// Orchestrator drives sessions kept in the store. It holds no per-session
// state itself and is safe for concurrent use.
type Orchestrator struct {
	store     *session.Store
	supplier  QuestionSupplier
	evaluator AnswerEvaluator
	policy    FollowUpPolicy
	reporter  Reporter
	opts      Options
	logger    *zap.Logger
}

func New(store *session.Store, supplier QuestionSupplier, eval AnswerEvaluator, policy FollowUpPolicy, reporter Reporter, opts Options, log *zap.Logger) *Orchestrator {
	if opts.MaxFollowups <= 0 {
		opts.MaxFollowups = followup.DefaultMaxFollowups
	}
	if opts.QuestionsPerPhase <= 0 {
		opts.QuestionsPerPhase = defaultQuestionsPerPhase
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Orchestrator{
		store:     store,
		supplier:  supplier,
		evaluator: eval,
		policy:    policy,
		reporter:  reporter,
		opts:      opts,
		logger:    logger.OrNop(log),
	}
}

// Start registers a new session positioned at the opening phase and returns its id.
func (o *Orchestrator) Start(_ context.Context, profile interview.Profile) (string, error) {
	profile.EstimatedLevel = interview.ParseLevel(string(profile.EstimatedLevel))

	clock := interview.NewClock(o.opts.Clock)
	clock.Start()

	s := &interview.Session{
		ID:       o.opts.NewID(),
		Profile:  profile,
		Clock:    clock,
		Machine:  interview.NewMachine(clock),
		AskedIDs: make(map[string]struct{}),
	}
	s.Questions = []interview.Question{
		interview.ScriptedQuestion(interview.PhaseOpening, interview.OpeningPrompts(profile.Name, clock.Total())),
	}

	if err := o.store.Create(s); err != nil {
		return "", fmt.Errorf("register session: %w", err)
	}

	o.logger.Info("interview started",
		zap.String(logger.FieldSession, s.ID),
		zap.String("candidate", profile.Name),
		zap.String("level", string(profile.EstimatedLevel)),
		zap.Duration("total", clock.Total()),
	)

	return s.ID, nil
}

// NextAction applies due phase transitions and returns what the interviewer
// does next.
func (o *Orchestrator) NextAction(ctx context.Context, id string) (interview.Action, error) {
	lease, err := o.store.Acquire(id)
	if err != nil {
		return interview.Action{}, err
	}
	defer lease.Release()

	s := lease.Session()
	if err := o.advance(ctx, lease); err != nil {
		return interview.Action{}, err
	}

	action := o.action(s)
	o.remember(s, action)

	return action, nil
}

// advance applies transitions until the machine settles. Every step moves
// forward, so the loop ends at Completed at the latest.
func (o *Orchestrator) advance(ctx context.Context, lease *session.Lease) error {
	s := lease.Session()

	for {
		t, ok := s.Machine.Check(s.Exhausted())
		if !ok {
			return nil
		}

		visited := s.Machine.Apply(t)
		if len(visited) == 0 {
			return nil
		}

		o.logger.Info("phase transition",
			zap.String(logger.FieldSession, s.ID),
			zap.Stringer("from", t.From),
			zap.Stringer("to", t.To),
			zap.String("reason", string(t.Reason)),
			zap.Int("skipped", len(visited)-1),
			zap.Float64("elapsed_minutes", s.Clock.ElapsedMinutes()),
		)

		questions := o.load(ctx, s, t.To)
		if !lease.Alive() {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID)
		}

		s.Questions = questions
		s.QuestionIndex = 0
		s.PendingFollowUp = ""
	}
}

func (o *Orchestrator) load(ctx context.Context, s *interview.Session, phase interview.Phase) []interview.Question {
	switch {
	case phase == interview.PhaseClosing:
		return []interview.Question{interview.ScriptedQuestion(phase, interview.ClosingPrompts())}
	case phase.Supplied():
		supplied := o.supplier.QuestionsForPhase(ctx, phase, s.Profile, o.opts.QuestionsPerPhase)

		out := make([]interview.Question, 0, len(supplied))
		for _, q := range supplied {
			if _, asked := s.AskedIDs[q.ID]; asked {
				continue
			}
			s.AskedIDs[q.ID] = struct{}{}
			out = append(out, q)
		}

		if len(out) == 0 {
			o.logger.Warn("no questions available for phase, skipping it",
				logger.SessionFields(s.ID, phase.String(), "")...)
		}
		return out
	default:
		return nil
	}
}

func (o *Orchestrator) action(s *interview.Session) interview.Action {
	phase := s.Phase()
	action := interview.Action{
		Phase:            phase,
		RemainingMinutes: s.Clock.Remaining().Minutes(),
		TimeWarning:      s.Clock.ShouldWarn(),
	}

	q, ok := s.CurrentQuestion()
	if phase.Terminal() || !ok {
		action.Type = interview.ActionCompleted
		action.Message = completedMessage
		return action
	}

	action.Question = &q
	action.Progress = fmt.Sprintf("%d/%d", s.QuestionIndex+1, len(s.Questions))
	action.PhaseMinutes = s.Clock.PhaseBudget(phase).Minutes()
	if action.TimeWarning {
		action.Message = timeWarningMessage
	}

	switch {
	case s.PendingFollowUp != "":
		action.Type = interview.ActionFollowUp
		action.FollowUp = s.PendingFollowUp
	case phase == interview.PhaseClosing:
		action.Type = interview.ActionClosing
		action.Prompts = strings.Split(q.Text, "\n")
	case phase == interview.PhaseOpening:
		action.Type = interview.ActionQuestion
		action.Prompts = strings.Split(q.Text, "\n")
	case phase == interview.PhaseSystemDesign:
		action.Type = interview.ActionDesignQuestion
	default:
		action.Type = interview.ActionQuestion
	}

	return action
}

// remember appends the interviewer turn once per distinct prompt.
func (o *Orchestrator) remember(s *interview.Session, action interview.Action) {
	if action.Question == nil {
		return
	}

	content := action.Question.Text
	if action.Type == interview.ActionFollowUp {
		content = action.FollowUp
	}

	key := fmt.Sprintf("%s|%d|%s", action.Question.ID, s.FollowupCount, content)
	if key == s.LastPrompt {
		return
	}
	s.LastPrompt = key

	s.History = append(s.History, interview.Turn{
		Role:       interview.RoleInterviewer,
		Phase:      action.Phase,
		QuestionID: action.Question.ID,
		Content:    content,
		At:         s.Clock.Now(),
	})
}

// ProcessAnswer records the candidate's answer to the current question and
// decides between a follow-up and moving on.
func (o *Orchestrator) ProcessAnswer(ctx context.Context, id, answer string) (interview.AnswerResult, error) {
	lease, err := o.store.Acquire(id)
	if err != nil {
		return interview.AnswerResult{}, err
	}
	defer lease.Release()

	s := lease.Session()
	phase := s.Phase()
	if phase.Terminal() {
		return interview.AnswerResult{}, ErrInterviewCompleted
	}

	q, ok := s.CurrentQuestion()
	if !ok {
		return interview.AnswerResult{}, ErrNoPendingQuestion
	}

	log := o.logger.With(logger.SessionFields(s.ID, phase.String(), q.ID)...)

	answer = strings.TrimSpace(answer)
	s.History = append(s.History, interview.Turn{
		Role:       interview.RoleCandidate,
		Phase:      phase,
		QuestionID: q.ID,
		Content:    answer,
		At:         s.Clock.Now(),
	})

	if phase.Scripted() {
		s.QuestionIndex++
		return interview.AnswerResult{Type: interview.ResultAcknowledged}, nil
	}

	req := evaluator.Request{
		Question: q,
		Answer:   answer,
		FollowUp: s.PendingFollowUp,
	}
	if o.opts.References != nil {
		if ref, ok := o.opts.References.Reference(ctx, q.ID); ok {
			req.Context = ref
		}
	}

	evaluation := o.evaluator.Evaluate(ctx, req)
	if !lease.Alive() {
		log.Info("session removed during evaluation, dropping answer")
		return interview.AnswerResult{}, fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID)
	}
	s.Evaluations = append(s.Evaluations, evaluation)

	elapsed := s.Clock.ElapsedMinutes()
	follow, strategy := o.policy.Decide(evaluation, s.FollowupCount, elapsed, o.opts.MaxFollowups)

	result := interview.AnswerResult{
		Strategy:   string(strategy),
		Evaluation: &evaluation,
	}

	if follow {
		trigger, text := o.policy.FollowUp(q, evaluation, strategy)
		s.PendingFollowUp = text
		s.FollowupCount++

		log.Info("follow-up issued",
			zap.String("trigger", string(trigger)),
			zap.String("strategy", string(strategy)),
			zap.Int("total_score", evaluation.TotalScore),
			zap.Int("followups", s.FollowupCount),
		)

		result.Type = interview.ResultFollowUp
		result.FollowUp = text
		result.Trigger = string(trigger)
		return result, nil
	}

	s.PendingFollowUp = ""
	s.QuestionIndex++
	s.TotalQuestions++

	log.Debug("answer accepted",
		zap.Int("total_score", evaluation.TotalScore),
		zap.Bool("fallback", evaluation.Fallback),
		zap.Float64("elapsed_minutes", elapsed),
	)

	result.Type = interview.ResultNextQuestion
	return result, nil
}

// Report aggregates the session and removes it from the store. The session is
// kept when nothing has been scored yet.
func (o *Orchestrator) Report(ctx context.Context, id string) (interview.Report, error) {
	lease, err := o.store.Acquire(id)
	if err != nil {
		return interview.Report{}, err
	}
	defer lease.Release()

	s := lease.Session()
	evaluations := append([]interview.Evaluation(nil), s.Evaluations...)

	summary, err := o.reporter.Aggregate(evaluations)
	if err != nil {
		return interview.Report{}, fmt.Errorf("report for session %s: %w", s.ID, err)
	}

	narrative := o.reporter.Narrative(ctx, s.Profile.Name, summary, evaluations)

	rep := interview.Report{
		SessionID:         s.ID,
		Candidate:         s.Profile.Name,
		DurationMinutes:   s.Clock.ElapsedMinutes(),
		TotalQuestions:    s.TotalQuestions,
		TotalFollowups:    s.FollowupCount,
		OverallScore:      summary.Overall,
		DimensionAverages: summary.DimensionAverages,
		Level:             summary.Level,
		Recommendation:    summary.Recommendation,
		Narrative:         narrative,
		Evaluations:       evaluations,
	}

	o.store.Remove(s.ID)

	o.logger.Info("interview report generated",
		zap.String(logger.FieldSession, s.ID),
		zap.Float64("overall_score", rep.OverallScore),
		zap.String("level", string(rep.Level)),
		zap.String("recommendation", rep.Recommendation),
	)

	return rep, nil
}

// End abandons a session without a report.
func (o *Orchestrator) End(_ context.Context, id string) error {
	if !o.store.Remove(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	o.logger.Info("interview ended", zap.String(logger.FieldSession, id))
	return nil
}

// History returns a copy of the conversation so far.
func (o *Orchestrator) History(id string) ([]interview.Turn, error) {
	lease, err := o.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	return append([]interview.Turn(nil), lease.Session().History...), nil
}
