package quiz

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
)

// BranchThreshold is how many times more often one option must be chosen during the
// core block before its specialised branch is taken.
const BranchThreshold = 1.5

// Step is the outcome of one accepted answer.
type Step struct {
	Index          int       `json:"question_index"`
	Total          int       `json:"total_questions"`
	Branch         *string   `json:"branch,omitempty"`
	BranchResolved bool      `json:"branch_resolved"`
	Next           *Question `json:"next_question,omitempty"`
	Completed      bool      `json:"completed"`
}

// Engine sequences questions for sessions. It holds no per-session state; every call
// operates on the session passed in.
type Engine struct {
	catalog *Catalog
	now     func() time.Time
}

// NewEngine returns an engine reading questions from catalog.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog, now: time.Now}
}

// Start creates a fresh in-progress session on the given bank version and returns it
// with the first question.
func (e *Engine) Start(userID string, kind model.SessionKind, version string) (*model.QuizSession, *Question, error) {
	track, err := e.track(kind, version)
	if err != nil {
		return nil, nil, err
	}

	now := e.now().UTC()
	s := &model.QuizSession{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        kind,
		BankVersion: version,
		Responses:   []model.QuizResponse{},
		AxisScores:  personality.NewScores(),
		Status:      model.SessionStatusInProgress,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	return s, &track.Core[0], nil
}

// Submit applies one answer to s. The session is only modified when the answer is
// accepted.
func (e *Engine) Submit(s *model.QuizSession, questionID, choiceID string, timeSpentMs int64) (Step, error) {
	if s.Status != model.SessionStatusInProgress {
		return Step{}, apperr.Conflict("session %s is %s", s.ID, s.Status)
	}

	track, err := e.track(s.Kind, s.BankVersion)
	if err != nil {
		return Step{}, err
	}

	expected, ok := track.QuestionAt(s.QuestionIndex, s.Branch)
	if !ok {
		return Step{}, fmt.Errorf("session %s: no question at index %d", s.ID, s.QuestionIndex)
	}
	if expected.ID != questionID {
		return Step{}, &apperr.SequenceError{
			SessionID:     s.ID.String(),
			ExpectedIndex: s.QuestionIndex,
			ExpectedID:    expected.ID,
			SubmittedID:   questionID,
		}
	}

	choice, pos, ok := expected.Choice(choiceID)
	if !ok {
		return Step{}, apperr.Invalid("question %s has no choice %q", questionID, choiceID)
	}

	now := e.now().UTC()
	s.AxisScores = personality.Apply(s.AxisScores, choice.Weights)
	s.Responses = append(s.Responses, model.QuizResponse{
		QuestionID:  questionID,
		ChoiceID:    choiceID,
		ChoiceIndex: pos,
		AxisWeights: choice.Weights,
		TimeSpentMs: timeSpentMs,
		AnsweredAt:  now,
	})
	s.QuestionIndex++
	s.UpdatedAt = now

	step := Step{Index: s.QuestionIndex, Total: track.Total}

	if track.Branching() && s.QuestionIndex == len(track.Core) && s.Branch == nil {
		first, second := CountCoreChoices(s.Responses, len(track.Core))
		branch := ResolveBranch(track.BranchRoles, first, second)
		s.Branch = &branch
		step.BranchResolved = true
	}
	step.Branch = s.Branch

	if s.QuestionIndex >= track.Total {
		s.Status = model.SessionStatusCompleted
		s.CompletedAt = &now
		step.Completed = true
		return step, nil
	}

	next, ok := track.QuestionAt(s.QuestionIndex, s.Branch)
	if !ok {
		return Step{}, fmt.Errorf("session %s: no question at index %d", s.ID, s.QuestionIndex)
	}
	step.Next = next
	return step, nil
}

// Current returns the question s expects next, or nil once the session is complete.
func (e *Engine) Current(s *model.QuizSession) (*Question, error) {
	track, err := e.track(s.Kind, s.BankVersion)
	if err != nil {
		return nil, err
	}
	if s.QuestionIndex >= track.Total {
		return nil, nil
	}
	q, ok := track.QuestionAt(s.QuestionIndex, s.Branch)
	if !ok {
		return nil, fmt.Errorf("session %s: no question at index %d", s.ID, s.QuestionIndex)
	}
	return q, nil
}

// TotalQuestions is the number of answers that completes a session of kind.
func (e *Engine) TotalQuestions(kind model.SessionKind, version string) (int, error) {
	track, err := e.track(kind, version)
	if err != nil {
		return 0, err
	}
	return track.Total, nil
}

// Replay rebuilds the accumulator trail of s from its response log.
func Replay(s *model.QuizSession) *personality.Accumulator {
	weights := make([]personality.Weights, len(s.Responses))
	for i, r := range s.Responses {
		weights[i] = r.AxisWeights
	}
	return personality.Replay(weights...)
}

// CountCoreChoices counts how many of the first coreLen responses picked the first and
// the second option.
func CountCoreChoices(responses []model.QuizResponse, coreLen int) (first, second int) {
	for i, r := range responses {
		if i >= coreLen {
			break
		}
		switch r.ChoiceIndex {
		case 0:
			first++
		case 1:
			second++
		}
	}
	return first, second
}

// ResolveBranch applies the 1.5x majority rule. Anything short of a clear majority,
// ties included, takes the mixed branch.
func ResolveBranch(roles BranchRoles, first, second int) string {
	switch {
	case float64(first) > BranchThreshold*float64(second):
		return roles.First
	case float64(second) > BranchThreshold*float64(first):
		return roles.Second
	default:
		return roles.Mixed
	}
}

func (e *Engine) track(kind model.SessionKind, version string) (*Track, error) {
	bank, ok := e.catalog.Get(version)
	if !ok {
		return nil, apperr.NotFound("quiz bank", version)
	}
	track, ok := bank.Track(kind)
	if !ok {
		return nil, apperr.Invalid("bank %s has no %s track", version, kind)
	}
	return track, nil
}
