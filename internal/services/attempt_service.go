package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// AttemptStore abstracts the persistence gateway used by AttemptService.
// Loaders return (nil, nil) when the row does not exist.
type AttemptStore interface {
	LoadQuiz(ctx context.Context, id string) (*Quiz, error)
	LoadAttempt(ctx context.Context, id string) (*QuizAttempt, error)
	FindLiveAttempt(ctx context.Context, userID, quizID string) (*QuizAttempt, error)
	// InsertAttempt must fail with an ErrorConflict ServiceError when a live
	// attempt already exists for (UserID, QuizID).
	InsertAttempt(ctx context.Context, a *QuizAttempt) error
	ListAnswers(ctx context.Context, attemptID string) ([]*Answer, error)
	// UpsertAnswer replaces any answer stored for (AttemptID, QuestionID).
	UpsertAnswer(ctx context.Context, a *Answer) (*Answer, error)
	// FinalizeAttempt persists a terminal attempt only if the stored row is
	// still IN_PROGRESS, and fails with ErrorInvalidState otherwise.
	FinalizeAttempt(ctx context.Context, a *QuizAttempt) error
	ListLiveAttempts(ctx context.Context) ([]*QuizAttempt, error)
}

// AnswerCheck is the mid-attempt feedback for one recorded answer.
type AnswerCheck struct {
	QuestionID  string      `json:"question_id"`
	Answered    bool        `json:"answered"`
	Result      GradeResult `json:"result"`
	Explanation *string     `json:"explanation,omitempty"`
}

// AttemptService owns the QuizAttempt lifecycle:
// IN_PROGRESS -> COMPLETED | ABANDONED, both terminal.
type AttemptService struct {
	store AttemptStore
	now   Clock
	idGen func() string
}

func NewAttemptService(store AttemptStore) *AttemptService {
	return &AttemptService{
		store: store,
		now:   utcNow,
		idGen: uuid.NewString,
	}
}

// WithClock replaces the service clock.
func (s *AttemptService) WithClock(c Clock) *AttemptService {
	if c != nil {
		s.now = c
	}
	return s
}

// Start opens an attempt for (userID, quizID). At most one IN_PROGRESS
// attempt may exist per pair; the store's unique lookup is the final guard.
func (s *AttemptService) Start(ctx context.Context, userID, quizID string) (*QuizAttempt, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("user required")
	}
	if quizID == "" {
		return nil, NewInvalidError("quiz_id required")
	}
	quiz, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, NewNotFoundError("quiz not found")
	}
	live, err := s.store.FindLiveAttempt(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("find live attempt: %w", err)
	}
	if live != nil {
		return nil, NewConflictError("attempt " + live.ID + " already in progress")
	}
	a := &QuizAttempt{
		ID:        s.idGen(),
		UserID:    userID,
		QuizID:    quizID,
		Status:    AttemptInProgress,
		StartedAt: s.now(),
	}
	if err := s.store.InsertAttempt(ctx, a); err != nil {
		if IsCode(err, ErrorConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	log.Printf("[AttemptService] started attempt=%s user=%s quiz=%s", a.ID, userID, quizID)
	return a, nil
}

// RecordAnswer stores resp for questionID, overwriting any earlier answer.
// Grading is deferred to Complete so the user may change answers.
func (s *AttemptService) RecordAnswer(ctx context.Context, userID, attemptID, questionID string, resp AnswerResponse) (*Answer, error) {
	a, quiz, err := s.loadLive(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	q := quiz.Question(questionID)
	if q == nil {
		return nil, NewNotInQuizError("question " + questionID + " is not part of quiz " + quiz.ID)
	}
	if resp == nil {
		return nil, NewInvalidError("response required")
	}
	if !acceptsResponse(q.Type, resp) {
		return nil, NewInvalidError(fmt.Sprintf("%s question %s does not take a %s answer", q.Type, q.ID, resp.responseKind()))
	}
	now := s.now()
	stored, err := s.store.UpsertAnswer(ctx, &Answer{
		ID:         s.idGen(),
		AttemptID:  a.ID,
		QuestionID: questionID,
		Response:   resp,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert answer: %w", err)
	}
	return stored, nil
}

// CheckAnswer grades the currently recorded answer without changing the
// attempt. Exam-mode quizzes refuse hints.
func (s *AttemptService) CheckAnswer(ctx context.Context, userID, attemptID, questionID string) (*AnswerCheck, error) {
	a, quiz, err := s.loadLive(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if !quiz.HintsAllowed() {
		return nil, NewForbiddenError("hints are disabled in exam mode")
	}
	q := quiz.Question(questionID)
	if q == nil {
		return nil, NewNotInQuizError("question " + questionID + " is not part of quiz " + quiz.ID)
	}
	answers, err := s.store.ListAnswers(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	check := &AnswerCheck{QuestionID: q.ID, Result: verdict(false)}
	for _, ans := range answers {
		if ans.QuestionID == q.ID && !blank(ans.Response) {
			check.Answered = true
			check.Result = Grade(q, ans.Response)
			check.Explanation = q.Explanation
			break
		}
	}
	return check, nil
}

// Complete grades every question of the quiz and moves the attempt to
// COMPLETED. TimeSpent is the real elapsed time; exam-mode overtime stays
// visible through QuizAttempt.Overtime.
func (s *AttemptService) Complete(ctx context.Context, userID, attemptID string) (*QuizAttempt, error) {
	a, quiz, err := s.loadLive(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.ListAnswers(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	sum := ScoreAttempt(quiz.Questions, answers)

	done := *a
	now := s.now()
	spent := elapsedSeconds(a.StartedAt, now)
	done.Status = AttemptCompleted
	done.CompletedAt = &now
	done.TimeSpent = &spent
	done.Score = &sum.Score
	done.TotalQuestions = &sum.TotalQuestions
	done.Results = sum.Results

	if err := s.finalize(ctx, &done); err != nil {
		return nil, err
	}
	log.Printf("[AttemptService] completed attempt=%s score=%d/%d ungraded=%d time_spent=%ds overtime=%v",
		done.ID, sum.Score, sum.TotalQuestions, sum.Ungraded, spent, done.Overtime(quiz))
	return &done, nil
}

// Abandon ends the attempt without grading it. It does not need the quiz, so
// an attempt whose quiz was deleted can still be closed.
func (s *AttemptService) Abandon(ctx context.Context, userID, attemptID string) (*QuizAttempt, error) {
	a, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if err := requireLive(a); err != nil {
		return nil, err
	}
	done := *a
	now := s.now()
	spent := elapsedSeconds(a.StartedAt, now)
	done.Status = AttemptAbandoned
	done.CompletedAt = &now
	done.TimeSpent = &spent
	done.Score = nil
	done.TotalQuestions = nil
	done.Results = nil

	if err := s.finalize(ctx, &done); err != nil {
		return nil, err
	}
	log.Printf("[AttemptService] abandoned attempt=%s", done.ID)
	return &done, nil
}

// Get returns an attempt owned by userID.
func (s *AttemptService) Get(ctx context.Context, userID, attemptID string) (*QuizAttempt, *Quiz, error) {
	a, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	quiz, err := s.store.LoadQuiz(ctx, a.QuizID)
	if err != nil {
		return nil, nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, nil, NewNotFoundError("quiz not found")
	}
	return a, quiz, nil
}

// ExpireOverdue completes every live attempt whose quiz time limit has
// elapsed. It goes through Complete exactly like a user call; attempts that
// finish concurrently are skipped. Live attempts whose quiz no longer exists
// are abandoned. It returns how many attempts it closed.
func (s *AttemptService) ExpireOverdue(ctx context.Context) (int, error) {
	live, err := s.store.ListLiveAttempts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list live attempts: %w", err)
	}
	quizzes := map[string]*Quiz{}
	now := s.now()
	expired := 0
	for _, a := range live {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		quiz, ok := quizzes[a.QuizID]
		if !ok {
			quiz, err = s.store.LoadQuiz(ctx, a.QuizID)
			if err != nil {
				log.Printf("[AttemptService] sweep: load quiz %s: %v", a.QuizID, err)
				continue
			}
			quizzes[a.QuizID] = quiz
		}
		if quiz == nil {
			if _, err := s.Abandon(ctx, "", a.ID); err != nil && !IsCode(err, ErrorInvalidState) {
				log.Printf("[AttemptService] sweep: abandon orphaned attempt %s: %v", a.ID, err)
				continue
			}
			log.Printf("[AttemptService] sweep: abandoned attempt=%s, quiz %s no longer exists", a.ID, a.QuizID)
			expired++
			continue
		}
		limit := quiz.TimeLimitDuration()
		if limit == 0 || now.Sub(a.StartedAt) < limit {
			continue
		}
		if _, err := s.Complete(ctx, "", a.ID); err != nil {
			if IsCode(err, ErrorInvalidState) {
				continue
			}
			log.Printf("[AttemptService] sweep: complete attempt %s: %v", a.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// loadOwned loads an attempt and checks ownership. An empty userID is a
// system caller and skips the check.
func (s *AttemptService) loadOwned(ctx context.Context, userID, attemptID string) (*QuizAttempt, error) {
	if attemptID == "" {
		return nil, NewInvalidError("attempt_id required")
	}
	a, err := s.store.LoadAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	if a == nil {
		return nil, NewNotFoundError("attempt not found")
	}
	if userID != "" && a.UserID != userID {
		return nil, NewForbiddenError("attempt belongs to another user")
	}
	return a, nil
}

func (s *AttemptService) loadLive(ctx context.Context, userID, attemptID string) (*QuizAttempt, *Quiz, error) {
	a, err := s.loadOwned(ctx, userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireLive(a); err != nil {
		return nil, nil, err
	}
	quiz, err := s.store.LoadQuiz(ctx, a.QuizID)
	if err != nil {
		return nil, nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, nil, NewNotFoundError("quiz not found")
	}
	return a, quiz, nil
}

func requireLive(a *QuizAttempt) error {
	if a.Status != AttemptInProgress {
		return NewInvalidStateError("attempt is " + string(a.Status))
	}
	return nil
}

func (s *AttemptService) finalize(ctx context.Context, a *QuizAttempt) error {
	if err := s.store.FinalizeAttempt(ctx, a); err != nil {
		var se *ServiceError
		if errors.As(err, &se) {
			return err
		}
		return fmt.Errorf("finalize attempt: %w", err)
	}
	return nil
}

func elapsedSeconds(from, to time.Time) int {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
