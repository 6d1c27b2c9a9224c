package services

import (
	"context"
	"strconv"
	"sync"
	"time"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// sampleQuiz has one single-choice question (A correct), one multiple-choice
// question ({B, C} correct) and one matching question with two pairs.
func sampleQuiz() *Quiz {
	return &Quiz{
		ID:    "QZ1",
		Title: "Révolution française",
		Questions: []*Question{
			{
				ID: "Q1", QuizID: "QZ1", Position: 1, Type: QuestionSingleChoice, Text: "1789 ?",
				Explanation: strPtr("Prise de la Bastille"),
				Options: []Option{
					{ID: "A", QuestionID: "Q1", Text: "1789", IsCorrect: true},
					{ID: "X", QuestionID: "Q1", Text: "1815"},
				},
			},
			{
				ID: "Q2", QuizID: "QZ1", Position: 2, Type: QuestionMultipleChoice, Text: "Révolutionnaires ?",
				Options: []Option{
					{ID: "B", QuestionID: "Q2", Text: "Robespierre", IsCorrect: true},
					{ID: "C", QuestionID: "Q2", Text: "Danton", IsCorrect: true},
					{ID: "D", QuestionID: "Q2", Text: "Napoléon III"},
				},
			},
			{
				ID: "Q3", QuizID: "QZ1", Position: 3, Type: QuestionMatching, Text: "Associer",
				Pairs: []MatchingPair{
					{ID: "P1", QuestionID: "Q3", Left: "1789", Right: "Bastille"},
					{ID: "P2", QuestionID: "Q3", Left: "1793", Right: "Terreur"},
				},
			},
		},
	}
}

type stubAttemptStore struct {
	mu        sync.Mutex
	quizzes   map[string]*Quiz
	attempts  map[string]*QuizAttempt
	answers   map[string]map[string]*Answer
	upserts   int
	finalized int
}

func newStubAttemptStore(quizzes ...*Quiz) *stubAttemptStore {
	s := &stubAttemptStore{
		quizzes:  map[string]*Quiz{},
		attempts: map[string]*QuizAttempt{},
		answers:  map[string]map[string]*Answer{},
	}
	for _, q := range quizzes {
		s.quizzes[q.ID] = q
	}
	return s
}

func (s *stubAttemptStore) LoadQuiz(_ context.Context, id string) (*Quiz, error) {
	return s.quizzes[id], nil
}

func (s *stubAttemptStore) LoadAttempt(_ context.Context, id string) (*QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *stubAttemptStore) FindLiveAttempt(_ context.Context, userID, quizID string) (*QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.UserID == userID && a.QuizID == quizID && a.Status == AttemptInProgress {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubAttemptStore) InsertAttempt(_ context.Context, a *QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.attempts {
		if x.UserID == a.UserID && x.QuizID == a.QuizID && x.Status == AttemptInProgress {
			return NewConflictError("live attempt exists")
		}
	}
	cp := *a
	s.attempts[a.ID] = &cp
	return nil
}

func (s *stubAttemptStore) ListAnswers(_ context.Context, attemptID string) ([]*Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*Answer{}
	for _, a := range s.answers[attemptID] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubAttemptStore) UpsertAnswer(_ context.Context, a *Answer) (*Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	byQ := s.answers[a.AttemptID]
	if byQ == nil {
		byQ = map[string]*Answer{}
		s.answers[a.AttemptID] = byQ
	}
	cp := *a
	if prev, ok := byQ[a.QuestionID]; ok {
		cp.ID = prev.ID
		cp.CreatedAt = prev.CreatedAt
	}
	byQ[a.QuestionID] = &cp
	out := cp
	return &out, nil
}

func (s *stubAttemptStore) FinalizeAttempt(_ context.Context, a *QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.attempts[a.ID]
	if !ok {
		return NewNotFoundError("attempt not found")
	}
	if cur.Status != AttemptInProgress {
		return NewInvalidStateError("attempt is " + string(cur.Status))
	}
	cp := *a
	s.attempts[a.ID] = &cp
	s.finalized++
	return nil
}

func (s *stubAttemptStore) ListLiveAttempts(_ context.Context) ([]*QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*QuizAttempt{}
	for _, a := range s.attempts {
		if a.Status == AttemptInProgress {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubAttemptStore) ListAttemptsByQuiz(_ context.Context, quizID string) ([]*QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*QuizAttempt{}
	for _, a := range s.attempts {
		if a.QuizID == quizID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubAttemptStore) ListAttemptsByUser(_ context.Context, userID, quizID string) ([]*QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*QuizAttempt{}
	for _, a := range s.attempts {
		if a.UserID == userID && (quizID == "" || a.QuizID == quizID) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}
