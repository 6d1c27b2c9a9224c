package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/soaringjerry/Studia/internal/services"
)

// memoryStore keeps everything in maps. It backs STUDIA_STORE=memory and the
// router tests, and enforces the same live-attempt guard as the SQL index.
type memoryStore struct {
	mu         sync.RWMutex
	quizzes    map[string]*services.Quiz
	attempts   map[string]*services.QuizAttempt
	answers    map[string]map[string]*services.Answer // attemptID -> questionID
	flashcards map[string]*services.Flashcard
	reviews    []services.ReviewLog
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		quizzes:    map[string]*services.Quiz{},
		attempts:   map[string]*services.QuizAttempt{},
		answers:    map[string]map[string]*services.Answer{},
		flashcards: map[string]*services.Flashcard{},
	}
}

func NewMemoryStore() Store { return newMemoryStore() }

// Snapshot is the JSON catalogue format read by NewMemoryStoreFromPath and
// imported by the migrate command.
type Snapshot struct {
	Quizzes    []*services.Quiz      `json:"quizzes"`
	Flashcards []*services.Flashcard `json:"flashcards"`
}

// NewMemoryStoreFromPath loads a snapshot file into a fresh memory store.
func NewMemoryStoreFromPath(path string) (Store, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	s := newMemoryStore()
	ctx := context.Background()
	for _, q := range snap.Quizzes {
		if err := s.InsertQuiz(ctx, q); err != nil {
			return nil, err
		}
	}
	for _, c := range snap.Flashcards {
		if c.Difficulty == "" {
			c.Difficulty = services.DifficultyNouveau
		}
		if err := s.InsertFlashcard(ctx, c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MemoryStoreSnapshot returns the catalogue of a memory store, or nil for
// any other Store.
func MemoryStoreSnapshot(st Store) *Snapshot {
	s, ok := st.(*memoryStore)
	if !ok {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &Snapshot{}
	for _, q := range s.quizzes {
		snap.Quizzes = append(snap.Quizzes, cloneQuiz(q))
	}
	for _, c := range s.flashcards {
		cp := *c
		snap.Flashcards = append(snap.Flashcards, &cp)
	}
	sort.Slice(snap.Quizzes, func(i, j int) bool { return snap.Quizzes[i].ID < snap.Quizzes[j].ID })
	sort.Slice(snap.Flashcards, func(i, j int) bool { return snap.Flashcards[i].ID < snap.Flashcards[j].ID })
	return snap
}

func cloneQuiz(q *services.Quiz) *services.Quiz {
	cp := *q
	cp.Questions = make([]*services.Question, 0, len(q.Questions))
	for _, qu := range q.Questions {
		c := *qu
		c.Options = append([]services.Option(nil), qu.Options...)
		c.Pairs = append([]services.MatchingPair(nil), qu.Pairs...)
		cp.Questions = append(cp.Questions, &c)
	}
	return &cp
}

func cloneAttempt(a *services.QuizAttempt) *services.QuizAttempt {
	cp := *a
	cp.Results = append([]services.QuestionResult(nil), a.Results...)
	return &cp
}

func (s *memoryStore) InsertQuiz(_ context.Context, q *services.Quiz) error {
	if q == nil || q.ID == "" {
		return services.NewInvalidError("quiz id required")
	}
	for _, qu := range q.Questions {
		if !qu.Type.IsValid() {
			return services.NewInvalidError(fmt.Sprintf("question %s has unsupported type %q", qu.ID, qu.Type))
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[q.ID]; ok {
		return services.NewConflictError("quiz " + q.ID + " already exists")
	}
	c := cloneQuiz(q)
	sort.SliceStable(c.Questions, func(i, j int) bool { return c.Questions[i].Position < c.Questions[j].Position })
	for _, qu := range c.Questions {
		qu.QuizID = c.ID
	}
	s.quizzes[q.ID] = c
	return nil
}

func (s *memoryStore) LoadQuiz(_ context.Context, id string) (*services.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, nil
	}
	return cloneQuiz(q), nil
}

func (s *memoryStore) LoadAttempt(_ context.Context, id string) (*services.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, nil
	}
	return cloneAttempt(a), nil
}

func (s *memoryStore) FindLiveAttempt(_ context.Context, userID, quizID string) (*services.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a := s.liveLocked(userID, quizID); a != nil {
		return cloneAttempt(a), nil
	}
	return nil, nil
}

func (s *memoryStore) liveLocked(userID, quizID string) *services.QuizAttempt {
	for _, a := range s.attempts {
		if a.UserID == userID && a.QuizID == quizID && a.Status == services.AttemptInProgress {
			return a
		}
	}
	return nil
}

func (s *memoryStore) InsertAttempt(_ context.Context, a *services.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Status == services.AttemptInProgress && s.liveLocked(a.UserID, a.QuizID) != nil {
		return services.NewConflictError("attempt already in progress for quiz " + a.QuizID)
	}
	if _, ok := s.attempts[a.ID]; ok {
		return services.NewConflictError("attempt " + a.ID + " already exists")
	}
	s.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (s *memoryStore) ListAnswers(_ context.Context, attemptID string) ([]*services.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Answer, 0, len(s.answers[attemptID]))
	for _, a := range s.answers[attemptID] {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) UpsertAnswer(_ context.Context, a *services.Answer) (*services.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[a.AttemptID]; !ok {
		return nil, services.NewNotFoundError("attempt not found")
	}
	byQuestion := s.answers[a.AttemptID]
	if byQuestion == nil {
		byQuestion = map[string]*services.Answer{}
		s.answers[a.AttemptID] = byQuestion
	}
	cp := *a
	if prev, ok := byQuestion[a.QuestionID]; ok {
		cp.ID = prev.ID
		cp.CreatedAt = prev.CreatedAt
	}
	byQuestion[a.QuestionID] = &cp
	out := cp
	return &out, nil
}

func (s *memoryStore) FinalizeAttempt(_ context.Context, a *services.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.attempts[a.ID]
	if !ok {
		return services.NewNotFoundError("attempt not found")
	}
	if cur.Status != services.AttemptInProgress {
		return services.NewInvalidStateError("attempt is " + string(cur.Status))
	}
	s.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (s *memoryStore) listAttempts(keep func(*services.QuizAttempt) bool) []*services.QuizAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.QuizAttempt{}
	for _, a := range s.attempts {
		if keep(a) {
			out = append(out, cloneAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (s *memoryStore) ListLiveAttempts(_ context.Context) ([]*services.QuizAttempt, error) {
	return s.listAttempts(func(a *services.QuizAttempt) bool { return a.Status == services.AttemptInProgress }), nil
}

func (s *memoryStore) ListAttemptsByQuiz(_ context.Context, quizID string) ([]*services.QuizAttempt, error) {
	return s.listAttempts(func(a *services.QuizAttempt) bool { return a.QuizID == quizID }), nil
}

func (s *memoryStore) ListAttemptsByUser(_ context.Context, userID, quizID string) ([]*services.QuizAttempt, error) {
	return s.listAttempts(func(a *services.QuizAttempt) bool {
		return a.UserID == userID && (quizID == "" || a.QuizID == quizID)
	}), nil
}

func (s *memoryStore) LoadFlashcard(_ context.Context, id string) (*services.Flashcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.flashcards[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memoryStore) InsertFlashcard(_ context.Context, c *services.Flashcard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flashcards[c.ID]; ok {
		return services.NewConflictError("flashcard " + c.ID + " already exists")
	}
	cp := *c
	s.flashcards[c.ID] = &cp
	return nil
}

func (s *memoryStore) SaveFlashcard(_ context.Context, c *services.Flashcard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flashcards[c.ID]; !ok {
		return services.NewNotFoundError("flashcard not found")
	}
	cp := *c
	s.flashcards[c.ID] = &cp
	return nil
}

func (s *memoryStore) ListFlashcardsByUser(_ context.Context, userID string) ([]*services.Flashcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Flashcard{}
	for _, c := range s.flashcards {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) AddReviewLog(_ context.Context, e *services.ReviewLog) error {
	if e == nil {
		return errors.New("nil review log")
	}
	s.mu.Lock()
	s.reviews = append(s.reviews, *e)
	s.mu.Unlock()
	return nil
}
