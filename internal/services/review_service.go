package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FlashcardStore abstracts persistence for ReviewService.
type FlashcardStore interface {
	LoadFlashcard(ctx context.Context, id string) (*Flashcard, error)
	InsertFlashcard(ctx context.Context, card *Flashcard) error
	SaveFlashcard(ctx context.Context, card *Flashcard) error
	ListFlashcardsByUser(ctx context.Context, userID string) ([]*Flashcard, error)
	AddReviewLog(ctx context.Context, entry *ReviewLog) error
}

// ReviewResult is returned after a review was recorded.
type ReviewResult struct {
	Card     *Flashcard          `json:"card"`
	Previous FlashcardDifficulty `json:"previous"`
	NextDue  time.Time           `json:"next_due"`
}

// ReviewProgress counts a user's cards per ladder rung.
type ReviewProgress struct {
	Total        int                         `json:"total"`
	Due          int                         `json:"due"`
	ByDifficulty map[FlashcardDifficulty]int `json:"by_difficulty"`
}

// ReviewService pulls due flashcards and feeds review outcomes into the
// scheduler. Card difficulty is only ever changed here.
type ReviewService struct {
	store     FlashcardStore
	scheduler *SRSScheduler
	now       Clock
	idGen     func() string
}

func NewReviewService(store FlashcardStore, scheduler *SRSScheduler) *ReviewService {
	if scheduler == nil {
		scheduler = DefaultSRSScheduler()
	}
	return &ReviewService{
		store:     store,
		scheduler: scheduler,
		now:       utcNow,
		idGen:     uuid.NewString,
	}
}

// WithClock replaces the service clock.
func (s *ReviewService) WithClock(c Clock) *ReviewService {
	if c != nil {
		s.now = c
	}
	return s
}

// Scheduler exposes the interval policy in use.
func (s *ReviewService) Scheduler() *SRSScheduler { return s.scheduler }

// Create adds a NOUVEAU card for userID.
func (s *ReviewService) Create(ctx context.Context, userID, categoryID, front, back string) (*Flashcard, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("user required")
	}
	front, back = strings.TrimSpace(front), strings.TrimSpace(back)
	if categoryID == "" || front == "" || back == "" {
		return nil, NewInvalidError("category_id, front and back required")
	}
	now := s.now()
	card := &Flashcard{
		ID:         s.idGen(),
		UserID:     userID,
		CategoryID: categoryID,
		Front:      front,
		Back:       back,
		Difficulty: DifficultyNouveau,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertFlashcard(ctx, card); err != nil {
		return nil, fmt.Errorf("insert flashcard: %w", err)
	}
	return card, nil
}

// DueCards lists the user's cards that are due now, most overdue first and
// harder cards first on ties. An empty categoryID means every category.
func (s *ReviewService) DueCards(ctx context.Context, userID, categoryID string) ([]*Flashcard, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("user required")
	}
	cards, err := s.store.ListFlashcardsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	now := s.now()
	due := make([]*Flashcard, 0, len(cards))
	for _, c := range cards {
		if categoryID != "" && c.CategoryID != categoryID {
			continue
		}
		if s.scheduler.IsDue(c, now) {
			due = append(due, c)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		di, dj := s.scheduler.NextDue(due[i]), s.scheduler.NextDue(due[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return due[i].Difficulty.Rank() < due[j].Difficulty.Rank()
	})
	return due, nil
}

// Review records a recall outcome for one card. outcome is the raw token
// (AGAIN, HARD or GOOD).
func (s *ReviewService) Review(ctx context.Context, userID, cardID, outcome string) (*ReviewResult, error) {
	o, err := ParseReviewOutcome(outcome)
	if err != nil {
		return nil, err
	}
	if cardID == "" {
		return nil, NewInvalidError("flashcard_id required")
	}
	card, err := s.store.LoadFlashcard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("load flashcard: %w", err)
	}
	if card == nil {
		return nil, NewNotFoundError("flashcard not found")
	}
	if userID != "" && card.UserID != userID {
		return nil, NewForbiddenError("flashcard belongs to another user")
	}

	next, entry, err := s.scheduler.Review(*card, o, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveFlashcard(ctx, &next); err != nil {
		return nil, fmt.Errorf("save flashcard: %w", err)
	}
	entry.ID = s.idGen()
	if err := s.store.AddReviewLog(ctx, &entry); err != nil {
		// The card itself is saved; a missing log line only loses history.
		log.Printf("[ReviewService] add review log card=%s: %v", card.ID, err)
	}
	return &ReviewResult{Card: &next, Previous: card.Difficulty, NextDue: s.scheduler.NextDue(&next)}, nil
}

// Progress summarizes the user's deck.
func (s *ReviewService) Progress(ctx context.Context, userID string) (*ReviewProgress, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("user required")
	}
	cards, err := s.store.ListFlashcardsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	p := &ReviewProgress{ByDifficulty: make(map[FlashcardDifficulty]int, len(Ladder))}
	for _, d := range Ladder {
		p.ByDifficulty[d] = 0
	}
	now := s.now()
	for _, c := range cards {
		p.Total++
		p.ByDifficulty[c.Difficulty]++
		if s.scheduler.IsDue(c, now) {
			p.Due++
		}
	}
	return p, nil
}
