package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubFlashcardStore struct {
	cards  map[string]*Flashcard
	logs   []*ReviewLog
	logErr error
}

func newStubFlashcardStore() *stubFlashcardStore {
	return &stubFlashcardStore{cards: map[string]*Flashcard{}}
}

func (s *stubFlashcardStore) LoadFlashcard(_ context.Context, id string) (*Flashcard, error) {
	if c, ok := s.cards[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *stubFlashcardStore) InsertFlashcard(_ context.Context, c *Flashcard) error {
	cp := *c
	s.cards[c.ID] = &cp
	return nil
}

func (s *stubFlashcardStore) SaveFlashcard(_ context.Context, c *Flashcard) error {
	cp := *c
	s.cards[c.ID] = &cp
	return nil
}

func (s *stubFlashcardStore) ListFlashcardsByUser(_ context.Context, userID string) ([]*Flashcard, error) {
	out := []*Flashcard{}
	for _, c := range s.cards {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubFlashcardStore) AddReviewLog(_ context.Context, e *ReviewLog) error {
	if s.logErr != nil {
		return s.logErr
	}
	cp := *e
	s.logs = append(s.logs, &cp)
	return nil
}

func newTestReviewService(store FlashcardStore) (*ReviewService, *fakeClock) {
	clock := newFakeClock()
	svc := NewReviewService(store, nil).WithClock(clock.Now)
	svc.idGen = sequentialIDs("card-")
	return svc, clock
}

func TestReviewServiceScenario(t *testing.T) {
	ctx := context.Background()
	store := newStubFlashcardStore()
	svc, clock := newTestReviewService(store)

	card, err := svc.Create(ctx, "U1", "CAT1", "Capitale de la France", "Paris")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if card.Difficulty != DifficultyNouveau {
		t.Fatalf("new card difficulty = %s", card.Difficulty)
	}
	want := []FlashcardDifficulty{DifficultyMoyen, DifficultyFacile, DifficultyMoyen, DifficultyFacile}
	for i, o := range []string{"GOOD", "good", "AGAIN", "Good"} {
		clock.Advance(time.Minute)
		res, err := svc.Review(ctx, "U1", card.ID, o)
		if err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
		if res.Card.Difficulty != want[i] {
			t.Fatalf("review %d: difficulty = %s, want %s", i, res.Card.Difficulty, want[i])
		}
	}
	if len(store.logs) != 4 {
		t.Fatalf("logs = %d, want 4", len(store.logs))
	}
	if got := store.cards[card.ID].Difficulty; got != DifficultyFacile {
		t.Fatalf("stored difficulty = %s, want FACILE", got)
	}
}

func TestReviewServiceRejectsBadOutcome(t *testing.T) {
	ctx := context.Background()
	store := newStubFlashcardStore()
	svc, _ := newTestReviewService(store)
	card, _ := svc.Create(ctx, "U1", "CAT1", "recto", "verso")

	if _, err := svc.Review(ctx, "U1", card.ID, "EASY"); !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("err = %v, want invalid_outcome", err)
	}
	if got := store.cards[card.ID]; got.Difficulty != DifficultyNouveau || !got.UpdatedAt.Equal(card.UpdatedAt) {
		t.Fatalf("card changed after rejected review: %+v", got)
	}
	if len(store.logs) != 0 {
		t.Fatalf("logs = %d, want 0", len(store.logs))
	}
	if _, err := svc.Review(ctx, "U2", card.ID, "GOOD"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign review err = %v, want forbidden", err)
	}
	if _, err := svc.Review(ctx, "U1", "missing", "GOOD"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing card err = %v, want not_found", err)
	}
}

func TestReviewServiceLogFailureKeepsCard(t *testing.T) {
	ctx := context.Background()
	store := newStubFlashcardStore()
	svc, _ := newTestReviewService(store)
	card, _ := svc.Create(ctx, "U1", "CAT1", "recto", "verso")
	store.logErr = errors.New("disk full")

	res, err := svc.Review(ctx, "U1", card.ID, "HARD")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if res.Card.Difficulty != DifficultyDifficile || store.cards[card.ID].Difficulty != DifficultyDifficile {
		t.Fatalf("difficulty = %s, want DIFFICILE", res.Card.Difficulty)
	}
}

func TestReviewServiceDueCards(t *testing.T) {
	ctx := context.Background()
	store := newStubFlashcardStore()
	svc, clock := newTestReviewService(store)
	now := clock.Now()

	store.cards["old-moyen"] = &Flashcard{ID: "old-moyen", UserID: "U1", CategoryID: "CAT1", Difficulty: DifficultyMoyen, UpdatedAt: now.Add(-6 * day)}
	store.cards["fresh-moyen"] = &Flashcard{ID: "fresh-moyen", UserID: "U1", CategoryID: "CAT1", Difficulty: DifficultyMoyen, UpdatedAt: now.Add(-time.Hour)}
	store.cards["nouveau"] = &Flashcard{ID: "nouveau", UserID: "U1", CategoryID: "CAT1", Difficulty: DifficultyNouveau, UpdatedAt: now.Add(-3 * day)}
	store.cards["difficile"] = &Flashcard{ID: "difficile", UserID: "U1", CategoryID: "CAT1", Difficulty: DifficultyDifficile, UpdatedAt: now.Add(-3 * day)}
	store.cards["other-cat"] = &Flashcard{ID: "other-cat", UserID: "U1", CategoryID: "CAT2", Difficulty: DifficultyNouveau, UpdatedAt: now}
	store.cards["other-user"] = &Flashcard{ID: "other-user", UserID: "U2", CategoryID: "CAT1", Difficulty: DifficultyNouveau, UpdatedAt: now}

	due, err := svc.DueCards(ctx, "U1", "CAT1")
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	got := make([]string, 0, len(due))
	for _, c := range due {
		got = append(got, c.ID)
	}
	want := []string{"old-moyen", "nouveau", "difficile"}
	if len(got) != len(want) {
		t.Fatalf("due = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("due = %v, want %v", got, want)
		}
	}

	all, _ := svc.DueCards(ctx, "U1", "")
	if len(all) != 4 {
		t.Fatalf("due across categories = %d, want 4", len(all))
	}

	p, err := svc.Progress(ctx, "U1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.Total != 5 || p.Due != 4 || p.ByDifficulty[DifficultyMoyen] != 2 || p.ByDifficulty[DifficultyAcquise] != 0 {
		t.Fatalf("progress = %+v", p)
	}
}
