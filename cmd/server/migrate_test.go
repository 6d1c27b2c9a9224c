package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/soaringjerry/Studia/internal/api"
	"github.com/soaringjerry/Studia/internal/services"
)

const snapshotJSON = `{
  "quizzes": [{
    "id": "qz-geo",
    "title": "Capitales",
    "questions": [
      {"id": "g1", "position": 1, "type": "single", "text": "Capitale de l'Italie ?",
       "options": [{"id": "g1-a", "text": "Rome", "is_correct": true}, {"id": "g1-b", "text": "Milan"}]}
    ]
  }],
  "flashcards": [
    {"id": "fc-1", "user_id": "u-1", "category_id": "geo", "front": "Espagne", "back": "Madrid"}
  ]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(snapshotJSON), 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestCopySnapshotToStore(t *testing.T) {
	src, err := api.NewMemoryStoreFromPath(writeSnapshot(t))
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	snap := api.MemoryStoreSnapshot(src)
	if snap == nil || len(snap.Quizzes) != 1 || len(snap.Flashcards) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	dst := api.NewMemoryStore()
	ctx := context.Background()
	quizzes, cards, err := copySnapshotToStore(ctx, snap, dst)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if quizzes != 1 || cards != 1 {
		t.Fatalf("copied quizzes=%d cards=%d, want 1 and 1", quizzes, cards)
	}

	q, err := dst.LoadQuiz(ctx, "qz-geo")
	if err != nil || q == nil {
		t.Fatalf("load copied quiz: %v %v", q, err)
	}
	if q.Questions[0].Type != services.QuestionSingleChoice {
		t.Fatalf("question type got=%s, want SINGLE_CHOICE", q.Questions[0].Type)
	}
	card, err := dst.LoadFlashcard(ctx, "fc-1")
	if err != nil || card == nil {
		t.Fatalf("load copied flashcard: %v %v", card, err)
	}
	if card.Difficulty != services.DifficultyNouveau {
		t.Fatalf("difficulty got=%s, want NOUVEAU", card.Difficulty)
	}

	// A second import skips what is already there.
	quizzes, cards, err = copySnapshotToStore(ctx, snap, dst)
	if err != nil {
		t.Fatalf("second copy: %v", err)
	}
	if quizzes != 0 || cards != 0 {
		t.Fatalf("second copy quizzes=%d cards=%d, want 0 and 0", quizzes, cards)
	}
}

func TestSnapshotRejectsUnknownQuestionType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"quizzes": [{"id": "x", "questions": [{"id": "x1", "type": "essay"}]}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := api.NewMemoryStoreFromPath(path); err == nil {
		t.Fatalf("expected an error for an unknown question type")
	}
}
