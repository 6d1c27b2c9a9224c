package api

import (
	"context"

	"github.com/soaringjerry/Studia/internal/services"
)

// Store is everything the HTTP layer needs from persistence: the gateways of
// each service plus catalogue writes.
type Store interface {
	services.AttemptStore
	services.FlashcardStore
	ListAttemptsByQuiz(ctx context.Context, quizID string) ([]*services.QuizAttempt, error)
	ListAttemptsByUser(ctx context.Context, userID, quizID string) ([]*services.QuizAttempt, error)

	InsertQuiz(ctx context.Context, q *services.Quiz) error
}

var (
	_ Store                   = (*memoryStore)(nil)
	_ services.AnalyticsStore = (Store)(nil)
	_ services.ExportStore    = (Store)(nil)
)
