package services

import (
	"context"
	"fmt"
	"time"
)

type ExportStore interface {
	LoadQuiz(ctx context.Context, id string) (*Quiz, error)
	ListAttemptsByQuiz(ctx context.Context, quizID string) ([]*QuizAttempt, error)
}

type ExportParams struct {
	QuizID string
	Format string // long | score
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

// ExportCSV renders completed attempts of a quiz. Live and abandoned attempts
// carry no verdicts and are left out.
func (s *ExportService) ExportCSV(ctx context.Context, params ExportParams) (*ExportResult, error) {
	if params.QuizID == "" {
		return nil, NewInvalidError("quiz_id required")
	}
	format := params.Format
	if format == "" {
		format = "long"
	}
	quiz, err := s.store.LoadQuiz(ctx, params.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, NewNotFoundError("quiz not found")
	}
	attempts, err := s.store.ListAttemptsByQuiz(ctx, params.QuizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	completed := make([]*QuizAttempt, 0, len(attempts))
	for _, a := range attempts {
		if a.Status == AttemptCompleted {
			completed = append(completed, a)
		}
	}

	switch format {
	case "long":
		b, err := ExportLongCSV(buildLongRows(quiz, completed))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: quiz.ID + "_long.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	case "score":
		b, err := ExportScoreCSV(buildScoreRows(quiz, completed))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: quiz.ID + "_score.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	default:
		return nil, NewInvalidError("unsupported format " + format)
	}
}

func buildLongRows(quiz *Quiz, attempts []*QuizAttempt) []LongRow {
	positions := make(map[string]int, len(quiz.Questions))
	for _, q := range quiz.Questions {
		positions[q.ID] = q.Position
	}
	rows := make([]LongRow, 0, len(attempts)*len(quiz.Questions))
	for _, a := range attempts {
		for _, r := range a.Results {
			rows = append(rows, LongRow{
				UserID:          a.UserID,
				AttemptID:       a.ID,
				QuestionID:      r.QuestionID,
				Position:        positions[r.QuestionID],
				Type:            r.Type,
				Answered:        r.Answered,
				Graded:          r.Graded,
				IsCorrect:       r.IsCorrect,
				MatchedFraction: r.MatchedFraction,
				CompletedAt:     formatTime(a.CompletedAt),
			})
		}
	}
	return rows
}

func buildScoreRows(quiz *Quiz, attempts []*QuizAttempt) []ScoreRow {
	rows := make([]ScoreRow, 0, len(attempts))
	for _, a := range attempts {
		row := ScoreRow{
			UserID:      a.UserID,
			AttemptID:   a.ID,
			Percent:     a.Percent(),
			Overtime:    a.Overtime(quiz),
			CompletedAt: formatTime(a.CompletedAt),
		}
		if a.Score != nil {
			row.Score = *a.Score
		}
		if a.TotalQuestions != nil {
			row.TotalQuestions = *a.TotalQuestions
		}
		if a.TimeSpent != nil {
			row.TimeSpent = *a.TimeSpent
		}
		rows = append(rows, row)
	}
	return rows
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
