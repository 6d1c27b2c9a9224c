package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soaringjerry/Studia/internal/api"
	"github.com/soaringjerry/Studia/internal/models"
	"github.com/soaringjerry/Studia/internal/services"
)

// GormStore persists quizzes, attempts and flashcards through gorm. It works
// on postgres and sqlite alike; the live-attempt guard is the partial unique
// index ux_quiz_attempts_live.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(gdb *gorm.DB) (*GormStore, error) {
	if gdb == nil {
		return nil, errors.New("nil db")
	}
	return &GormStore{db: gdb}, nil
}

func NewStore(gdb *gorm.DB) (api.Store, error) {
	return NewGormStore(gdb)
}

var _ api.Store = (*GormStore)(nil)

func notFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// duplicate also matches raw driver messages in case a dialector does not
// translate its constraint errors.
func duplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func (s *GormStore) LoadQuiz(ctx context.Context, id string) (*services.Quiz, error) {
	var row models.Quiz
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var questions []models.Question
	if err := s.db.WithContext(ctx).Where("quiz_id = ?", id).Order("position, id").Find(&questions).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	var options []models.Option
	var pairs []models.MatchingPair
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("question_id IN ?", ids).Order("position, id").Find(&options).Error; err != nil {
			return nil, err
		}
		if err := s.db.WithContext(ctx).Where("question_id IN ?", ids).Order("position, id").Find(&pairs).Error; err != nil {
			return nil, err
		}
	}
	return quizFromRows(row, questions, options, pairs), nil
}

func (s *GormStore) LoadAttempt(ctx context.Context, id string) (*services.QuizAttempt, error) {
	var row models.QuizAttempt
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return attemptFromRow(row), nil
}

func (s *GormStore) FindLiveAttempt(ctx context.Context, userID, quizID string) (*services.QuizAttempt, error) {
	var rows []models.QuizAttempt
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, string(services.AttemptInProgress)).
		Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return attemptFromRow(rows[0]), nil
}

func (s *GormStore) InsertAttempt(ctx context.Context, a *services.QuizAttempt) error {
	row, err := attemptToRow(a)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if duplicate(err) {
			return services.NewConflictError("attempt already in progress for quiz " + a.QuizID)
		}
		return err
	}
	return nil
}

type answerRow struct {
	models.Answer
	QuestionType string `gorm:"column:question_type"`
}

func (s *GormStore) ListAnswers(ctx context.Context, attemptID string) ([]*services.Answer, error) {
	var rows []answerRow
	err := s.db.WithContext(ctx).Table("answers").
		Select("answers.*, questions.type AS question_type").
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("answers.attempt_id = ?", attemptID).
		Order("answers.created_at, answers.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*services.Answer, 0, len(rows))
	for _, r := range rows {
		out = append(out, &services.Answer{
			ID:         r.ID,
			AttemptID:  r.AttemptID,
			QuestionID: r.QuestionID,
			Response:   services.DecodeResponse(narrowType(r.QuestionType), r.OptionID, r.ResponseText),
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
		})
	}
	return out, nil
}

func (s *GormStore) UpsertAnswer(ctx context.Context, a *services.Answer) (*services.Answer, error) {
	optionID, text, err := services.EncodeResponse(a.Response)
	if err != nil {
		return nil, err
	}
	row := models.Answer{
		ID:           a.ID,
		AttemptID:    a.AttemptID,
		QuestionID:   a.QuestionID,
		OptionID:     optionID,
		ResponseText: text,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"option_id", "response_text", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	var stored models.Answer
	if err := s.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", a.AttemptID, a.QuestionID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	out := *a
	out.ID = stored.ID
	out.CreatedAt = stored.CreatedAt
	out.UpdatedAt = stored.UpdatedAt
	return &out, nil
}

// FinalizeAttempt writes the terminal state with a conditional update so two
// racing completions cannot both succeed.
func (s *GormStore) FinalizeAttempt(ctx context.Context, a *services.QuizAttempt) error {
	row, err := attemptToRow(a)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.QuizAttempt{}).
			Where("id = ? AND status = ?", a.ID, string(services.AttemptInProgress)).
			Updates(map[string]any{
				"status":          row.Status,
				"completed_at":    row.CompletedAt,
				"score":           row.Score,
				"total_questions": row.TotalQuestions,
				"time_spent":      row.TimeSpent,
				"results":         row.Results,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		var current models.QuizAttempt
		if err := tx.Select("id", "status").First(&current, "id = ?", a.ID).Error; err != nil {
			if notFound(err) {
				return services.NewNotFoundError("attempt not found")
			}
			return err
		}
		return services.NewInvalidStateError("attempt is " + current.Status)
	})
}

func (s *GormStore) ListLiveAttempts(ctx context.Context) ([]*services.QuizAttempt, error) {
	return s.listAttempts(ctx, s.db.WithContext(ctx).Where("status = ?", string(services.AttemptInProgress)))
}

func (s *GormStore) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]*services.QuizAttempt, error) {
	return s.listAttempts(ctx, s.db.WithContext(ctx).Where("quiz_id = ?", quizID))
}

func (s *GormStore) ListAttemptsByUser(ctx context.Context, userID, quizID string) ([]*services.QuizAttempt, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if quizID != "" {
		q = q.Where("quiz_id = ?", quizID)
	}
	return s.listAttempts(ctx, q)
}

func (s *GormStore) listAttempts(_ context.Context, q *gorm.DB) ([]*services.QuizAttempt, error) {
	var rows []models.QuizAttempt
	if err := q.Order("started_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*services.QuizAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, attemptFromRow(r))
	}
	return out, nil
}

func (s *GormStore) LoadFlashcard(ctx context.Context, id string) (*services.Flashcard, error) {
	var row models.Flashcard
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return flashcardFromRow(row), nil
}

func (s *GormStore) InsertFlashcard(ctx context.Context, c *services.Flashcard) error {
	row := flashcardToRow(c)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) SaveFlashcard(ctx context.Context, c *services.Flashcard) error {
	res := s.db.WithContext(ctx).Model(&models.Flashcard{}).Where("id = ?", c.ID).Updates(map[string]any{
		"front":      c.Front,
		"back":       c.Back,
		"difficulty": string(c.Difficulty),
		"updated_at": c.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.NewNotFoundError("flashcard not found")
	}
	return nil
}

func (s *GormStore) ListFlashcardsByUser(ctx context.Context, userID string) ([]*services.Flashcard, error) {
	var rows []models.Flashcard
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*services.Flashcard, 0, len(rows))
	for _, r := range rows {
		out = append(out, flashcardFromRow(r))
	}
	return out, nil
}

func (s *GormStore) AddReviewLog(ctx context.Context, e *services.ReviewLog) error {
	row := models.FlashcardReview{
		ID:             e.ID,
		FlashcardID:    e.FlashcardID,
		UserID:         e.UserID,
		Outcome:        string(e.Outcome),
		FromDifficulty: string(e.From),
		ToDifficulty:   string(e.To),
		ReviewedAt:     e.ReviewedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// InsertQuiz writes a quiz with its questions, options and pairs in one
// transaction. Question types must already be narrowed.
func (s *GormStore) InsertQuiz(ctx context.Context, q *services.Quiz) error {
	for _, qu := range q.Questions {
		if !qu.Type.IsValid() {
			return services.NewInvalidError(fmt.Sprintf("question %s has unsupported type %q", qu.ID, qu.Type))
		}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.Quiz{
			ID:          q.ID,
			SubjectID:   q.SubjectID,
			CategoryID:  q.CategoryID,
			Title:       q.Title,
			Description: q.Description,
			TimeLimit:   q.TimeLimit,
			IsExamMode:  q.IsExamMode,
		}
		if q.Difficulty != nil {
			d := string(*q.Difficulty)
			row.Difficulty = &d
		}
		if err := tx.Create(&row).Error; err != nil {
			if duplicate(err) {
				return services.NewConflictError("quiz " + q.ID + " already exists")
			}
			return err
		}
		for _, qu := range q.Questions {
			qrow := models.Question{
				ID:          qu.ID,
				QuizID:      q.ID,
				Position:    qu.Position,
				Type:        string(qu.Type),
				Text:        qu.Text,
				ImageURL:    qu.ImageURL,
				Explanation: qu.Explanation,
			}
			if err := tx.Create(&qrow).Error; err != nil {
				return err
			}
			for i, o := range qu.Options {
				orow := models.Option{ID: o.ID, QuestionID: qu.ID, Position: i, Text: o.Text, IsCorrect: o.IsCorrect}
				if err := tx.Create(&orow).Error; err != nil {
					return err
				}
			}
			for i, p := range qu.Pairs {
				prow := models.MatchingPair{ID: p.ID, QuestionID: qu.ID, Position: i, LeftItem: p.Left, RightItem: p.Right}
				if err := tx.Create(&prow).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// narrowType keeps unrecognized stored types as-is; the grader marks them
// incorrect.
func narrowType(raw string) services.QuestionType {
	t, err := services.ParseQuestionType(raw)
	if err != nil {
		log.Printf("gorm store: %v", err)
		return services.QuestionType(raw)
	}
	return t
}

func quizFromRows(row models.Quiz, questions []models.Question, options []models.Option, pairs []models.MatchingPair) *services.Quiz {
	quiz := &services.Quiz{
		ID:          row.ID,
		SubjectID:   row.SubjectID,
		CategoryID:  row.CategoryID,
		Title:       row.Title,
		Description: row.Description,
		TimeLimit:   row.TimeLimit,
		IsExamMode:  row.IsExamMode,
		Questions:   make([]*services.Question, 0, len(questions)),
	}
	if row.Difficulty != nil {
		if d, err := services.ParseQuizDifficulty(*row.Difficulty); err == nil {
			quiz.Difficulty = &d
		}
	}
	byID := make(map[string]*services.Question, len(questions))
	for _, q := range questions {
		sq := &services.Question{
			ID:          q.ID,
			QuizID:      q.QuizID,
			Position:    q.Position,
			Type:        narrowType(q.Type),
			Text:        q.Text,
			ImageURL:    q.ImageURL,
			Explanation: q.Explanation,
		}
		byID[q.ID] = sq
		quiz.Questions = append(quiz.Questions, sq)
	}
	for _, o := range options {
		if q := byID[o.QuestionID]; q != nil {
			q.Options = append(q.Options, services.Option{ID: o.ID, QuestionID: o.QuestionID, Text: o.Text, IsCorrect: o.IsCorrect})
		}
	}
	for _, p := range pairs {
		if q := byID[p.QuestionID]; q != nil {
			q.Pairs = append(q.Pairs, services.MatchingPair{ID: p.ID, QuestionID: p.QuestionID, Left: p.LeftItem, Right: p.RightItem})
		}
	}
	return quiz
}

func attemptFromRow(r models.QuizAttempt) *services.QuizAttempt {
	a := &services.QuizAttempt{
		ID:             r.ID,
		UserID:         r.UserID,
		QuizID:         r.QuizID,
		Status:         services.AttemptStatus(r.Status),
		StartedAt:      r.StartedAt.UTC(),
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		TimeSpent:      r.TimeSpent,
	}
	if r.CompletedAt != nil {
		t := r.CompletedAt.UTC()
		a.CompletedAt = &t
	}
	if len(r.Results) > 0 {
		if err := json.Unmarshal(r.Results, &a.Results); err != nil {
			log.Printf("gorm store: decode results of attempt %s: %v", r.ID, err)
			a.Results = nil
		}
	}
	return a
}

func attemptToRow(a *services.QuizAttempt) (models.QuizAttempt, error) {
	row := models.QuizAttempt{
		ID:             a.ID,
		UserID:         a.UserID,
		QuizID:         a.QuizID,
		Status:         string(a.Status),
		StartedAt:      a.StartedAt,
		CompletedAt:    a.CompletedAt,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		TimeSpent:      a.TimeSpent,
	}
	if a.Results != nil {
		b, err := json.Marshal(a.Results)
		if err != nil {
			return row, fmt.Errorf("encode results: %w", err)
		}
		row.Results = datatypes.JSON(b)
	}
	return row, nil
}

func flashcardFromRow(r models.Flashcard) *services.Flashcard {
	return &services.Flashcard{
		ID:         r.ID,
		UserID:     r.UserID,
		CategoryID: r.CategoryID,
		Front:      r.Front,
		Back:       r.Back,
		Difficulty: services.FlashcardDifficulty(r.Difficulty),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func flashcardToRow(c *services.Flashcard) models.Flashcard {
	return models.Flashcard{
		ID:         c.ID,
		UserID:     c.UserID,
		CategoryID: c.CategoryID,
		Front:      c.Front,
		Back:       c.Back,
		Difficulty: string(c.Difficulty),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
