package models

import (
	"time"

	"gorm.io/datatypes"
)

type Quiz struct {
	ID          string    `gorm:"primaryKey;type:text;column:id" json:"id"`
	SubjectID   string    `gorm:"type:text;column:subject_id" json:"subject_id"`
	CategoryID  string    `gorm:"type:text;column:category_id" json:"category_id"`
	Title       string    `gorm:"type:text;not null;column:title" json:"title"`
	Description *string   `gorm:"type:text;column:description" json:"description,omitempty"`
	Difficulty  *string   `gorm:"type:text;column:difficulty" json:"difficulty,omitempty"`
	TimeLimit   *int      `gorm:"column:time_limit" json:"time_limit,omitempty"` // minutes
	IsExamMode  bool      `gorm:"not null;default:false;column:is_exam_mode" json:"is_exam_mode"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Quiz) TableName() string { return "quizzes" }

// Question.Type is stored as free text and narrowed when loaded.
type Question struct {
	ID          string  `gorm:"primaryKey;type:text;column:id" json:"id"`
	QuizID      string  `gorm:"type:text;not null;index;column:quiz_id" json:"quiz_id"`
	Position    int     `gorm:"not null;default:0;column:position" json:"position"`
	Type        string  `gorm:"type:text;not null;column:type" json:"type"`
	Text        string  `gorm:"type:text;not null;column:text" json:"text"`
	ImageURL    *string `gorm:"type:text;column:image_url" json:"image_url,omitempty"`
	Explanation *string `gorm:"type:text;column:explanation" json:"explanation,omitempty"`
}

func (Question) TableName() string { return "questions" }

type Option struct {
	ID         string `gorm:"primaryKey;type:text;column:id" json:"id"`
	QuestionID string `gorm:"type:text;not null;index;column:question_id" json:"question_id"`
	Position   int    `gorm:"not null;default:0;column:position" json:"position"`
	Text       string `gorm:"type:text;not null;column:text" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false;column:is_correct" json:"is_correct"`
}

func (Option) TableName() string { return "options" }

type MatchingPair struct {
	ID         string `gorm:"primaryKey;type:text;column:id" json:"id"`
	QuestionID string `gorm:"type:text;not null;index;column:question_id" json:"question_id"`
	Position   int    `gorm:"not null;default:0;column:position" json:"position"`
	LeftItem   string `gorm:"type:text;not null;column:left_item" json:"left_item"`
	RightItem  string `gorm:"type:text;not null;column:right_item" json:"right_item"`
}

func (MatchingPair) TableName() string { return "matching_pairs" }

// QuizAttempt keeps the per-question verdicts of a finalized attempt in
// Results, since unanswered questions have no answer row.
type QuizAttempt struct {
	ID             string         `gorm:"primaryKey;type:text;column:id" json:"id"`
	UserID         string         `gorm:"type:text;not null;column:user_id" json:"user_id"`
	QuizID         string         `gorm:"type:text;not null;column:quiz_id" json:"quiz_id"`
	Status         string         `gorm:"type:text;not null;column:status" json:"status"`
	StartedAt      time.Time      `gorm:"not null;column:started_at" json:"started_at"`
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Score          *int           `gorm:"column:score" json:"score"`
	TotalQuestions *int           `gorm:"column:total_questions" json:"total_questions"`
	TimeSpent      *int           `gorm:"column:time_spent" json:"time_spent,omitempty"` // seconds
	Results        datatypes.JSON `gorm:"type:text;column:results" json:"results,omitempty"`
}

func (QuizAttempt) TableName() string { return "quiz_attempts" }

// Answer stores one response; (attempt_id, question_id) is unique.
type Answer struct {
	ID           string    `gorm:"primaryKey;type:text;column:id" json:"id"`
	AttemptID    string    `gorm:"type:text;not null;column:attempt_id" json:"attempt_id"`
	QuestionID   string    `gorm:"type:text;not null;column:question_id" json:"question_id"`
	OptionID     *string   `gorm:"type:text;column:option_id" json:"option_id,omitempty"`
	ResponseText *string   `gorm:"type:text;column:response_text" json:"response_text,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Answer) TableName() string { return "answers" }

type Flashcard struct {
	ID         string    `gorm:"primaryKey;type:text;column:id" json:"id"`
	UserID     string    `gorm:"type:text;not null;index;column:user_id" json:"user_id"`
	CategoryID string    `gorm:"type:text;not null;column:category_id" json:"category_id"`
	Front      string    `gorm:"type:text;not null;column:front" json:"front"`
	Back       string    `gorm:"type:text;not null;column:back" json:"back"`
	Difficulty string    `gorm:"type:text;not null;default:NOUVEAU;column:difficulty" json:"difficulty"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Flashcard) TableName() string { return "flashcards" }

// FlashcardReview is the append-only review history.
type FlashcardReview struct {
	ID             string    `gorm:"primaryKey;type:text;column:id" json:"id"`
	FlashcardID    string    `gorm:"type:text;not null;index;column:flashcard_id" json:"flashcard_id"`
	UserID         string    `gorm:"type:text;not null;column:user_id" json:"user_id"`
	Outcome        string    `gorm:"type:text;not null;column:outcome" json:"outcome"`
	FromDifficulty string    `gorm:"type:text;not null;column:from_difficulty" json:"from_difficulty"`
	ToDifficulty   string    `gorm:"type:text;not null;column:to_difficulty" json:"to_difficulty"`
	ReviewedAt     time.Time `gorm:"not null;column:reviewed_at" json:"reviewed_at"`
}

func (FlashcardReview) TableName() string { return "flashcard_reviews" }
