package services

import "time"

// Clock returns the current time. Services take it injected so grading and
// scheduling stay deterministic under test.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

type Quiz struct {
	ID          string          `json:"id"`
	SubjectID   string          `json:"subject_id"`
	CategoryID  string          `json:"category_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Difficulty  *QuizDifficulty `json:"difficulty,omitempty"`
	TimeLimit   *int            `json:"time_limit,omitempty"` // minutes
	IsExamMode  bool            `json:"is_exam_mode"`
	Questions   []*Question     `json:"questions"`
}

// HintsAllowed is false for exam-mode quizzes.
func (q *Quiz) HintsAllowed() bool { return !q.IsExamMode }

// Question returns the question with the given id, or nil when it is not part
// of the quiz.
func (q *Quiz) Question(id string) *Question {
	for _, qu := range q.Questions {
		if qu.ID == id {
			return qu
		}
	}
	return nil
}

// TimeLimitDuration is zero when the quiz has no (or a non-positive) limit.
func (q *Quiz) TimeLimitDuration() time.Duration {
	if q.TimeLimit == nil || *q.TimeLimit <= 0 {
		return 0
	}
	return time.Duration(*q.TimeLimit) * time.Minute
}

type Question struct {
	ID          string         `json:"id"`
	QuizID      string         `json:"quiz_id"`
	Position    int            `json:"position"`
	Type        QuestionType   `json:"type"`
	Text        string         `json:"text"`
	ImageURL    *string        `json:"image_url,omitempty"`
	Explanation *string        `json:"explanation,omitempty"`
	Options     []Option       `json:"options,omitempty"`
	Pairs       []MatchingPair `json:"pairs,omitempty"`
}

type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

type MatchingPair struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Left       string `json:"left"`
	Right      string `json:"right"`
}

// QuestionResult is the verdict for one question of a finalized attempt.
// Unanswered questions appear with Answered=false.
type QuestionResult struct {
	QuestionID      string       `json:"question_id"`
	Type            QuestionType `json:"type"`
	Answered        bool         `json:"answered"`
	Graded          bool         `json:"graded"`
	IsCorrect       bool         `json:"is_correct"`
	MatchedFraction *float64     `json:"matched_fraction"`
}

type QuizAttempt struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	QuizID         string           `json:"quiz_id"`
	Status         AttemptStatus    `json:"status"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	Score          *int             `json:"score"`
	TotalQuestions *int             `json:"total_questions"`
	TimeSpent      *int             `json:"time_spent,omitempty"` // seconds
	Results        []QuestionResult `json:"results,omitempty"`
}

// AutoGraded counts questions that received a machine verdict.
func (a *QuizAttempt) AutoGraded() int {
	n := 0
	for _, r := range a.Results {
		if r.Graded {
			n++
		}
	}
	return n
}

// Ungraded counts answered free-text questions awaiting manual review.
func (a *QuizAttempt) Ungraded() int {
	n := 0
	for _, r := range a.Results {
		if !r.Graded {
			n++
		}
	}
	return n
}

// Percent is Score/TotalQuestions*100, or 0 while the attempt is ungraded.
func (a *QuizAttempt) Percent() float64 {
	if a.Score == nil || a.TotalQuestions == nil || *a.TotalQuestions == 0 {
		return 0
	}
	return float64(*a.Score) * 100 / float64(*a.TotalQuestions)
}

// Overtime reports whether an exam-mode attempt took longer than the quiz's
// time limit. Completion after the limit is accepted; this is the flag.
func (a *QuizAttempt) Overtime(quiz *Quiz) bool {
	if quiz == nil || !quiz.IsExamMode || a.TimeSpent == nil {
		return false
	}
	limit := quiz.TimeLimitDuration()
	return limit > 0 && time.Duration(*a.TimeSpent)*time.Second > limit
}

type Answer struct {
	ID         string         `json:"id"`
	AttemptID  string         `json:"attempt_id"`
	QuestionID string         `json:"question_id"`
	Response   AnswerResponse `json:"response"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type Flashcard struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	CategoryID string              `json:"category_id"`
	Front      string              `json:"front"`
	Back       string              `json:"back"`
	Difficulty FlashcardDifficulty `json:"difficulty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// ReviewLog records one scheduler decision.
type ReviewLog struct {
	ID          string              `json:"id"`
	FlashcardID string              `json:"flashcard_id"`
	UserID      string              `json:"user_id"`
	Outcome     ReviewOutcome       `json:"outcome"`
	From        FlashcardDifficulty `json:"from"`
	To          FlashcardDifficulty `json:"to"`
	ReviewedAt  time.Time           `json:"reviewed_at"`
}
