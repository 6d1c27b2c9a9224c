package services

import (
	"encoding"
	"fmt"
	"strings"
)

// QuestionType is the closed set of question kinds the grader understands.
// The schema stores it as free text; ParseQuestionType narrows it.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionMatching       QuestionType = "MATCHING"
	QuestionFreeText       QuestionType = "FREE_TEXT"
)

var questionTypeAliases = map[string]QuestionType{
	"SINGLE_CHOICE":   QuestionSingleChoice,
	"SINGLE":          QuestionSingleChoice,
	"MULTIPLE_CHOICE": QuestionMultipleChoice,
	"MULTIPLE":        QuestionMultipleChoice,
	"MATCHING":        QuestionMatching,
	"FREE_TEXT":       QuestionFreeText,
	"FREE":            QuestionFreeText,
	"TEXT":            QuestionFreeText,
}

// ParseQuestionType accepts the canonical tokens case-insensitively, with '-'
// or ' ' as separators, plus the short aliases single, multiple, text, free.
func ParseQuestionType(raw string) (QuestionType, error) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if t, ok := questionTypeAliases[norm]; ok {
		return t, nil
	}
	return "", NewInvalidError(fmt.Sprintf("unrecognized question type %q", raw))
}

func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionMatching, QuestionFreeText:
		return true
	}
	return false
}

// AttemptStatus is the lifecycle state of a QuizAttempt.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptAbandoned  AttemptStatus = "ABANDONED"
)

func ParseAttemptStatus(raw string) (AttemptStatus, error) {
	s := AttemptStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case AttemptInProgress, AttemptCompleted, AttemptAbandoned:
		return s, nil
	}
	return "", NewInvalidError(fmt.Sprintf("unrecognized attempt status %q", raw))
}

// Terminal reports whether no transition leaves s.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptCompleted || s == AttemptAbandoned
}

// FlashcardDifficulty is a rung of the spaced-repetition ladder.
type FlashcardDifficulty string

const (
	DifficultyNouveau   FlashcardDifficulty = "NOUVEAU"
	DifficultyDifficile FlashcardDifficulty = "DIFFICILE"
	DifficultyMoyen     FlashcardDifficulty = "MOYEN"
	DifficultyFacile    FlashcardDifficulty = "FACILE"
	DifficultyAcquise   FlashcardDifficulty = "ACQUISE"
)

// Ladder lists the difficulties from least known to mastered.
var Ladder = [...]FlashcardDifficulty{
	DifficultyNouveau,
	DifficultyDifficile,
	DifficultyMoyen,
	DifficultyFacile,
	DifficultyAcquise,
}

// Rank is the position of d on the ladder (NOUVEAU=0 … ACQUISE=4), or -1.
func (d FlashcardDifficulty) Rank() int {
	for i, v := range Ladder {
		if v == d {
			return i
		}
	}
	return -1
}

func (d FlashcardDifficulty) IsValid() bool { return d.Rank() >= 0 }

func ParseFlashcardDifficulty(raw string) (FlashcardDifficulty, error) {
	d := FlashcardDifficulty(strings.ToUpper(strings.TrimSpace(raw)))
	if !d.IsValid() {
		return "", NewInvalidError(fmt.Sprintf("unrecognized flashcard difficulty %q", raw))
	}
	return d, nil
}

// QuizDifficulty labels a quiz. Grading never reads it.
type QuizDifficulty string

const (
	QuizFacile    QuizDifficulty = "FACILE"
	QuizMoyen     QuizDifficulty = "MOYEN"
	QuizDifficile QuizDifficulty = "DIFFICILE"
)

func ParseQuizDifficulty(raw string) (QuizDifficulty, error) {
	d := QuizDifficulty(strings.ToUpper(strings.TrimSpace(raw)))
	switch d {
	case QuizFacile, QuizMoyen, QuizDifficile:
		return d, nil
	}
	return "", NewInvalidError(fmt.Sprintf("unrecognized quiz difficulty %q", raw))
}

// ReviewOutcome is the reviewer's recall signal for one flashcard.
type ReviewOutcome string

const (
	OutcomeAgain ReviewOutcome = "AGAIN"
	OutcomeHard  ReviewOutcome = "HARD"
	OutcomeGood  ReviewOutcome = "GOOD"
)

// ParseReviewOutcome is case-insensitive; unknown tokens yield an
// ErrorInvalidOutcome error.
func ParseReviewOutcome(raw string) (ReviewOutcome, error) {
	o := ReviewOutcome(strings.ToUpper(strings.TrimSpace(raw)))
	if !o.IsValid() {
		return "", NewInvalidOutcomeError(fmt.Sprintf("unrecognized review outcome %q", raw))
	}
	return o, nil
}

func (o ReviewOutcome) IsValid() bool {
	return o == OutcomeAgain || o == OutcomeHard || o == OutcomeGood
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *ReviewOutcome) UnmarshalText(text []byte) error {
	v, err := ParseReviewOutcome(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *QuestionType) UnmarshalText(text []byte) error {
	v, err := ParseQuestionType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *FlashcardDifficulty) UnmarshalText(text []byte) error {
	v, err := ParseFlashcardDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Compile-time interface checks.
var (
	_ encoding.TextUnmarshaler = (*ReviewOutcome)(nil)
	_ encoding.TextUnmarshaler = (*QuestionType)(nil)
	_ encoding.TextUnmarshaler = (*FlashcardDifficulty)(nil)
)
