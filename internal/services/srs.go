package services

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// SRSConfig tunes the review intervals. Every field is taken literally, so a
// zero interval makes that rung due the same day; start from
// DefaultSRSConfig to override a single rung. NOUVEAU and DIFFICILE are
// always due the same day.
type SRSConfig struct {
	Moyen   time.Duration `json:"moyen"`
	Facile  time.Duration `json:"facile"`
	Acquise time.Duration `json:"acquise"`
}

// DefaultSRSConfig returns the default interval policy: MOYEN after 2 days,
// FACILE after 7 and ACQUISE after 30.
func DefaultSRSConfig() SRSConfig {
	return SRSConfig{Moyen: 2 * day, Facile: 7 * day, Acquise: 30 * day}
}

// transitions[current][outcome] is the next rung of the ladder.
var transitions = map[FlashcardDifficulty]map[ReviewOutcome]FlashcardDifficulty{
	DifficultyNouveau: {
		OutcomeAgain: DifficultyNouveau,
		OutcomeHard:  DifficultyDifficile,
		OutcomeGood:  DifficultyMoyen,
	},
	DifficultyDifficile: {
		OutcomeAgain: DifficultyNouveau,
		OutcomeHard:  DifficultyDifficile,
		OutcomeGood:  DifficultyMoyen,
	},
	DifficultyMoyen: {
		OutcomeAgain: DifficultyDifficile,
		OutcomeHard:  DifficultyMoyen,
		OutcomeGood:  DifficultyFacile,
	},
	DifficultyFacile: {
		OutcomeAgain: DifficultyMoyen,
		OutcomeHard:  DifficultyFacile,
		OutcomeGood:  DifficultyAcquise,
	},
	DifficultyAcquise: {
		OutcomeAgain: DifficultyMoyen,
		OutcomeHard:  DifficultyFacile,
		OutcomeGood:  DifficultyAcquise,
	},
}

// SRSScheduler owns flashcard difficulty transitions and due dates.
type SRSScheduler struct {
	intervals map[FlashcardDifficulty]time.Duration
}

// NewSRSScheduler validates cfg: intervals must be non-negative and must not
// shrink as a card gets easier.
func NewSRSScheduler(cfg SRSConfig) (*SRSScheduler, error) {
	if cfg.Moyen < 0 || cfg.Facile < 0 || cfg.Acquise < 0 {
		return nil, NewInvalidError("srs intervals must be non-negative")
	}
	if cfg.Facile < cfg.Moyen || cfg.Acquise < cfg.Facile {
		return nil, NewInvalidError(fmt.Sprintf("srs intervals must be monotonic: moyen=%s facile=%s acquise=%s",
			cfg.Moyen, cfg.Facile, cfg.Acquise))
	}
	return &SRSScheduler{intervals: map[FlashcardDifficulty]time.Duration{
		DifficultyNouveau:   0,
		DifficultyDifficile: 0,
		DifficultyMoyen:     cfg.Moyen,
		DifficultyFacile:    cfg.Facile,
		DifficultyAcquise:   cfg.Acquise,
	}}, nil
}

// DefaultSRSScheduler uses DefaultSRSConfig.
func DefaultSRSScheduler() *SRSScheduler {
	s, err := NewSRSScheduler(DefaultSRSConfig())
	if err != nil {
		panic(err)
	}
	return s
}

// Next looks up the transition table. It is total over valid states and
// outcomes.
func (s *SRSScheduler) Next(current FlashcardDifficulty, outcome ReviewOutcome) (FlashcardDifficulty, error) {
	if !outcome.IsValid() {
		return "", NewInvalidOutcomeError(fmt.Sprintf("unrecognized review outcome %q", outcome))
	}
	row, ok := transitions[current]
	if !ok {
		return "", NewInvalidError(fmt.Sprintf("unrecognized flashcard difficulty %q", current))
	}
	return row[outcome], nil
}

// Review applies outcome to card at now. The input card is not mutated.
func (s *SRSScheduler) Review(card Flashcard, outcome ReviewOutcome, now time.Time) (Flashcard, ReviewLog, error) {
	next, err := s.Next(card.Difficulty, outcome)
	if err != nil {
		return Flashcard{}, ReviewLog{}, err
	}
	out := card
	out.Difficulty = next
	out.UpdatedAt = now
	return out, ReviewLog{
		FlashcardID: card.ID,
		UserID:      card.UserID,
		Outcome:     outcome,
		From:        card.Difficulty,
		To:          next,
		ReviewedAt:  now,
	}, nil
}

// IntervalFor is the minimum time between two reviews of a card at d.
// Unknown difficulties are treated like NOUVEAU.
func (s *SRSScheduler) IntervalFor(d FlashcardDifficulty) time.Duration {
	return s.intervals[d]
}

// NextDue is the instant the card becomes due again.
func (s *SRSScheduler) NextDue(card *Flashcard) time.Time {
	return card.UpdatedAt.Add(s.IntervalFor(card.Difficulty))
}

// IsDue reports whether now - UpdatedAt >= IntervalFor(difficulty).
func (s *SRSScheduler) IsDue(card *Flashcard, now time.Time) bool {
	return now.Sub(card.UpdatedAt) >= s.IntervalFor(card.Difficulty)
}
