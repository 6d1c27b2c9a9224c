package services

import (
	"context"
	"fmt"
	"sort"
)

type AnalyticsStore interface {
	LoadQuiz(ctx context.Context, id string) (*Quiz, error)
	ListAttemptsByQuiz(ctx context.Context, quizID string) ([]*QuizAttempt, error)
	ListAttemptsByUser(ctx context.Context, userID, quizID string) ([]*QuizAttempt, error)
}

type AnalyticsService struct {
	store AnalyticsStore
}

type QuestionStats struct {
	QuestionID          string       `json:"question_id"`
	Type                QuestionType `json:"type"`
	Answered            int          `json:"answered"`
	Graded              int          `json:"graded"`
	Correct             int          `json:"correct"`
	CorrectRate         float64      `json:"correct_rate"`
	MeanMatchedFraction *float64     `json:"mean_matched_fraction,omitempty"`
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type QuizSummary struct {
	QuizID      string                `json:"quiz_id"`
	Completed   int                   `json:"completed"`
	Abandoned   int                   `json:"abandoned"`
	InProgress  int                   `json:"in_progress"`
	MeanPercent float64               `json:"mean_percent"`
	Histogram   []int                 `json:"histogram"` // ten 10%-wide buckets
	Questions   []QuestionStats       `json:"questions"`
	Timeseries  []AnalyticsTimeseries `json:"timeseries"`
	Alpha       float64               `json:"alpha"`
	N           int                   `json:"n"`
}

// AttemptHistory summarizes one user's attempts at one quiz.
type AttemptHistory struct {
	UserID       string   `json:"user_id"`
	QuizID       string   `json:"quiz_id"`
	Attempts     int      `json:"attempts"`
	Completed    int      `json:"completed"`
	FirstPercent *float64 `json:"first_percent,omitempty"`
	LastPercent  *float64 `json:"last_percent,omitempty"`
	BestPercent  *float64 `json:"best_percent,omitempty"`
	AvgPercent   *float64 `json:"avg_percent,omitempty"`
	LiveAttempt  string   `json:"live_attempt_id,omitempty"`
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) QuizSummary(ctx context.Context, quizID string) (*QuizSummary, error) {
	quiz, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, NewNotFoundError("quiz not found")
	}
	attempts, err := s.store.ListAttemptsByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	sum := &QuizSummary{QuizID: quizID, Histogram: make([]int, 10)}
	completed := make([]*QuizAttempt, 0, len(attempts))
	countsByDay := map[string]int{}
	var percents float64
	for _, a := range attempts {
		switch a.Status {
		case AttemptInProgress:
			sum.InProgress++
		case AttemptAbandoned:
			sum.Abandoned++
		case AttemptCompleted:
			sum.Completed++
			completed = append(completed, a)
			p := a.Percent()
			percents += p
			sum.Histogram[bucket(p)]++
			if a.CompletedAt != nil {
				countsByDay[a.CompletedAt.UTC().Format("2006-01-02")]++
			}
		}
	}
	if sum.Completed > 0 {
		sum.MeanPercent = percents / float64(sum.Completed)
	}
	sum.Questions = buildQuestionStats(quiz.Questions, completed)
	matrix := buildAlphaMatrix(quiz.Questions, completed)
	sum.Alpha = CronbachAlpha(matrix)
	sum.N = len(matrix)
	sum.Timeseries = buildTimeseries(countsByDay)
	return sum, nil
}

func (s *AnalyticsService) UserHistory(ctx context.Context, userID, quizID string) (*AttemptHistory, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("user required")
	}
	attempts, err := s.store.ListAttemptsByUser(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	sort.SliceStable(attempts, func(i, j int) bool { return attempts[i].StartedAt.Before(attempts[j].StartedAt) })

	h := &AttemptHistory{UserID: userID, QuizID: quizID, Attempts: len(attempts)}
	var total float64
	for _, a := range attempts {
		if a.Status == AttemptInProgress {
			h.LiveAttempt = a.ID
			continue
		}
		if a.Status != AttemptCompleted {
			continue
		}
		p := a.Percent()
		h.Completed++
		total += p
		if h.FirstPercent == nil {
			h.FirstPercent = floatPtr(p)
		}
		h.LastPercent = floatPtr(p)
		if h.BestPercent == nil || p > *h.BestPercent {
			h.BestPercent = floatPtr(p)
		}
	}
	if h.Completed > 0 {
		h.AvgPercent = floatPtr(total / float64(h.Completed))
	}
	return h, nil
}

func buildQuestionStats(questions []*Question, attempts []*QuizAttempt) []QuestionStats {
	stats := make([]QuestionStats, 0, len(questions))
	index := make(map[string]int, len(questions))
	fractions := make([]float64, len(questions))
	fractionN := make([]int, len(questions))
	for i, q := range questions {
		stats = append(stats, QuestionStats{QuestionID: q.ID, Type: q.Type})
		index[q.ID] = i
	}
	for _, a := range attempts {
		for _, r := range a.Results {
			i, ok := index[r.QuestionID]
			if !ok {
				continue
			}
			if r.Answered {
				stats[i].Answered++
			}
			if r.Graded {
				stats[i].Graded++
			}
			if r.IsCorrect {
				stats[i].Correct++
			}
			if r.MatchedFraction != nil && r.Type == QuestionMatching {
				fractions[i] += *r.MatchedFraction
				fractionN[i]++
			}
		}
	}
	for i := range stats {
		if stats[i].Graded > 0 {
			stats[i].CorrectRate = float64(stats[i].Correct) / float64(stats[i].Graded)
		}
		if fractionN[i] > 0 {
			stats[i].MeanMatchedFraction = floatPtr(fractions[i] / float64(fractionN[i]))
		}
	}
	return stats
}

// buildAlphaMatrix keeps auto-gradable questions and attempts that carry a
// verdict for each of them.
func buildAlphaMatrix(questions []*Question, attempts []*QuizAttempt) [][]float64 {
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		if q.Type != QuestionFreeText {
			ids = append(ids, q.ID)
		}
	}
	matrix := make([][]float64, 0, len(attempts))
	for _, a := range attempts {
		byID := make(map[string]QuestionResult, len(a.Results))
		for _, r := range a.Results {
			byID[r.QuestionID] = r
		}
		row := make([]float64, 0, len(ids))
		complete := true
		for _, id := range ids {
			r, ok := byID[id]
			if !ok || !r.Graded {
				complete = false
				break
			}
			if r.IsCorrect {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}
		if complete {
			matrix = append(matrix, row)
		}
	}
	return matrix
}

func buildTimeseries(counts map[string]int) []AnalyticsTimeseries {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]AnalyticsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}

func bucket(percent float64) int {
	b := int(percent / 10)
	if b < 0 {
		return 0
	}
	if b > 9 {
		return 9
	}
	return b
}

func floatPtr(v float64) *float64 { return &v }
