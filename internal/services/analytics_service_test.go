package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func completedAttempt(id, userID string, at time.Time, score int, results ...QuestionResult) *QuizAttempt {
	total := 3
	done := at.Add(10 * time.Minute)
	return &QuizAttempt{
		ID: id, UserID: userID, QuizID: "QZ1", Status: AttemptCompleted,
		StartedAt: at, CompletedAt: &done, Score: &score, TotalQuestions: &total,
		Results: results,
	}
}

func verdictRow(q1, q2 bool, fraction float64) []QuestionResult {
	return []QuestionResult{
		{QuestionID: "Q1", Type: QuestionSingleChoice, Answered: true, Graded: true, IsCorrect: q1},
		{QuestionID: "Q2", Type: QuestionMultipleChoice, Answered: true, Graded: true, IsCorrect: q2},
		{QuestionID: "Q3", Type: QuestionMatching, Answered: true, Graded: true, IsCorrect: fraction == 1, MatchedFraction: &fraction},
	}
}

func TestAnalyticsQuizSummary(t *testing.T) {
	ctx := context.Background()
	store := newStubAttemptStore(sampleQuiz())
	day1 := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	store.attempts["A1"] = completedAttempt("A1", "U1", day1, 3, verdictRow(true, true, 1)...)
	store.attempts["A2"] = completedAttempt("A2", "U2", day1, 1, verdictRow(true, false, 0.5)...)
	store.attempts["A3"] = completedAttempt("A3", "U3", day2, 0, verdictRow(false, false, 0)...)
	store.attempts["A4"] = &QuizAttempt{ID: "A4", UserID: "U4", QuizID: "QZ1", Status: AttemptAbandoned, StartedAt: day2}
	store.attempts["A5"] = &QuizAttempt{ID: "A5", UserID: "U5", QuizID: "QZ1", Status: AttemptInProgress, StartedAt: day2}

	svc := NewAnalyticsService(store)
	sum, err := svc.QuizSummary(ctx, "QZ1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Completed != 3 || sum.Abandoned != 1 || sum.InProgress != 1 {
		t.Fatalf("counts = %d/%d/%d, want 3/1/1", sum.Completed, sum.Abandoned, sum.InProgress)
	}
	wantMean := (100.0 + 100.0/3 + 0) / 3
	if diff := sum.MeanPercent - wantMean; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("mean percent = %f, want %f", sum.MeanPercent, wantMean)
	}
	if sum.Histogram[9] != 1 || sum.Histogram[3] != 1 || sum.Histogram[0] != 1 {
		t.Fatalf("histogram = %v", sum.Histogram)
	}
	if len(sum.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(sum.Questions))
	}
	q1 := sum.Questions[0]
	if q1.QuestionID != "Q1" || q1.Correct != 2 || q1.Graded != 3 {
		t.Fatalf("q1 stats = %+v", q1)
	}
	q3 := sum.Questions[2]
	if q3.MeanMatchedFraction == nil || *q3.MeanMatchedFraction != 0.5 {
		t.Fatalf("q3 mean fraction = %v, want 0.5", q3.MeanMatchedFraction)
	}
	if sum.N != 3 {
		t.Fatalf("alpha n = %d, want 3", sum.N)
	}
	if sum.Alpha < 0 || sum.Alpha > 1 {
		t.Fatalf("alpha = %f out of bounds", sum.Alpha)
	}
	if len(sum.Timeseries) != 2 || sum.Timeseries[0].Date != "2024-09-02" || sum.Timeseries[0].Count != 2 {
		t.Fatalf("timeseries = %+v", sum.Timeseries)
	}

	if _, err := svc.QuizSummary(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing quiz err = %v, want not_found", err)
	}
}

func TestAnalyticsUserHistory(t *testing.T) {
	ctx := context.Background()
	store := newStubAttemptStore(sampleQuiz())
	t0 := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	store.attempts["A1"] = completedAttempt("A1", "U1", t0, 1, verdictRow(true, false, 0)...)
	store.attempts["A2"] = completedAttempt("A2", "U1", t0.Add(time.Hour), 3, verdictRow(true, true, 1)...)
	store.attempts["A3"] = completedAttempt("A3", "U1", t0.Add(2*time.Hour), 2, verdictRow(true, true, 0)...)
	store.attempts["A4"] = &QuizAttempt{ID: "A4", UserID: "U1", QuizID: "QZ1", Status: AttemptInProgress, StartedAt: t0.Add(3 * time.Hour)}
	store.attempts["B1"] = completedAttempt("B1", "U2", t0, 0)

	h, err := NewAnalyticsService(store).UserHistory(ctx, "U1", "QZ1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.Attempts != 4 || h.Completed != 3 || h.LiveAttempt != "A4" {
		t.Fatalf("history = %+v", h)
	}
	third := 100.0 / 3
	if *h.FirstPercent != third || *h.BestPercent != 100 || *h.LastPercent != 200.0/3 {
		t.Fatalf("first=%f best=%f last=%f", *h.FirstPercent, *h.BestPercent, *h.LastPercent)
	}
	if want := (third + 100 + 200.0/3) / 3; *h.AvgPercent-want > 1e-9 || want-*h.AvgPercent > 1e-9 {
		t.Fatalf("avg = %f, want %f", *h.AvgPercent, want)
	}
}
