package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
)

// LongRow is one question verdict of one completed attempt.
type LongRow struct {
	UserID          string
	AttemptID       string
	QuestionID      string
	Position        int
	Type            QuestionType
	Answered        bool
	Graded          bool
	IsCorrect       bool
	MatchedFraction *float64
	CompletedAt     string // RFC3339
}

// ScoreRow is the total of one completed attempt.
type ScoreRow struct {
	UserID         string
	AttemptID      string
	Score          int
	TotalQuestions int
	Percent        float64
	TimeSpent      int
	Overtime       bool
	CompletedAt    string
}

// ExportLongCSV renders rows into a long-format CSV.
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"user_id", "attempt_id", "question_id", "position", "type",
		"answered", "graded", "is_correct", "matched_fraction", "completed_at"})
	for _, r := range rows {
		frac := ""
		if r.MatchedFraction != nil {
			frac = strconv.FormatFloat(*r.MatchedFraction, 'f', 4, 64)
		}
		rec := []string{
			r.UserID,
			r.AttemptID,
			r.QuestionID,
			strconv.Itoa(r.Position),
			string(r.Type),
			strconv.FormatBool(r.Answered),
			strconv.FormatBool(r.Graded),
			strconv.FormatBool(r.IsCorrect),
			frac,
			r.CompletedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportScoreCSV renders one line per completed attempt, ordered by user then
// completion time.
func ExportScoreCSV(rows []ScoreRow) ([]byte, error) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].UserID == rows[j].UserID {
			return rows[i].CompletedAt < rows[j].CompletedAt
		}
		return rows[i].UserID < rows[j].UserID
	})
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"user_id", "attempt_id", "score", "total_questions", "percent", "time_spent", "overtime", "completed_at"})
	for _, r := range rows {
		rec := []string{
			r.UserID,
			r.AttemptID,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.TotalQuestions),
			strconv.FormatFloat(r.Percent, 'f', 2, 64),
			strconv.Itoa(r.TimeSpent),
			strconv.FormatBool(r.Overtime),
			r.CompletedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
