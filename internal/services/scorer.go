package services

import "strings"

// ScoreSummary aggregates the per-question verdicts of one attempt.
type ScoreSummary struct {
	Score          int              `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	AutoGraded     int              `json:"auto_graded"`
	Ungraded       int              `json:"ungraded"`
	Results        []QuestionResult `json:"results"`
}

// ScoreAttempt grades every question of a quiz against the recorded answers.
// Unanswered questions are incorrect. Answered free-text questions count in
// TotalQuestions but not in Score or AutoGraded. Matching fractions are kept
// in Results and never add partial points to Score.
func ScoreAttempt(questions []*Question, answers []*Answer) ScoreSummary {
	byQuestion := make(map[string]*Answer, len(answers))
	for _, a := range answers {
		if a != nil {
			byQuestion[a.QuestionID] = a
		}
	}

	sum := ScoreSummary{
		TotalQuestions: len(questions),
		Results:        make([]QuestionResult, 0, len(questions)),
	}
	for _, q := range questions {
		res := QuestionResult{QuestionID: q.ID, Type: q.Type}
		ans, ok := byQuestion[q.ID]
		var g GradeResult
		if ok && !blank(ans.Response) {
			res.Answered = true
			g = Grade(q, ans.Response)
		} else {
			g = verdict(false)
		}
		res.Graded = g.Graded
		res.IsCorrect = g.IsCorrect
		res.MatchedFraction = g.MatchedFraction

		if g.Graded {
			sum.AutoGraded++
		} else {
			sum.Ungraded++
		}
		if g.IsCorrect {
			sum.Score++
		}
		sum.Results = append(sum.Results, res)
	}
	return sum
}

// blank reports whether a response carries nothing to grade.
func blank(resp AnswerResponse) bool {
	switch r := resp.(type) {
	case nil:
		return true
	case TextResponse:
		return strings.TrimSpace(r.Text) == ""
	case ChoiceResponse:
		return len(distinct(r.OptionIDs)) == 0
	case MatchingResponse:
		return len(r.Mapping) == 0
	}
	return false
}
