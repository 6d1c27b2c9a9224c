package services

import "strings"

// MultipleChoicePartialCredit is the multiple-choice policy: a response is
// either exactly the correct set or wrong.
const MultipleChoicePartialCredit = false

// GradeResult is the verdict for one response. MatchedFraction is nil when the
// response could not be graded automatically (free text).
type GradeResult struct {
	Graded          bool     `json:"graded"`
	IsCorrect       bool     `json:"is_correct"`
	MatchedFraction *float64 `json:"matched_fraction"`
}

func verdict(correct bool) GradeResult {
	f := 0.0
	if correct {
		f = 1
	}
	return GradeResult{Graded: true, IsCorrect: correct, MatchedFraction: &f}
}

func ungraded() GradeResult { return GradeResult{} }

// Grade scores resp against the canonical key carried by q (its options or
// matching pairs). It never fails: malformed or mismatched responses are
// incorrect, and free text is left ungraded.
func Grade(q *Question, resp AnswerResponse) GradeResult {
	if q == nil {
		return verdict(false)
	}
	switch q.Type {
	case QuestionSingleChoice:
		r, ok := resp.(ChoiceResponse)
		if !ok {
			return verdict(false)
		}
		return gradeSingle(q, r)
	case QuestionMultipleChoice:
		r, ok := resp.(ChoiceResponse)
		if !ok {
			return verdict(false)
		}
		return gradeMultiple(q, r)
	case QuestionMatching:
		r, ok := resp.(MatchingResponse)
		if !ok {
			return verdict(false)
		}
		return gradeMatching(q, r)
	case QuestionFreeText:
		// No accepted-answer key exists for free text.
		return ungraded()
	default:
		return verdict(false)
	}
}

func gradeSingle(q *Question, r ChoiceResponse) GradeResult {
	ids := distinct(r.OptionIDs)
	if len(ids) != 1 {
		return verdict(false)
	}
	for _, opt := range q.Options {
		if opt.ID == ids[0] {
			return verdict(opt.IsCorrect)
		}
	}
	return verdict(false)
}

func gradeMultiple(q *Question, r ChoiceResponse) GradeResult {
	correct := map[string]bool{}
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct[opt.ID] = true
		}
	}
	// Unknown ids are never in the correct set, so they fail the comparison.
	ids := distinct(r.OptionIDs)
	if len(ids) != len(correct) {
		return verdict(false)
	}
	for _, id := range ids {
		if !correct[id] {
			return verdict(false)
		}
	}
	return verdict(true)
}

func gradeMatching(q *Question, r MatchingResponse) GradeResult {
	zero := 0.0
	if len(q.Pairs) == 0 {
		return GradeResult{Graded: true, MatchedFraction: &zero}
	}
	// A left item submitted twice under different spacing is ambiguous and
	// never counts as matched.
	proposed := make(map[string]string, len(r.Mapping))
	ambiguous := map[string]bool{}
	for left, right := range r.Mapping {
		left = strings.TrimSpace(left)
		if _, dup := proposed[left]; dup {
			ambiguous[left] = true
		}
		proposed[left] = strings.TrimSpace(right)
	}
	matched := 0
	for _, p := range q.Pairs {
		left := strings.TrimSpace(p.Left)
		if ambiguous[left] {
			continue
		}
		if right, ok := proposed[left]; ok && right == strings.TrimSpace(p.Right) {
			matched++
		}
	}
	f := float64(matched) / float64(len(q.Pairs))
	return GradeResult{Graded: true, IsCorrect: matched == len(q.Pairs), MatchedFraction: &f}
}
