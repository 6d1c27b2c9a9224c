package api

import (
	"net/http"
	"sort"

	"github.com/soaringjerry/Studia/internal/services"
)

type optionView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type questionView struct {
	ID          string                  `json:"id"`
	Position    int                     `json:"position"`
	Type        services.QuestionType   `json:"type"`
	Text        string                  `json:"text"`
	ImageURL    *string                 `json:"image_url,omitempty"`
	Explanation *string                 `json:"explanation,omitempty"`
	Options     []optionView            `json:"options,omitempty"`
	Left        []string                `json:"left,omitempty"`
	Right       []string                `json:"right,omitempty"`
	Pairs       []services.MatchingPair `json:"pairs,omitempty"`
}

type quizView struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Description *string                  `json:"description,omitempty"`
	Difficulty  *services.QuizDifficulty `json:"difficulty,omitempty"`
	TimeLimit   *int                     `json:"time_limit,omitempty"`
	IsExamMode  bool                     `json:"is_exam_mode"`
	Questions   []questionView           `json:"questions"`
}

type attemptView struct {
	Attempt  *services.QuizAttempt `json:"attempt"`
	Quiz     quizView              `json:"quiz"`
	Answers  []*services.Answer    `json:"answers"`
	Overtime bool                  `json:"overtime"`
}

// newQuizView hides the answer key (correct options, matching pairs and
// explanations) until the attempt is completed.
func newQuizView(q *services.Quiz, reveal bool) quizView {
	v := quizView{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Difficulty:  q.Difficulty,
		TimeLimit:   q.TimeLimit,
		IsExamMode:  q.IsExamMode,
		Questions:   make([]questionView, 0, len(q.Questions)),
	}
	for _, qu := range q.Questions {
		qv := questionView{ID: qu.ID, Position: qu.Position, Type: qu.Type, Text: qu.Text, ImageURL: qu.ImageURL}
		for _, o := range qu.Options {
			ov := optionView{ID: o.ID, Text: o.Text}
			if reveal {
				correct := o.IsCorrect
				ov.IsCorrect = &correct
			}
			qv.Options = append(qv.Options, ov)
		}
		for _, p := range qu.Pairs {
			qv.Left = append(qv.Left, p.Left)
			qv.Right = append(qv.Right, p.Right)
		}
		sort.Strings(qv.Right)
		if reveal {
			qv.Explanation = qu.Explanation
			qv.Pairs = qu.Pairs
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}

// POST /api/quizzes/{quizID}/attempts
func (rt *Router) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := rt.attempts.Start(r.Context(), currentUser(r), r.PathValue("quizID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GET /api/attempts/{attemptID}
func (rt *Router) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	a, quiz, err := rt.attempts.Get(r.Context(), currentUser(r), r.PathValue("attemptID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	answers, err := rt.store.ListAnswers(r.Context(), a.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptView{
		Attempt:  a,
		Quiz:     newQuizView(quiz, a.Status == services.AttemptCompleted),
		Answers:  answers,
		Overtime: a.Overtime(quiz),
	})
}

// answerRequest carries exactly one of the response shapes.
type answerRequest struct {
	OptionIDs []string          `json:"option_ids" validate:"omitempty,max=64,dive,required,max=128"`
	Text      *string           `json:"text" validate:"omitempty,max=10000"`
	Mapping   map[string]string `json:"mapping" validate:"omitempty,max=64"`
}

func (req answerRequest) response() (services.AnswerResponse, error) {
	var resp services.AnswerResponse
	kinds := 0
	if req.OptionIDs != nil {
		resp = services.ChoiceResponse{OptionIDs: req.OptionIDs}
		kinds++
	}
	if req.Text != nil {
		resp = services.TextResponse{Text: *req.Text}
		kinds++
	}
	if req.Mapping != nil {
		resp = services.MatchingResponse{Mapping: req.Mapping}
		kinds++
	}
	if kinds != 1 {
		return nil, services.NewInvalidError("exactly one of option_ids, text or mapping required")
	}
	return resp, nil
}

// PUT /api/attempts/{attemptID}/answers/{questionID}
func (rt *Router) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := rt.decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := req.response()
	if err != nil {
		writeError(w, r, err)
		return
	}
	ans, err := rt.attempts.RecordAnswer(r.Context(), currentUser(r), r.PathValue("attemptID"), r.PathValue("questionID"), resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// GET /api/attempts/{attemptID}/answers/{questionID}/check
func (rt *Router) handleCheckAnswer(w http.ResponseWriter, r *http.Request) {
	check, err := rt.attempts.CheckAnswer(r.Context(), currentUser(r), r.PathValue("attemptID"), r.PathValue("questionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

// POST /api/attempts/{attemptID}/complete
func (rt *Router) handleCompleteAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := rt.attempts.Complete(r.Context(), currentUser(r), r.PathValue("attemptID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attempt":     a,
		"percent":     a.Percent(),
		"auto_graded": a.AutoGraded(),
		"ungraded":    a.Ungraded(),
	})
}

// POST /api/attempts/{attemptID}/abandon
func (rt *Router) handleAbandonAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := rt.attempts.Abandon(r.Context(), currentUser(r), r.PathValue("attemptID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
