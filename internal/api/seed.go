package api

import (
	"log"
	"net/http"
	"time"

	"github.com/soaringjerry/Studia/internal/middleware"
	"github.com/soaringjerry/Studia/internal/services"
)

const (
	demoQuizID   = "demo-histoire"
	demoUserID   = "demo-learner"
	demoCategory = "cat-revolution"
)

func strp(s string) *string { return &s }

// DemoQuiz is the sample quiz served by POST /api/seed. It covers every
// question type.
func DemoQuiz() *services.Quiz {
	limit := 15
	diff := services.QuizMoyen
	return &services.Quiz{
		ID:          demoQuizID,
		SubjectID:   "subj-histoire",
		CategoryID:  demoCategory,
		Title:       "La Révolution française",
		Description: strp("Dates et acteurs de 1789 à 1794."),
		Difficulty:  &diff,
		TimeLimit:   &limit,
		Questions: []*services.Question{
			{
				ID: "demo-q1", Position: 1, Type: services.QuestionSingleChoice,
				Text:        "En quelle année a eu lieu la prise de la Bastille ?",
				Explanation: strp("Le 14 juillet 1789."),
				Options: []services.Option{
					{ID: "demo-q1-a", Text: "1789", IsCorrect: true},
					{ID: "demo-q1-b", Text: "1792"},
					{ID: "demo-q1-c", Text: "1799"},
				},
			},
			{
				ID: "demo-q2", Position: 2, Type: services.QuestionMultipleChoice,
				Text:        "Lesquels étaient membres du Comité de salut public ?",
				Explanation: strp("Robespierre et Saint-Just y siégeaient ; Necker était ministre de Louis XVI."),
				Options: []services.Option{
					{ID: "demo-q2-a", Text: "Robespierre", IsCorrect: true},
					{ID: "demo-q2-b", Text: "Saint-Just", IsCorrect: true},
					{ID: "demo-q2-c", Text: "Necker"},
				},
			},
			{
				ID: "demo-q3", Position: 3, Type: services.QuestionMatching,
				Text: "Associez chaque date à son événement.",
				Pairs: []services.MatchingPair{
					{ID: "demo-q3-p1", Left: "1789", Right: "Prise de la Bastille"},
					{ID: "demo-q3-p2", Left: "1792", Right: "Proclamation de la République"},
					{ID: "demo-q3-p3", Left: "1793", Right: "Exécution de Louis XVI"},
				},
			},
			{
				ID: "demo-q4", Position: 4, Type: services.QuestionFreeText,
				Text: "Résumez en une phrase les causes de la Révolution.",
			},
		},
	}
}

var demoCards = [][2]string{
	{"Prise de la Bastille", "14 juillet 1789"},
	{"Déclaration des droits de l'homme", "26 août 1789"},
	{"Chute de Robespierre", "9 thermidor an II (27 juillet 1794)"},
}

// POST /api/seed
func (rt *Router) handleSeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := rt.store.InsertQuiz(ctx, DemoQuiz())
	if err != nil && !services.IsCode(err, services.ErrorConflict) {
		writeError(w, r, err)
		return
	}
	created := 0
	existing, err := rt.store.ListFlashcardsByUser(ctx, demoUserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(existing) == 0 {
		for _, c := range demoCards {
			if _, err := rt.reviews.Create(ctx, demoUserID, demoCategory, c[0], c[1]); err != nil {
				writeError(w, r, err)
				return
			}
			created++
		}
	}
	token, err := middleware.SignToken(demoUserID, "Démo", 24*time.Hour)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("api: seeded quiz=%s flashcards=%d", demoQuizID, created)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"quiz_id":    demoQuizID,
		"user_id":    demoUserID,
		"flashcards": created,
		"token":      token,
	})
}
