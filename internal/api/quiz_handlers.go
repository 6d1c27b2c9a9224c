package api

import (
	"net/http"
	"strconv"

	"github.com/soaringjerry/Studia/internal/services"
)

// GET /api/quizzes/{quizID}/analytics
func (rt *Router) handleQuizAnalytics(w http.ResponseWriter, r *http.Request) {
	sum, err := rt.analytics.QuizSummary(r.Context(), r.PathValue("quizID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /api/quizzes/{quizID}/history
func (rt *Router) handleQuizHistory(w http.ResponseWriter, r *http.Request) {
	h, err := rt.analytics.UserHistory(r.Context(), currentUser(r), r.PathValue("quizID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// GET /api/quizzes/{quizID}/export?format=long|score
func (rt *Router) handleQuizExport(w http.ResponseWriter, r *http.Request) {
	res, err := rt.exports.ExportCSV(r.Context(), services.ExportParams{
		QuizID: r.PathValue("quizID"),
		Format: r.URL.Query().Get("format"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(res.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}
