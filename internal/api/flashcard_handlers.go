package api

import (
	"net/http"

	"github.com/soaringjerry/Studia/internal/services"
)

type createFlashcardRequest struct {
	CategoryID string `json:"category_id" validate:"required,max=64"`
	Front      string `json:"front" validate:"required,max=2000"`
	Back       string `json:"back" validate:"required,max=2000"`
}

// Outcome is checked by the scheduler so unknown tokens get invalid_outcome.
type reviewRequest struct {
	Outcome string `json:"outcome" validate:"max=32"`
}

type dueResponse struct {
	Cards []*services.Flashcard `json:"cards"`
	Count int                   `json:"count"`
}

// POST /api/flashcards
func (rt *Router) handleCreateFlashcard(w http.ResponseWriter, r *http.Request) {
	var req createFlashcardRequest
	if err := rt.decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	card, err := rt.reviews.Create(r.Context(), currentUser(r), req.CategoryID, req.Front, req.Back)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// GET /api/flashcards/due?category_id=
func (rt *Router) handleDueFlashcards(w http.ResponseWriter, r *http.Request) {
	cards, err := rt.reviews.DueCards(r.Context(), currentUser(r), r.URL.Query().Get("category_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dueResponse{Cards: cards, Count: len(cards)})
}

// POST /api/flashcards/{cardID}/reviews
func (rt *Router) handleReviewFlashcard(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := rt.decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := rt.reviews.Review(r.Context(), currentUser(r), r.PathValue("cardID"), req.Outcome)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/flashcards/progress
func (rt *Router) handleFlashcardProgress(w http.ResponseWriter, r *http.Request) {
	p, err := rt.reviews.Progress(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
