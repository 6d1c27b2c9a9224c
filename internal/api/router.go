package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/soaringjerry/Studia/internal/middleware"
	"github.com/soaringjerry/Studia/internal/services"
	"github.com/soaringjerry/Studia/internal/utils"
)

const maxBodyBytes = 1 << 20

// Options configures NewRouter. Zero values are usable.
type Options struct {
	Scheduler  *services.SRSScheduler
	Clock      services.Clock
	EnableSeed bool
}

type Router struct {
	store      Store
	attempts   *services.AttemptService
	reviews    *services.ReviewService
	analytics  *services.AnalyticsService
	exports    *services.ExportService
	validate   *validator.Validate
	enableSeed bool
}

func NewRouter(store Store, opts Options) *Router {
	if store == nil {
		store = NewMemoryStore()
	}
	attempts := services.NewAttemptService(store)
	reviews := services.NewReviewService(store, opts.Scheduler)
	if opts.Clock != nil {
		attempts.WithClock(opts.Clock)
		reviews.WithClock(opts.Clock)
	}
	return &Router{
		store:      store,
		attempts:   attempts,
		reviews:    reviews,
		analytics:  services.NewAnalyticsService(store),
		exports:    services.NewExportService(store),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		enableSeed: opts.EnableSeed,
	}
}

// Attempts exposes the attempt service so the sweeper shares the router's
// store and clock.
func (rt *Router) Attempts() *services.AttemptService { return rt.attempts }

func (rt *Router) Register(mux *http.ServeMux) {
	auth := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	mux.Handle("POST /api/quizzes/{quizID}/attempts", auth(rt.handleStartAttempt))
	mux.Handle("GET /api/quizzes/{quizID}/analytics", auth(rt.handleQuizAnalytics))
	mux.Handle("GET /api/quizzes/{quizID}/history", auth(rt.handleQuizHistory))
	mux.Handle("GET /api/quizzes/{quizID}/export", auth(rt.handleQuizExport))

	mux.Handle("GET /api/attempts/{attemptID}", auth(rt.handleGetAttempt))
	mux.Handle("PUT /api/attempts/{attemptID}/answers/{questionID}", auth(rt.handleRecordAnswer))
	mux.Handle("GET /api/attempts/{attemptID}/answers/{questionID}/check", auth(rt.handleCheckAnswer))
	mux.Handle("POST /api/attempts/{attemptID}/complete", auth(rt.handleCompleteAttempt))
	mux.Handle("POST /api/attempts/{attemptID}/abandon", auth(rt.handleAbandonAttempt))

	mux.Handle("POST /api/flashcards", auth(rt.handleCreateFlashcard))
	mux.Handle("GET /api/flashcards/due", auth(rt.handleDueFlashcards))
	mux.Handle("GET /api/flashcards/progress", auth(rt.handleFlashcardProgress))
	mux.Handle("POST /api/flashcards/{cardID}/reviews", auth(rt.handleReviewFlashcard))

	if rt.enableSeed {
		mux.HandleFunc("POST /api/seed", rt.handleSeed)
	}
}

func currentUser(r *http.Request) string {
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid, services.ErrorInvalidOutcome:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict, services.ErrorInvalidState:
		return http.StatusConflict
	case services.ErrorNotInQuiz:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError maps service errors to a status and a localized message. Any
// other error is logged and reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	se, ok := services.AsServiceError(err)
	if !ok {
		log.Printf("api: %s %s req=%s: %v", r.Method, r.URL.Path, middleware.RequestIDFromContext(r.Context()), err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "internal",
			"message": utils.T(locale, "error.internal"),
		})
		return
	}
	body := map[string]string{
		"error":   string(se.Code),
		"message": utils.T(locale, "error."+string(se.Code)),
	}
	if se.Message != "" {
		body["detail"] = se.Message
	}
	writeJSON(w, statusFor(se.Code), body)
}

// decodeBody reads a JSON body into dst and runs struct validation on it.
func (rt *Router) decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewInvalidError("request body required")
		}
		return services.NewInvalidError("malformed JSON: " + err.Error())
	}
	if err := rt.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			return services.NewInvalidError("invalid fields: " + strings.Join(fields, ", "))
		}
		return services.NewInvalidError(err.Error())
	}
	return nil
}
