package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/soaringjerry/Studia/internal/utils"
)

type ctxKey int

const (
	localeKey ctxKey = iota + 1
	requestIDKey
)

func withValue(r *http.Request, key ctxKey, v string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), key, v))
}

func valueOr(ctx context.Context, key ctxKey, def string) string {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v
	}
	return def
}

// SecureHeaders adds standard security headers and marks API responses
// uncacheable; attempt state changes on every call.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// RequestID tags every request with an id, reusing a client-supplied
// X-Request-ID when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			generated, err := gonanoid.New(12)
			if err != nil {
				generated = "-"
			}
			id = generated
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, withValue(r, requestIDKey, id))
	})
}

func RequestIDFromContext(ctx context.Context) string {
	return valueOr(ctx, requestIDKey, "")
}

// LocaleMiddleware negotiates the response language from ?lang= and then
// Accept-Language, echoing it as Content-Language.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := utils.DetermineLocale(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"),
			utils.SupportedLocales, utils.DefaultLocale)
		w.Header().Set("Content-Language", locale)
		next.ServeHTTP(w, withValue(r, localeKey, locale))
	})
}

// LocaleFromContext falls back to utils.DefaultLocale outside LocaleMiddleware.
func LocaleFromContext(ctx context.Context) string {
	return valueOr(ctx, localeKey, utils.DefaultLocale)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog writes one line per request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("http: %s %s %d %s req=%s", r.Method, r.URL.Path, rec.status,
			time.Since(start).Round(time.Millisecond), RequestIDFromContext(r.Context()))
	})
}
