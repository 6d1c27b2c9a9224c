package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := UserIDFromContext(r.Context())
		_, _ = w.Write([]byte(uid))
	})
}

func TestWithAuthAcceptsSignedToken(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("") })

	tok, err := SignToken("u-42", "Zoé", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	WithAuth(RequireAuth(echoUser())).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u-42" {
		t.Fatalf("got status=%d body=%q, want 200 u-42", rec.Code, rec.Body.String())
	}
}

func TestRequireAuthRejects(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("") })

	expired, err := SignToken("u-1", "", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UID: "u-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	SetSecret("other-secret")
	wrongKey, err := SignToken("u-1", "", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	SetSecret("test-secret")

	for name, header := range map[string]string{
		"missing":   "",
		"garbage":   "Bearer not-a-token",
		"expired":   "Bearer " + expired,
		"alg none":  "Bearer " + unsigned,
		"wrong key": "Bearer " + wrongKey,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		WithAuth(LocaleMiddleware(RequireAuth(echoUser()))).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status got=%d, want 401", name, rec.Code)
		}
	}
}

func TestLocaleMiddleware(t *testing.T) {
	h := LocaleMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(LocaleFromContext(r.Context())))
	}))
	cases := []struct {
		query, accept, want string
	}{
		{"", "", "fr"},
		{"", "en-GB,en;q=0.9", "en"},
		{"en", "fr-FR", "en"},
		{"", "de-DE", "fr"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?lang="+c.query, nil)
		if c.accept != "" {
			req.Header.Set("Accept-Language", c.accept)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Body.String() != c.want {
			t.Fatalf("lang=%q accept=%q got=%q, want %q", c.query, c.accept, rec.Body.String(), c.want)
		}
		if got := rec.Header().Get("Content-Language"); got != c.want {
			t.Fatalf("lang=%q Content-Language got=%q, want %q", c.query, got, c.want)
		}
	}
}

func TestLocaleFromBareContext(t *testing.T) {
	if got := LocaleFromContext(context.Background()); got != "fr" {
		t.Fatalf("got=%q, want fr", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("request id got=%q, want empty", got)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 12 || rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("generated id got=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "client-abc" {
		t.Fatalf("client id got=%q, want client-abc", seen)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://studia.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/flashcards", nil)
	req.Header.Set("Origin", "https://studia.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://studia.example" {
		t.Fatalf("allow origin got=%q", got)
	}
	if rec.Code == http.StatusTeapot {
		t.Fatalf("preflight reached the handler")
	}
}
