//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// Run against a server started with STUDIA_ENABLE_SEED=true.
func baseURL() string {
	if v := os.Getenv("STUDIA_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func TestQuizJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	var seed struct {
		QuizID string `json:"quiz_id"`
		Token  string `json:"token"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/seed", "", nil, &seed)
	if seed.Token == "" || seed.QuizID == "" {
		t.Fatalf("unexpected seed response: %+v", seed)
	}
	token := seed.Token

	// A previous run may have left a live attempt behind.
	var history struct {
		LiveAttempt string `json:"live_attempt_id"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/quizzes/"+seed.QuizID+"/history", token, nil, &history)
	if history.LiveAttempt != "" {
		doJSON(t, client, http.MethodPost, base+"/api/attempts/"+history.LiveAttempt+"/abandon", token, nil, nil)
	}

	var attempt struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/quizzes/"+seed.QuizID+"/attempts", token, nil, &attempt)
	if attempt.ID == "" || attempt.Status != "IN_PROGRESS" {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}

	doJSON(t, client, http.MethodPut, base+"/api/attempts/"+attempt.ID+"/answers/demo-q1", token,
		map[string]any{"option_ids": []string{"demo-q1-a"}}, nil)
	doJSON(t, client, http.MethodPut, base+"/api/attempts/"+attempt.ID+"/answers/demo-q3", token,
		map[string]any{"mapping": map[string]string{"1789": "Prise de la Bastille"}}, nil)

	var done struct {
		Attempt struct {
			Status         string `json:"status"`
			Score          int    `json:"score"`
			TotalQuestions int    `json:"total_questions"`
		} `json:"attempt"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/attempts/"+attempt.ID+"/complete", token, nil, &done)
	if done.Attempt.Status != "COMPLETED" || done.Attempt.Score != 1 || done.Attempt.TotalQuestions != 4 {
		t.Fatalf("unexpected completion: %+v", done.Attempt)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/quizzes/"+seed.QuizID+"/export?format=long", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("export status %d body %s", resp.StatusCode, string(body))
	}
	csvData, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export data: %v", err)
	}
	if !strings.Contains(string(csvData), attempt.ID) {
		t.Fatalf("export csv did not contain attempt id; csv=%s", csvData)
	}

	var due struct {
		Cards []struct {
			ID string `json:"id"`
		} `json:"cards"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/flashcards/due", token, nil, &due)
	if len(due.Cards) == 0 {
		t.Skip("no due flashcards left for the demo learner")
	}
	var review struct {
		Previous string `json:"previous"`
		Card     struct {
			Difficulty string `json:"difficulty"`
		} `json:"card"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/flashcards/"+due.Cards[0].ID+"/reviews", token,
		map[string]string{"outcome": "GOOD"}, &review)
	if review.Previous == "" || review.Card.Difficulty == "" {
		t.Fatalf("unexpected review result: %+v", review)
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, out any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
