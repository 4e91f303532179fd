package ai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prnv007-rgb/flow-ai/internal/ai"
)

func TestClient_ForwardsQuestionVerbatim(t *testing.T) {
	var gotPath, gotQuestion string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("Upstream received invalid JSON: %v", err)
		}
		gotQuestion = req["question"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sql":"SELECT 1","answer":"one"}`))
	}))
	defer upstream.Close()

	client := ai.NewClient(upstream.URL)
	res, err := client.ChatWithData(context.Background(), "total spend by vendor?")
	if err != nil {
		t.Fatalf("ChatWithData failed: %v", err)
	}

	if gotPath != "/api/v1/chat-with-data" {
		t.Errorf("Path: want /api/v1/chat-with-data, got %s", gotPath)
	}
	if gotQuestion != "total spend by vendor?" {
		t.Errorf("Question: want verbatim forward, got %q", gotQuestion)
	}
	if !res.OK() {
		t.Errorf("Expected success status, got %d", res.StatusCode)
	}
	if string(res.Body) != `{"sql":"SELECT 1","answer":"one"}` {
		t.Errorf("Body not relayed verbatim: %s", res.Body)
	}
}

func TestClient_RelaysUpstreamErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("cannot generate SQL"))
	}))
	defer upstream.Close()

	client := ai.NewClient(upstream.URL)
	res, err := client.ChatWithData(context.Background(), "gibberish")
	if err != nil {
		t.Fatalf("Non-success status must not be an error: %v", err)
	}
	if res.OK() {
		t.Errorf("Expected non-success result")
	}
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode: want 422, got %d", res.StatusCode)
	}
	if string(res.Body) != "cannot generate SQL" {
		t.Errorf("Body: want upstream text, got %q", res.Body)
	}
}

func TestClient_UnreachableUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // nobody listening

	client := ai.NewClient(upstream.URL)
	if _, err := client.ChatWithData(context.Background(), "anyone there?"); err == nil {
		t.Fatalf("Expected connectivity error")
	}
}
