package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestCompleteJSONSendsChatRequest(t *testing.T) {
	var gotAuth string
	var gotReq chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatCompletionsEndpoint {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"Learning Go\"}"}}]}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, "sk-app-key", "gpt-test", 600, zerolog.Nop())
	var out struct {
		Title string `json:"title"`
	}
	if err := client.CompleteJSON(context.Background(), "", "You write titles.", "go", &out); err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}

	if out.Title != "Learning Go" {
		t.Fatalf("expected parsed title, got %q", out.Title)
	}
	if gotAuth != "Bearer sk-app-key" {
		t.Fatalf("expected app key when no user key given, got %q", gotAuth)
	}
	if gotReq.Model != "gpt-test" {
		t.Fatalf("unexpected model %q", gotReq.Model)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", gotReq.ResponseFormat)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestCompleteJSONPrefersCallerKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, "sk-app-key", "gpt-test", 600, zerolog.Nop())
	var out struct{}
	if err := client.CompleteJSON(context.Background(), "sk-user-key", "s", "u", &out); err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if gotAuth != "Bearer sk-user-key" {
		t.Fatalf("expected caller key to win, got %q", gotAuth)
	}
}

func TestCompleteJSONSurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, "sk-bad", "gpt-test", 600, zerolog.Nop())
	var out struct{}
	err := client.CompleteJSON(context.Background(), "", "s", "u", &out)
	if err == nil || !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Fatalf("expected provider error message surfaced, got %v", err)
	}
}

func TestCompleteJSONMalformedModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"not json"}}]}`))
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, "sk-app-key", "gpt-test", 600, zerolog.Nop())
	var out struct{}
	err := client.CompleteJSON(context.Background(), "", "s", "u", &out)
	if err == nil || !strings.Contains(err.Error(), "malformed JSON") {
		t.Fatalf("expected malformed JSON error, got %v", err)
	}
}
