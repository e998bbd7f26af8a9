package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" Today you spent wisely. \n"}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient("test-key", "", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	got, err := client.Complete(context.Background(), "be brief", "summarize today")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "Today you spent wisely." {
		t.Errorf("content = %q", got)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	client, err := NewClient("bad-key", "gpt-4o-mini", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Complete(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Errorf("expected status 401 error, got %v", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient("test-key", "gpt-4o-mini", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", "gpt-4o-mini"); err == nil {
		t.Error("expected error for empty API key")
	}
}
