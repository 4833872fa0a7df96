package recommend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":` + content + `}}]}`
}

func TestCompleteJSONReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(completionBody(`"{\"ok\":true}"`)))
	}))
	t.Cleanup(server.Close)

	client := NewLLMClient(LLMConfig{APIKey: "key", BaseURL: server.URL, Model: "m"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("content = %q", content)
	}
}

func TestCompleteJSONRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(completionBody(`"{}"`)))
	}))
	t.Cleanup(server.Close)

	var sleeps []time.Duration
	client := NewLLMClient(LLMConfig{APIKey: "key", BaseURL: server.URL},
		WithRetrySleeper(func(d time.Duration) { sleeps = append(sleeps, d) }))

	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(sleeps) != 1 {
		t.Fatalf("sleeps = %v, want one backoff", sleeps)
	}
}

func TestCompleteJSONDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := NewLLMClient(LLMConfig{APIKey: "key", BaseURL: server.URL},
		WithRetrySleeper(func(time.Duration) {}))
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (401 is not retryable)", calls)
	}
}

func TestCompleteJSONRequiresPrompts(t *testing.T) {
	client := NewLLMClient(LLMConfig{APIKey: "key"})
	if _, err := client.CompleteJSON(context.Background(), "", "user"); err == nil {
		t.Fatal("expected error for missing system prompt")
	}
	client = NewLLMClient(LLMConfig{})
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("err = %v, want api key error", err)
	}
}

func TestDecodeModelJSON(t *testing.T) {
	type payload struct {
		OK bool `json:"ok"`
	}
	cases := []struct {
		name    string
		content string
	}{
		{"plain", `{"ok":true}`},
		{"fenced", "```json\n{\"ok\":true}\n```"},
		{"fenced no lang", "```\n{\"ok\":true}\n```"},
		{"surrounded by prose", "Here you go:\n{\"ok\":true}\nEnjoy!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			if err := DecodeModelJSON(tc.content, &got); err != nil {
				t.Fatalf("DecodeModelJSON: %v", err)
			}
			if !got.OK {
				t.Fatal("decoded payload wrong")
			}
		})
	}

	var got payload
	if err := DecodeModelJSON("not json at all", &got); err == nil {
		t.Fatal("expected error for garbage payload")
	}
	if err := DecodeModelJSON("   ", &got); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
