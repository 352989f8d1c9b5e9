package annotate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsloom/ingestor/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.InferenceConfig{URL: server.URL, APIKey: "test-key"}, server.Client())
	return client, server
}

func TestClientHealth(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]bool{"models_loaded": true})
	}))

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
}

func TestClientHealthModelsNotLoaded(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"models_loaded": false})
	}))

	if err := client.Health(context.Background()); err == nil {
		t.Fatal("Health succeeded, want error when models are not loaded")
	}
}

func TestClientSummarize(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/summarize" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("unexpected content type: %q", got)
		}

		var req struct {
			Text      string `json:"text"`
			MaxLength int    `json:"max_length"`
			MinLength int    `json:"min_length"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "the article body" || req.MaxLength != 120 || req.MinLength != 30 {
			t.Errorf("unexpected request payload: %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]string{"summary_text": "a concise summary"})
	}))

	summary, err := client.Summarize(context.Background(), "the article body", 120, 30)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if summary != "a concise summary" {
		t.Errorf("summary = %q, want %q", summary, "a concise summary")
	}
}

func TestClientSentiment(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/sentiment" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"label": "negative", "score": 0.81})
	}))

	label, score, err := client.Sentiment(context.Background(), "Stocks plunge")
	if err != nil {
		t.Fatalf("Sentiment returned error: %v", err)
	}
	if label != "negative" || score != 0.81 {
		t.Errorf("got (%q, %f), want (negative, 0.81)", label, score)
	}
}

func TestClientEntities(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ner" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"entities": []map[string]any{
				{"word": "NASA", "entity_group": "ORG", "score": 0.99},
				{"word": "Houston", "entity_group": "LOC", "score": 0.97},
			},
		})
	}))

	entities, err := client.Entities(context.Background(), "NASA said from Houston")
	if err != nil {
		t.Fatalf("Entities returned error: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	if entities[0].Text != "NASA" || entities[0].Group != "ORG" {
		t.Errorf("unexpected first entity: %+v", entities[0])
	}
}

func TestClientErrorStatus(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))

	if _, err := client.Summarize(context.Background(), "text", 100, 20); err == nil {
		t.Error("Summarize succeeded, want error on 500")
	}
	if _, _, err := client.Sentiment(context.Background(), "text"); err == nil {
		t.Error("Sentiment succeeded, want error on 500")
	}
	if _, err := client.Entities(context.Background(), "text"); err == nil {
		t.Error("Entities succeeded, want error on 500")
	}
}
