package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medgrove/med-web-ui/internal/client"
	"github.com/medgrove/med-web-ui/internal/handlers"
	"github.com/medgrove/med-web-ui/internal/models"
)

type streamView struct {
	tokens    []string
	completed []string
	failed    []string
}

func (v *streamView) AppendToken(token string) { v.tokens = append(v.tokens, token) }
func (v *streamView) Complete(full string)     { v.completed = append(v.completed, full) }
func (v *streamView) Fail(message string)      { v.failed = append(v.failed, message) }

// TestRouterStreamEndToEnd runs a full exchange through the router and the
// stream consumer, checking both halves agree on the wire contract.
func TestRouterStreamEndToEnd(t *testing.T) {
	llm := &mockLLM{tokens: []string{"Stay ", "hydrated."}}
	store := &mockStore{messages: map[string][]models.Message{}}
	main := newMain(t, llm, store, nil)

	srv := httptest.NewServer(handlers.NewRouter(main))
	defer srv.Close()

	c := client.New(srv.URL, discardLogger())

	health, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if !health.Ready() {
		t.Fatalf("Health() = %+v, want ready", health)
	}

	view := &streamView{}
	outcome := c.Stream(context.Background(), "How much water should I drink?", view)

	if outcome != client.OutcomeCompleted {
		t.Fatalf("Stream() outcome = %v, want %v", outcome, client.OutcomeCompleted)
	}
	if len(view.completed) != 1 || view.completed[0] != "Stay hydrated." {
		t.Errorf("completed = %v", view.completed)
	}
	if len(view.failed) != 0 {
		t.Errorf("failed = %v", view.failed)
	}

	if err := c.Clear(context.Background()); err != nil {
		t.Errorf("Clear() error = %v", err)
	}
}

func TestRouterHome(t *testing.T) {
	main := newMain(t, &mockLLM{}, &mockStore{messages: map[string][]models.Message{}}, nil)

	srv := httptest.NewServer(handlers.NewRouter(main))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %v, want %v", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "MedAI") {
		t.Error("home page should greet with the welcome message")
	}
}

func TestRouterServesStatic(t *testing.T) {
	main := newMain(t, &mockLLM{}, &mockStore{messages: map[string][]models.Message{}}, nil)

	srv := httptest.NewServer(handlers.NewRouter(main))
	defer srv.Close()

	for _, path := range []string{"/static/css/main.css", "/static/js/chat.js"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %v, want %v", path, resp.StatusCode, http.StatusOK)
		}
	}
}
