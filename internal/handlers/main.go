package handlers

import (
	"context"
	"html/template"
	"iter"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	medwebui "github.com/medgrove/med-web-ui"
	"github.com/medgrove/med-web-ui/internal/markdown"
	"github.com/medgrove/med-web-ui/internal/models"
)

// LLM is the language model interface the handlers depend on. Chat yields the
// reply incrementally; Answer returns it whole for the non-streaming fallback
// endpoint.
type LLM interface {
	Chat(ctx context.Context, messages []models.Message) iter.Seq2[string, error]
	Answer(ctx context.Context, messages []models.Message) (string, error)
}

// Store persists per-session conversations.
type Store interface {
	Messages(ctx context.Context, sessionID string) ([]models.Message, error)
	AppendMessage(ctx context.Context, sessionID string, message models.Message) (string, error)
	ClearConversation(ctx context.Context, sessionID string) error
}

// Retriever supplies reference context for a user question. Implementations
// return the empty string when nothing relevant is available.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) string
}

// Main handles the core functionality of the chat application: page
// rendering, the streaming endpoint, and the conversation lifecycle.
type Main struct {
	templates *template.Template
	renderer  markdown.Renderer

	llm       LLM
	store     Store
	knowledge Retriever

	logger *slog.Logger
}

const (
	sessionCookieName = "session_id"

	errLoggerKey = "err"
)

// NewMain creates a new Main instance with the provided LLM, Store, and
// Retriever implementations. A nil llm puts the endpoints into a degraded
// mode (health reports it, chat endpoints refuse); a nil knowledge retriever
// simply disables retrieval context.
func NewMain(llm LLM, store Store, knowledge Retriever, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		medwebui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	return Main{
		templates: tmpl,
		renderer:  markdown.NewRenderer(),
		llm:       llm,
		store:     store,
		knowledge: knowledge,
		logger:    logger.With(slog.String("module", "handlers")),
	}, nil
}

// sessionID returns the conversation key for this browser, minting a new
// cookie when none is present.
func (m Main) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// retrieveContext is a nil-safe wrapper around the knowledge retriever.
func (m Main) retrieveContext(ctx context.Context, query string) string {
	if m.knowledge == nil {
		return ""
	}
	return m.knowledge.Retrieve(ctx, query, 4)
}
