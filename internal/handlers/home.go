package handlers

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/medgrove/med-web-ui/internal/markdown"
	"github.com/medgrove/med-web-ui/internal/models"
	"github.com/medgrove/med-web-ui/internal/prompt"
)

// message is the template-facing shape of a conversation entry. Content is
// pre-rendered HTML: escaped for user entries, the markdown path for
// assistant entries.
type message struct {
	ID      string
	Role    string
	Content template.HTML
	Time    string

	// ShowActions controls the timestamp/copy affordances; error placeholders
	// and in-flight entries render without them.
	ShowActions bool
}

type homePageData struct {
	Messages []message
}

// HandleHome serves the main chat page with the session's conversation, or
// the welcome message for a fresh session.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	sessionID := m.sessionID(w, r)

	history, err := m.store.Messages(r.Context(), sessionID)
	if err != nil {
		m.logger.Error("Failed to load conversation",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	msgs := make([]message, 0, len(history)+1)
	if len(history) == 0 {
		msgs = append(msgs, message{
			Role:    string(models.RoleAssistant),
			Content: m.renderer.Render(prompt.Welcome),
		})
	}
	for _, entry := range history {
		msgs = append(msgs, m.viewMessage(entry))
	}

	if err := m.templates.ExecuteTemplate(w, "home.html", homePageData{Messages: msgs}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// viewMessage maps a stored entry to its rendered form. User text is never
// interpreted as markup; assistant text goes through the markdown path.
func (m Main) viewMessage(entry models.Message) message {
	content := template.HTML(markdown.Escape(entry.Content)) //nolint:gosec // escaped
	if entry.Role == models.RoleAssistant {
		content = m.renderer.Render(entry.Content)
	}
	return message{
		ID:          entry.ID,
		Role:        string(entry.Role),
		Content:     content,
		Time:        entry.Timestamp.Local().Format("15:04"),
		ShowActions: true,
	}
}
