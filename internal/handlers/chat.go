package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medgrove/med-web-ui/internal/models"
	"github.com/medgrove/med-web-ui/internal/prompt"
	"github.com/tmaxmax/go-sse"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	LLM       string `json:"llm"`
	Knowledge string `json:"knowledge"`
}

// readySentinel is the value both status and llm must report for clients to
// treat the backend as operational.
const readySentinel = "ready"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleHealth reports backend readiness. The server being up always yields
// status ready; llm and knowledge reflect their wiring.
func (m Main) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	res := healthResponse{
		Status:    readySentinel,
		LLM:       readySentinel,
		Knowledge: readySentinel,
	}
	if m.llm == nil {
		res.LLM = "unavailable"
	}
	if m.knowledge == nil {
		res.Knowledge = "unavailable"
	}
	writeJSON(w, http.StatusOK, res)
}

// parseMessage validates the request body shared by the stream and chat
// endpoints. It writes the error response itself and returns ok=false on
// rejection.
func (m Main) parseMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	if m.llm == nil {
		writeJSON(w, http.StatusServiceUnavailable, chatResponse{Error: "AI service is not available"})
		return "", false
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: "Invalid request body"})
		return "", false
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: "Message cannot be empty"})
		return "", false
	}
	return msg, true
}

// buildPrompt assembles the single user-role prompt carrying retrieval
// context, recent history, and the question.
func (m Main) buildPrompt(ctx context.Context, history []models.Message, userMessage string) []models.Message {
	return []models.Message{{
		Role:    models.RoleUser,
		Content: prompt.Build(m.retrieveContext(ctx, userMessage), history, userMessage),
	}}
}

// HandleStream processes a chat message and streams the reply as
// newline-delimited "data: {json}" events: zero or more {"token"} events
// terminated by exactly one {"done":true} or {"error"} event. The user and
// completed assistant messages are persisted around the stream.
func (m Main) HandleStream(w http.ResponseWriter, r *http.Request) {
	userMessage, ok := m.parseMessage(w, r)
	if !ok {
		return
	}

	sessionID := m.sessionID(w, r)
	history, err := m.store.Messages(r.Context(), sessionID)
	if err != nil {
		m.logger.Error("Failed to load conversation",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		writeJSON(w, http.StatusInternalServerError, chatResponse{Error: "An error occurred"})
		return
	}

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		m.logger.Error("SSE upgrade failed", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var full strings.Builder
	for token, err := range m.llm.Chat(r.Context(), m.buildPrompt(r.Context(), history, userMessage)) {
		if err != nil {
			m.logger.Error("Error from llm provider", slog.String(errLoggerKey, err.Error()))
			m.sendEvent(sess, models.ErrorEvent(err.Error()))
			return
		}
		if token == "" {
			continue
		}
		full.WriteString(token)
		if !m.sendEvent(sess, models.TokenEvent(token)) {
			// Client went away; the reply so far is still worth keeping.
			break
		}
	}

	if prompt.NeedsDisclaimer(userMessage) {
		full.WriteString(prompt.Disclaimer)
		m.sendEvent(sess, models.TokenEvent(prompt.Disclaimer))
	}

	m.saveExchange(sessionID, userMessage, full.String())

	m.sendEvent(sess, models.DoneEvent())
}

// HandleChat is the non-streaming fallback endpoint.
func (m Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	userMessage, ok := m.parseMessage(w, r)
	if !ok {
		return
	}

	sessionID := m.sessionID(w, r)
	history, err := m.store.Messages(r.Context(), sessionID)
	if err != nil {
		m.logger.Error("Failed to load conversation",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		writeJSON(w, http.StatusInternalServerError, chatResponse{Error: "An error occurred"})
		return
	}

	answer, err := m.llm.Answer(r.Context(), m.buildPrompt(r.Context(), history, userMessage))
	if err != nil {
		m.logger.Error("Error from llm provider", slog.String(errLoggerKey, err.Error()))
		writeJSON(w, http.StatusInternalServerError, chatResponse{Error: "An error occurred"})
		return
	}

	if prompt.NeedsDisclaimer(userMessage) {
		answer += prompt.Disclaimer
	}

	m.saveExchange(sessionID, userMessage, answer)

	writeJSON(w, http.StatusOK, chatResponse{Success: true, Response: answer})
}

// HandleClear drops the session's conversation history.
func (m Main) HandleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := m.sessionID(w, r)
	if err := m.store.ClearConversation(r.Context(), sessionID); err != nil {
		m.logger.Error("Failed to clear conversation",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		writeJSON(w, http.StatusInternalServerError, chatResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Success: true, Message: "Conversation cleared"})
}

// sendEvent writes one wire event and flushes it so tokens reach the client
// as they are produced. It reports whether the client is still connected.
func (m Main) sendEvent(sess *sse.Session, payload string) bool {
	e := &sse.Message{}
	e.AppendData(payload)
	if err := sess.Send(e); err != nil {
		return false
	}
	return sess.Flush() == nil
}

// saveExchange persists the user message and the completed reply. Persistence
// failures are logged, not surfaced: the reply already streamed.
func (m Main) saveExchange(sessionID, userMessage, reply string) {
	now := time.Now()
	um := models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   userMessage,
		Timestamp: now,
	}
	if _, err := m.store.AppendMessage(context.Background(), sessionID, um); err != nil {
		m.logger.Error("Failed to save user message", slog.String(errLoggerKey, err.Error()))
		return
	}

	if reply == "" {
		return
	}
	am := models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: now,
	}
	if _, err := m.store.AppendMessage(context.Background(), sessionID, am); err != nil {
		m.logger.Error("Failed to save assistant message", slog.String(errLoggerKey, err.Error()))
	}
}
