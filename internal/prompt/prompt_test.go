package prompt_test

import (
	"testing"

	"github.com/medgrove/med-web-ui/internal/models"
	"github.com/medgrove/med-web-ui/internal/prompt"
	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}

	out := prompt.Build("chunk one", history, "what causes migraines?")
	assert.Contains(t, out, "chunk one")
	assert.Contains(t, out, "user: hi\n")
	assert.Contains(t, out, "assistant: hello\n")
	assert.Contains(t, out, "what causes migraines?")
}

func TestBuildDefaults(t *testing.T) {
	out := prompt.Build("", nil, "q")
	assert.Contains(t, out, "No specific medical documents available")
	assert.Contains(t, out, "No previous conversation.")
}

func TestBuildTrimsHistory(t *testing.T) {
	var history []models.Message
	for i := 0; i < 10; i++ {
		history = append(history, models.Message{Role: models.RoleUser, Content: string(rune('a' + i))})
	}

	out := prompt.Build("", history, "q")
	assert.NotContains(t, out, "user: a\n")
	assert.Contains(t, out, "user: j\n")
}

func TestNeedsDisclaimer(t *testing.T) {
	assert.True(t, prompt.NeedsDisclaimer("What Medicine helps a FEVER?"))
	assert.True(t, prompt.NeedsDisclaimer("how do I treat an infection"))
	assert.False(t, prompt.NeedsDisclaimer("how much water should I drink daily"))
}
