// Package prompt carries the prompt templates and the disclaimer policy for
// the medical assistant.
package prompt

import (
	"fmt"
	"strings"

	"github.com/medgrove/med-web-ui/internal/models"
)

// System is the default system prompt. It can be overridden from the server
// configuration.
const System = `You are MedAI, an expert Medical AI Assistant trained on clinical guidelines from WHO, NHS, Mayo Clinic, and CDC. You provide accurate, evidence-based, and empathetic health information.

RESPONSE RULES:
1. Always structure your answer clearly using headings, bullet points, or numbered lists
2. Be specific and evidence-based — cite recognized guidelines where possible
3. For symptoms, always include: possible causes, warning signs (red flags), and "When to See a Doctor"
4. For medications, always include: what it treats, typical dosage notes, common side effects, and contraindications
5. For lifestyle/wellness, give actionable, realistic steps
6. NEVER guess or fabricate medical facts — if unsure, clearly say so
7. ALWAYS add "When to Seek Emergency Care" if the topic could be serious
8. Keep language clear — avoid heavy medical jargon unless asked

RESPONSE FORMAT (use markdown with **bold**, bullet lists, numbered steps, and headings):
- Start with a direct, confident answer to the question
- Follow with organized sections using ## headings
- End with a brief disclaimer only if the question is about symptoms/treatment

IMPORTANT: You are for educational guidance only — you cannot diagnose or prescribe. Encourage professional consultation appropriately but don't repeat this disclaimer excessively.`

// Disclaimer is appended to replies that touch treatment-adjacent topics.
const Disclaimer = `
---
> **Important:** This information is for educational purposes only and does not replace professional medical advice. For personalized diagnosis and treatment, please consult a qualified healthcare provider.
`

// Welcome is shown on an empty conversation.
const Welcome = `Hello! I'm **MedAI**, your intelligent Medical AI Assistant.

I provide accurate, evidence-based health information to help you understand:
- Symptoms & medical conditions
- Medications & treatments
- Preventive care & wellness
- When to seek medical attention

How can I help you today?`

const userTemplate = `## Medical Knowledge Base Context:
%s

## Conversation History:
%s

## Patient Question:
%s

Provide a thorough, accurate, and well-structured medical response. Use markdown formatting (headings, bullet lists, bold text). Be helpful, warm, and professional.`

// historyWindow limits how many prior entries are folded into the prompt.
const historyWindow = 6

var disclaimerKeywords = []string{
	"diagnose", "treatment", "medicine", "drug", "symptom",
	"pain", "sick", "disease", "infection", "fever", "cancer",
}

// Build formats the user-facing prompt from retrieval context, recent
// conversation history, and the question itself.
func Build(context string, history []models.Message, question string) string {
	if context == "" {
		context = "No specific medical documents available — rely on your training knowledge."
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var sb strings.Builder
	for _, msg := range history {
		sb.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}
	formatted := sb.String()
	if formatted == "" {
		formatted = "No previous conversation."
	}

	return fmt.Sprintf(userTemplate, context, formatted, question)
}

// NeedsDisclaimer reports whether the user message should trigger the
// medical disclaimer on the reply.
func NeedsDisclaimer(userMessage string) bool {
	lower := strings.ToLower(userMessage)
	for _, kw := range disclaimerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
