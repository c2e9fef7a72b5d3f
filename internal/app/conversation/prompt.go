package conversation

import (
	"fmt"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

const genericSystemPrompt = "You are a helpful medical assistant."

const diagnosisSystemPromptTemplate = "You are a helpful medical assistant. " +
	"Assume the user is referring to a breast ultrasound diagnosis of %q with %.1f%% confidence unless otherwise specified. " +
	"Be empathetic and concise: answer in 1-3 sentences unless the user asks for more detail. " +
	"If the user asks about treatment options, suggest they consult their doctor."

// DiagnosisContext carries the current result into prompt synthesis.
type DiagnosisContext struct {
	Label      domain.DiagnosisLabel
	Confidence float64
}

// buildSystemPrompt synthesizes the system message fresh on every call, so
// it always reflects the current diagnosis even if it changed mid-session.
func buildSystemPrompt(diag *DiagnosisContext) string {
	if diag == nil {
		return genericSystemPrompt
	}
	return fmt.Sprintf(diagnosisSystemPromptTemplate, string(diag.Label), diag.Confidence)
}
