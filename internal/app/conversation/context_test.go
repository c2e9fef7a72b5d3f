package conversation_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbaah7/ultrascan-agent/internal/app/conversation"
	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

func msg(role domain.Role, content string) *domain.Message {
	return &domain.Message{Role: role, Content: content}
}

func alternatingHistory(n int) []*domain.Message {
	var out []*domain.Message
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out = append(out, msg(domain.RoleUser, fmt.Sprintf("question %d", i)))
		} else {
			out = append(out, msg(domain.RoleAssistant, fmt.Sprintf("answer %d", i)))
		}
	}
	return out
}

func TestBuildWindowBoundsLength(t *testing.T) {
	history := alternatingHistory(10)

	out := conversation.BuildWindow(history, nil, 4)

	require.Len(t, out, 5)
	assert.Equal(t, domain.RoleSystem, out[0].Role)
	// the tail keeps chronological order
	assert.Equal(t, "answer 7", out[2].Content)
	assert.Equal(t, "answer 9", out[4].Content)
}

func TestBuildWindowSynthesizesSystemMessage(t *testing.T) {
	history := alternatingHistory(2)

	generic := conversation.BuildWindow(history, nil, 4)
	require.NotEmpty(t, generic)
	assert.Equal(t, domain.RoleSystem, generic[0].Role)
	assert.Equal(t, "You are a helpful medical assistant.", generic[0].Content)

	diag := &conversation.DiagnosisContext{Label: domain.DiagnosisMalignant, Confidence: 88.125}
	out := conversation.BuildWindow(history, diag, 4)
	require.NotEmpty(t, out)
	assert.Equal(t, domain.RoleSystem, out[0].Role)
	assert.Contains(t, out[0].Content, `"Malignant"`)
	assert.Contains(t, out[0].Content, "88.1% confidence")
	assert.Contains(t, out[0].Content, "consult their doctor")
}

func TestBuildWindowExcludesSeededGreeting(t *testing.T) {
	history := append(
		[]*domain.Message{msg(domain.RoleAssistant, "Hello, I can explain your result.")},
		alternatingHistory(3)...,
	)

	out := conversation.BuildWindow(history, nil, 10)

	require.Len(t, out, 4)
	for _, m := range out {
		assert.NotEqual(t, "Hello, I can explain your result.", m.Content)
	}
}

func TestBuildWindowSkipsBlankEntries(t *testing.T) {
	history := []*domain.Message{
		msg(domain.RoleUser, "first"),
		msg(domain.RoleAssistant, "   "),
		msg(domain.RoleUser, ""),
		msg(domain.RoleAssistant, "second"),
	}

	out := conversation.BuildWindow(history, nil, 10)

	require.Len(t, out, 3)
	assert.Equal(t, "first", out[1].Content)
	assert.Equal(t, "second", out[2].Content)
}

func TestBuildWindowGreetingExcludedEvenWithinRange(t *testing.T) {
	// seeded greeting plus five turns, window four: the greeting is skipped
	// even though a window of five would chronologically reach it.
	history := []*domain.Message{
		msg(domain.RoleAssistant, "seeded greeting"),
		msg(domain.RoleUser, "q1"),
		msg(domain.RoleAssistant, "a1"),
		msg(domain.RoleUser, "q2"),
		msg(domain.RoleAssistant, "a2"),
		msg(domain.RoleUser, "What does this mean?"),
	}

	out := conversation.BuildWindow(history, nil, 4)

	require.Len(t, out, 5)
	assert.Equal(t, domain.RoleSystem, out[0].Role)
	assert.Equal(t, "a1", out[1].Content)
	assert.Equal(t, "q2", out[2].Content)
	assert.Equal(t, "a2", out[3].Content)
	assert.Equal(t, "What does this mean?", out[4].Content)
}
