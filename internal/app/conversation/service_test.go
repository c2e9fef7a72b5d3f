package conversation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbaah7/ultrascan-agent/internal/app/conversation"
	"github.com/kbaah7/ultrascan-agent/internal/domain"
)

type scriptedChat struct {
	mu    sync.Mutex
	calls [][]domain.Message
	reply string
	err   error
	block chan struct{}
}

func (c *scriptedChat) Complete(_ context.Context, messages []domain.Message) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, messages)
	block := c.block
	c.mu.Unlock()

	if block != nil {
		<-block
	}
	return c.reply, c.err
}

func (c *scriptedChat) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func newSession() *domain.Session {
	return domain.NewSession(domain.SessionID("test-session"), time.Now())
}

func TestAskAppendsUserAndAssistantMessages(t *testing.T) {
	chat := &scriptedChat{reply: "That result looks reassuring."}
	svc := conversation.NewService(chat, 4)
	sess := newSession()

	out, err := svc.Ask(context.Background(), sess, "What does this mean?")
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, domain.RoleUser, out.UserMessage.Role)
	assert.Equal(t, "What does this mean?", out.UserMessage.Content)
	assert.Equal(t, domain.RoleAssistant, out.AssistantMessage.Role)
	assert.Equal(t, "That result looks reassuring.", out.AssistantMessage.Content)

	msgs := sess.Messages()
	require.Len(t, msgs, 2)

	// the outbound context starts with a fresh system message and includes
	// the optimistically appended user turn
	require.Equal(t, 1, chat.callCount())
	sent := chat.calls[0]
	require.NotEmpty(t, sent)
	assert.Equal(t, domain.RoleSystem, sent[0].Role)
	assert.Equal(t, "What does this mean?", sent[len(sent)-1].Content)
}

func TestAskBlankQuestionIsNoOp(t *testing.T) {
	chat := &scriptedChat{reply: "unused"}
	svc := conversation.NewService(chat, 4)
	sess := newSession()

	out, err := svc.Ask(context.Background(), sess, "   ")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, sess.Messages())
	assert.Zero(t, chat.callCount())
}

func TestAskFailureAppendsApology(t *testing.T) {
	chat := &scriptedChat{err: domain.ErrChatUnavailable}
	svc := conversation.NewService(chat, 4)
	sess := newSession()

	out, err := svc.Ask(context.Background(), sess, "Is this serious?")
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "Sorry, I encountered an error. Please try again.", out.AssistantMessage.Content)

	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Is this serious?", msgs[0].Content)
}

func TestAskEmptyReplyAppendsApology(t *testing.T) {
	chat := &scriptedChat{reply: "  "}
	svc := conversation.NewService(chat, 4)
	sess := newSession()

	out, err := svc.Ask(context.Background(), sess, "Is this serious?")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Sorry, I encountered an error. Please try again.", out.AssistantMessage.Content)
}

func TestAskWhileTurnInFlightIsNoOp(t *testing.T) {
	chat := &scriptedChat{reply: "slow answer", block: make(chan struct{})}
	svc := conversation.NewService(chat, 4)
	sess := newSession()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Ask(context.Background(), sess, "first question")
	}()

	require.Eventually(t, func() bool {
		return chat.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	out, err := svc.Ask(context.Background(), sess, "second question")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Len(t, sess.Messages(), 1)
	assert.Equal(t, 1, chat.callCount())

	close(chat.block)
	<-done

	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, "slow answer", msgs[1].Content)
}

func TestAskUsesDiagnosisContextWhenResultPresent(t *testing.T) {
	chat := &scriptedChat{reply: "ok"}
	svc := conversation.NewService(chat, 4)
	sess := newSession()

	gen, err := sess.BeginPrediction()
	require.NoError(t, err)
	sess.CompletePrediction(gen, &domain.PredictionResult{
		Diagnosis:  domain.DiagnosisBenign,
		Confidence: 92.3,
	}, nil)

	_, err = svc.Ask(context.Background(), sess, "Should I worry?")
	require.NoError(t, err)

	require.Equal(t, 1, chat.callCount())
	system := chat.calls[0][0]
	assert.Equal(t, domain.RoleSystem, system.Role)
	assert.Contains(t, system.Content, `"Benign"`)
	assert.Contains(t, system.Content, "92.3% confidence")
}
