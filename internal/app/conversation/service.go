package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbaah7/ultrascan-agent/internal/domain"
	"github.com/kbaah7/ultrascan-agent/internal/observability"
)

// apologyReply is appended when the chat collaborator fails or returns
// empty content: the user always sees a response to their message.
const apologyReply = "Sorry, I encountered an error. Please try again."

// Service runs chat turns against the chat collaborator, one at a time per
// session.
type Service struct {
	chat   domain.ChatClient
	window int
	now    func() time.Time
}

func NewService(chat domain.ChatClient, window int) *Service {
	if window <= 0 {
		window = 4
	}
	return &Service{
		chat:   chat,
		window: window,
		now:    time.Now,
	}
}

type AskOutput struct {
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
}

// Ask runs one chat turn. A blank question, or a question arriving while a
// turn is already in flight, is a silent no-op: the conversation is left
// unchanged and (nil, nil) is returned.
//
// The user message is appended optimistically before the collaborator call;
// on failure the turn still completes with the apology reply.
func (s *Service) Ask(ctx context.Context, sess *domain.Session, question string) (*AskOutput, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil
	}
	if err := sess.BeginTurn(); err != nil {
		return nil, nil
	}
	defer sess.EndTurn()

	log := observability.LoggerFromContext(ctx).With("session_id", sess.ID)
	log.Info("chat turn started")

	userMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: sess.ID,
		Role:      domain.RoleUser,
		Content:   question,
		CreatedAt: s.now(),
	}
	sess.AppendMessage(userMsg)

	var diag *DiagnosisContext
	if res := sess.Result(); res != nil {
		diag = &DiagnosisContext{Label: res.Diagnosis, Confidence: res.Confidence}
	}
	outbound := BuildWindow(sess.Messages(), diag, s.window)

	reply, err := s.chat.Complete(ctx, outbound)
	switch {
	case err != nil:
		log.Error("chat completion failed", "error", err)
		reply = apologyReply
	case strings.TrimSpace(reply) == "":
		log.Error("chat completion returned empty content")
		reply = apologyReply
	}

	assistantMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: sess.ID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		CreatedAt: s.now(),
	}
	sess.AppendMessage(assistantMsg)

	log.Info("chat turn completed")
	return &AskOutput{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}
