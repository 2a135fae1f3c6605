package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/z-advisor/backend/internal/config"
	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
)

// historyLimit caps how many prior turns are sent to the model.
const historyLimit = 10

// Service answers free-form advisor questions through an LLM chain.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
	log   *logrus.Entry
}

// NewService creates a new AI service instance
func NewService(ctx context.Context, cfg config.AIConfig, logger logrus.FieldLogger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chain: runnable,
		log:   logging.Component(logger, "ai"),
	}, nil
}

// Respond generates an advisor reply for the profile given the transcript.
// The utterance is expected to be the last user message of history and is
// not repeated in the history window.
func (s *Service) Respond(ctx context.Context, p profile.Profile, history []chat.Message, utterance string) (string, error) {
	input := s.buildChainInput(p, history, utterance)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	s.log.WithFields(logrus.Fields{"profile": p.ID, "length": len(response.Content)}).Info("generated response")
	return response.Content, nil
}

func (s *Service) buildChainInput(p profile.Profile, history []chat.Message, utterance string) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(p),
		"history": buildHistoryMessages(trimTrailingUtterance(history, utterance)),
		"query":   utterance,
	}
}

func trimTrailingUtterance(history []chat.Message, utterance string) []chat.Message {
	if n := len(history); n > 0 && history[n-1].FromUser() && history[n-1].Content == utterance {
		return history[:n-1]
	}
	return history
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
