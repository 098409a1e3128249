package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	log "github.com/sirupsen/logrus"

	"github.com/interviewfriend/relay/backend/internal/model/chat"
	promptmodel "github.com/interviewfriend/relay/backend/internal/model/prompt"
	chatservice "github.com/interviewfriend/relay/backend/internal/service/chat"
)

// Service relays streaming completions for interview conversations.
type Service struct {
	prompts promptmodel.Set
	chain   compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the completion chain around chatModel. prompts is
// copied and never modified afterwards.
func NewService(ctx context.Context, chatModel model.BaseChatModel, prompts promptmodel.Set) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model must not be nil")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		prompts: prompts,
		chain:   runnable,
	}, nil
}

// Stream opens a completion for history using the system prompt of role and
// returns its non-empty fragments in backend order. Failing to open the
// upstream stream is returned directly; a later failure is yielded once with
// an empty fragment and ends the sequence. Stopping the range early closes
// the upstream stream. The sequence must be ranged exactly once.
func (s *Service) Stream(ctx context.Context, role chat.RequestRole, history []chat.RawMessage) (iter.Seq2[chat.Fragment, error], error) {
	input := s.buildChainInput(role, history)

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}

	return fragments(stream), nil
}

func fragments(stream *schema.StreamReader[*schema.Message]) iter.Seq2[chat.Fragment, error] {
	return func(yield func(chat.Fragment, error) bool) {
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(chat.Fragment{}, err)
				return
			}
			if chunk == nil || chunk.Content == "" {
				continue
			}
			if !yield(chat.Fragment{Text: chunk.Content}, nil) {
				return
			}
		}
	}
}

func (s *Service) buildChainInput(role chat.RequestRole, history []chat.RawMessage) map[string]any {
	messages := buildHistoryMessages(chatservice.Normalize(history))

	log.WithFields(log.Fields{
		"component": "ai",
		"role":      role,
		"history":   len(messages),
	}).Debug("building completion input")

	return map[string]any{
		"system":  s.prompts.ForRole(role),
		"history": messages,
	}
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
