package nim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// Config describes an OpenAI-compatible chat completion endpoint such as a
// NVIDIA NIM container.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	// HTTPClient overrides the transport; nil uses the library default.
	HTTPClient *http.Client
}

// ChatModel adapts an OpenAI-compatible endpoint to eino's chat model
// interface. It is safe for concurrent use.
type ChatModel struct {
	client      *openai.Client
	model       string
	temperature *float32
	topP        *float32
	maxTokens   *int
}

var _ model.ChatModel = (*ChatModel)(nil)

// NewChatModel validates cfg and builds the client. It performs no I/O.
func NewChatModel(cfg *Config) (*ChatModel, error) {
	if cfg == nil {
		return nil, errors.New("nim: config must not be nil")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("nim: model must not be empty")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("nim: invalid base url %q", cfg.BaseURL)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &ChatModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// GetType names the component in eino callbacks.
func (m *ChatModel) GetType() string {
	return "NIM"
}

// Generate runs a blocking completion.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	req := m.buildRequest(input, opts...)

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("nim: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("nim: no choices in response")
	}

	choice := resp.Choices[0]
	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		},
	}, nil
}

// Stream opens the upstream stream before returning, so connection and HTTP
// status failures surface here. Chunks are pumped into the returned reader
// until the upstream ends, fails, or the reader is closed.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.buildRequest(input, opts...)
	req.Stream = true

	upstream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("nim: open stream: %w", err)
	}

	sr, sw := schema.Pipe[*schema.Message](1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				sw.Send(nil, fmt.Errorf("nim: stream panic: %v", r))
			}
			if cerr := upstream.Close(); cerr != nil {
				log.WithField("component", "nim").WithError(cerr).Debug("closing upstream stream")
			}
			sw.Close()
		}()

		for {
			resp, err := upstream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				sw.Send(nil, fmt.Errorf("nim: receive: %w", err))
				return
			}

			msg := toMessage(resp)
			if msg == nil {
				continue
			}
			if closed := sw.Send(msg, nil); closed {
				return
			}
		}
	}()

	return sr, nil
}

// BindTools is not supported by the relay.
func (m *ChatModel) BindTools(_ []*schema.ToolInfo) error {
	return errors.New("nim: tool binding is not supported")
}

func (m *ChatModel) buildRequest(input []*schema.Message, opts ...model.Option) openai.ChatCompletionRequest {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.model,
		Temperature: m.temperature,
		TopP:        m.topP,
		MaxTokens:   m.maxTokens,
	}, opts...)

	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: toOpenAIMessages(input),
	}
	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	if options.TopP != nil {
		req.TopP = *options.TopP
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if len(options.Stop) > 0 {
		req.Stop = options.Stop
	}
	return req
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return out
}

// toMessage converts one stream chunk. Chunks without choices (usage-only
// frames) yield nil.
func toMessage(resp openai.ChatCompletionStreamResponse) *schema.Message {
	if len(resp.Choices) == 0 {
		return nil
	}

	choice := resp.Choices[0]
	msg := &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Delta.Content,
	}
	if choice.FinishReason != "" {
		msg.ResponseMeta = &schema.ResponseMeta{FinishReason: string(choice.FinishReason)}
	}
	return msg
}
