package ai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/gnemet/DeckForge/internal/config"
)

// openAIDriver uses the official openai-go SDK (chat completions).
type openAIDriver struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

func newOpenAIDriver(s config.ProviderSettings) (*openAIDriver, error) {
	if s.Key == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY or ai.providers.openai.key")
	}
	if s.Model == "" {
		return nil, errors.New("openai model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(s.Key)}
	if s.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(s.Endpoint))
	}
	return &openAIDriver{
		client:      openai.NewClient(opts...),
		model:       s.Model,
		temperature: s.Temperature,
		maxTokens:   s.MaxTokens,
	}, nil
}

func (d *openAIDriver) complete(ctx context.Context, p Prompt) (string, Usage, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if p.System != "" {
		msgs = append(msgs, openai.SystemMessage(p.System))
	}
	for _, m := range p.Messages {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(d.model),
		Messages: msgs,
	}
	if d.temperature > 0 {
		params.Temperature = openai.Float(d.temperature)
	}
	if d.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(d.maxTokens))
	}

	resp, err := d.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", Usage{}, err
	}
	if len(resp.Choices) == 0 {
		return "", Usage{}, errors.New("openai: empty choices")
	}
	usage := Usage{
		Model:            resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}
