package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/gnemet/DeckForge/internal/config"
)

// geminiDriver talks to Google AI Studio through generative-ai-go.
// A client is opened per call so the driver holds no connection between slides.
type geminiDriver struct {
	key         string
	model       string
	temperature float64
	maxTokens   int
}

func newGeminiDriver(s config.ProviderSettings) (*geminiDriver, error) {
	if s.Key == "" {
		return nil, errors.New("gemini api key missing; set GEMINI_KEY or ai.providers.gemini.key")
	}
	if s.Model == "" {
		return nil, errors.New("gemini model is required")
	}
	return &geminiDriver{
		key:         s.Key,
		model:       s.Model,
		temperature: s.Temperature,
		maxTokens:   s.MaxTokens,
	}, nil
}

func (d *geminiDriver) complete(ctx context.Context, p Prompt) (string, Usage, error) {
	if len(p.Messages) == 0 {
		return "", Usage{}, errors.New("gemini: prompt has no messages")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(d.key))
	if err != nil {
		return "", Usage{}, err
	}
	defer client.Close()

	model := client.GenerativeModel(d.model)
	if p.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(p.System))
	}
	if d.temperature > 0 {
		model.SetTemperature(float32(d.temperature))
	}
	if d.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(d.maxTokens))
	}

	// Everything before the last message becomes chat history.
	cs := model.StartChat()
	last := p.Messages[len(p.Messages)-1]
	for _, m := range p.Messages[:len(p.Messages)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", Usage{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", Usage{}, errors.New("gemini: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		} else {
			sb.WriteString(fmt.Sprint(part))
		}
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return sb.String(), usage, nil
}
