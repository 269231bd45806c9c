package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIClient serves completions from Gemini, either through the Gemini API or
// through Vertex AI.
type GenAIClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GenAIClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini API client: %w", err)
	}
	return &GenAIClient{client: client}, nil
}

func NewVertexClient(ctx context.Context, project, location string) (*GenAIClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}
	return &GenAIClient{client: client}, nil
}

func (c *GenAIClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	system, contents := toContents(req.Messages)
	cfg := generateConfig(req, system)

	res, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	text := res.Text()
	if text == "" {
		return nil, ErrEmptyResponse
	}

	out := &Completion{Text: text}
	if u := res.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

// toContents lifts system messages into the system instruction; Gemini has no
// system role inside the conversation.
func toContents(msgs []Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func generateConfig(req Request, system string) *genai.GenerateContentConfig {
	temp := float32(req.Temperature)
	presence := float32(req.PresencePenalty)
	frequency := float32(req.FrequencyPenalty)

	cfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		MaxOutputTokens:  int32(req.MaxTokens),
		PresencePenalty:  &presence,
		FrequencyPenalty: &frequency,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}
