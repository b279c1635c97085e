package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"
)

// GeminiModel calls the Gemini generateContent endpoint.
type GeminiModel struct {
	svc   *generativelanguage.Service
	model string
}

var _ Model = (*GeminiModel)(nil)

func NewGeminiModel(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create generative language service: %w", err)
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &GeminiModel{svc: svc, model: model}, nil
}

func (g *GeminiModel) Generate(ctx context.Context, req Request) (string, error) {
	body := &generativelanguage.GenerateContentRequest{
		Contents: make([]*generativelanguage.Content, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		body.Contents = append(body.Contents, &generativelanguage.Content{
			Role:  m.Role,
			Parts: []*generativelanguage.Part{{Text: m.Text}},
		})
	}
	if req.System != "" {
		body.SystemInstruction = &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: req.System}},
		}
	}
	if req.JSON {
		body.GenerationConfig = &generativelanguage.GenerationConfig{
			ResponseMimeType: "application/json",
		}
	}

	resp, err := g.svc.Models.GenerateContent(g.model, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return responseText(resp)
}

func responseText(resp *generativelanguage.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("model returned no candidates")
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return "", fmt.Errorf("model returned no content (finish reason %s)", c.FinishReason)
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("model returned an empty reply")
	}
	return sb.String(), nil
}
