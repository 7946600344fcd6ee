package narrator

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"

	"fable_ai/prompts"
	"fable_ai/story"
)

// textModel is the slice of *genai.GenerativeModel the client needs. Tests
// substitute a fake.
type textModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client turns prompts into parsed scenes via the Gemini text model.
type Client struct {
	model textModel
	log   zerolog.Logger
}

func NewClient(model textModel, log zerolog.Logger) *Client {
	return &Client{model: model, log: log}
}

func (c *Client) InitialScene(ctx context.Context, theme string) (story.Scene, error) {
	return c.generate(ctx, "initial scene", prompts.InitialScene(theme))
}

func (c *Client) NextScene(ctx context.Context, current, choice string, prior []string) (story.Scene, error) {
	return c.generate(ctx, "next scene", prompts.NextScene(current, choice, prior))
}

func (c *Client) generate(ctx context.Context, op, prompt string) (story.Scene, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return story.Scene{}, &story.GenerationError{Op: op, Err: err}
	}
	raw, err := firstText(resp)
	if err != nil {
		return story.Scene{}, &story.GenerationError{Op: op, Err: err}
	}
	scene, err := parseScene(raw)
	if err != nil {
		c.log.Debug().Str("op", op).Str("raw", truncate(raw, 400)).Msg("unusable model response")
		return story.Scene{}, &story.GenerationError{Op: op, Err: err}
	}
	return scene, nil
}

// firstText picks the first text part out of the response, if any.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", story.ErrEmptyResponse
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", story.ErrEmptyResponse
	}
	text, ok := content.Parts[0].(genai.Text)
	if !ok || string(text) == "" {
		return "", story.ErrEmptyResponse
	}
	return string(text), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
