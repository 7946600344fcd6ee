package painter

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"fable_ai/story"
)

// Client renders illustrations with a Gemini image model and parks the bytes
// in a Store, handing back a servable /image/<id> reference.
type Client struct {
	client *genai.Client
	model  string
	store  *Store
	log    zerolog.Logger
}

func NewClient(ctx context.Context, apiKey, model string, store *Store, log zerolog.Logger) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating image client: %w", err)
	}
	return &Client{client: c, model: model, store: store, log: log}, nil
}

// GenerateImage implements story.Painter.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return "", &story.GenerationError{Op: "image", Err: err}
	}
	blob, err := firstInlineImage(resp)
	if err != nil {
		return "", &story.GenerationError{Op: "image", Err: err}
	}
	id := c.store.Put(blob.Data, blob.MIMEType)
	c.log.Debug().Str("id", id).Str("mime", blob.MIMEType).Int("bytes", len(blob.Data)).Msg("illustration stored")
	return "/image/" + id, nil
}

// firstInlineImage walks the response for the first inline image blob.
func firstInlineImage(resp *genai.GenerateContentResponse) (*genai.Blob, error) {
	if resp == nil {
		return nil, story.ErrEmptyResponse
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				continue
			}
			if len(part.InlineData.Data) == 0 {
				continue
			}
			return part.InlineData, nil
		}
	}
	return nil, story.ErrEmptyResponse
}
