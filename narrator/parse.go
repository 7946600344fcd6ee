package narrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"fable_ai/story"
)

// parseScene unmarshals and validates the model's JSON. The model sometimes
// wraps the JSON in a markdown fence, so that is stripped first.
func parseScene(raw string) (story.Scene, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return story.Scene{}, story.ErrEmptyResponse
	}

	var sc story.Scene
	if err := json.Unmarshal([]byte(clean), &sc); err != nil {
		return story.Scene{}, fmt.Errorf("invalid scene JSON: %w", err)
	}

	sc.Description = strings.TrimSpace(sc.Description)
	sc.GameOverMessage = strings.TrimSpace(sc.GameOverMessage)
	if sc.Description == "" {
		return story.Scene{}, fmt.Errorf("%w: empty scene description", story.ErrEmptyResponse)
	}
	if sc.GameOver {
		// An ended story must carry a closing line and offer no choices.
		sc.Choices = nil
		if sc.GameOverMessage == "" {
			sc.GameOverMessage = sc.Description
		}
		return sc, nil
	}
	if len(sc.Choices) == 0 {
		return story.Scene{}, fmt.Errorf("%w: scene offers no choices", story.ErrEmptyResponse)
	}
	return sc, nil
}
