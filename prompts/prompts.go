package prompts

import (
	"fmt"
	"strings"
)

const SystemPrompt = `You are the narrator of a turn-based interactive fiction game. The player reads one scene at a time and picks one of the choices you offer.

**You MUST respond with a single, valid JSON object and nothing else.**

The response JSON must have exactly these keys:
  a. "scene_description": A string of 60-150 words describing the current scene, written in second person ("You...").
  b. "image_prompt": A short, concrete visual description of the scene, suitable as a prompt for an image generation model. No more than 25 words.
  c. "choices": An array of 2 to 4 short strings, each a distinct action the player could take next. Must be empty when "game_over" is true.
  d. "game_over": A boolean. Set to true ONLY when the story has reached a definitive ending, good or bad.
  e. "game_over_message": A string. Empty unless "game_over" is true, in which case it is a 1-3 sentence closing line for the playthrough.

RULES:
- Every scene must follow logically from the scenes and choices before it.
- Keep the stakes rising; do not let the story stall in place.
- Most playthroughs should reach an ending within 8 to 15 scenes.
- Never address the player out of character and never mention that you are an AI or that this is a game.
`

const initialSceneTemplate = `%s
Begin a brand new story with the theme: %s.
This is the opening scene, so establish where the player is, what the world feels like, and give them an immediate reason to act.`

const nextSceneTemplate = `%s
The story so far, scene by scene:
%s
The current scene is:
%s

The player chose to: %s

Continue the story from that choice.`

// InitialScene builds the full prompt for a fresh playthrough.
func InitialScene(theme string) string {
	return fmt.Sprintf(initialSceneTemplate, SystemPrompt, theme)
}

// NextScene builds the continuation prompt from the current scene, the
// player's pick, and the accumulated scene history.
func NextScene(current, choice string, prior []string) string {
	var history strings.Builder
	for i, scene := range prior {
		fmt.Fprintf(&history, "Scene %d: %s\n", i+1, scene)
	}
	return fmt.Sprintf(nextSceneTemplate, SystemPrompt, history.String(), current, choice)
}
