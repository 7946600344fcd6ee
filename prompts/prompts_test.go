package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialScene(t *testing.T) {
	p := InitialScene("haunted library")
	assert.Contains(t, p, "theme: haunted library")
	assert.Contains(t, p, "single, valid JSON object")
}

func TestNextScene(t *testing.T) {
	p := NextScene("The doors groan open.", "Light a match",
		[]string{"You stand before a library...", "The doors groan open."})
	assert.Contains(t, p, "Scene 1: You stand before a library...")
	assert.Contains(t, p, "Scene 2: The doors groan open.")
	assert.Contains(t, p, "The player chose to: Light a match")
}
