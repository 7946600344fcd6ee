package templates

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"fable_ai/story"
)

// Excerpt shortens s to at most n runes, cutting on a word boundary where it
// can and appending an ellipsis.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := n
	for cut > 0 && !unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = n
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}

// SceneCountLabel describes how long an archived playthrough was.
func SceneCountLabel(log []story.LogEntry) string {
	count := 0
	for _, e := range log {
		if e.Kind == story.KindScene {
			count++
		}
	}
	if count == 1 {
		return "1 scene"
	}
	return fmt.Sprintf("%d scenes", count)
}

// FormatEndedAt renders an archive timestamp for the past-adventures list.
func FormatEndedAt(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// ImageAlt picks the alt text for a scene illustration.
func ImageAlt(snap story.Snapshot) string {
	if snap.Scene != nil && snap.Scene.ImagePrompt != "" {
		return snap.Scene.ImagePrompt
	}
	return "Scene illustration"
}
