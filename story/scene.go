package story

// Scene is one narrative beat as produced by the model: descriptive text, a
// prompt for the accompanying illustration, and the player's options.
type Scene struct {
	Description     string   `json:"scene_description"`
	ImagePrompt     string   `json:"image_prompt"`
	Choices         []string `json:"choices"`
	GameOver        bool     `json:"game_over"`
	GameOverMessage string   `json:"game_over_message,omitempty"`
}

// LogKind tags a log entry as either a scene shown to the player or a choice
// the player picked.
type LogKind string

const (
	KindScene  LogKind = "scene"
	KindChoice LogKind = "choice"
)

// LogEntry is one chronological beat of the playthrough.
type LogEntry struct {
	Kind LogKind `json:"kind"`
	Text string  `json:"text"`
}

// Phase is the orchestrator's coarse state.
type Phase string

const (
	PhaseNoCredentials Phase = "no_credentials"
	PhaseNotStarted    Phase = "not_started"
	PhasePlaying       Phase = "playing"
	PhaseGameOver      Phase = "game_over"
)

// ImageStatus tracks the illustration for the current scene.
type ImageStatus string

const (
	ImageNone    ImageStatus = "none"
	ImagePending ImageStatus = "pending"
	ImageReady   ImageStatus = "ready"
	ImageFailed  ImageStatus = "failed"
)

// Snapshot is a read-only copy of the session state handed to the view layer.
// Views are pure functions of a Snapshot and never touch the orchestrator.
type Snapshot struct {
	Phase       Phase
	Theme       string
	Scene       *Scene
	ImageURL    string
	ImageStatus ImageStatus
	Log         []LogEntry
	Error       string
	Busy        bool
}

// SceneTexts returns the scene descriptions in play order. This is the
// context window handed back to the model on each continuation request.
func (s Snapshot) SceneTexts() []string {
	var texts []string
	for _, e := range s.Log {
		if e.Kind == KindScene {
			texts = append(texts, e.Text)
		}
	}
	return texts
}
