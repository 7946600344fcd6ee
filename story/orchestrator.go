package story

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Narrator produces scenes. Implemented by the narrator package; faked in
// tests.
type Narrator interface {
	InitialScene(ctx context.Context, theme string) (Scene, error)
	NextScene(ctx context.Context, current, choice string, prior []string) (Scene, error)
}

// Painter renders an illustration for a prompt and returns an opaque
// reference the view layer can point an <img> at.
type Painter interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Recorder is notified when a playthrough ends. Saving is best-effort and
// never blocks or fails the game.
type Recorder interface {
	SaveEnded(ctx context.Context, theme string, log []LogEntry, message string) error
}

const (
	imageTimeout  = 90 * time.Second
	recordTimeout = 10 * time.Second
)

// Orchestrator owns one player's session state. All mutation happens behind
// its mutex, at the resolution points of provider calls or on player intent
// events; views only ever see copies via Snapshot.
type Orchestrator struct {
	narrator Narrator
	painter  Painter
	recorder Recorder
	log      zerolog.Logger

	mu          sync.Mutex
	phase       Phase
	theme       string
	scene       *Scene
	imageURL    string
	imageStatus ImageStatus
	entries     []LogEntry
	errMsg      string
	busy        bool
	gen         uint64 // bumped on restart; stale text resolutions check it
	imageSeq    uint64 // bumped whenever the current illustration changes
}

// New returns an orchestrator for a fresh session. recorder may be nil.
func New(n Narrator, p Painter, r Recorder, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		narrator:    n,
		painter:     p,
		recorder:    r,
		log:         log,
		phase:       PhaseNotStarted,
		imageStatus: ImageNone,
	}
}

// NewDisabled returns an orchestrator stuck in the NoCredentials phase. Every
// action fails; the view shows the critical error screen.
func NewDisabled(log zerolog.Logger) *Orchestrator {
	return &Orchestrator{log: log, phase: PhaseNoCredentials, imageStatus: ImageNone}
}

// StartGame requests the opening scene for a theme. On failure the session
// stays in NotStarted with the error surfaced; the player may simply retry.
func (o *Orchestrator) StartGame(ctx context.Context, theme string) error {
	o.mu.Lock()
	switch {
	case o.phase == PhaseNoCredentials:
		o.mu.Unlock()
		return ErrNoCredentials
	case o.busy:
		o.mu.Unlock()
		return ErrBusy
	case o.phase != PhaseNotStarted:
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.busy = true
	o.errMsg = ""
	gen := o.gen
	o.mu.Unlock()

	scene, err := o.narrator.InitialScene(ctx, theme)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		o.log.Debug().Str("theme", theme).Msg("discarding stale initial scene")
		return nil
	}
	o.busy = false
	if err != nil {
		o.errMsg = userMessage(err)
		o.log.Error().Err(err).Str("theme", theme).Msg("initial scene failed")
		return err
	}
	o.theme = theme
	o.entries = nil
	o.applyScene(scene)
	return nil
}

// ChooseOption advances the story with the player's pick. The current
// illustration is cleared immediately so the player sees a new one is coming.
func (o *Orchestrator) ChooseOption(ctx context.Context, choice string) error {
	o.mu.Lock()
	switch {
	case o.phase == PhaseNoCredentials:
		o.mu.Unlock()
		return ErrNoCredentials
	case o.busy:
		o.mu.Unlock()
		return ErrBusy
	case o.phase != PhasePlaying:
		o.mu.Unlock()
		return ErrNotPlaying
	}
	current := o.scene.Description
	prior := o.sceneTextsLocked()
	o.busy = true
	o.errMsg = ""
	o.imageURL = ""
	o.imageStatus = ImageNone
	o.imageSeq++
	gen := o.gen
	o.mu.Unlock()

	next, err := o.narrator.NextScene(ctx, current, choice, prior)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		o.log.Debug().Str("choice", choice).Msg("discarding stale scene")
		return nil
	}
	o.busy = false
	if err != nil {
		o.errMsg = userMessage(err)
		o.log.Error().Err(err).Str("choice", choice).Msg("next scene failed")
		return err
	}
	o.entries = append(o.entries, LogEntry{Kind: KindChoice, Text: choice})
	o.applyScene(next)
	return nil
}

// Restart resets the session to its initial empty state from any phase. A
// disabled session stays disabled. Stale in-flight resolutions are dropped by
// the generation bump.
func (o *Orchestrator) Restart() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	o.imageSeq++
	if o.phase != PhaseNoCredentials {
		o.phase = PhaseNotStarted
	}
	o.theme = ""
	o.scene = nil
	o.imageURL = ""
	o.imageStatus = ImageNone
	o.entries = nil
	o.errMsg = ""
	o.busy = false
}

// Snapshot returns a copy of the session state for rendering.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := Snapshot{
		Phase:       o.phase,
		Theme:       o.theme,
		ImageURL:    o.imageURL,
		ImageStatus: o.imageStatus,
		Log:         slices.Clone(o.entries),
		Error:       o.errMsg,
		Busy:        o.busy,
	}
	if o.scene != nil {
		sc := *o.scene
		sc.Choices = slices.Clone(o.scene.Choices)
		snap.Scene = &sc
	}
	return snap
}

// applyScene installs a freshly generated scene. Caller holds the lock.
func (o *Orchestrator) applyScene(sc Scene) {
	o.scene = &sc
	o.imageURL = ""
	if sc.GameOver {
		o.phase = PhaseGameOver
		o.recordLocked()
	} else {
		o.phase = PhasePlaying
		o.entries = append(o.entries, LogEntry{Kind: KindScene, Text: sc.Description})
	}
	if o.painter != nil && sc.ImagePrompt != "" {
		o.imageStatus = ImagePending
		o.imageSeq++
		go o.fetchImage(o.imageSeq, sc.ImagePrompt)
	} else {
		o.imageStatus = ImageNone
	}
}

// fetchImage runs after the text resolution, never concurrently with it. The
// sequence check drops results whose scene has already been superseded.
func (o *Orchestrator) fetchImage(seq uint64, prompt string) {
	ctx, cancel := context.WithTimeout(context.Background(), imageTimeout)
	defer cancel()
	url, err := o.painter.GenerateImage(ctx, prompt)

	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.imageSeq {
		o.log.Debug().Str("prompt", prompt).Msg("discarding stale illustration")
		return
	}
	if err != nil {
		// Non-fatal: the scene plays on without an illustration.
		o.imageStatus = ImageFailed
		o.log.Warn().Err(err).Str("prompt", prompt).Msg("illustration failed")
		return
	}
	o.imageURL = url
	o.imageStatus = ImageReady
}

// recordLocked hands the finished transcript to the recorder off the lock.
func (o *Orchestrator) recordLocked() {
	if o.recorder == nil {
		return
	}
	theme := o.theme
	entries := slices.Clone(o.entries)
	message := o.scene.GameOverMessage
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := o.recorder.SaveEnded(ctx, theme, entries, message); err != nil {
			o.log.Warn().Err(err).Str("theme", theme).Msg("archiving playthrough failed")
		}
	}()
}

func (o *Orchestrator) sceneTextsLocked() []string {
	var texts []string
	for _, e := range o.entries {
		if e.Kind == KindScene {
			texts = append(texts, e.Text)
		}
	}
	return texts
}
