package story

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNarrator struct {
	initialFn func(theme string) (Scene, error)
	nextFn    func(current, choice string, prior []string) (Scene, error)
}

func (f *fakeNarrator) InitialScene(_ context.Context, theme string) (Scene, error) {
	return f.initialFn(theme)
}

func (f *fakeNarrator) NextScene(_ context.Context, current, choice string, prior []string) (Scene, error) {
	return f.nextFn(current, choice, prior)
}

type fakePainter struct {
	fn func(prompt string) (string, error)
}

func (f *fakePainter) GenerateImage(_ context.Context, prompt string) (string, error) {
	if f.fn == nil {
		return "", errors.New("no painter scripted")
	}
	return f.fn(prompt)
}

type recorded struct {
	theme   string
	log     []LogEntry
	message string
}

type fakeRecorder struct {
	mu    sync.Mutex
	saved []recorded
}

func (f *fakeRecorder) SaveEnded(_ context.Context, theme string, log []LogEntry, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, recorded{theme: theme, log: log, message: message})
	return nil
}

func (f *fakeRecorder) all() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.saved...)
}

func openingScene() Scene {
	return Scene{
		Description: "You stand before a library...",
		ImagePrompt: "a haunted library exterior",
		Choices:     []string{"Enter", "Walk away"},
	}
}

func TestStartGame(t *testing.T) {
	n := &fakeNarrator{
		initialFn: func(theme string) (Scene, error) {
			assert.Equal(t, "haunted library", theme)
			return openingScene(), nil
		},
	}
	p := &fakePainter{fn: func(prompt string) (string, error) {
		assert.Equal(t, "a haunted library exterior", prompt)
		return "/image/abc", nil
	}}
	o := New(n, p, nil, zerolog.Nop())

	require.NoError(t, o.StartGame(context.Background(), "haunted library"))

	snap := o.Snapshot()
	assert.Equal(t, PhasePlaying, snap.Phase)
	assert.Equal(t, "You stand before a library...", snap.Scene.Description)
	assert.Equal(t, []string{"Enter", "Walk away"}, snap.Scene.Choices)
	assert.Equal(t, []LogEntry{{Kind: KindScene, Text: "You stand before a library..."}}, snap.Log)
	assert.Empty(t, snap.Error)

	require.Eventually(t, func() bool {
		return o.Snapshot().ImageStatus == ImageReady
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "/image/abc", o.Snapshot().ImageURL)
}

func TestStartGameFailureStaysNotStarted(t *testing.T) {
	n := &fakeNarrator{
		initialFn: func(string) (Scene, error) {
			return Scene{}, &GenerationError{Op: "initial scene", Err: errors.New("boom")}
		},
	}
	o := New(n, &fakePainter{}, nil, zerolog.Nop())

	err := o.StartGame(context.Background(), "haunted library")
	require.Error(t, err)

	snap := o.Snapshot()
	assert.Equal(t, PhaseNotStarted, snap.Phase)
	assert.Nil(t, snap.Scene)
	assert.Empty(t, snap.Log)
	assert.NotEmpty(t, snap.Error)
	assert.False(t, snap.Busy)

	// The failure is recoverable: the same action can simply be retried.
	n.initialFn = func(string) (Scene, error) { return openingScene(), nil }
	require.NoError(t, o.StartGame(context.Background(), "haunted library"))
	assert.Equal(t, PhasePlaying, o.Snapshot().Phase)
}

func TestStartGameWrongPhase(t *testing.T) {
	n := &fakeNarrator{initialFn: func(string) (Scene, error) { return openingScene(), nil }}
	o := New(n, &fakePainter{fn: func(string) (string, error) { return "/image/x", nil }}, nil, zerolog.Nop())
	require.NoError(t, o.StartGame(context.Background(), "haunted library"))

	assert.ErrorIs(t, o.StartGame(context.Background(), "another one"), ErrAlreadyStarted)
}

func TestChooseOptionPassesContext(t *testing.T) {
	second := Scene{
		Description: "The doors groan open onto darkness.",
		Choices:     []string{"Light a match", "Call out"},
	}
	n := &fakeNarrator{
		initialFn: func(string) (Scene, error) {
			sc := openingScene()
			sc.ImagePrompt = "" // keep this test synchronous
			return sc, nil
		},
		nextFn: func(current, choice string, prior []string) (Scene, error) {
			assert.Equal(t, "You stand before a library...", current)
			assert.Equal(t, "Enter", choice)
			assert.Equal(t, []string{"You stand before a library..."}, prior)
			return second, nil
		},
	}
	o := New(n, &fakePainter{}, nil, zerolog.Nop())
	require.NoError(t, o.StartGame(context.Background(), "haunted library"))
	require.NoError(t, o.ChooseOption(context.Background(), "Enter"))

	snap := o.Snapshot()
	assert.Equal(t, PhasePlaying, snap.Phase)
	assert.Equal(t, second.Description, snap.Scene.Description)
	assert.Equal(t, []LogEntry{
		{Kind: KindScene, Text: "You stand before a library..."},
		{Kind: KindChoice, Text: "Enter"},
		{Kind: KindScene, Text: "The doors groan open onto darkness."},
	}, snap.Log)
	assert.Equal(t, []string{"You stand before a library...", "The doors groan open onto darkness."}, snap.SceneTexts())
}

func TestChooseOptionNotPlaying(t *testing.T) {
	o := New(&fakeNarrator{}, &fakePainter{}, nil, zerolog.Nop())
	assert.ErrorIs(t, o.ChooseOption(context.Background(), "Enter"), ErrNotPlaying)
}

func TestChooseOptionFailureKeepsPlaying(t *testing.T) {
	n := &fakeNarrator{
		initialFn: func(string) (Scene, error) {
			sc := openingScene()
			sc.ImagePrompt = ""
			return sc, nil
		},
		nextFn: func(string, string, []string) (Scene, error) {
			return Scene{}, &GenerationError{Op: "next scene", Err: ErrEmptyResponse}
		},
	}
	o := New(n, &fakePainter{}, nil, zerolog.Nop())
	require.NoError(t, o.StartGame(context.Background(), "haunted library"))

	err := o.ChooseOption(context.Background(), "Enter")
	require.Error(t, err)

	snap := o.Snapshot()
	assert.Equal(t, PhasePlaying, snap.Phase)
	assert.NotEmpty(t, snap.Error)
	// The log is never mutated by a failed request.
	assert.Equal(t, []LogEntry{{Kind: KindScene, Text: "You stand before a library..."}}, snap.Log)
	assert.False(t, snap.Busy)
}

func TestGameOver(t *testing.T) {
	rec := &fakeRecorder{}
	n := &fakeNarrator{
		initialFn: func(string) (Scene, error) {
			sc := openingScene()
			sc.ImagePrompt = ""
			return sc, nil
		},
		nextFn: func(string, string, []string) (Scene, error) {
			return Scene{
				Description:     "The stacks close in around you.",
				ImagePrompt:     "endless bookshelves swallowing a figure",
				GameOver:        true,
				GameOverMessage: "You vanish into the stacks forever.",
			}, nil
		},
	}
	p := &fakePainter{fn: func(string) (string, error) { return "/image/final", nil }}
	o := New(n, p, rec, zerolog.Nop())
	require.NoError(t, o.StartGame(context.Background(), "haunted library"))
	require.NoError(t, o.ChooseOption(context.Background(), "Enter"))

	snap := o.Snapshot()
	assert.Equal(t, PhaseGameOver, snap.Phase)
	assert.Equal(t, "You vanish into the stacks forever.", snap.Scene.GameOverMessage)
	assert.Empty(t, snap.Scene.Choices)
	// The ending is not a scene the player plays through, so the log keeps
	// only the opening scene and the choice.
	assert.Equal(t, []LogEntry{
		{Kind: KindScene, Text: "You stand before a library..."},
		{Kind: KindChoice, Text: "Enter"},
	}, snap.Log)

	// One last best-effort illustration still runs.
	require.Eventually(t, func() bool {
		return o.Snapshot().ImageStatus == ImageReady
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 10*time.Millisecond)
	saved := rec.all()[0]
	assert.Equal(t, "haunted library", saved.theme)
	assert.Equal(t, "You vanish into the stacks forever.", saved.message)
	assert.Len(t, saved.log, 2)
}

func TestBusyGateRejectsSecondAction(t *testing.T) {
	block := make(chan struct{})
	n := &fakeNarrator{
		initialFn: func(string) (Scene, error) {
			sc := openingScene()
			sc.ImagePrompt = ""
			return sc, nil
		},
		nextFn: func(string, string, []string) (Scene, error) {
			<-block
			return Scene{Description: "Later.", Choices: []string{"On"}}, nil
		},
	}
	o := New(n, &fakePainter{}, nil, zerolog.Nop())
	require.NoError(t, o.StartGame(context.Background(), "haunted library"))

	done := make(chan error, 1)
	go func() { done <- o.ChooseOption(context.Background(), "Enter") }()

	require.Eventually(t, func() bool { return o.Snapshot().Busy }, time.Second, time.Millisecond)
	assert.ErrorIs(t, o.ChooseOption(context.Background(), "Walk away"), ErrBusy)
	assert.ErrorIs(t, o.StartGame(context.Background(), "elsewhere"), ErrBusy)

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, "Later.", o.Snapshot().Scene.Description)
}

func TestRestartIsTotal(t *testing.T) {
	n := &fakeNarrator{initialFn: func(string) (Scene, error) { return openingScene(), nil }}
	p := &fakePainter{fn: func(string) (string, error) { return "/image/abc", nil }}
	o := New(n, p, nil, zerolog.Nop())
	require.NoError(t, o.StartGame(context.Background(), "haunted library"))
	require.Eventually(t, func() bool {
		return o.Snapshot().ImageStatus == ImageReady
	}, time.Second, 10*time.Millisecond)

	o.Restart()

	snap := o.Snapshot()
	assert.Equal(t, Snapshot{Phase: PhaseNotStarted, ImageStatus: ImageNone}, snap)

	// Idempotent: restarting again changes nothing.
	o.Restart()
	assert.Equal(t, snap, o.Snapshot())
}

func TestRestartDropsStaleSceneResolution(t *testing.T) {
	block := make(chan struct{})
	n := &fakeNarrator{
		initialFn: func(string) (Scene, error) {
			<-block
			return openingScene(), nil
		},
	}
	o := New(n, &fakePainter{}, nil, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- o.StartGame(context.Background(), "haunted library") }()
	require.Eventually(t, func() bool { return o.Snapshot().Busy }, time.Second, time.Millisecond)

	o.Restart()
	close(block)
	require.NoError(t, <-done)

	snap := o.Snapshot()
	assert.Equal(t, PhaseNotStarted, snap.Phase)
	assert.Nil(t, snap.Scene)
	assert.Empty(t, snap.Log)
	assert.False(t, snap.Busy)
}

func TestRestartDropsStaleIllustration(t *testing.T) {
	block := make(chan struct{})
	n := &fakeNarrator{initialFn: func(string) (Scene, error) { return openingScene(), nil }}
	p := &fakePainter{fn: func(string) (string, error) {
		<-block
		return "/image/stale", nil
	}}
	o := New(n, p, nil, zerolog.Nop())
	require.NoError(t, o.StartGame(context.Background(), "haunted library"))
	require.Equal(t, ImagePending, o.Snapshot().ImageStatus)

	o.Restart()
	close(block)

	// The resolution arrives for an abandoned playthrough and must be dropped.
	time.Sleep(50 * time.Millisecond)
	snap := o.Snapshot()
	assert.Equal(t, ImageNone, snap.ImageStatus)
	assert.Empty(t, snap.ImageURL)
}

func TestIllustrationFailureIsNonFatal(t *testing.T) {
	n := &fakeNarrator{initialFn: func(string) (Scene, error) { return openingScene(), nil }}
	p := &fakePainter{fn: func(string) (string, error) {
		return "", &GenerationError{Op: "image", Err: errors.New("quota")}
	}}
	o := New(n, p, nil, zerolog.Nop())
	require.NoError(t, o.StartGame(context.Background(), "haunted library"))

	require.Eventually(t, func() bool {
		return o.Snapshot().ImageStatus == ImageFailed
	}, time.Second, 10*time.Millisecond)

	snap := o.Snapshot()
	assert.Equal(t, PhasePlaying, snap.Phase)
	assert.Empty(t, snap.Error)
	assert.NotEmpty(t, snap.Scene.Choices)
}

func TestDisabledOrchestrator(t *testing.T) {
	o := NewDisabled(zerolog.Nop())

	assert.ErrorIs(t, o.StartGame(context.Background(), "haunted library"), ErrNoCredentials)
	assert.ErrorIs(t, o.ChooseOption(context.Background(), "Enter"), ErrNoCredentials)
	assert.Equal(t, PhaseNoCredentials, o.Snapshot().Phase)

	o.Restart()
	assert.Equal(t, PhaseNoCredentials, o.Snapshot().Phase)
}
