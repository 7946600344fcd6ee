package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog"

	"fable_ai/archive"
	"fable_ai/painter"
	"fable_ai/session"
	"fable_ai/story"
	"fable_ai/templates"
)

// Player-supplied themes are free text, but unbounded input makes for bad
// prompts.
const maxThemeWords = 15

const recentLimit = 5

// Handler wires player intent events to the per-session orchestrator and
// renders the resulting snapshots. It holds no game state of its own.
type Handler struct {
	Sessions *session.Manager
	Images   *painter.Store
	Archive  *archive.Store
	Log      zerolog.Logger
}

// Index serves the full page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	o := h.Sessions.Session(w, r)
	h.render(w, r, templates.Index("Fable AI", o.Snapshot(), h.recent(r.Context())))
}

// StartStory handles the start-game intent.
func (h *Handler) StartStory(w http.ResponseWriter, r *http.Request) {
	o := h.Sessions.Session(w, r)
	theme := strings.TrimSpace(r.FormValue("theme"))
	if theme == "" {
		h.renderGame(w, r, o, "Name a theme first.")
		return
	}
	if len(strings.Fields(theme)) > maxThemeWords {
		h.renderGame(w, r, o, "Keep the theme to 15 words or fewer.")
		return
	}
	// Failures are already folded into the snapshot as a plain message.
	_ = o.StartGame(r.Context(), theme)
	h.renderGame(w, r, o, "")
}

// Choose handles the pick-a-choice intent.
func (h *Handler) Choose(w http.ResponseWriter, r *http.Request) {
	o := h.Sessions.Session(w, r)
	choice := strings.TrimSpace(r.FormValue("choice"))
	if choice == "" {
		h.renderGame(w, r, o, "Pick one of the choices.")
		return
	}
	_ = o.ChooseOption(r.Context(), choice)
	h.renderGame(w, r, o, "")
}

// Restart resets the session and shows the start screen again.
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	o := h.Sessions.Session(w, r)
	o.Restart()
	h.renderGame(w, r, o, "")
}

// SceneImage serves the image slot partial. The pending variant polls this
// endpoint until the illustration resolves one way or the other.
func (h *Handler) SceneImage(w http.ResponseWriter, r *http.Request) {
	o := h.Sessions.Session(w, r)
	h.render(w, r, templates.ImageSlot(o.Snapshot()))
}

// Image serves generated image bytes by id.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	data, mime, ok := h.Images.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		h.Log.Debug().Err(err).Msg("writing image response")
	}
}

// DownloadStory exports the current playthrough as a PDF.
func (h *Handler) DownloadStory(w http.ResponseWriter, r *http.Request) {
	o := h.Sessions.Session(w, r)
	snap := o.Snapshot()
	if len(snap.Log) == 0 {
		http.Error(w, "There is no story to download yet.", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="fable.pdf"`)
	if err := writeTranscriptPDF(w, snap); err != nil {
		h.Log.Error().Err(err).Msg("writing transcript PDF")
	}
}

// renderGame re-renders the game container after an intent event. override
// replaces the snapshot's error message for plain input-validation notices.
func (h *Handler) renderGame(w http.ResponseWriter, r *http.Request, o *story.Orchestrator, override string) {
	snap := o.Snapshot()
	if override != "" {
		snap.Error = override
	}
	h.render(w, r, templates.GameView(snap, h.recent(r.Context())))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	if err := c.Render(r.Context(), w); err != nil {
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("rendering view")
	}
}

func (h *Handler) recent(ctx context.Context) []archive.Playthrough {
	if h.Archive == nil {
		return nil
	}
	ps, err := h.Archive.Recent(ctx, recentLimit)
	if err != nil {
		h.Log.Warn().Err(err).Msg("listing archived playthroughs")
		return nil
	}
	return ps
}
