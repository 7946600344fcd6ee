package main

import (
	"context"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"fable_ai/archive"
	"fable_ai/config"
	"fable_ai/handlers"
	"fable_ai/narrator"
	"fable_ai/painter"
	"fable_ai/session"
	"fable_ai/story"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	if level, lvlErr := zerolog.ParseLevel(cfg.LogLevel); lvlErr == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx := context.Background()

	store, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening archive")
	}
	defer store.Close()

	images := painter.NewStore()

	var factory func() *story.Orchestrator
	if !cfg.Credentialed() {
		// The server still comes up so the UI can explain what is missing,
		// but no provider calls will ever be made.
		log.Error().Msg("GEMINI_API_KEY is not set; gameplay is disabled")
		factory = func() *story.Orchestrator { return story.NewDisabled(log) }
	} else {
		textClient, clientErr := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if clientErr != nil {
			log.Fatal().Err(clientErr).Msg("creating text client")
		}
		defer textClient.Close()

		narrate := narrator.NewClient(
			textClient.GenerativeModel(cfg.TextModel),
			log.With().Str("component", "narrator").Logger(),
		)
		paint, paintErr := painter.NewClient(ctx, cfg.GeminiAPIKey, cfg.ImageModel, images,
			log.With().Str("component", "painter").Logger())
		if paintErr != nil {
			log.Fatal().Err(paintErr).Msg("creating image client")
		}

		gameLog := log.With().Str("component", "game").Logger()
		factory = func() *story.Orchestrator {
			return story.New(narrate, paint, store, gameLog)
		}
	}

	h := &handlers.Handler{
		Sessions: session.NewManager(factory),
		Images:   images,
		Archive:  store,
		Log:      log.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()

	fs := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))

	mux.HandleFunc("/", h.Index)
	mux.HandleFunc("POST /start", h.StartStory)
	mux.HandleFunc("POST /choose", h.Choose)
	mux.HandleFunc("POST /restart", h.Restart)
	mux.HandleFunc("GET /scene/image", h.SceneImage)
	mux.HandleFunc("GET /image/{id}", h.Image)
	mux.HandleFunc("GET /download", h.DownloadStory)

	log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
