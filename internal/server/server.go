package server

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/AHGGG/nce-english-practices-sub006/internal/config"
	"github.com/AHGGG/nce-english-practices-sub006/internal/database"
	"github.com/AHGGG/nce-english-practices-sub006/internal/dict"
	"github.com/AHGGG/nce-english-practices-sub006/internal/handlers"
	"github.com/AHGGG/nce-english-practices-sub006/internal/hydrate"
	mw "github.com/AHGGG/nce-english-practices-sub006/internal/middleware"
	"github.com/AHGGG/nce-english-practices-sub006/internal/podcast"
	"github.com/AHGGG/nce-english-practices-sub006/internal/review"
	ws "github.com/AHGGG/nce-english-practices-sub006/internal/websocket"
)

type Server struct {
	Router   *chi.Mux
	DB       *database.DB
	WSHub    *ws.Hub
	Streams  *hydrate.Manager
	Podcasts *podcast.Manager
	Dict     *dict.Client
	Review   *review.Service
}

type Config struct {
	DB       *database.DB
	Streams  *hydrate.Manager
	Podcasts *podcast.Manager
	Dict     *dict.Client
	Review   *review.Service
	WSHub    *ws.Hub
	App      *config.Config
	Version  string
}

func New(cfg Config) *Server {
	s := &Server{
		Router:   chi.NewRouter(),
		DB:       cfg.DB,
		WSHub:    cfg.WSHub,
		Streams:  cfg.Streams,
		Podcasts: cfg.Podcasts,
		Dict:     cfg.Dict,
		Review:   cfg.Review,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.App, cfg.Version)

	return s
}

func (s *Server) setupMiddleware() {
	s.Router.Use(chiMiddleware.RealIP)
	s.Router.Use(mw.RequestID)
	s.Router.Use(mw.SecurityHeaders)
	s.Router.Use(mw.Logger)
	s.Router.Use(mw.CORS)
	s.Router.Use(chiMiddleware.Recoverer)
}

func (s *Server) setupRoutes(appCfg *config.Config, version string) {
	podcastsHandler := handlers.NewPodcastsHandler(s.Podcasts)
	dictionaryHandler := handlers.NewDictionaryHandler(s.Dict)
	reviewHandler := handlers.NewReviewHandler(s.Review)
	sessionsHandler := handlers.NewSessionsHandler(s.Streams, appCfg)
	systemHandler := handlers.NewSystemHandler(version)

	s.Router.Route("/api/v1", func(r chi.Router) {
		// Health check (used by the desktop shell for readiness polling)
		r.Get("/system/health", systemHandler.Health)
		r.Get("/system/widgets", systemHandler.Widgets)

		// WebSocket for state pushes
		r.Get("/ws", s.WSHub.HandleWS)

		// Podcast subscriptions and playback
		r.Route("/podcasts", func(r chi.Router) {
			r.Get("/", podcastsHandler.List)
			r.Post("/", podcastsHandler.Subscribe)
			r.Delete("/{id}", podcastsHandler.Unsubscribe)
			r.Post("/{id}/refresh", podcastsHandler.Refresh)
			r.Get("/{id}/episodes", podcastsHandler.Episodes)
		})
		r.Put("/episodes/{id}/position", podcastsHandler.SavePosition)
		r.Get("/episodes/{id}/position", podcastsHandler.Position)

		// Dictionary, rate limited since every lookup may hit the
		// upstream API
		r.With(mw.RateLimit(60, time.Minute)).Get("/dictionary/{word}", dictionaryHandler.Lookup)

		// Spaced-repetition deck
		r.Route("/review", func(r chi.Router) {
			r.Get("/due", reviewHandler.Due)
			r.Post("/cards", reviewHandler.AddCard)
			r.Post("/cards/{id}/grade", reviewHandler.Grade)
			r.Delete("/cards/{id}", reviewHandler.Delete)
		})

		// Hydration sessions over the tutor stream
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionsHandler.Open)
			r.Get("/{id}", sessionsHandler.Snapshot)
			r.Delete("/{id}", sessionsHandler.Close)
		})
	})
}
