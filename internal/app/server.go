package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/ChatbotX/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/ChatbotX/internal/api/middlewares"
	"github.com/markdave123-py/ChatbotX/internal/config"
	"github.com/markdave123-py/ChatbotX/internal/core/market"
	"github.com/markdave123-py/ChatbotX/internal/services"
)

// Services is everything the router dispatches to.
type Services struct {
	Users           *services.UserService
	Chat            *services.ChatService
	Advisory        *services.AdvisoryService
	Watchlist       *services.WatchlistService
	EmotionalStates *services.EmotionalStateService
	Articles        *services.ArticleService
	Market          *market.Gateway
}

// NewRouter builds the chi router with every route mounted under /api.
func NewRouter(cfg *config.Config, svc Services) http.Handler {
	authHandler := handlers.NewAuthHandler(svc.Users)
	stockHandler := handlers.NewStockHandler(svc.Market, svc.Advisory)
	chatHandler := handlers.NewChatHandler(svc.Chat)
	watchlistHandler := handlers.NewWatchlistHandler(svc.Watchlist)
	stateHandler := handlers.NewEmotionalStateHandler(svc.EmotionalStates, svc.Advisory)
	adviceHandler := handlers.NewAdviceHandler(svc.Advisory, svc.Market, svc.Articles, cfg.MaxUploadMB<<20)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware([]byte(cfg.JWTSecret)))
			protected.Use(appMiddleware.UserSync(svc.Users))

			protected.Get("/auth/user", authHandler.CurrentUser)

			protected.Get("/stocks/quote/{symbol}", stockHandler.Quote)
			protected.Get("/stocks/historical/{symbol}", stockHandler.Historical)
			protected.Get("/stocks/top-performers", stockHandler.TopPerformers)
			protected.Get("/stocks/sentiment/{symbol}", stockHandler.Sentiment)

			protected.Get("/chat/conversations", chatHandler.ListConversations)
			protected.Post("/chat/conversations", chatHandler.CreateConversation)
			protected.Get("/chat/conversations/{id}/messages", chatHandler.ListMessages)
			protected.Post("/chat/messages", chatHandler.PostMessage)

			protected.Get("/watchlist", watchlistHandler.List)
			protected.Post("/watchlist", watchlistHandler.Add)

			protected.Get("/emotional-state", stateHandler.Latest)
			protected.Post("/emotional-state", stateHandler.Record)
			protected.Post("/analyze-sentiment", stateHandler.AnalyzeSentiment)

			protected.Post("/advice/portfolio", adviceHandler.Portfolio)
			protected.Post("/articles/summarize", adviceHandler.SummarizeArticle)
			protected.Post("/articles/upload", adviceHandler.UploadArticle)
			protected.Post("/articles/archived/summarize", adviceHandler.SummarizeArchived)
		})
	})

	return r
}

// Server wraps the HTTP server instance.
type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
