package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/ChatbotX/internal/config"
	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/core/article"
	db "github.com/markdave123-py/ChatbotX/internal/core/database"
	"github.com/markdave123-py/ChatbotX/internal/core/llm"
	"github.com/markdave123-py/ChatbotX/internal/core/market"
	objectclient "github.com/markdave123-py/ChatbotX/internal/core/object-client"
	"github.com/markdave123-py/ChatbotX/internal/services"
)

type App struct {
	DBClient core.DbClient
	LLM      *llm.GeminiLLM
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := newDbClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}

	var objClient core.ObjectClient
	if cfg.ArchiveEnabled() {
		s3Client, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			_ = dbClient.Close()
			return nil, fmt.Errorf("object client: %w", err)
		}
		objClient = s3Client
	}

	llmProvider, err := llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel, cfg.SentimentModel)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("couldn't initialize the llm: %w", err)
	}

	gateway := market.NewGateway(newMarketProvider(cfg), cfg.TopPerformerSymbols())
	log.Info().Str("provider", gateway.ProviderName()).Msg("market data gateway ready")

	advisory := services.NewAdvisoryService(llmProvider)
	svc := Services{
		Users:           services.NewUserService(dbClient),
		Chat:            services.NewChatService(dbClient, advisory),
		Advisory:        advisory,
		Watchlist:       services.NewWatchlistService(dbClient),
		EmotionalStates: services.NewEmotionalStateService(dbClient, advisory),
		Articles:        services.NewArticleService(advisory, article.NewDocconvExtractor(false), objClient, cfg.BucketName),
		Market:          gateway,
	}

	return &App{
		DBClient: dbClient,
		LLM:      llmProvider,
		Server:   NewServer(cfg, NewRouter(cfg, svc)),
	}, nil
}

func newDbClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return db.NewMemoryClient(), nil
	}
	dbClient, err := db.NewDatabaseClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("database initialized and ready")
	return dbClient, nil
}

func newMarketProvider(cfg *config.Config) market.Provider {
	if cfg.MarketProvider == config.MarketProviderAlpaca {
		return market.NewAlpaca(cfg.AlpacaKeyID, cfg.AlpacaSecretKey)
	}
	return market.NewAlphaVantage(cfg.AlphaVantageURL, cfg.AlphaVantageKey, time.Duration(cfg.MarketTimeoutSecs)*time.Second)
}

func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
