package main

import (
	"context"
	"fmt"
	"os"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/MobiAdvisor-core/server/internal/agent/graph"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/conversations"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/nodes"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/agent/repo"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	"github.com/MobiAdvisor-core/server/internal/comparison"
	"github.com/MobiAdvisor-core/server/internal/composer"
	"github.com/MobiAdvisor-core/server/internal/core"
	"github.com/MobiAdvisor-core/server/internal/guardrail"
	"github.com/MobiAdvisor-core/server/internal/intent"
	"github.com/MobiAdvisor-core/server/internal/orchestrator"
	"github.com/MobiAdvisor-core/server/internal/resolver"
	"github.com/MobiAdvisor-core/server/internal/retrieval"
	"github.com/MobiAdvisor-core/server/internal/vector"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
	pkgpostgres "github.com/MobiAdvisor-core/server/pkg/postgres"
	pkgredis "github.com/MobiAdvisor-core/server/pkg/redis"
	pkgweaviate "github.com/MobiAdvisor-core/server/pkg/weaviate"
)

// AppConfig defines every configurable parameter of the advisor, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config
	Weaviate pkgweaviate.Config

	// LLM provider and models
	LLM      model.LLMConfig
	Intent   model.IntentModelConfig
	Response model.ResponseModelConfig
	Agent    model.AgentModelConfig

	Embedding    model.EmbeddingConfig
	Conversation model.ConversationConfig
	Retrieval    model.RetrievalConfig
	Catalog      model.CatalogConfig
	Server       model.ServerConfig
}

func loadConfig() (*AppConfig, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Service: "mobiadvisor", Level: cfg.LogLevel})
	gin.SetMode(env.GinMode())
	return &cfg, nil
}

// app holds the wired components and the clients that must be closed.
type app struct {
	cfg      *AppConfig
	store    catalog.Store
	searcher *vector.Searcher
	indexer  *vector.Indexer
	messages *conversations.MessagesManager
	advisor  *orchestrator.Orchestrator

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logx.Warn().Err(err).Msg("close failed")
		}
	}
}

// openCatalog returns the Postgres catalog, or an in-memory catalog loaded
// from the CSV dataset when CATALOG_DRIVER=memory.
func openCatalog(ctx context.Context, cfg *AppConfig) (catalog.Store, func() error, error) {
	switch cfg.Catalog.Driver {
	case "memory":
		store := catalog.NewMemoryStore()
		f, err := os.Open(cfg.Catalog.CSVPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog csv: %w", err)
		}
		defer f.Close()
		if _, err := catalog.NewImporter(store).ImportCSV(ctx, f, false); err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	case "postgres":
		db, err := cfg.Postgres.New()
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := catalog.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate catalog: %w", err)
		}
		return store, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
	}
}

// openVector wires the embedder and Weaviate index. Both are optional; a
// nil searcher reports unavailable and retrieval skips the semantic rung.
func openVector(cfg *AppConfig, store catalog.Catalog) (*vector.Searcher, *vector.Indexer, error) {
	if !cfg.Weaviate.Enabled() || !cfg.Embedding.Enabled() {
		logx.Warn().Msg("vector search disabled: weaviate url or embedding provider missing")
		return nil, nil, nil
	}
	client, err := cfg.Weaviate.New()
	if err != nil {
		return nil, nil, fmt.Errorf("connect weaviate: %w", err)
	}
	index := vector.NewWeaviateIndex(client)
	embedder := vector.NewOpenAIEmbedder(cfg.Embedding)
	return vector.NewSearcher(embedder, index, store),
		vector.NewIndexer(embedder, index, store, cfg.Embedding.Concurrency),
		nil
}

// bootstrap wires the whole advisor. Missing optional backends (Redis,
// Weaviate, the LLM) degrade features instead of failing startup.
func bootstrap(ctx context.Context, cfg *AppConfig) (*app, error) {
	a := &app{cfg: cfg}

	store, closeStore, err := openCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	var convRepo model.ConversationRepository
	if cfg.Redis.Enabled() {
		var rdb *redis.Client
		rdb, err = cfg.Redis.New()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		convRepo = repo.NewRedisConversationRepository(rdb, cfg.Conversation.TTLDuration())
	} else {
		logx.Warn().Msg("REDIS_URL not set, conversations are not persisted")
	}
	messages := conversations.NewMessagesManager(convRepo, cfg.Conversation)
	if convRepo != nil {
		a.messages = messages
	}

	a.searcher, a.indexer, err = openVector(cfg, store)
	if err != nil {
		a.Close()
		return nil, err
	}

	var intentChat, responseChat einomodel.BaseChatModel
	var agent graph.Runner
	if cfg.LLM.APIKey != "" {
		models, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
			LLM:      cfg.LLM,
			Intent:   cfg.Intent,
			Response: cfg.Response,
			Agent:    cfg.Agent,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		intentChat, responseChat = models.Intent, models.Response

		if cfg.Conversation.AgentEnabled {
			agent, err = graph.BuildAgent(ctx, &graph.GraphConfig{
				ChatModel:       models.Agent,
				ModelName:       models.AgentModelName,
				Catalog:         store,
				MessagesManager: messages,
				ToolMaxCalls:    cfg.Conversation.Tools.MaxCalls,
			})
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("build agent: %w", err)
			}
		}
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not set, answers use templates and deterministic retrieval")
	}

	inputGuard, err := guardrail.NewInputGuard(guardrail.DefaultPolicy())
	if err != nil {
		a.Close()
		return nil, err
	}

	var similar resolver.SimilarFinder
	if a.searcher != nil {
		similar = a.searcher
	}
	var semantic retrieval.SemanticSearcher
	if a.searcher != nil {
		semantic = a.searcher
	}

	historyTurns := cfg.Conversation.HistoryTurns
	a.advisor, err = orchestrator.New(orchestrator.Deps{
		Agent:       agent,
		Intent:      intent.NewParser(intentChat, historyTurns),
		Resolver:    resolver.New(store, similar),
		Retrieval:   retrieval.NewEngine(store, semantic, intentChat, cfg.Retrieval),
		Composer:    composer.New(responseChat, historyTurns),
		Comparison:  comparison.NewService(responseChat),
		InputGuard:  inputGuard,
		OutputGuard: guardrail.NewOutputGuard(store),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
