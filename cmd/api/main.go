package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aiox-platform/shopassist/internal/api"
	"github.com/aiox-platform/shopassist/internal/audit"
	"github.com/aiox-platform/shopassist/internal/auth"
	"github.com/aiox-platform/shopassist/internal/cart"
	"github.com/aiox-platform/shopassist/internal/catalog"
	"github.com/aiox-platform/shopassist/internal/chat"
	"github.com/aiox-platform/shopassist/internal/config"
	"github.com/aiox-platform/shopassist/internal/conversation"
	"github.com/aiox-platform/shopassist/internal/database"
	"github.com/aiox-platform/shopassist/internal/dialogue"
	"github.com/aiox-platform/shopassist/internal/gateway"
	"github.com/aiox-platform/shopassist/internal/llm"
	mw "github.com/aiox-platform/shopassist/internal/middleware"
	inats "github.com/aiox-platform/shopassist/internal/nats"
	"github.com/aiox-platform/shopassist/internal/quota"
	iredis "github.com/aiox-platform/shopassist/internal/redis"
	"github.com/aiox-platform/shopassist/internal/server"
	ixmpp "github.com/aiox-platform/shopassist/internal/xmpp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	if err := database.RunMigrations(cfg.DB.DSN(), cfg.Server.MigrationsPath); err != nil {
		slog.Error("migrating database", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Conversation history
	var history conversation.HistoryRepository
	switch cfg.History.Driver {
	case "sqlite":
		var db *sql.DB
		db, err = conversation.OpenSQLite(cfg.History.SQLitePath)
		if err != nil {
			slog.Error("opening sqlite history", "error", err, "path", cfg.History.SQLitePath)
			os.Exit(1)
		}
		defer db.Close()
		history, err = conversation.NewSQLiteHistory(db)
		if err != nil {
			slog.Error("initializing sqlite history", "error", err)
			os.Exit(1)
		}
	default:
		history = conversation.NewPostgresHistory(pool)
	}
	slog.Info("conversation history ready", "driver", cfg.History.Driver)

	// Catalog and cart
	catalogSvc := catalog.NewService(catalog.NewRepository(pool))
	cartSvc := cart.NewService(cart.NewRepository(pool))

	// Completion provider. Without an API key the assistant runs on rules only.
	var provider dialogue.CompletionProvider
	if client := llm.NewClient(cfg.LLM); client != nil {
		provider = client
		slog.Info("completion provider configured", "model", cfg.LLM.Model, "base_url", cfg.LLM.BaseURL)
	} else {
		slog.Warn("LLM_API_KEY not set; intent classification uses rules only")
	}
	budget := quota.NewBudget(quota.NewWindow(redisClient), cfg.LLM.UserBudgetPerMinute)

	// NATS (optional)
	var (
		natsClient *inats.Client
		publisher  *inats.Publisher
		events     dialogue.EventPublisher
		eventRepo  audit.Repository
		workers    sync.WaitGroup
	)
	if cfg.NATS.Enabled() {
		natsClient, err = inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to nats", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()

		publisher = inats.NewPublisher(natsClient.JetStream())
		events = publisher
		eventRepo = audit.NewRepository(pool)

		consumerMgr := inats.NewConsumerManager(natsClient.JetStream())
		eventConsumer := audit.NewConsumer(eventRepo, consumerMgr)
		runWorker(ctx, &workers, "dialogue event consumer", eventConsumer.Start)
	} else {
		slog.Info("NATS_URL not set; turn events and XMPP are disabled")
	}

	// Dialogue
	orchestrator := dialogue.NewOrchestrator(dialogue.Deps{
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Contexts: conversation.NewStore(redisClient, cfg.Dialogue.ContextTTL, cfg.Dialogue.HistoryWindow),
		History:  history,
		Classifier: dialogue.NewClassifier(provider, budget, dialogue.ClassifierConfig{
			Threshold: cfg.Dialogue.ConfidenceThreshold,
			Timeout:   cfg.LLM.ClassifyTimeout,
		}),
		Provider: provider,
		Budget:   budget,
		Events:   events,
	}, dialogue.Config{
		ChatTimeout:      cfg.LLM.ChatTimeout,
		HistoryWindow:    cfg.Dialogue.HistoryWindow,
		MaxMessageLength: cfg.Dialogue.MaxMessageLength,
	})

	// XMPP gateway (optional, needs NATS)
	if cfg.XMPP.Enabled && natsClient != nil {
		consumerMgr := inats.NewConsumerManager(natsClient.JetStream())

		gw := gateway.NewGateway(
			orchestrator,
			publisher,
			consumerMgr,
			gateway.NewRouter(cfg.XMPP.ComponentName),
			gateway.NewValidator(cfg.XMPP.AllowedDomains, cfg.Dialogue.MaxMessageLength),
		)
		runWorker(ctx, &workers, "chat gateway", gw.Start)

		stanzaHandler := ixmpp.NewHandler(publisher)
		component, err := ixmpp.NewComponent(cfg.XMPP, stanzaHandler)
		if err != nil {
			slog.Error("creating XMPP component", "error", err)
			os.Exit(1)
		}
		runWorker(ctx, &workers, "XMPP component", component.Start)

		relay := ixmpp.NewOutboundRelay(stanzaHandler, component.Sender(), consumerMgr)
		runWorker(ctx, &workers, "outbound relay", relay.Start)
	}

	// HTTP
	jwtManager := auth.NewJWTManager(cfg.JWT.AccessSecret, cfg.JWT.Issuer)
	chatRateLimiter := mw.NewRateLimiter(redisClient, "ratelimit:chat:", cfg.RateLimit.ChatMax, cfg.RateLimit.ChatWindowSec, auth.RateLimitKey)

	var eventLister chat.EventLister
	if eventRepo != nil {
		eventLister = eventRepo
	}
	chatHandler := chat.NewHandler(orchestrator, eventLister)
	catalogHandler := catalog.NewHandler(catalogSvc)
	cartHandler := cart.NewHandler(cartSvc)

	probes := api.Probes{
		Database: func(ctx context.Context) error { return database.HealthCheck(ctx, pool) },
		Redis:    func(ctx context.Context) error { return iredis.HealthCheck(ctx, redisClient) },
	}
	if natsClient != nil {
		probes.NATS = natsClient.Healthy
	}

	router := api.NewRouter(probes, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		ChatRateLimiter:    chatRateLimiter.Middleware,
	}, api.HandlerSet{
		Chat:        chatHandler.Chat,
		QuickChat:   chatHandler.Quick,
		ResetChat:   chatHandler.Reset,
		ChatHistory: chatHandler.History,
		ChatEvents:  chatHandler.Events,

		SearchProducts: catalogHandler.Search,
		GetProduct:     catalogHandler.Get,
		ProductCtx:     catalogHandler.ProductCtx,

		GetCart:        cartHandler.Get,
		AddCartItem:    cartHandler.AddItem,
		RemoveCartItem: cartHandler.RemoveItem,

		AuthMiddleware: auth.Middleware(jwtManager),
	})

	srv := server.New(cfg.Server, router)
	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		stop()
		workers.Wait()
		os.Exit(1)
	}

	stop()
	workers.Wait()
	slog.Info("shutdown complete")
}

// runWorker starts a blocking consume loop that exits when ctx is cancelled.
func runWorker(ctx context.Context, wg *sync.WaitGroup, name string, start func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := start(ctx); err != nil {
			slog.Error("background worker stopped", "worker", name, "error", err)
		}
	}()
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
