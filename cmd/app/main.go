package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"farcaster-attestation-frame/internal/config"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/domain/ports/adapter"
	"farcaster-attestation-frame/internal/infra/adapters/chain"
	"farcaster-attestation-frame/internal/infra/adapters/farcaster"
	"farcaster-attestation-frame/internal/infra/adapters/vision"
	"farcaster-attestation-frame/internal/infra/bus"
	pg "farcaster-attestation-frame/internal/infra/db/postgres"
	"farcaster-attestation-frame/internal/infra/logging"
	"farcaster-attestation-frame/internal/infra/metrics"
	red "farcaster-attestation-frame/internal/infra/redis"
	"farcaster-attestation-frame/internal/infra/sched"
	"farcaster-attestation-frame/internal/infra/web"
	"farcaster-attestation-frame/internal/infra/worker"
	"farcaster-attestation-frame/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop vision fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)
	resetMarks := red.NewResetMarks(redisClient, 0)

	// ---- Repositories ----
	validationRepo := pg.NewValidationRepo(pool, logger)
	attestationRepo := pg.NewAttestationRepo(pool, logger)
	paymentRepo := pg.NewPaymentRepo(pool)

	// ---- Collaborator clients ----
	social, err := farcaster.NewNeynarClient(cfg.Farcaster.APIKey, cfg.Farcaster.BaseURL, cfg.Farcaster.Timeout)
	if err != nil {
		log.Fatalf("farcaster: %v", err)
	}

	// Vision adapter: OpenAI -> Gemini -> noop (dev only).
	var eye adapter.VisionAdapter
	if cfg.Vision.OpenAIKey != "" {
		eye, err = vision.NewOpenAIAdapter(cfg.Vision.OpenAIKey, cfg.Vision.DefaultModel, cfg.Vision.Prompt)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
	} else if cfg.Vision.GeminiKey != "" {
		eye, err = vision.NewGeminiAdapter(ctx, cfg.Vision.GeminiKey, cfg.Vision.GeminiURL, cfg.Vision.DefaultModel, cfg.Vision.Prompt)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
	} else if cfg.Runtime.Dev {
		eye = vision.NewNoopAdapter()
	} else {
		log.Fatalf("no vision provider configured: set vision.openai_key or vision.gemini_key in %s", *cfgPath)
	}
	logger.Info().Str("adapter", eye.Name()).Msg("vision adapter selected")

	chainProvider, err := chain.NewEASRelayProvider(
		cfg.Chain.BaseURL, cfg.Chain.APIKey, cfg.Chain.ChainID,
		cfg.Chain.SchemaID, cfg.Chain.PaymentAddress, cfg.Chain.PaymentValue,
		cfg.Chain.Timeout,
	)
	if err != nil {
		log.Fatalf("chain provider: %v", err)
	}

	// ---- Worker pool + event bus ----
	taskPool := worker.NewPool(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize)
	taskPool.Start(ctx)
	defer taskPool.Stop()
	eventBus := bus.New(taskPool, logger)

	// ---- Embed selection policy ----
	var filter usecase.EmbedFilter
	switch cfg.Policy.EmbedFilter {
	case "any":
		filter = usecase.AnyEmbedFilter()
	default:
		filter, err = usecase.RegexEmbedFilter(cfg.Policy.ImageRegex)
		if err != nil {
			log.Fatalf("policy.image_regex: %v", err)
		}
	}

	// ---- Use cases ----
	submitUC := usecase.NewSubmitUseCase(social, eventBus, filter, logger)
	statusUC := usecase.NewStatusUseCase(validationRepo, attestationRepo, paymentRepo, resetMarks, logger)
	paymentUC := usecase.NewPaymentUseCase(validationRepo, paymentRepo, chainProvider, eventBus, cfg.Chain.ChainID, cfg.Pipeline.AbandonAfter, logger)

	// ---- Pipeline processor ----
	processor := worker.NewPipelineProcessor(
		validationRepo, attestationRepo, paymentRepo,
		eye, chainProvider, locker,
		cfg.Redis.LockTTL, cfg.Vision.Timeout, cfg.Chain.Timeout,
		logger,
	)
	eventBus.On(model.EventStartValidating, processor.HandleStartValidating)
	eventBus.On(model.EventStartMinting, processor.HandleStartMinting)

	// ---- Payment reconciler ----
	reconciler := sched.NewPaymentReconciler(paymentUC, paymentRepo, cfg.Pipeline.ReconcileEvery, cfg.Pipeline.StaleAfter)
	go reconciler.Start(ctx)

	// ---- HTTP server ----
	server := web.NewServer(submitUC, statusUC, paymentUC, rateLimiter, cfg.Server.PollLimit, cfg.Server.PollWindow, logger)
	go func() {
		if err := server.Start(ctx, cfg.Server.Port); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()
}
