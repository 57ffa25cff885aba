package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/mock-interview/internal/ai/gemini"
	"github.com/gokatarajesh/mock-interview/internal/ai/remote"
	"github.com/gokatarajesh/mock-interview/internal/candidate"
	"github.com/gokatarajesh/mock-interview/internal/config"
	"github.com/gokatarajesh/mock-interview/internal/db/repository"
	"github.com/gokatarajesh/mock-interview/internal/interview"
	"github.com/gokatarajesh/mock-interview/internal/interview/scoring"
	"github.com/gokatarajesh/mock-interview/internal/logging"
	"github.com/gokatarajesh/mock-interview/internal/question"
	"github.com/gokatarajesh/mock-interview/internal/resume"
	"github.com/gokatarajesh/mock-interview/internal/scoreboard"
	"github.com/gokatarajesh/mock-interview/internal/server"
	ws "github.com/gokatarajesh/mock-interview/pkg/http/ws"
)

// aiBackend bundles the three remote collaborators one provider serves.
type aiBackend interface {
	question.Generator
	scoring.RemoteScorer
	scoring.Summarizer
}

// Application aggregates shared infrastructure and the session loop.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	runner      *interview.Runner
	fetcher     *question.FetcherWorker
	broadcaster *scoreboard.Broadcaster
	reconciler  *scoreboard.ReconcileWorker
}

// New bootstraps logger, storage, the session orchestrator and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Str("store", cfg.Store.Driver).Str("ai_backend", cfg.AI.Backend).Msg("starting application bootstrap")

	a := &Application{cfg: cfg, logger: logger}
	pings := map[string]server.Check{}

	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		pings["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	var store candidate.Store
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		pings["postgres"] = pool.Ping

		var active candidate.ActivePointer
		if a.redis != nil {
			active = candidate.NewRedisActivePointer(a.redis, logger)
		}
		store = repository.NewCandidateRepository(pool, active, logger)
	default:
		store = candidate.NewMemoryStore()
	}

	backend, err := newAIBackend(ctx, cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	bank, err := question.LoadBank(cfg.Interview.QuestionBankPath)
	if err != nil {
		a.close()
		return nil, err
	}

	seqOpts := question.SequencerOptions{
		Defaults: question.Request{Role: cfg.Interview.Role, Stack: cfg.Interview.Stack},
	}
	if a.redis != nil {
		seqOpts.Cache = question.NewCache(a.redis, cfg.Interview.PackCacheTTL)
	}
	var (
		remoteScorer scoring.RemoteScorer
		summarizer   scoring.Summarizer
	)
	if backend != nil {
		seqOpts.Generator = backend
		remoteScorer = backend
		summarizer = backend
	}
	sequencer := question.NewSequencer(bank, seqOpts, logger)

	scoringCfg := scoring.DefaultScoringConfig()
	scoringCfg.ShortAnswerChars = cfg.Scoring.ShortAnswerChars
	scoringCfg.LongAnswerChars = cfg.Scoring.LongAnswerChars
	scoringCfg.SpeedBonusRatio = cfg.Scoring.SpeedBonusRatio

	evaluator := scoring.NewEvaluator(scoringCfg, remoteScorer, cfg.AI.HTTPTimeout, logger)
	aggregator := scoring.NewAggregator(summarizer, cfg.AI.HTTPTimeout, logger)
	timer := interview.NewTimer(cfg.Interview.TickInterval, nil)

	machine := interview.NewMachine(interview.MachineConfig{
		StartCommand: cfg.Interview.StartCommand,
		Request:      seqOpts.Defaults,
	}, sequencer, evaluator, aggregator, timer, logger)

	hub := ws.NewHub(logger)
	runnerOpts := interview.RunnerOptions{Notifier: interview.NewHubNotifier(hub, logger)}

	var board *scoreboard.Service
	if cfg.Scoreboard.Enabled && a.redis != nil {
		board = scoreboard.NewService(a.redis, logger, scoreboard.Options{
			TopN:          cfg.Scoreboard.TopN,
			PubSubChannel: cfg.Scoreboard.PubSubChannel,
		})
		runnerOpts.Results = board
		a.broadcaster = scoreboard.NewBroadcaster(a.redis, hub, cfg.Scoreboard.PubSubChannel, logger)
		a.reconciler = scoreboard.NewReconcileWorker(board, store, cfg.Scoreboard.ReconcileInterval, logger)
	}
	a.runner = interview.NewRunner(machine, timer, store, runnerOpts, logger)

	prefetch := make(chan question.Request, cfg.Interview.PrefetchQueue)
	a.fetcher = question.NewFetcherWorker(sequencer, prefetch, logger, cfg.AI.HTTPTimeout)

	var documents resume.DocumentExtractor
	if cfg.Resume.ExtractorURL != "" {
		documents = resume.NewHTTPExtractor(cfg.Resume.ExtractorURL, cfg.Resume.Timeout, logger)
	}
	uploads := resume.NewUploadHandler(
		resume.NewService(cfg.Upload.MaxBytes, documents, logger),
		store, a.runner, question.Enqueuer(prefetch), logger,
	)

	candidates := candidate.NewHTTPHandler(store, logger)
	sessionHTTP := interview.NewHTTPHandlers(a.runner, logger)
	sessionWS := interview.NewHandler(a.runner, hub, server.WSUpgrader, logger)
	scoreboardHTTP := scoreboard.NewHTTPHandler(board, store, logger)

	a.http = server.NewHTTPServer(cfg, logger, server.Routes{
		UploadResume:    uploads.HandleUpload,
		ListCandidates:  candidates.HandleList,
		GetCandidate:    candidates.HandleGet,
		GetSession:      sessionHTTP.GetSession,
		SetActive:       sessionHTTP.SetActive,
		Scoreboard:      scoreboardHTTP.HandleGet,
		SessionSocket:   sessionWS.HandleWebSocket,
		DependencyPings: pings,
	})
	return a, nil
}

func newAIBackend(ctx context.Context, cfg *config.App, logger zerolog.Logger) (aiBackend, error) {
	switch cfg.AI.Backend {
	case config.AIBackendHTTP:
		return remote.NewClient(remote.Config{
			BaseURL: cfg.AI.GeneratorURL,
			APIKey:  cfg.AI.GeneratorKey,
			Timeout: cfg.AI.HTTPTimeout,
		}, logger), nil
	case config.AIBackendGemini:
		gen, err := gemini.NewGenerator(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		return gemini.NewInterviewer(gen, logger), nil
	default:
		return nil, nil
	}
}

// Run starts the session loop, background workers and the HTTP server, and
// waits for a termination signal or the first failure.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.runner.Run(gctx) })
	g.Go(func() error { return a.fetcher.Run(gctx) })
	if a.broadcaster != nil {
		g.Go(func() error {
			if err := a.broadcaster.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("scoreboard broadcaster stopped")
			}
			return nil
		})
	}
	if a.reconciler != nil {
		g.Go(func() error { return a.reconciler.Run(gctx) })
	}

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	a.logger.Info().Msg("shutdown complete")
	return err
}

func (a *Application) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
}
