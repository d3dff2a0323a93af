// Command fonotreino is the main entry point for the Fonotreino training server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fonotreino/fonotreino/internal/config"
	"github.com/fonotreino/fonotreino/internal/content"
	"github.com/fonotreino/fonotreino/internal/health"
	"github.com/fonotreino/fonotreino/internal/httpapi"
	"github.com/fonotreino/fonotreino/internal/observe"
	"github.com/fonotreino/fonotreino/internal/resilience"
	"github.com/fonotreino/fonotreino/internal/score"
	"github.com/fonotreino/fonotreino/internal/session"
	"github.com/fonotreino/fonotreino/internal/store/postgres"
	"github.com/fonotreino/fonotreino/pkg/provider/genai"
	"github.com/fonotreino/fonotreino/pkg/provider/genai/gemini"
	"github.com/fonotreino/fonotreino/pkg/provider/genai/openai"
	"github.com/fonotreino/fonotreino/pkg/provider/stt"
	"github.com/fonotreino/fonotreino/pkg/provider/stt/deepgram"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Logger (level adjustable at runtime via the config watcher) ───────────
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load configuration ────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			level.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.RestartRequired {
			slog.Warn("configuration change requires a restart to take effect", "path", *configPath)
		}
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "fonotreino: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "fonotreino: %v\n", err)
		}
		return 1
	}
	cfg := watcher.Current()
	level.Set(slogLevel(cfg.Server.LogLevel))

	slog.Info("fonotreino starting",
		"version", version,
		"config", *configPath,
		"listen_addr", listenAddr(cfg),
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "fonotreino",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	generator, transcriber, err := buildProviders(cfg, reg, metrics)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Store ─────────────────────────────────────────────────────────────────
	var (
		store     session.Store
		directory session.Directory
		checkers  []health.Checker
	)
	if dsn := cfg.Store.PostgresDSN; dsn != "" {
		pg, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			return 1
		}
		defer pg.Close()
		store, directory = pg, pg
		checkers = append(checkers, health.Checker{Name: "database", Check: pg.Ping})
		slog.Info("session store ready", "backend", "postgres")
	} else {
		store = session.NewMemStore()
		directory = session.NewMemDirectory()
		slog.Warn("session store ready", "backend", "memory")
	}

	// ── Session engine ────────────────────────────────────────────────────────
	phrases := content.NewGenerator(generator)
	holistic := score.NewHolisticScorer(generator)

	var transcript score.Scorer = holistic
	if transcriber != nil {
		var scorerOpts []score.TranscriptScorerOption
		if lang := cfg.Providers.Transcription.Language; lang != "" {
			scorerOpts = append(scorerOpts, score.WithLanguage(lang))
		}
		transcript = score.NewTranscriptScorer(transcriber, scorerOpts...)
	} else {
		slog.Warn("no transcription provider configured; word-by-word requests will use the holistic scorer")
	}

	orchOpts := []session.OrchestratorOption{
		session.WithLogger(logger),
		session.WithMetrics(metrics),
	}
	if cfg.Session.ProviderTimeout > 0 {
		orchOpts = append(orchOpts, session.WithProviderTimeout(cfg.Session.ProviderTimeout))
	}
	orch := session.NewOrchestrator(store, directory, phrases, transcript, holistic, orchOpts...)
	aggregator := session.NewHistoryAggregator(store)

	// ── HTTP server ───────────────────────────────────────────────────────────
	api := httpapi.New(orch, aggregator, health.New(checkers...), metrics,
		httpapi.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", srv.Addr)
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return watcher.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		slog.Info("shutdown signal received, stopping…")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// listenAddr falls back to the default port when the config omits one.
func listenAddr(cfg *config.Config) string {
	if cfg.Server.ListenAddr != "" {
		return cfg.Server.ListenAddr
	}
	return ":8080"
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterTranscriber("deepgram", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, deepgram.WithLanguage(entry.Language))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithBaseURL(entry.BaseURL))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	reg.RegisterGenerator("gemini", func(entry config.ProviderEntry) (genai.Generator, error) {
		var opts []gemini.Option
		if entry.Model != "" {
			opts = append(opts, gemini.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(entry.BaseURL))
		}
		return gemini.New(entry.APIKey, opts...)
	})

	reg.RegisterGenerator("openai", func(entry config.ProviderEntry) (genai.Generator, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})
}

// buildProviders instantiates the providers named in cfg using the registry.
// The generative provider is required; transcription and the generative
// fallback are optional. Every provider is wrapped in a circuit breaker so a
// failing backend is rested instead of being hit on every attempt, and
// instrumented so request counts, errors, and latency land in the metrics.
func buildProviders(cfg *config.Config, reg *config.Registry, met *observe.Metrics) (genai.Generator, stt.Transcriber, error) {
	primary, err := reg.CreateGenerator(cfg.Providers.Generative)
	if err != nil {
		return nil, nil, fmt.Errorf("create generative provider %q: %w", cfg.Providers.Generative.Name, err)
	}
	slog.Info("provider created", "kind", "generative", "name", cfg.Providers.Generative.Name)

	genFallback := resilience.NewGenAIFallback(primary, cfg.Providers.Generative.Name, resilience.FallbackConfig{},
		resilience.WithGenAIMetrics(met))
	if name := cfg.Providers.GenerativeFallback.Name; name != "" {
		secondary, err := reg.CreateGenerator(cfg.Providers.GenerativeFallback)
		if err != nil {
			return nil, nil, fmt.Errorf("create generative fallback provider %q: %w", name, err)
		}
		genFallback.AddFallback(name, secondary)
		slog.Info("provider created", "kind", "generative-fallback", "name", name)
	}

	var transcriber stt.Transcriber
	if name := cfg.Providers.Transcription.Name; name != "" {
		primary, err := reg.CreateTranscriber(cfg.Providers.Transcription)
		if err != nil {
			return nil, nil, fmt.Errorf("create transcription provider %q: %w", name, err)
		}
		transcriber = resilience.NewSTTFallback(primary, name, resilience.FallbackConfig{},
			resilience.WithSTTMetrics(met))
		slog.Info("provider created", "kind", "transcription", "name", name)
	}

	return genFallback, transcriber, nil
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
