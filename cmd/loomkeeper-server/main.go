// Command loomkeeper-server is the entry point for the loomkeeper TTRPG
// arbitration server: it loads configuration, wires storage, the pipeline
// workers, and the WebSocket session layer, then serves until signalled.
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

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/duskward/loomkeeper/internal/clockrand"
	"github.com/duskward/loomkeeper/internal/condition"
	"github.com/duskward/loomkeeper/internal/config"
	"github.com/duskward/loomkeeper/internal/conversation"
	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/health"
	"github.com/duskward/loomkeeper/internal/ids"
	"github.com/duskward/loomkeeper/internal/imagegen"
	llm "github.com/duskward/loomkeeper/internal/llmprovider"
	"github.com/duskward/loomkeeper/internal/llmprovider/anyllm"
	"github.com/duskward/loomkeeper/internal/mcp"
	"github.com/duskward/loomkeeper/internal/mcp/mcphost"
	"github.com/duskward/loomkeeper/internal/mcp/tools/diceroller"
	"github.com/duskward/loomkeeper/internal/mcp/tools/ruleslookup"
	"github.com/duskward/loomkeeper/internal/observe"
	"github.com/duskward/loomkeeper/internal/queue"
	"github.com/duskward/loomkeeper/internal/repo/pgrepo"
	"github.com/duskward/loomkeeper/internal/scene"
	"github.com/duskward/loomkeeper/internal/staging"
	"github.com/duskward/loomkeeper/internal/timeservice"
	"github.com/duskward/loomkeeper/internal/usecase"
	"github.com/duskward/loomkeeper/internal/visualstate"
	"github.com/duskward/loomkeeper/internal/worker"
	"github.com/duskward/loomkeeper/internal/wsapi"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "loomkeeper: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "loomkeeper: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)
	slog.Info("loomkeeper starting", "config", *configPath, "listen_addr", cfg.Server.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "loomkeeper",
	})
	if err != nil {
		slog.Error("failed to init telemetry", "err", err)
		return 1
	}
	defer shutdownTracing(context.Background())

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to init metrics", "err", err)
		return 1
	}

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	llmProvider, err := buildLLMProvider(reg, cfg.Providers.LLM)
	if err != nil {
		slog.Error("failed to build llm provider", "err", err)
		return 1
	}
	imageGenProvider, err := buildImageGenProvider(reg, cfg.Providers.ImageGen)
	if err != nil {
		slog.Error("failed to build image-gen provider", "err", err)
		return 1
	}

	if cfg.Storage.PostgresDSN == "" {
		slog.Error("storage.postgres_dsn is required")
		return 1
	}
	repository, pgStore, err := pgrepo.Open(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		slog.Error("failed to open graph store", "err", err)
		return 1
	}

	mcpHost := mcphost.New()
	if err := registerBuiltinTools(mcpHost); err != nil {
		slog.Error("failed to register builtin mcp tools", "err", err)
		return 1
	}
	for _, srv := range cfg.MCP.Servers {
		if err := mcpHost.RegisterServer(ctx, mcp.ServerConfig{
			Name:      srv.Name,
			Transport: srv.Transport,
			Command:   srv.Command,
			URL:       srv.URL,
			Env:       srv.Env,
		}); err != nil {
			slog.Error("failed to register mcp server", "name", srv.Name, "err", err)
			return 1
		}
	}

	clock := clockrand.SystemClock{}
	bus := eventbus.New()
	pipeline := queue.NewPipeline()

	sceneResolver := scene.New(repository, condition.New(llmProvider))
	visualResolver := visualstate.New(condition.New(llmProvider))
	stagingService := staging.New(repository, llmProvider, clock, bus)
	timeService := timeservice.New(repository, clock, bus)
	assembler := conversation.New(llmProvider)

	uc := usecase.New(repository, stagingService, sceneResolver, visualResolver, timeService, pipeline, bus, clock)

	worlds, thresholds, err := loadWorlds(ctx, repository, cfg.Worlds)
	if err != nil {
		slog.Error("failed to load world configs", "err", err)
		return 1
	}
	for worldID, wc := range worlds {
		if wc.Time.Mode == string(domain.TimeModeRealTime) {
			go timeService.RunRealTime(ctx, worldID, time.Minute)
		}
	}

	supervisor := &worker.Supervisor{
		Pipeline:  pipeline,
		QueueCfg:  cfg.Queues,
		Repo:      repository,
		Scene:     sceneResolver,
		Visual:    visualResolver,
		Assembler: assembler,
		Session:   pgStore.L1(),
		LLM:       llmProvider,
		ImageGen:  imageGenProvider,
		MCP:       mcpHost,
		Bus:       bus,
		Clock:     clock,
		Worlds:    worlds,
	}

	wsServer := wsapi.NewServer(uc, thresholds)

	healthHandler := health.New(health.Checker{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			_, err := repository.GetWorld(ctx, firstWorldID(worlds))
			return err
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWS)
	healthHandler.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: observe.Middleware(metrics)(mux),
	}

	var wg errgroup.Group
	wg.Go(func() error { return supervisor.Run(ctx) })
	wg.Go(func() error {
		slog.Info("http server listening", "addr", cfg.Server.ListenAddr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	<-ctx.Done()
	slog.Info("shutdown signal received, stopping…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "err", err)
	}

	if err := wg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// loadWorlds converts every configured world into the domain shape,
// seeding a fresh World row when one does not yet exist, and returns both
// the config lookup table internal/worker needs and the disposition
// threshold lookup table internal/wsapi needs.
func loadWorlds(ctx context.Context, repository worldStore, entries []config.WorldConfig) (map[ids.WorldID]config.WorldConfig, map[ids.WorldID][]domain.DispositionThreshold, error) {
	worlds := make(map[ids.WorldID]config.WorldConfig, len(entries))
	thresholds := make(map[ids.WorldID][]domain.DispositionThreshold, len(entries))

	for _, wc := range entries {
		worldID, err := ids.ParseWorldID(wc.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("world %q: %w", wc.ID, err)
		}
		worlds[worldID] = wc

		dth := make([]domain.DispositionThreshold, len(wc.DispositionThresholds))
		for i, t := range wc.DispositionThresholds {
			dth[i] = domain.DispositionThreshold{MinPoints: t.MinPoints, Level: t.Level}
		}
		thresholds[worldID] = dth

		actionCosts := make(map[string]int64, len(wc.Time.ActionCostMinutes))
		for k, v := range wc.Time.ActionCostMinutes {
			actionCosts[k] = int64(v) * 60
		}
		timeConfig := domain.TimeConfig{
			Mode:          domain.TimeMode(wc.Time.Mode),
			ActionCosts:   actionCosts,
			RealTimeScale: wc.Time.RealTimeScale,
		}

		if _, err := repository.GetWorld(ctx, worldID); err != nil {
			world := domain.World{ID: worldID, Name: wc.Name, TimeConfig: timeConfig}
			if err := repository.SaveWorld(ctx, world); err != nil {
				return nil, nil, fmt.Errorf("world %q: seed: %w", wc.ID, err)
			}
			// TODO: bulk-load wc.SeedFile (regions, locations, NPCs) once a
			// world-seed YAML format is defined.
		}
	}
	return worlds, thresholds, nil
}

type worldStore interface {
	GetWorld(ctx context.Context, id ids.WorldID) (domain.World, error)
	SaveWorld(ctx context.Context, w domain.World) error
}

func firstWorldID(worlds map[ids.WorldID]config.WorldConfig) ids.WorldID {
	for id := range worlds {
		return id
	}
	return ids.WorldID{}
}

// registerBuiltinProviders wires the concrete LLM factories this binary
// ships with into reg.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterLLM("openai", func(e config.ProviderEntry) (llm.Provider, error) {
		return anyllm.NewOpenAI(e.Model, llmOpts(e)...)
	})
	reg.RegisterLLM("anthropic", func(e config.ProviderEntry) (llm.Provider, error) {
		return anyllm.NewAnthropic(e.Model, llmOpts(e)...)
	})
	reg.RegisterLLM("ollama", func(e config.ProviderEntry) (llm.Provider, error) {
		return anyllm.NewOllama(e.Model, llmOpts(e)...)
	})
}

// registerBuiltinTools wires the in-process dice-roller and rules-lookup
// tools into host so the dm-action pipeline stage (internal/worker) can
// offer them to the LLM alongside any configured external MCP servers.
func registerBuiltinTools(host *mcphost.Host) error {
	for _, t := range diceroller.Tools() {
		if err := host.RegisterBuiltin(mcphost.BuiltinTool{
			Definition:  t.Definition,
			Handler:     t.Handler,
			DeclaredP50: t.DeclaredP50,
			DeclaredMax: t.DeclaredMax,
		}); err != nil {
			return fmt.Errorf("register diceroller tool %q: %w", t.Definition.Name, err)
		}
	}
	for _, t := range ruleslookup.Tools() {
		if err := host.RegisterBuiltin(mcphost.BuiltinTool{
			Definition:  t.Definition,
			Handler:     t.Handler,
			DeclaredP50: t.DeclaredP50,
			DeclaredMax: t.DeclaredMax,
		}); err != nil {
			return fmt.Errorf("register ruleslookup tool %q: %w", t.Definition.Name, err)
		}
	}
	return nil
}

func llmOpts(e config.ProviderEntry) []anyllmlib.Option {
	var opts []anyllmlib.Option
	if e.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
	}
	if e.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
	}
	return opts
}

func buildLLMProvider(reg *config.Registry, entry config.ProviderEntry) (llm.Provider, error) {
	if entry.Name == "" {
		return nil, fmt.Errorf("providers.llm.name is required")
	}
	p, err := reg.CreateLLM(entry)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", entry.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", entry.Name)
	return p, nil
}

// buildImageGenProvider returns nil when unconfigured: image-generation
// backends are out of scope (see DESIGN.md); worker.Supervisor treats a nil
// ImageGen as "asset-generation items fail permanently."
func buildImageGenProvider(reg *config.Registry, entry config.ProviderEntry) (imagegen.Provider, error) {
	if entry.Name == "" {
		return nil, nil
	}
	p, err := reg.CreateImageGen(entry)
	if err != nil {
		return nil, fmt.Errorf("create image-gen provider %q: %w", entry.Name, err)
	}
	return p, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
