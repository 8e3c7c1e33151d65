// Package cli builds an Assistant from configuration and drives it from
// the command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/adapters/bureau"
	"github.com/aretw0/lendflow/internal/adapters/crm"
	"github.com/aretw0/lendflow/internal/adapters/letter"
	"github.com/aretw0/lendflow/internal/adapters/llm"
	"github.com/aretw0/lendflow/internal/adapters/ocr"
	"github.com/aretw0/lendflow/internal/config"
	"github.com/aretw0/lendflow/internal/telemetry"
	"github.com/aretw0/lendflow/pkg/adapters/file"
	"github.com/aretw0/lendflow/pkg/adapters/memory"
	"github.com/aretw0/lendflow/pkg/adapters/redis"
	"github.com/aretw0/lendflow/pkg/adapters/sqlite"
	"github.com/aretw0/lendflow/pkg/persistence/middleware"
	"github.com/aretw0/lendflow/pkg/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// App is a configured Assistant plus the resources it holds open.
type App struct {
	Assistant *lendflow.Assistant
	Config    *config.Config
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger

	// store is the driver's store, beneath any middleware.
	store   ports.SessionStore
	closers []func(context.Context) error
}

// Close releases stores and flushes traces, in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// BuildOptions tweak Build for a particular command.
type BuildOptions struct {
	// TraceOutput receives exported spans when tracing is on. Defaults to stderr.
	TraceOutput io.Writer
}

// Build wires every collaborator named in cfg into an Assistant.
func Build(cfg *config.Config, logger *slog.Logger, bo BuildOptions) (*App, error) {
	app := &App{Config: cfg, Logger: logger}
	opts := []lendflow.Option{lendflow.WithLogger(logger)}

	// 1. Persistence
	store, log, err := app.openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	app.store = store
	var mws []middleware.Middleware
	if len(cfg.Privacy.PIIKeys) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Privacy.PIIKeys))
	}
	if cfg.Privacy.EncryptionKey != "" {
		active, fallback, err := cfg.Privacy.Keys()
		if err != nil {
			_ = app.Close(context.Background())
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	opts = append(opts, lendflow.WithStore(middleware.Chain(store, mws...)))
	if log != nil {
		opts = append(opts, lendflow.WithConversationLog(middleware.NewLogRedactor(nil)(log)))
	}

	if cfg.Lock.Enabled {
		rs, ok := store.(*redis.Store)
		if !ok {
			_ = app.Close(context.Background())
			return nil, errors.New("lock.enabled requires the redis store")
		}
		opts = append(opts, lendflow.WithLocker(redis.NewLocker(rs.Client(), cfg.Storage.Redis.Prefix), cfg.Lock.TTL))
	}

	// 2. Collaborators
	directory, err := newDirectory(cfg.CRM, logger)
	if err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	opts = append(opts,
		lendflow.WithDirectory(directory),
		lendflow.WithKYC(directory),
		lendflow.WithCreditBureau(newBureau(cfg.Bureau, directory, logger)),
		lendflow.WithDocumentGenerator(letter.New(cfg.Documents.Dir,
			letter.WithBaseURL(cfg.Documents.BaseURL),
			letter.WithCompany(cfg.Documents.Company),
			letter.WithLogger(logger),
		)),
		lendflow.WithFieldExtractor(ocr.New(ocr.WithLogger(logger))),
	)
	if cfg.Documents.Company != "" {
		opts = append(opts, lendflow.WithBrand("", cfg.Documents.Company))
	}
	if cfg.LLM.Enabled() {
		opts = append(opts, lendflow.WithComposer(newComposer(cfg, logger)))
		logger.Info("Reply composer enabled", "model", cfg.LLM.Model)
	}

	// 3. Telemetry
	chain := telemetry.LogHooks(logger)
	if cfg.Telemetry.Metrics {
		app.Metrics = telemetry.NewMetrics()
		chain = telemetry.Chain(chain, app.Metrics.Hooks())
	}
	opts = append(opts, lendflow.WithLifecycleHooks(chain))
	if cfg.Telemetry.Tracing {
		w := bo.TraceOutput
		if w == nil {
			w = os.Stderr
		}
		shutdown, err := telemetry.InitTracer(w, logger)
		if err != nil {
			_ = app.Close(context.Background())
			return nil, fmt.Errorf("failed to init tracing: %w", err)
		}
		app.closers = append(app.closers, shutdown)
		opts = append(opts, lendflow.WithTracer(telemetry.Tracer()))
	}

	app.Assistant = lendflow.New(opts...)
	return app, nil
}

// openStore returns the session store for the configured driver and, when the
// store keeps one, its conversation log.
func (a *App) openStore(cfg config.StorageConfig) (ports.SessionStore, ports.ConversationLog, error) {
	switch cfg.Driver {
	case config.DriverFile:
		s := file.New(cfg.File.Path)
		return s, s, nil
	case config.DriverRedis:
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithTTL(cfg.Redis.TTL),
			redis.WithPrefix(cfg.Redis.Prefix),
		)
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		return s, s, nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		s, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		return s, s, nil
	case config.DriverMemory, "":
		s := memory.NewStore()
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func newDirectory(cfg config.CRMConfig, logger *slog.Logger) (*crm.Directory, error) {
	opts := []crm.Option{crm.WithLogger(logger), crm.WithLatency(cfg.Latency)}
	if cfg.Customers == "" {
		return crm.Default(opts...), nil
	}
	d, err := crm.LoadFile(cfg.Customers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	return d, nil
}

func newBureau(cfg config.BureauConfig, directory ports.CustomerDirectory, logger *slog.Logger) *bureau.Bureau {
	opts := []bureau.Option{bureau.WithDirectory(directory), bureau.WithLogger(logger)}
	if cfg.URL != "" {
		opts = append(opts,
			bureau.WithEndpoint(cfg.URL, cfg.APIKey),
			bureau.WithHTTPClient(&http.Client{
				Timeout:   cfg.Timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			}),
		)
	}
	return bureau.New(opts...)
}

func newComposer(cfg *config.Config, logger *slog.Logger) *llm.Composer {
	return llm.New(llm.NewInstrumentedClient(cfg.LLM.APIKey, cfg.LLM.BaseURL),
		llm.WithModel(cfg.LLM.Model),
		llm.WithCompany(cfg.Documents.Company),
		llm.WithTemperatures(cfg.LLM.Conversational, cfg.LLM.Analytical),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithLogger(logger),
	)
}
