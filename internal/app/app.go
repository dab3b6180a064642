package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"Herald/internal/config"
	"Herald/internal/httpapi"
	"Herald/internal/infrastructure/email"
	"Herald/internal/infrastructure/llm"
	"Herald/internal/infrastructure/scheduler"
	"Herald/internal/infrastructure/sendfox"
	"Herald/internal/infrastructure/storage"
	"Herald/internal/infrastructure/storage/memory"
	"Herald/internal/logging"
	"Herald/internal/ports"
	"Herald/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	handler   http.Handler
	scheduler *usecase.Scheduler
}

// New builds the application: store, external clients, use cases and the HTTP API.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	a := &Application{cfg: cfg, logger: logging.Component(baseLogger, "app")}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	var completer ports.Completer
	if cfg.LLM.APIKey != "" {
		completer = llm.NewChatGPTClient(cfg.LLM)
	} else {
		a.logger.Info("no completion API key, generating fallback copy")
	}

	var lists ports.ListDirectory
	if cfg.SendFox.APIKey != "" {
		lists = sendfox.NewClient(cfg.SendFox)
	}

	mailer := email.NewSender(cfg.Email)

	content := usecase.NewContentAggregator(store, cfg.Content, time.Now, baseLogger)
	synth := usecase.NewIntelligenceSynthesizer(store, time.Now, baseLogger)
	copyGen := usecase.NewCopyGenerator(completer, baseLogger)
	aggregator := usecase.NewIntelligenceAggregator(store, store, store, cfg.Intelligence, time.Now, baseLogger)
	agents := usecase.NewAgentExecutor(usecase.AgentExecutorDeps{
		Synthesizer: synth,
		Copy:        copyGen,
		Intel:       store,
		Tasks:       store,
		Logger:      baseLogger,
	})
	generator := usecase.NewGenerator(usecase.GeneratorDeps{
		Content:     content,
		Synthesizer: synth,
		Copy:        copyGen,
		Editions:    store,
		Limits:      cfg.Content,
		Editorial:   cfg.Editorial,
		Logger:      baseLogger,
	})
	editorial := usecase.NewEditorialWorkflow(usecase.EditorialDeps{
		Editions:  store,
		Mailer:    mailer,
		Copy:      copyGen,
		Editorial: cfg.Editorial,
		Email:     cfg.Email,
		Logger:    baseLogger,
	})
	dispatcher := usecase.NewDispatcher(usecase.DispatcherDeps{
		Aggregator: aggregator,
		Agents:     agents,
		Generator:  generator,
		Tasks:      store,
		Scheduler:  cfg.Scheduler,
		Lists:      cfg.SendFox.Lists,
		Logger:     baseLogger,
	})

	a.handler = httpapi.NewHandler(httpapi.Deps{
		Generator:  generator,
		Editorial:  editorial,
		Handoff:    usecase.NewListHandoff(store, lists, cfg.SendFox, baseLogger),
		Lifecycle:  usecase.NewEditionLifecycle(store),
		Exporter:   usecase.NewExporter(store),
		Agents:     agents,
		Aggregator: aggregator,
		Dispatcher: dispatcher,
		Logger:     baseLogger,
	}).Routes()

	if cfg.Scheduler.Enabled {
		a.scheduler = usecase.NewScheduler(scheduler.NewHourlyScheduler(), dispatcher, baseLogger)
	}
	return a, nil
}

func (a *Application) openStore(ctx context.Context) (ports.Store, error) {
	dsn := strings.TrimSpace(a.cfg.Database.DSN)
	switch dsn {
	case config.MemoryDSN:
		a.logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(time.Now), nil
	case "":
		a.logger.Warn("no database configured, store-backed requests will fail")
		return storage.NewPostgresStore(nil, a.cfg.Database.QueryTimeout), nil
	}

	db, err := storage.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if a.cfg.Database.MigrateOnStart {
		if err := storage.Migrate(db, logging.Component(a.logger, "migrate")); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	a.db = db
	return storage.NewPostgresStore(db, a.cfg.Database.QueryTimeout), nil
}

// Handler exposes the HTTP API.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Run serves the API and, when enabled, the hourly scheduler until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("scheduler started", "timezone", a.cfg.Scheduler.Location().String())
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.handler,
		ReadTimeout:       a.cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: a.cfg.HTTP.ReadTimeout,
		WriteTimeout:      a.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			a.logger.Warn("stop scheduler", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	a.logger.Info("http server stopped")
	return nil
}

func (a *Application) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
}
