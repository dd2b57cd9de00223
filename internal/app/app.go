package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"CouncilScraper/internal/config"
	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/infrastructure/fetcher"
	"CouncilScraper/internal/infrastructure/parser"
	"CouncilScraper/internal/infrastructure/scheduler"
	"CouncilScraper/internal/infrastructure/storage"
	"CouncilScraper/internal/infrastructure/telegram"
	"CouncilScraper/internal/logging"
	"CouncilScraper/internal/parsing"
	"CouncilScraper/internal/ports"
	"CouncilScraper/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLStore
	runner    *usecase.Runner
	seeder    *usecase.Seeder
	scheduler *usecase.Scheduler
}

// New opens the store and builds every component from cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	registry := parsing.NewRegistry()
	parser.Register(registry)

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram); tg.Configured() {
		notifier = tg
	}

	runner := usecase.NewRunner(usecase.RunnerDeps{
		Councils:    store,
		Scrapers:    store,
		Store:       store,
		Fetcher:     fetcher.NewHTTPFetcher(cfg.Fetcher, baseLogger.With("component", "fetcher")),
		Parsers:     registry,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "runner"),
		Concurrency: cfg.Scraping.Concurrency,
	})

	seeder := usecase.NewSeeder(store, store, func(err error) bool {
		return errors.Is(err, storage.ErrNotFound)
	}, baseLogger.With("component", "seed"))

	sched := usecase.NewScheduler(
		scheduler.NewTickerScheduler(cfg.Scheduler.Interval),
		runner,
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		runner:    runner,
		seeder:    seeder,
		scheduler: sched,
	}, nil
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}

// Migrate creates the schema.
func (a *Application) Migrate(ctx context.Context) error {
	return a.store.Migrate(ctx)
}

// Seed loads the configured councils and scrapers.
func (a *Application) Seed(ctx context.Context) (usecase.SeedResult, error) {
	return a.seeder.Seed(ctx, SeedPlans(a.cfg.Councils))
}

// Run processes one council by name, or all councils when name is empty.
func (a *Application) Run(ctx context.Context, councilName string, save bool) ([]usecase.Report, error) {
	if councilName == "" {
		return a.runner.RunAll(ctx, save)
	}

	council, err := a.store.CouncilByName(ctx, councilName)
	if err != nil {
		return nil, err
	}
	return a.runner.RunCouncil(ctx, council.ID, save)
}

// Schedule starts recurring runs and blocks until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()

	return a.scheduler.Stop(context.Background())
}

// SeedPlans converts config seed data into domain values.
func SeedPlans(councils []config.CouncilConfig) []usecase.SeedPlan {
	plans := make([]usecase.SeedPlan, 0, len(councils))
	for _, c := range councils {
		plan := usecase.SeedPlan{
			Council: domain.Council{Name: c.Name, URL: c.URL, WikipediaURL: c.WikipediaURL},
		}
		for _, s := range c.Scrapers {
			plan.Scrapers = append(plan.Scrapers, domain.ScraperConfig{
				Kind:         domain.ScraperKind(s.Kind),
				URL:          s.URL,
				ResultModel:  domain.EntityKind(s.ResultModel),
				RelatedModel: domain.EntityKind(s.RelatedModel),
				Parser:       parserConfig(s.Parser),
			})
		}
		plans = append(plans, plan)
	}
	return plans
}

func parserConfig(p config.ParserConfig) domain.ParserConfig {
	out := domain.ParserConfig{Kind: p.Kind, ItemSelector: p.ItemSelector, Options: p.Options}
	for _, f := range p.Fields {
		out.Fields = append(out.Fields, domain.FieldRule{
			Name:       f.Name,
			Selector:   f.Selector,
			Attr:       f.Attr,
			Pattern:    f.Pattern,
			TrimPrefix: f.TrimPrefix,
		})
	}
	return out
}
