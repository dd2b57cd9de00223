package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/parsing"
	"CouncilScraper/internal/ports"
	"CouncilScraper/internal/scraper"
)

// RunnerDeps wires all driven adapters into the scraping runner.
type RunnerDeps struct {
	Councils    ports.CouncilRepository
	Scrapers    ports.ScraperRepository
	Store       ports.EntityStore
	Fetcher     ports.Fetcher
	Parsers     *parsing.Registry
	Notifier    ports.Notifier
	Logger      *slog.Logger
	Concurrency int
}

// Report summarizes one scraper run.
type Report struct {
	ScraperID int64
	Council   string
	Title     string
	Target    string
	Results   int
	Invalid   int
	Saved     bool
	Errors    []string
}

// Failed reports whether the run recorded any scraper error.
func (r Report) Failed() bool {
	return len(r.Errors) > 0
}

// Runner drives every configured scraper of a council and collects reports.
type Runner struct {
	councils    ports.CouncilRepository
	scrapers    ports.ScraperRepository
	store       ports.EntityStore
	fetcher     ports.Fetcher
	parsers     *parsing.Registry
	notifier    ports.Notifier
	logger      *slog.Logger
	concurrency int
}

// NewRunner constructs the orchestration component.
func NewRunner(deps RunnerDeps) *Runner {
	return &Runner{
		councils:    deps.Councils,
		scrapers:    deps.Scrapers,
		store:       deps.Store,
		fetcher:     deps.Fetcher,
		parsers:     deps.Parsers,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		concurrency: deps.Concurrency,
	}
}

// RunCouncil processes the scrapers of one council and publishes the digest.
func (r *Runner) RunCouncil(ctx context.Context, councilID int64, save bool) ([]Report, error) {
	council, err := r.councils.Council(ctx, councilID)
	if err != nil {
		return nil, fmt.Errorf("load council: %w", err)
	}

	reports, err := r.runCouncil(ctx, council, save)
	if err != nil {
		return nil, err
	}
	return reports, r.publish(ctx, reports)
}

// RunAll processes every council in turn. One council's failures never stop the others.
func (r *Runner) RunAll(ctx context.Context, save bool) ([]Report, error) {
	councils, err := r.councils.Councils(ctx)
	if err != nil {
		return nil, fmt.Errorf("load councils: %w", err)
	}

	r.debug("run all", "councils", len(councils), "save", save)

	var all []Report
	for _, council := range councils {
		reports, err := r.runCouncil(ctx, council, save)
		if err != nil {
			all = append(all, Report{Council: council.Name, Title: council.Name, Errors: []string{err.Error()}})
			continue
		}
		all = append(all, reports...)
	}

	return all, r.publish(ctx, all)
}

func (r *Runner) runCouncil(ctx context.Context, council domain.Council, save bool) ([]Report, error) {
	configs, err := r.scrapers.ScrapersForCouncil(ctx, council.ID)
	if err != nil {
		return nil, fmt.Errorf("load scrapers for %s: %w", council.Name, err)
	}

	r.debug("process council", "council", council.Name, "scrapers", len(configs))

	reports := make([]Report, 0, len(configs))
	for _, cfg := range configs {
		reports = append(reports, r.runScraper(ctx, council, cfg, save))
	}
	return reports, nil
}

// runScraper turns configuration problems into report errors so the batch keeps going.
func (r *Runner) runScraper(ctx context.Context, council domain.Council, cfg domain.ScraperConfig, save bool) Report {
	report := Report{
		ScraperID: cfg.ID,
		Council:   council.Name,
		Title:     cfg.Title(council),
		Target:    cfg.ScrapingFor(),
		Saved:     save,
	}

	parser, err := r.parsers.Build(cfg.Parser)
	if err != nil {
		report.Errors = []string{err.Error()}
		return report
	}

	s, err := scraper.New(cfg, scraper.Deps{
		Council:     council,
		Fetcher:     r.fetcher,
		Parser:      parser,
		Store:       r.store,
		Logger:      r.loggerWith("component", "scraper", "scraper_id", cfg.ID),
		Concurrency: r.concurrency,
	})
	if err != nil {
		report.Errors = []string{err.Error()}
		return report
	}

	s.Process(ctx, scraper.Options{SaveResults: save})

	report.Results = len(s.Results())
	for _, entity := range s.Results() {
		if !entity.Errors().Empty() {
			report.Invalid++
		}
	}
	report.Errors = s.Errors()

	r.debug("scraper done", "title", report.Title, "results", report.Results, "invalid", report.Invalid, "errors", len(report.Errors))
	return report
}

func (r *Runner) publish(ctx context.Context, reports []Report) error {
	if r.notifier == nil || len(reports) == 0 {
		return nil
	}
	if err := r.notifier.PublishDigest(ctx, BuildDigest(reports)); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}
	return nil
}

// BuildDigest renders reports as a plain-text message.
func BuildDigest(reports []Report) string {
	var b strings.Builder
	for _, report := range reports {
		fmt.Fprintf(&b, "- %s\n", report.Title)
		if report.Target != "" {
			fmt.Fprintf(&b, "Scraping: %s\n", report.Target)
		}
		fmt.Fprintf(&b, "Results: %d (invalid %d)\n", report.Results, report.Invalid)
		for _, msg := range report.Errors {
			fmt.Fprintf(&b, "Error: %s\n", msg)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Runner) loggerWith(args ...interface{}) *slog.Logger {
	if r.logger == nil {
		return nil
	}
	return r.logger.With(args...)
}

func (r *Runner) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
