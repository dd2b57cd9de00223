package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

const defaultConcurrency = 4

// Mode is the orchestration variant selected by a scraper configuration.
type Mode int

const (
	// PageMode scrapes the configured URL and finds-or-creates one entity per record.
	PageMode Mode = iota
	// ItemMode repeats fetch and parse once per related object.
	ItemMode
)

func (m Mode) String() string {
	if m == ItemMode {
		return "item"
	}
	return "page"
}

// Deps wires the collaborators of a Scraper.
type Deps struct {
	Council     domain.Council
	Fetcher     ports.Fetcher
	Parser      ports.Parser
	Store       ports.EntityStore
	Logger      *slog.Logger
	Concurrency int
}

// Options controls a single Process call.
type Options struct {
	SaveResults bool
	// Objects overrides the related objects of an item scraper.
	Objects []domain.Entity
}

// Scraper drives fetch, parse and reconcile for one scraper configuration.
type Scraper struct {
	cfg         domain.ScraperConfig
	council     domain.Council
	fetcher     ports.Fetcher
	parser      ports.Parser
	store       ports.EntityStore
	logger      *slog.Logger
	concurrency int

	results        []domain.Entity
	parsingResults []domain.Record
	relatedObjects []domain.Entity
	errors         []string
}

// New validates cfg and binds it to its collaborators.
func New(cfg domain.ScraperConfig, deps Deps) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scraper config: %w", err)
	}
	if deps.Fetcher == nil || deps.Parser == nil || deps.Store == nil {
		return nil, errors.New("scraper requires fetcher, parser and store")
	}
	if deps.Council.ID != 0 && deps.Council.ID != cfg.CouncilID {
		return nil, fmt.Errorf("scraper belongs to council %d, got council %d", cfg.CouncilID, deps.Council.ID)
	}

	council := deps.Council
	council.ID = cfg.CouncilID

	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Scraper{
		cfg:         cfg,
		council:     council,
		fetcher:     deps.Fetcher,
		parser:      deps.Parser,
		store:       deps.Store,
		logger:      deps.Logger,
		concurrency: concurrency,
	}, nil
}

// Mode reports whether the scraper iterates related objects.
func (s *Scraper) Mode() Mode {
	if s.cfg.EffectiveRelatedModel() != "" {
		return ItemMode
	}
	return PageMode
}

// Process runs the scraper and returns it so results and errors can be inspected.
// Failures never escape: they are collected in Errors.
func (s *Scraper) Process(ctx context.Context, opts Options) *Scraper {
	s.results = nil
	s.parsingResults = nil
	s.relatedObjects = nil
	s.errors = nil

	rec := NewReconciler(s.store, s.cfg.CouncilID, opts.SaveResults, s.loggerWith("component", "reconciler"))

	s.debug("process", "title", s.Title(), "mode", s.Mode().String(), "save", opts.SaveResults)
	switch s.Mode() {
	case ItemMode:
		s.processItems(ctx, opts, rec)
	default:
		s.processPage(ctx, rec)
	}

	for _, err := range rec.Commit(ctx) {
		s.addError(err)
	}

	s.debug("processed", "title", s.Title(), "results", len(s.results), "errors", len(s.errors))
	return s
}

func (s *Scraper) processPage(ctx context.Context, rec *Reconciler) {
	target, err := s.resolveURL(s.cfg.URL)
	if err != nil {
		s.addError(err)
		return
	}

	records, err := s.fetchAndParse(ctx, target)
	if err != nil {
		s.addError(err)
		return
	}

	for _, record := range records {
		if record.Len() == 0 {
			continue
		}
		s.parsingResults = append(s.parsingResults, record)

		entity, err := rec.Reconcile(ctx, record, s.cfg.ResultModel, nil)
		if err != nil {
			s.addError(err)
			continue
		}
		s.results = append(s.results, entity)
	}
}

// fetchAndParse retrieves target and hands it to the parser, normalizing failures into the
// scraper error lineage.
func (s *Scraper) fetchAndParse(ctx context.Context, target string) ([]domain.Record, error) {
	s.debug("fetch", "url", target)
	raw, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		if !domain.IsScraperError(err) {
			err = domain.NewRequestError(target, 0, err)
		}
		return nil, err
	}

	records, err := s.parse(raw)
	if err != nil {
		if !domain.IsScraperError(err) {
			err = domain.NewParsingError(fmt.Sprintf("problem parsing %s", target), err)
		}
		return nil, err
	}
	s.debug("parsed", "url", target, "records", len(records))
	return records, nil
}

func (s *Scraper) parse(raw []byte) (records []domain.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = domain.NewParsingError("parser failed", fmt.Errorf("%v", r))
		}
	}()
	return s.parser.Parse(raw)
}

// resolveURL makes relative targets absolute against the council's url.
func (s *Scraper) resolveURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	target, err := url.Parse(raw)
	if err != nil {
		return "", domain.NewRequestError(raw, 0, fmt.Errorf("invalid url: %w", err))
	}
	if target.IsAbs() || s.council.URL == "" {
		return raw, nil
	}
	base, err := url.Parse(s.council.URL)
	if err != nil {
		return "", domain.NewRequestError(raw, 0, fmt.Errorf("invalid council url %s: %w", s.council.URL, err))
	}
	return base.ResolveReference(target).String(), nil
}

func (s *Scraper) addError(err error) {
	if err == nil {
		return
	}
	s.errors = append(s.errors, err.Error())
	if s.logger != nil {
		s.logger.Warn("scraper error", "title", s.Title(), "error", err)
	}
}

// Title names the scraper after its result model and council.
func (s *Scraper) Title() string { return s.cfg.Title(s.council) }

// Results are the reconciled entities of the last run in parse order.
func (s *Scraper) Results() []domain.Entity { return s.results }

// ParsingResults are the raw records of the last run before reconciliation.
func (s *Scraper) ParsingResults() []domain.Record { return s.parsingResults }

// RelatedObjects are the objects iterated by the last item-mode run.
func (s *Scraper) RelatedObjects() []domain.Entity { return s.relatedObjects }

// Errors are the failure messages of the last run.
func (s *Scraper) Errors() []string { return s.errors }

func (s *Scraper) loggerWith(args ...interface{}) *slog.Logger {
	if s.logger == nil {
		return nil
	}
	return s.logger.With(args...)
}

func (s *Scraper) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
