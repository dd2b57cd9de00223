package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

// SeedPlan is one council with the scrapers it should own.
type SeedPlan struct {
	Council  domain.Council
	Scrapers []domain.ScraperConfig
}

// SeedResult counts what a seed run created.
type SeedResult struct {
	Councils int
	Scrapers int
}

// Seeder loads councils and scraper configurations into the store. Re-running it is a no-op.
type Seeder struct {
	councils ports.CouncilRepository
	scrapers ports.ScraperRepository
	notFound func(error) bool
	logger   *slog.Logger
}

// NewSeeder builds a seeder; notFound classifies the repository's missing-council error.
func NewSeeder(councils ports.CouncilRepository, scrapers ports.ScraperRepository, notFound func(error) bool, logger *slog.Logger) *Seeder {
	return &Seeder{councils: councils, scrapers: scrapers, notFound: notFound, logger: logger}
}

// Seed creates missing councils and the scrapers they do not have yet.
func (s *Seeder) Seed(ctx context.Context, plans []SeedPlan) (SeedResult, error) {
	var result SeedResult
	for _, plan := range plans {
		council, created, err := s.council(ctx, plan.Council)
		if err != nil {
			return result, err
		}
		if created {
			result.Councils++
		}

		existing, err := s.scrapers.ScrapersForCouncil(ctx, council.ID)
		if err != nil {
			return result, fmt.Errorf("load scrapers for %s: %w", council.Name, err)
		}

		for _, cfg := range plan.Scrapers {
			cfg.CouncilID = council.ID
			if containsScraper(existing, cfg) {
				continue
			}
			if err := s.scrapers.SaveScraper(ctx, &cfg); err != nil {
				return result, fmt.Errorf("seed %s: %w", cfg.Title(council), err)
			}
			existing = append(existing, cfg)
			result.Scrapers++
			if s.logger != nil {
				s.logger.Info("scraper seeded", "council", council.Name, "title", cfg.Title(council), "id", cfg.ID)
			}
		}
	}
	return result, nil
}

func (s *Seeder) council(ctx context.Context, want domain.Council) (domain.Council, bool, error) {
	found, err := s.councils.CouncilByName(ctx, want.Name)
	if err == nil {
		return found, false, nil
	}
	if s.notFound == nil || !s.notFound(err) {
		return domain.Council{}, false, fmt.Errorf("lookup council %s: %w", want.Name, err)
	}

	if err := s.councils.SaveCouncil(ctx, &want); err != nil {
		return domain.Council{}, false, fmt.Errorf("save council %s: %w", want.Name, err)
	}
	if s.logger != nil {
		s.logger.Info("council seeded", "council", want.Name, "id", want.ID)
	}
	return want, true, nil
}

func containsScraper(existing []domain.ScraperConfig, cfg domain.ScraperConfig) bool {
	for _, e := range existing {
		if e.EffectiveKind() == cfg.EffectiveKind() &&
			e.URL == cfg.URL &&
			e.ResultModel == cfg.ResultModel &&
			e.RelatedModel == cfg.RelatedModel &&
			e.Parser.Kind == cfg.Parser.Kind {
			return true
		}
	}
	return false
}
