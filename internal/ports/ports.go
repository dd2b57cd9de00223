package ports

import (
	"context"
	"time"

	"CouncilScraper/internal/domain"
)

// Fetcher retrieves raw page content; transport failures surface as *domain.RequestError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser turns raw content into ordered records; failures surface as *domain.ParsingError.
type Parser interface {
	Parse(raw []byte) ([]domain.Record, error)
}

// EntityStore is the persistence contract the reconciler depends on.
type EntityStore interface {
	// RelatedObjects lists persisted entities of kind belonging to council, ordered by id.
	RelatedObjects(ctx context.Context, councilID int64, kind domain.EntityKind) ([]domain.Entity, error)
	// FindOrBuild returns the stored entity matching key, or a new unsaved one.
	FindOrBuild(ctx context.Context, councilID int64, kind domain.EntityKind, key string) (domain.Entity, error)
	Save(ctx context.Context, entity domain.Entity) error
}

// CouncilRepository persists councils.
type CouncilRepository interface {
	SaveCouncil(ctx context.Context, council *domain.Council) error
	Council(ctx context.Context, id int64) (domain.Council, error)
	CouncilByName(ctx context.Context, name string) (domain.Council, error)
	Councils(ctx context.Context) ([]domain.Council, error)
}

// ScraperRepository persists scraper configurations with their parser recipes.
type ScraperRepository interface {
	SaveScraper(ctx context.Context, cfg *domain.ScraperConfig) error
	ScrapersForCouncil(ctx context.Context, councilID int64) ([]domain.ScraperConfig, error)
}

// Notifier publishes run digests to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when scraping runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
