package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gopkg.in/yaml.v3"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

var _ ports.ScraperRepository = (*SQLStore)(nil)

// SaveScraper validates cfg and stores it together with its parser recipe.
func (s *SQLStore) SaveScraper(ctx context.Context, cfg *domain.ScraperConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid scraper: %w", err)
	}

	parser, err := yaml.Marshal(cfg.Parser)
	if err != nil {
		return fmt.Errorf("encode parser config: %w", err)
	}

	values := map[string]interface{}{
		"council_id":    cfg.CouncilID,
		"kind":          string(cfg.EffectiveKind()),
		"url":           cfg.URL,
		"result_model":  string(cfg.ResultModel),
		"related_model": string(cfg.RelatedModel),
		"parser":        string(parser),
	}

	if cfg.ID == 0 {
		id, err := s.insertReturningID(ctx, s.sb.Insert("scrapers").SetMap(values))
		if err != nil {
			return fmt.Errorf("insert scraper: %w", err)
		}
		cfg.ID = id
		return nil
	}

	if err := s.exec(ctx, s.sb.Update("scrapers").SetMap(values).Where(sq.Eq{"id": cfg.ID})); err != nil {
		return fmt.Errorf("update scraper %d: %w", cfg.ID, err)
	}
	return nil
}

// ScrapersForCouncil lists the council's scrapers in creation order.
func (s *SQLStore) ScrapersForCouncil(ctx context.Context, councilID int64) ([]domain.ScraperConfig, error) {
	query, args, err := s.sb.
		Select("id", "council_id", "kind", "url", "result_model", "related_model", "parser").
		From("scrapers").
		Where(sq.Eq{"council_id": councilID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build scrapers query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scrapers: %w", err)
	}
	defer rows.Close()

	var configs []domain.ScraperConfig
	for rows.Next() {
		var (
			cfg                         domain.ScraperConfig
			kind, result, related, recp string
		)
		if err := rows.Scan(&cfg.ID, &cfg.CouncilID, &kind, &cfg.URL, &result, &related, &recp); err != nil {
			return nil, fmt.Errorf("scan scraper: %w", err)
		}
		cfg.Kind = domain.ScraperKind(kind)
		cfg.ResultModel = domain.EntityKind(result)
		cfg.RelatedModel = domain.EntityKind(related)
		if err := yaml.Unmarshal([]byte(recp), &cfg.Parser); err != nil {
			return nil, fmt.Errorf("decode parser of scraper %d: %w", cfg.ID, err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return configs, nil
}
