package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

var _ ports.CouncilRepository = (*SQLStore)(nil)

// SaveCouncil inserts or updates council after checking presence and name uniqueness.
// Validation failures are returned as domain.ValidationErrors.
func (s *SQLStore) SaveCouncil(ctx context.Context, council *domain.Council) error {
	if !council.Validate() {
		return council.Errors()
	}

	var clash int64
	query, args, err := s.sb.Select("id").From("councils").
		Where(sq.And{sq.Eq{"name": council.Name}, sq.NotEq{"id": council.ID}}).
		Limit(1).ToSql()
	if err != nil {
		return fmt.Errorf("build council lookup: %w", err)
	}
	switch err := s.db.QueryRowContext(ctx, query, args...).Scan(&clash); {
	case err == nil:
		council.Errors().Add("name", "has already been taken")
		return council.Errors()
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check council name: %w", err)
	}

	if council.ID == 0 {
		id, err := s.insertReturningID(ctx, s.sb.Insert("councils").
			Columns("name", "url", "wikipedia_url").
			Values(council.Name, council.URL, council.WikipediaURL))
		if err != nil {
			return fmt.Errorf("insert council: %w", err)
		}
		council.ID = id
		return nil
	}

	err = s.exec(ctx, s.sb.Update("councils").
		SetMap(map[string]interface{}{
			"name":          council.Name,
			"url":           council.URL,
			"wikipedia_url": council.WikipediaURL,
		}).
		Where(sq.Eq{"id": council.ID}))
	if err != nil {
		return fmt.Errorf("update council %d: %w", council.ID, err)
	}
	return nil
}

// Council loads a council by id.
func (s *SQLStore) Council(ctx context.Context, id int64) (domain.Council, error) {
	return s.oneCouncil(ctx, sq.Eq{"id": id})
}

// CouncilByName loads a council by its unique name.
func (s *SQLStore) CouncilByName(ctx context.Context, name string) (domain.Council, error) {
	return s.oneCouncil(ctx, sq.Eq{"name": name})
}

// Councils lists all councils ordered by name.
func (s *SQLStore) Councils(ctx context.Context) ([]domain.Council, error) {
	query, args, err := s.councilSelect().OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build councils query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query councils: %w", err)
	}
	defer rows.Close()

	var councils []domain.Council
	for rows.Next() {
		var c domain.Council
		if err := rows.Scan(&c.ID, &c.Name, &c.URL, &c.WikipediaURL); err != nil {
			return nil, fmt.Errorf("scan council: %w", err)
		}
		councils = append(councils, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return councils, nil
}

func (s *SQLStore) councilSelect() sq.SelectBuilder {
	return s.sb.Select("id", "name", "url", "wikipedia_url").From("councils")
}

func (s *SQLStore) oneCouncil(ctx context.Context, where sq.Eq) (domain.Council, error) {
	query, args, err := s.councilSelect().Where(where).ToSql()
	if err != nil {
		return domain.Council{}, fmt.Errorf("build council query: %w", err)
	}

	var c domain.Council
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Name, &c.URL, &c.WikipediaURL)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Council{}, fmt.Errorf("council %v: %w", where, ErrNotFound)
	}
	if err != nil {
		return domain.Council{}, fmt.Errorf("query council: %w", err)
	}
	return c, nil
}
