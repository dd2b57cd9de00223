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

var _ ports.EntityStore = (*SQLStore)(nil)

var (
	memberColumns    = []string{"id", "council_id", "uid", "url", "full_name", "party", "constituency", "email", "telephone", "committee_id"}
	committeeColumns = []string{"id", "council_id", "uid", "url", "title", "description", "member_id"}
)

// RelatedObjects lists entities of kind owned by council, ordered by id.
func (s *SQLStore) RelatedObjects(ctx context.Context, councilID int64, kind domain.EntityKind) ([]domain.Entity, error) {
	q, err := s.entitySelect(kind)
	if err != nil {
		return nil, err
	}
	query, args, err := q.Where(sq.Eq{"council_id": councilID}).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", kind, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %ss: %w", kind, err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		entity, err := scanEntity(rows, kind)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return entities, nil
}

// FindOrBuild loads the entity of kind with uniqueness key, or builds an unsaved one carrying
// the key and council.
func (s *SQLStore) FindOrBuild(ctx context.Context, councilID int64, kind domain.EntityKind, key string) (domain.Entity, error) {
	q, err := s.entitySelect(kind)
	if err != nil {
		return nil, err
	}
	query, args, err := q.Where(sq.Eq{"council_id": councilID, "uid": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s lookup: %w", kind, err)
	}

	entity, err := scanEntity(s.db.QueryRowContext(ctx, query, args...), kind)
	if errors.Is(err, sql.ErrNoRows) {
		entity, _ = domain.NewEntity(kind, councilID)
		entity.SetKey(key)
		return entity, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// Save inserts new entities and updates persisted ones.
func (s *SQLStore) Save(ctx context.Context, entity domain.Entity) error {
	switch e := entity.(type) {
	case *domain.Member:
		return s.saveRow(ctx, "members", &e.ID, map[string]interface{}{
			"council_id":   e.CouncilID,
			"uid":          e.UID,
			"url":          e.URL,
			"full_name":    e.FullName,
			"party":        e.Party,
			"constituency": e.Constituency,
			"email":        e.Email,
			"telephone":    e.Telephone,
			"committee_id": nullableID(e.CommitteeID),
		})
	case *domain.Committee:
		return s.saveRow(ctx, "committees", &e.ID, map[string]interface{}{
			"council_id":  e.CouncilID,
			"uid":         e.UID,
			"url":         e.URL,
			"title":       e.Title,
			"description": e.Description,
			"member_id":   nullableID(e.MemberID),
		})
	default:
		return fmt.Errorf("cannot save %T", entity)
	}
}

func (s *SQLStore) saveRow(ctx context.Context, table string, id *int64, values map[string]interface{}) error {
	if *id == 0 {
		newID, err := s.insertReturningID(ctx, s.sb.Insert(table).SetMap(values))
		if err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		*id = newID
		return nil
	}

	values["updated_at"] = sq.Expr("CURRENT_TIMESTAMP")
	if err := s.exec(ctx, s.sb.Update(table).SetMap(values).Where(sq.Eq{"id": *id})); err != nil {
		return fmt.Errorf("update %s %d: %w", table, *id, err)
	}
	return nil
}

func (s *SQLStore) entitySelect(kind domain.EntityKind) (sq.SelectBuilder, error) {
	switch kind {
	case domain.KindMember:
		return s.sb.Select(memberColumns...).From("members"), nil
	case domain.KindCommittee:
		return s.sb.Select(committeeColumns...).From("committees"), nil
	default:
		return sq.SelectBuilder{}, fmt.Errorf("unknown entity kind %q", kind)
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row rowScanner, kind domain.EntityKind) (domain.Entity, error) {
	switch kind {
	case domain.KindMember:
		m := &domain.Member{}
		var committeeID sql.NullInt64
		err := row.Scan(&m.ID, &m.CouncilID, &m.UID, &m.URL, &m.FullName, &m.Party, &m.Constituency, &m.Email, &m.Telephone, &committeeID)
		if err != nil {
			return nil, scanError(kind, err)
		}
		m.CommitteeID = committeeID.Int64
		return m, nil
	case domain.KindCommittee:
		c := &domain.Committee{}
		var memberID sql.NullInt64
		err := row.Scan(&c.ID, &c.CouncilID, &c.UID, &c.URL, &c.Title, &c.Description, &memberID)
		if err != nil {
			return nil, scanError(kind, err)
		}
		c.MemberID = memberID.Int64
		return c, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// nullableID stores an unset link as NULL.
func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func scanError(kind domain.EntityKind, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return fmt.Errorf("scan %s: %w", kind, err)
}
