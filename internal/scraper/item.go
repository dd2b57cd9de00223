package scraper

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"CouncilScraper/internal/domain"
)

// itemOutcome is what one related object contributed to a run.
type itemOutcome struct {
	records  []domain.Record
	entities []domain.Entity
	errs     []error
}

// processItems runs fetch, parse and reconcile once per related object on a bounded pool.
// Outcomes are merged in related-object order so output does not depend on completion order.
func (s *Scraper) processItems(ctx context.Context, opts Options, rec *Reconciler) {
	related, err := s.resolveRelatedObjects(ctx, opts)
	if err != nil {
		s.addError(err)
		return
	}
	s.relatedObjects = related

	outcomes := make([]itemOutcome, len(related))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, obj := range related {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				outcomes[i] = itemOutcome{errs: []error{s.itemError(obj, gctx.Err())}}
				return nil
			default:
			}

			outcomes[i] = s.processItem(gctx, obj, rec)
			return nil
		})
	}
	_ = g.Wait()

	for _, outcome := range outcomes {
		s.parsingResults = append(s.parsingResults, outcome.records...)
		s.results = append(s.results, outcome.entities...)
		for _, err := range outcome.errs {
			s.addError(err)
		}
	}
}

// resolveRelatedObjects returns the caller's objects, or queries the default set once.
func (s *Scraper) resolveRelatedObjects(ctx context.Context, opts Options) ([]domain.Entity, error) {
	if len(opts.Objects) > 0 {
		return opts.Objects, nil
	}

	related := s.cfg.EffectiveRelatedModel()
	objects, err := s.store.RelatedObjects(ctx, s.cfg.CouncilID, related)
	if err != nil {
		return nil, fmt.Errorf("load related %ss: %w", related, err)
	}
	s.debug("resolved related objects", "model", related, "count", len(objects))
	return objects, nil
}

func (s *Scraper) processItem(ctx context.Context, obj domain.Entity, rec *Reconciler) itemOutcome {
	var out itemOutcome

	target, err := ResolveTemplate(s.cfg.URL, obj)
	if err == nil {
		target, err = s.resolveURL(target)
	}
	if err != nil {
		out.errs = append(out.errs, s.itemError(obj, err))
		return out
	}

	records, err := s.fetchAndParse(ctx, target)
	if err != nil {
		out.errs = append(out.errs, s.itemError(obj, err))
		return out
	}

	// enrichment applies onto the object itself; other result models are found or created
	var existing domain.Entity
	if obj.Kind() == s.cfg.ResultModel {
		existing = obj
	}
	foreignKey := obj.Kind().ForeignKey()

	enriched := false
	for _, record := range records {
		if record.Len() == 0 {
			continue
		}
		tagged := record.Clone()
		tagged.Set(foreignKey, strconv.FormatInt(obj.EntityID(), 10))
		out.records = append(out.records, tagged)

		entity, err := rec.Reconcile(ctx, tagged, s.cfg.ResultModel, existing)
		if err != nil {
			out.errs = append(out.errs, s.itemError(obj, err))
			continue
		}
		if existing != nil {
			enriched = true
			continue
		}
		out.entities = append(out.entities, entity)
	}
	// every record of a detail page amends the same object, which is one result
	if enriched {
		out.entities = append(out.entities, existing)
	}
	return out
}

func (s *Scraper) itemError(obj domain.Entity, err error) error {
	return fmt.Errorf("%s %s: %w", obj.Kind(), describe(obj), err)
}
