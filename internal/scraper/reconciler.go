package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

// Reconciler applies records to entities for one Process call.
// Entities touched during the run are kept in an identity map so records sharing a uniqueness
// key amend the same entity, and creation is serialized per key.
type Reconciler struct {
	store     ports.EntityStore
	councilID int64
	save      bool
	logger    *slog.Logger

	locks keyedMutex

	mu      sync.Mutex
	seen    map[string]domain.Entity
	touched []domain.Entity
}

// NewReconciler builds a reconciler scoped to a council; save selects whether Commit persists.
func NewReconciler(store ports.EntityStore, councilID int64, save bool, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		councilID: councilID,
		save:      save,
		logger:    logger,
		seen:      map[string]domain.Entity{},
	}
}

// Reconcile applies record to existing when given (item mode), otherwise finds or builds an
// entity of kind by the record's uniqueness key (page mode). The entity is validated and returned
// whether or not it is valid.
func (r *Reconciler) Reconcile(ctx context.Context, record domain.Record, kind domain.EntityKind, existing domain.Entity) (domain.Entity, error) {
	if existing != nil {
		unlock := r.locks.Lock(fmt.Sprintf("%s|%p", existing.Kind(), existing))
		defer unlock()

		r.apply(existing, record)
		existing.Validate()
		r.track(existing)
		return existing, nil
	}

	key := domain.KeyFromRecord(record)
	if key == "" {
		entity, ok := domain.NewEntity(kind, r.councilID)
		if !ok {
			return nil, fmt.Errorf("unknown result model %q", kind)
		}
		r.apply(entity, record)
		entity.Validate()
		r.track(entity)
		return entity, nil
	}

	identity := fmt.Sprintf("%s|%d|%s", kind, r.councilID, key)
	unlock := r.locks.Lock(identity)
	defer unlock()

	entity, err := r.lookup(ctx, identity, kind, key)
	if err != nil {
		return nil, err
	}
	r.apply(entity, record)
	entity.SetKey(key)
	entity.Validate()
	r.track(entity)
	return entity, nil
}

// Commit persists every valid entity touched during the run, once each, in first-touch order.
// It is a no-op unless the reconciler was built with save enabled.
func (r *Reconciler) Commit(ctx context.Context) []error {
	if !r.save {
		return nil
	}

	r.mu.Lock()
	pending := make([]domain.Entity, len(r.touched))
	copy(pending, r.touched)
	r.mu.Unlock()

	var errs []error
	for _, entity := range pending {
		if !entity.Validate() {
			r.debug("skip invalid entity", "kind", entity.Kind(), "key", entity.Key(), "errors", entity.Errors().Error())
			continue
		}
		if err := r.store.Save(ctx, entity); err != nil {
			errs = append(errs, fmt.Errorf("save %s %s: %w", entity.Kind(), describe(entity), err))
			continue
		}
		r.debug("saved entity", "kind", entity.Kind(), "key", entity.Key(), "id", entity.EntityID())
	}
	return errs
}

func (r *Reconciler) lookup(ctx context.Context, identity string, kind domain.EntityKind, key string) (domain.Entity, error) {
	r.mu.Lock()
	entity, ok := r.seen[identity]
	r.mu.Unlock()
	if ok {
		return entity, nil
	}

	entity, err := r.store.FindOrBuild(ctx, r.councilID, kind, key)
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", kind, key, err)
	}

	r.mu.Lock()
	r.seen[identity] = entity
	r.mu.Unlock()
	return entity, nil
}

func (r *Reconciler) apply(entity domain.Entity, record domain.Record) {
	for _, field := range record.Fields() {
		if !entity.Assign(field.Name, field.Value) {
			r.debug("ignore unknown field", "kind", entity.Kind(), "field", field.Name)
		}
	}
}

func (r *Reconciler) track(entity domain.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, seen := range r.touched {
		if seen == entity {
			return
		}
	}
	r.touched = append(r.touched, entity)
}

func (r *Reconciler) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

// keyedMutex serializes work per string key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*sync.Mutex{}
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
