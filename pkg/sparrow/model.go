package sparrow

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/evertheylen/sparrow/pkg/schema"
	"github.com/evertheylen/sparrow/pkg/types"
)

// Options configures a Model.
type Options struct {
	// Executor runs every statement of the model. Required.
	Executor types.Executor

	// Types are the entity types to register, in dependency order
	// (referenced types before referencing types, so CreateAllTables
	// can run in registration order).
	Types []*schema.EntityType

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Model is the composition root: it binds registered entity types to one
// storage executor and owns the per-type identity caches and the
// real-time reference graph. The set of registered types is fixed at
// construction.
//
// A Model is safe for use from multiple goroutines. Cache and graph
// bookkeeping is serialized by an internal lock and only ever mutated
// after a statement completed successfully, so a cancelled or failed
// statement leaves no partial state behind.
type Model struct {
	mu    sync.Mutex
	log   *zap.Logger
	exec  types.Executor
	order []*schema.EntityType

	typesByName map[string]*schema.EntityType
	caches      map[string]*cache
	graph       *graph
}

// New builds a Model from its options.
func New(opts Options) (*Model, error) {
	if opts.Executor == nil {
		return nil, fmt.Errorf("sparrow: Options.Executor is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	m := &Model{
		log:         log,
		exec:        opts.Executor,
		typesByName: make(map[string]*schema.EntityType, len(opts.Types)),
		caches:      make(map[string]*cache, len(opts.Types)),
		graph:       newGraph(),
	}
	for _, t := range opts.Types {
		if t == nil {
			return nil, fmt.Errorf("sparrow: nil entity type")
		}
		if _, dup := m.typesByName[t.Name()]; dup {
			return nil, fmt.Errorf("sparrow: entity type %q registered twice", t.Name())
		}
		m.typesByName[t.Name()] = t
		m.caches[t.Name()] = newCache(m, t)
		m.order = append(m.order, t)
	}
	return m, nil
}

// Executor returns the model's storage executor, for raw statements that
// bypass entity mapping.
func (m *Model) Executor() types.Executor { return m.exec }

// Logger returns the model's logger.
func (m *Model) Logger() *zap.Logger { return m.log }

// Type returns the registered entity type with the given name.
func (m *Model) Type(name string) (*schema.EntityType, error) {
	t, ok := m.typesByName[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, types.ErrNotRegistered)
	}
	return t, nil
}

// Types returns the registered entity types in registration order.
func (m *Model) Types() []*schema.EntityType { return m.order }

// Close releases the storage executor.
func (m *Model) Close() error {
	return m.exec.Close()
}

// CreateAllTables creates the table of every registered entity type, in
// registration order.
func (m *Model) CreateAllTables(ctx context.Context) error {
	for _, t := range m.order {
		if _, err := t.CreateTable().Run(ctx, m.exec); err != nil {
			return fmt.Errorf("create table for %s: %w", t.Name(), err)
		}
		m.log.Debug("created table", zap.String("entity", t.Name()))
	}
	return nil
}

// DropAllTables drops the table of every registered entity type, in
// reverse registration order. It keeps going on failure and returns the
// combined errors.
func (m *Model) DropAllTables(ctx context.Context) error {
	var errs error
	for i := len(m.order) - 1; i >= 0; i-- {
		t := m.order[i]
		if _, err := t.DropTable().Run(ctx, m.exec); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("drop table for %s: %w", t.Name(), err))
		}
	}
	return errs
}

// cacheFor returns the identity cache of a registered type.
func (m *Model) cacheFor(t *schema.EntityType) (*cache, error) {
	c, ok := m.caches[t.Name()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", t.Name(), types.ErrNotRegistered)
	}
	return c, nil
}

// CacheLen reports the number of identity-cache entries for an entity
// type, counting entries whose instance may already be unreachable.
func (m *Model) CacheLen(t *schema.EntityType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.caches[t.Name()]
	if !ok {
		return 0
	}
	return c.len()
}
