// Package sqlite exposes the SQLite-backed storage executor for sparrow
// models.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/evertheylen/sparrow/internal/sqlite"
	"github.com/evertheylen/sparrow/pkg/schema"
	"github.com/evertheylen/sparrow/pkg/sparrow"
	"github.com/evertheylen/sparrow/pkg/types"
)

// NewExecutor opens a SQLite-backed executor from the config.
func NewExecutor(cfg types.Config, log *zap.Logger) (types.Executor, error) {
	return sqlite.New(cfg, log)
}

// Open opens a SQLite-backed model with the given entity types.
func Open(cfg types.Config, log *zap.Logger, entityTypes ...*schema.EntityType) (*sparrow.Model, error) {
	exec, err := sqlite.New(cfg, log)
	if err != nil {
		return nil, err
	}
	m, err := sparrow.New(sparrow.Options{
		Executor: exec,
		Types:    entityTypes,
		Logger:   log,
	})
	if err != nil {
		exec.Close()
		return nil, err
	}
	return m, nil
}
