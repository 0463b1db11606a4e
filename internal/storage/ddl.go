package storage

import (
	"context"
	"fmt"
	"sync"

	"etlgate/internal/dataset"
	"etlgate/internal/ddl"
)

var (
	ddlMu    sync.RWMutex
	dialects = map[string]ddl.Dialect{}
)

// RegisterDDL registers (or replaces) the DDL dialect for a storage kind.
// Backends call it from init next to Register.
func RegisterDDL(kind string, d ddl.Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	dialects[kind] = d
}

// Dialect returns the DDL dialect registered for kind.
func Dialect(kind string) (ddl.Dialect, bool) {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	d, ok := dialects[kind]
	return d, ok
}

// CreateTableSQL renders the CREATE TABLE statement for cfg.Table from the
// shape of f. Column kinds come from hints where given and are inferred from
// the frame's values otherwise; cfg.KeyColumns become the primary key.
func CreateTableSQL(cfg Config, f *dataset.Frame, hints map[string]string) (string, error) {
	d, ok := Dialect(cfg.Kind)
	if !ok {
		return "", fmt.Errorf("no DDL dialect registered for storage.kind=%q", cfg.Kind)
	}
	def := ddl.FromFrame(cfg.Table, f, cfg.Columns, cfg.KeyColumns, hints, d.MapType)
	return d.BuildCreateTableSQL(def)
}

// EnsureTable creates cfg.Table through repo if it does not exist yet.
func EnsureTable(ctx context.Context, repo Repository, cfg Config, f *dataset.Frame, hints map[string]string) error {
	stmt, err := CreateTableSQL(cfg, f, hints)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	return nil
}
