package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"planboard/internal/model"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"
)

const sqliteFileName = "planboard.sqlite"

type sqliteRecords struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the entity database under dataDir.
func OpenSQLite(ctx context.Context, dataDir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", filepath.Join(dataDir, sqliteFileName))
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked"
	// when the CLI runs next to an open TUI or server.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newStore(&sqliteRecords{db: db}, opts...), nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			archived INTEGER NOT NULL,
			json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entities_owner_kind ON entities(owner_id, kind, created_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (r *sqliteRecords) load(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT json FROM entities WHERE id = ? AND kind = ?`, id, string(kind)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entity{}, NotFoundError{Kind: string(kind), ID: id}
	}
	if err != nil {
		return model.Entity{}, err
	}
	return decodeEntity(raw)
}

func (r *sqliteRecords) scan(ctx context.Context, kind model.Kind, ownerID string) ([]model.Entity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT json FROM entities WHERE owner_id = ? AND kind = ? ORDER BY created_at_unixms DESC, id DESC`,
		ownerID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		e, err := decodeEntity(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *sqliteRecords) insert(ctx context.Context, e model.Entity) error {
	raw, err := sonic.ConfigStd.MarshalToString(e)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO entities(id, kind, owner_id, archived, json, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.OwnerID, boolToInt(e.Archived), raw, e.CreatedAt.UnixMilli(), e.UpdatedAt.UnixMilli())
	return err
}

func (r *sqliteRecords) save(ctx context.Context, e model.Entity) error {
	raw, err := sonic.ConfigStd.MarshalToString(e)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE entities SET archived = ?, json = ?, updated_at_unixms = ? WHERE id = ? AND kind = ?`,
		boolToInt(e.Archived), raw, e.UpdatedAt.UnixMilli(), e.ID, string(e.Kind))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Kind: string(e.Kind), ID: e.ID}
	}
	return nil
}

// update runs fn on the stored entity and saves the result in one transaction. The
// no-op write takes the database write lock before the read, so a concurrent writer
// in another process waits instead of overwriting.
func (r *sqliteRecords) update(ctx context.Context, kind model.Kind, id string, fn func(*model.Entity) error) (model.Entity, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Entity{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE entities SET updated_at_unixms = updated_at_unixms WHERE id = ? AND kind = ?`, id, string(kind))
	if err != nil {
		return model.Entity{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Entity{}, NotFoundError{Kind: string(kind), ID: id}
	}

	var raw string
	if err := tx.QueryRowContext(ctx, `SELECT json FROM entities WHERE id = ? AND kind = ?`, id, string(kind)).Scan(&raw); err != nil {
		return model.Entity{}, err
	}
	e, err := decodeEntity(raw)
	if err != nil {
		return model.Entity{}, err
	}
	if err := fn(&e); err != nil {
		return model.Entity{}, err
	}
	raw, err = sonic.ConfigStd.MarshalToString(e)
	if err != nil {
		return model.Entity{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE entities SET archived = ?, json = ?, updated_at_unixms = ? WHERE id = ? AND kind = ?`,
		boolToInt(e.Archived), raw, e.UpdatedAt.UnixMilli(), e.ID, string(e.Kind)); err != nil {
		return model.Entity{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Entity{}, err
	}
	return e, nil
}

func (r *sqliteRecords) remove(ctx context.Context, kind model.Kind, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ? AND kind = ?`, id, string(kind))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Kind: string(kind), ID: id}
	}
	return nil
}

func (r *sqliteRecords) close() error { return r.db.Close() }

func decodeEntity(raw string) (model.Entity, error) {
	var e model.Entity
	if err := sonic.ConfigStd.UnmarshalFromString(raw, &e); err != nil {
		return model.Entity{}, fmt.Errorf("decode entity: %w", err)
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
