package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/modhaus/modlayout/pkg/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := errors.ValidatePath(dbPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS buildings (
		id          TEXT PRIMARY KEY,
		system_id   TEXT NOT NULL,
		name        TEXT NOT NULL DEFAULT '',
		dnas        TEXT NOT NULL,
		origin_x    REAL NOT NULL DEFAULT 0,
		origin_y    REAL NOT NULL DEFAULT 0,
		origin_z    REAL NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_buildings_system ON buildings(system_id);
	CREATE INDEX IF NOT EXISTS idx_buildings_updated ON buildings(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// timeFormat is fixed-width so that updated_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const buildingColumns = `id, system_id, name, dnas, origin_x, origin_y, origin_z, created_at, updated_at`

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, b *Building) (*Building, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	out := *b
	out.DNAs = append([]string(nil), b.DNAs...)
	if out.ID == "" {
		out.ID = uuid.NewString()
	} else if _, err := uuid.Parse(out.ID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "building id %q", out.ID)
	}

	dnas, err := json.Marshal(out.DNAs)
	if err != nil {
		return nil, fmt.Errorf("marshal dnas: %w", err)
	}

	now := s.now()
	out.UpdatedAt = now
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.CreatedAt = out.CreatedAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Keep the original creation time on replace.
	var created string
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM buildings WHERE id = ?`, out.ID).Scan(&created)
	switch {
	case err == nil:
		if t, perr := time.Parse(timeFormat, created); perr == nil {
			out.CreatedAt = t
		}
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("lookup building: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO buildings (`+buildingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   system_id = excluded.system_id,
		   name = excluded.name,
		   dnas = excluded.dnas,
		   origin_x = excluded.origin_x,
		   origin_y = excluded.origin_y,
		   origin_z = excluded.origin_z,
		   updated_at = excluded.updated_at`,
		out.ID, out.SystemID, out.Name, string(dnas),
		out.Origin.X, out.Origin.Y, out.Origin.Z,
		out.CreatedAt.Format(timeFormat), out.UpdatedAt.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("upsert building: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Building, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buildingColumns+` FROM buildings WHERE id = ?`, id)
	b, err := scanBuilding(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("building %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get building: %w", err)
	}
	return b, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]*Building, error) {
	var (
		where []string
		args  []any
	)
	if opts.SystemID != "" {
		where = append(where, "system_id = ?")
		args = append(args, opts.SystemID)
	}

	query := `SELECT ` + buildingColumns + ` FROM buildings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	defer rows.Close()

	var out []*Building
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan building: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM buildings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete building: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("building %s", id)
	}
	return nil
}

// UpdateDNAs implements Store.
func (s *SQLiteStore) UpdateDNAs(ctx context.Context, id string, dnas []string, origin Origin) (*Building, error) {
	if err := errors.ValidateDNAList(dnas); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(dnas)
	if err != nil {
		return nil, fmt.Errorf("marshal dnas: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE buildings SET dnas = ?, origin_x = ?, origin_y = ?, origin_z = ?, updated_at = ? WHERE id = ?`,
		string(raw), origin.X, origin.Y, origin.Z, s.now().Format(timeFormat), id)
	if err != nil {
		return nil, fmt.Errorf("update building: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errors.NotFound("building %s", id)
	}
	return s.Get(ctx, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuilding(sc scanner) (*Building, error) {
	var (
		b                Building
		dnas             string
		created, updated string
	)
	if err := sc.Scan(&b.ID, &b.SystemID, &b.Name, &dnas,
		&b.Origin.X, &b.Origin.Y, &b.Origin.Z, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(dnas), &b.DNAs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "building %s: corrupt dna list", b.ID)
	}
	b.CreatedAt, _ = time.Parse(timeFormat, created)
	b.UpdatedAt, _ = time.Parse(timeFormat, updated)
	return &b, nil
}
