package preset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// Record is a stored preset.
type Record struct {
	ID        string
	Name      string
	Document  Document
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store keeps named presets in a SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenStore opens (and creates if needed) the preset database at path.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

func (s *Store) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS presets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			document TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Save stores d under name, replacing any preset with the same name. The
// existing id is kept on replace.
func (s *Store) Save(ctx context.Context, name string, d Document) (Record, error) {
	if name == "" {
		return Record{}, errors.New("preset name must not be empty")
	}
	if err := d.Validate(); err != nil {
		return Record{}, err
	}

	data, err := json.Marshal(d)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode preset: %w", err)
	}

	now := time.Now().UTC()
	rec := Record{ID: uuid.NewString(), Name: name, Document: d, CreatedAt: now, UpdatedAt: now}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO presets (id, name, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
		RETURNING id, created_at`,
		rec.ID, name, string(data), now.UnixNano(), now.UnixNano(),
	)
	var created int64
	if err := row.Scan(&rec.ID, &created); err != nil {
		return Record{}, fmt.Errorf("failed to save preset %q: %w", name, err)
	}
	rec.CreatedAt = time.Unix(0, created).UTC()

	s.log().Debug("Saved preset", "name", name, "id", rec.ID, "colors", len(d.Colors))
	return rec, nil
}

// Get returns the preset called name.
func (s *Store) Get(ctx context.Context, name string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, document, created_at, updated_at FROM presets WHERE name = ?", name)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to query preset %q: %w", name, err)
	}
	return rec, nil
}

// List returns every preset ordered by creation time.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, document, created_at, updated_at FROM presets ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preset row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating presets: %w", err)
	}
	return records, nil
}

// Delete removes the preset called name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM presets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete preset %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete preset %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Import saves every entry in one transaction. Later entries win on duplicate
// names.
func (s *Store) Import(ctx context.Context, entries []Entry) (int, error) {
	for _, e := range entries {
		if err := e.Config.Validate(); err != nil {
			return 0, fmt.Errorf("preset %q: %w", e.Name, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO presets (id, name, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		data, err := json.Marshal(e.Config)
		if err != nil {
			return 0, fmt.Errorf("failed to encode preset %q: %w", e.Name, err)
		}
		// Offset keeps list order stable when ordering by created_at.
		ts := time.Now().UTC().UnixNano() + int64(i)
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), e.Name, string(data), ts, ts); err != nil {
			return 0, fmt.Errorf("failed to import preset %q: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log().Info("Imported presets", "count", len(entries), "db", s.path)
	return len(entries), nil
}

// Export returns every preset as list entries.
func (s *Store) Export(ctx context.Context) ([]Entry, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{Name: r.Name, Config: r.Document})
	}
	return entries, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec              Record
		doc              string
		created, updated int64
	)
	if err := row.Scan(&rec.ID, &rec.Name, &doc, &created, &updated); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(doc), &rec.Document); err != nil {
		return Record{}, fmt.Errorf("failed to decode stored preset %q: %w", rec.Name, err)
	}
	rec.CreatedAt = time.Unix(0, created).UTC()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return rec, nil
}
