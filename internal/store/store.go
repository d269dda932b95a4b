package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"codescope/internal/parser"
)

// ErrNoSnapshot is returned by Load when the database exists but no
// snapshot has been saved to it yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// Store is a snapshot database for one project.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	log    *slog.Logger
	closed bool
}

// validateIntegrity checks a snapshot database before opening.
// Returns nil if the file is absent or healthy.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                       WHERE type='table' AND name='files'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("snapshot table 'files' missing")
	}

	return nil
}

// Open opens (or creates) the snapshot database at path. A corrupted
// database is cleared and recreated empty; the caller reindexes.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	if validErr := validateIntegrity(path); validErr != nil {
		log.Warn("snapshot database corrupted, clearing",
			slog.String("path", path),
			slog.String("error", validErr.Error()))
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, fmt.Errorf("snapshot corrupted at %s and cannot remove: %w", path, removeErr)
		}
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}

	// Single writer keeps lock contention out of the picture.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores DSN pragma params; set them explicitly.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &Store{
		db:   db,
		path: path,
		log:  log,
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS project (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		path       TEXT PRIMARY KEY,
		language   TEXT NOT NULL,
		line_count INTEGER NOT NULL,
		functions  TEXT NOT NULL,
		classes    TEXT NOT NULL,
		imports    TEXT NOT NULL,
		exports    TEXT,
		package    TEXT
	);

	CREATE TABLE IF NOT EXISTS symbols (
		symbol_id TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		kind      TEXT NOT NULL,
		file      TEXT NOT NULL,
		line      INTEGER NOT NULL,
		signature TEXT NOT NULL,
		called_by TEXT NOT NULL
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored snapshot in one transaction.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM files", "DELETE FROM symbols"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	fileStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (path, language, line_count, functions, classes, imports, exports, package)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare file insert: %w", err)
	}
	defer fileStmt.Close()

	for path, rec := range snap.Files {
		functions, err := json.Marshal(rec.Functions)
		if err != nil {
			return fmt.Errorf("encode functions for %s: %w", path, err)
		}
		classes, err := json.Marshal(rec.Classes)
		if err != nil {
			return fmt.Errorf("encode classes for %s: %w", path, err)
		}
		imports, err := json.Marshal(rec.Imports)
		if err != nil {
			return fmt.Errorf("encode imports for %s: %w", path, err)
		}

		// NULL keeps "no exports section" distinct from an empty list.
		var exports any
		if rec.Exports != nil {
			data, err := json.Marshal(rec.Exports)
			if err != nil {
				return fmt.Errorf("encode exports for %s: %w", path, err)
			}
			exports = string(data)
		}
		var pkg any
		if rec.Package != "" {
			pkg = rec.Package
		}

		if _, err := fileStmt.ExecContext(ctx, path, rec.Language, rec.LineCount,
			string(functions), string(classes), string(imports), exports, pkg); err != nil {
			return fmt.Errorf("insert file %s: %w", path, err)
		}
	}

	symStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (symbol_id, name, kind, file, line, signature, called_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer symStmt.Close()

	for id, sym := range snap.Symbols {
		calledBy, err := json.Marshal(sym.CalledBy)
		if err != nil {
			return fmt.Errorf("encode called_by for %s: %w", id, err)
		}
		if _, err := symStmt.ExecContext(ctx, id, sym.Name, string(sym.Kind),
			sym.File, sym.Line, sym.Signature, string(calledBy)); err != nil {
			return fmt.Errorf("insert symbol %s: %w", id, err)
		}
	}

	kvStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO project (key, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare project insert: %w", err)
	}
	defer kvStmt.Close()

	builtAt := snap.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now()
	}
	for key, value := range map[string]string{
		"root":     snap.Root,
		"built_at": builtAt.Format(time.RFC3339Nano),
	} {
		if _, err := kvStmt.ExecContext(ctx, key, value); err != nil {
			return fmt.Errorf("record project %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// Load reads the stored snapshot. Returns ErrNoSnapshot when nothing
// has been saved yet.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	var root string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM project WHERE key = 'root'`).Scan(&root)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read project root: %w", err)
	}

	out := &Snapshot{Root: root}

	var builtAt string
	if err := s.db.QueryRowContext(ctx,
		`SELECT value FROM project WHERE key = 'built_at'`).Scan(&builtAt); err == nil {
		if t, parseErr := time.Parse(time.RFC3339Nano, builtAt); parseErr == nil {
			out.BuiltAt = t
		}
	}

	files, err := s.loadFiles(ctx)
	if err != nil {
		return nil, err
	}
	out.Files = files

	symbols, err := s.loadSymbols(ctx)
	if err != nil {
		return nil, err
	}
	out.Symbols = symbols

	return out, nil
}

func (s *Store) loadFiles(ctx context.Context) (map[string]*parser.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, language, line_count, functions, classes, imports, exports, package
		FROM files`)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	files := make(map[string]*parser.FileRecord)
	for rows.Next() {
		var (
			rec       parser.FileRecord
			functions string
			classes   string
			imports   string
			exports   sql.NullString
			pkg       sql.NullString
		)
		if err := rows.Scan(&rec.Path, &rec.Language, &rec.LineCount,
			&functions, &classes, &imports, &exports, &pkg); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}

		if err := json.Unmarshal([]byte(functions), &rec.Functions); err != nil {
			return nil, fmt.Errorf("decode functions for %s: %w", rec.Path, err)
		}
		if err := json.Unmarshal([]byte(classes), &rec.Classes); err != nil {
			return nil, fmt.Errorf("decode classes for %s: %w", rec.Path, err)
		}
		if err := json.Unmarshal([]byte(imports), &rec.Imports); err != nil {
			return nil, fmt.Errorf("decode imports for %s: %w", rec.Path, err)
		}
		if exports.Valid {
			if err := json.Unmarshal([]byte(exports.String), &rec.Exports); err != nil {
				return nil, fmt.Errorf("decode exports for %s: %w", rec.Path, err)
			}
			if rec.Exports == nil {
				rec.Exports = []string{}
			}
		}
		if pkg.Valid {
			rec.Package = pkg.String
		}

		files[rec.Path] = &rec
	}
	return files, rows.Err()
}

func (s *Store) loadSymbols(ctx context.Context) (map[string]*parser.Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol_id, name, kind, file, line, signature, called_by
		FROM symbols`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	symbols := make(map[string]*parser.Symbol)
	for rows.Next() {
		var (
			sym      parser.Symbol
			kind     string
			calledBy string
		)
		if err := rows.Scan(&sym.ID, &sym.Name, &kind, &sym.File,
			&sym.Line, &sym.Signature, &calledBy); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		sym.Kind = parser.SymbolKind(kind)

		if err := json.Unmarshal([]byte(calledBy), &sym.CalledBy); err != nil {
			return nil, fmt.Errorf("decode called_by for %s: %w", sym.ID, err)
		}
		if sym.CalledBy == nil {
			sym.CalledBy = []string{}
		}

		symbols[sym.ID] = &sym
	}
	return symbols, rows.Err()
}

// Close checkpoints and closes the database. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}
