package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"object-detection/internal/logging"
	"object-detection/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Dialect selects SQL syntax differences between backends.
type Dialect string

const (
	// DialectSQLite is the embedded default.
	DialectSQLite Dialect = "sqlite3"
	// DialectPostgres is used when DATABASE_URL points at PostgreSQL.
	DialectPostgres Dialect = "postgres"
)

// Database manages all database operations for the detection service.
type Database struct {
	db      *sql.DB
	dialect Dialect
	target  string
	mu      sync.RWMutex
}

// New opens (creating if needed) the SQLite database at dbPath.
// dbPath should be the full path to the database FILE and its parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// WAL mode for concurrent readers; busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	return open(ctx, DialectSQLite, connStr, dbPath)
}

// NewPostgres connects to a PostgreSQL database.
func NewPostgres(ctx context.Context, dsn string) (*Database, error) {
	target := redactDSN(dsn)
	logging.Info("Database: postgres %s", target)
	return open(ctx, DialectPostgres, dsn, target)
}

// Open picks the backend: PostgreSQL when url is a postgres URL, otherwise
// SQLite at sqlitePath.
func Open(ctx context.Context, url, sqlitePath string) (*Database, error) {
	if IsPostgresURL(url) {
		return NewPostgres(ctx, url)
	}
	return New(ctx, sqlitePath)
}

// IsPostgresURL reports whether url selects the PostgreSQL backend.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

func open(ctx context.Context, dialect Dialect, dsn, target string) (*Database, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:      db,
		dialect: dialect,
		target:  target,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully (%s)", dialect)
	return d, nil
}

// Dialect returns the backend in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

func (d *Database) schema() string {
	if d.dialect == DialectPostgres {
		return `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		file_path TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		fps DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'uploaded',
		result_path TEXT NOT NULL DEFAULT '',
		poster_path TEXT NOT NULL DEFAULT '',
		detection_count INTEGER NOT NULL DEFAULT 0,
		frames_processed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_videos_created ON videos(created_at);

	CREATE TABLE IF NOT EXISTS detections (
		id BIGSERIAL PRIMARY KEY,
		video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		frame INTEGER NOT NULL,
		x1 DOUBLE PRECISION NOT NULL,
		y1 DOUBLE PRECISION NOT NULL,
		x2 DOUBLE PRECISION NOT NULL,
		y2 DOUBLE PRECISION NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		class_id INTEGER NOT NULL,
		class_name TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_detections_video_frame ON detections(video_id, frame);
	`
	}

	return `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		file_path TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		fps REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'uploaded',
		result_path TEXT NOT NULL DEFAULT '',
		poster_path TEXT NOT NULL DEFAULT '',
		detection_count INTEGER NOT NULL DEFAULT 0,
		frames_processed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_videos_created ON videos(created_at);

	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT NOT NULL,
		frame INTEGER NOT NULL,
		x1 REAL NOT NULL,
		y1 REAL NOT NULL,
		x2 REAL NOT NULL,
		y2 REAL NOT NULL,
		confidence REAL NOT NULL,
		class_id INTEGER NOT NULL,
		class_name TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_detections_video_frame ON detections(video_id, frame);
	`
}

func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	_, err = d.db.ExecContext(ctx, d.schema())
	if err != nil {
		return err
	}

	err = d.runMigrations(ctx)
	return err
}

// runMigrations applies database schema migrations
func (d *Database) runMigrations(ctx context.Context) error {
	if d.dialect != DialectSQLite {
		return nil
	}

	// Migration 1: poster_path was added after the first release
	var columnExists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('videos')
		WHERE name='poster_path'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check for poster_path column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating database: adding poster_path column to videos table")
		if _, err := d.db.ExecContext(ctx, `ALTER TABLE videos ADD COLUMN poster_path TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("failed to add poster_path column: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (d *Database) rebind(query string) string {
	if d.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error.
func (d *Database) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	tx, err := d.db.BeginTx(ctx, nil)
	recordQuery("begin_transaction", start, err)
	if err != nil {
		return err
	}

	if err = fn(tx); err != nil {
		rbStart := time.Now()
		rbErr := tx.Rollback()
		recordQuery("rollback", rbStart, rbErr)
		if rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	commitStart := time.Now()
	err = tx.Commit()
	recordQuery("commit", commitStart, err)
	return err
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// redactDSN hides the password of a connection URL for logging.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		creds = creds[:colon] + ":****"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	logging.Debug("Database directory is writable")

	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", p, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("Database file %s is read-only! Mode: %v - this will cause write failures", p, info.Mode())
		if chmodErr := os.Chmod(p, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", p, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", p)
		}
	}

	return nil
}
