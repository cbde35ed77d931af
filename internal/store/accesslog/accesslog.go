// Package accesslog stores device connection telemetry in SQLite.
//
// Access reports are high-volume and append-only, which is a poor fit for
// the document store: they'd bloat the value log and never benefit from the
// secondary-index machinery. A relational log with proper indexes handles
// both the write rate and the dashboard's filtered listing cheaply.
package accesslog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/signboardapp/signboard-server/internal/domain"
	"github.com/signboardapp/signboard-server/internal/query"
	"github.com/signboardapp/signboard-server/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// columns maps wire field names to their table columns. Doubles as the
// allowlist for filter and sort fields arriving from clients.
var columns = map[string]string{
	"id":          "id",
	"macAddress":  "mac_address",
	"ip":          "ip",
	"cpuUsage":    "cpu_usage",
	"memoryUsage": "memory_usage",
	"createdAt":   "created_at",
}

// Store provides SQLite-backed persistence for the device access log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the access log store at the given path.
// It configures WAL mode, sets pragmas, and runs the schema migration.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Info("Access log opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Insert appends one access report.
func (s *Store) Insert(ctx context.Context, access *domain.DeviceAccess) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_accesses (id, mac_address, ip, cpu_usage, memory_usage, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		access.ID,
		access.MACAddress,
		access.IP,
		access.CPUUsage,
		access.MemoryUsage,
		access.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert device access: %w", err)
	}
	return nil
}

// FindPage runs a normalized list query against the log. The descriptor's
// condition becomes an OR of case-insensitive LIKE clauses; sort and
// pagination translate to ORDER BY / LIMIT / OFFSET. Unknown fields were
// already dropped by the caller's allowlist, but the column map guards
// against injection regardless.
func (s *Store) FindPage(ctx context.Context, desc query.Descriptor) (*store.PaginatedResult[domain.DeviceAccess], error) {
	where, args := buildWhere(desc.Condition)

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM device_accesses"+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count device accesses: %w", err)
	}

	orderBy := buildOrderBy(desc.Options)

	queryArgs := append(args, desc.Options.Limit, desc.Options.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mac_address, ip, cpu_usage, memory_usage, created_at
		FROM device_accesses`+where+orderBy+`
		LIMIT ? OFFSET ?`, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("query device accesses: %w", err)
	}
	defer rows.Close()

	docs := make([]*domain.DeviceAccess, 0, desc.Options.Limit)
	for rows.Next() {
		var (
			access    domain.DeviceAccess
			createdAt string
		)
		if err := rows.Scan(
			&access.ID,
			&access.MACAddress,
			&access.IP,
			&access.CPUUsage,
			&access.MemoryUsage,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan device access: %w", err)
		}

		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		access.CreatedAt = t

		docs = append(docs, &access)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate device accesses: %w", err)
	}

	return store.NewPaginatedResult(docs, total, desc.Options.Page, desc.Options.Limit), nil
}

// buildWhere translates the condition to a WHERE clause with placeholders.
func buildWhere(cond query.Condition) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	for _, m := range cond {
		col, ok := columns[m.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, col+" LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(m.Text)+"%")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " OR "), args
}

// buildOrderBy translates sort options, falling back to created_at for
// unknown fields. ID as tiebreak keeps pages stable.
func buildOrderBy(opts query.Options) string {
	col, ok := columns[opts.Sort]
	if !ok {
		col = "created_at"
	}

	dir := "DESC"
	if opts.Order == query.Ascending {
		dir = "ASC"
	}

	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

// escapeLike escapes LIKE wildcards in user-supplied filter text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
