package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const insertLogSQL = `INSERT INTO logs (
    timestamp, level, logger_name, file_name, line_number, message, project
) VALUES (CURRENT_TIMESTAMP, $1, $2, $3, $4, $5, $6);`

// PostgresWriter persists log records into a PostgreSQL logs table. Writes
// are best effort: a failed insert is dropped rather than surfaced, so a
// database outage cannot take the logger down with it.
type PostgresWriter struct {
	pool    *pgxpool.Pool
	project string
}

// NewPostgresWriter opens a connection pool for the durable log sink.
func NewPostgresWriter(cfg PostgresConfig) (*PostgresWriter, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("logging.postgres.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse log sink dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create log sink pool: %w", err)
	}

	return &PostgresWriter{pool: pool, project: cfg.Project}, nil
}

// Write decodes one zerolog line and inserts it as a row.
func (w *PostgresWriter) Write(p []byte) (int, error) {
	var record map[string]any
	if err := json.Unmarshal(p, &record); err != nil {
		return len(p), nil
	}

	level, _ := record[zerolog.LevelFieldName].(string)
	message, _ := record[zerolog.MessageFieldName].(string)
	component, _ := record["component"].(string)

	fileName, lineNumber := splitCaller(record)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _ = w.pool.Exec(ctx, insertLogSQL,
		strings.ToUpper(level),
		component,
		fileName,
		lineNumber,
		message,
		w.project,
	)

	return len(p), nil
}

// Close releases the underlying pool resources.
func (w *PostgresWriter) Close() {
	if w == nil || w.pool == nil {
		return
	}
	w.pool.Close()
}

func splitCaller(record map[string]any) (string, int) {
	caller, _ := record[zerolog.CallerFieldName].(string)
	if caller == "" {
		return "", 0
	}
	idx := strings.LastIndex(caller, ":")
	if idx < 0 {
		return caller, 0
	}
	line, err := strconv.Atoi(caller[idx+1:])
	if err != nil {
		return caller, 0
	}
	return caller[:idx], line
}
