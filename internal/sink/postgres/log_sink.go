package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/harvest"
)

// LogSink upserts the run-summary row into the logy table. A second run of
// the same (date, site) appends its text to the existing row.
type LogSink struct {
	pool execCloser
	log  *zap.Logger
}

// NewLogSink connects a pool and builds the sink.
func NewLogSink(ctx context.Context, cfg Config, log *zap.Logger) (*LogSink, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewLogSinkWithPool(pool, log)
}

// NewLogSinkWithPool constructs a sink from an existing pool (primarily for
// testing).
func NewLogSinkWithPool(pool execCloser, log *zap.Logger) (*LogSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &LogSink{pool: pool, log: log}, nil
}

// Close releases the underlying pool resources.
func (s *LogSink) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Save upserts the log row. No file artifact is produced.
func (s *LogSink) Save(ctx context.Context, rec harvest.LogRecord) (string, error) {
	problem := "ne"
	if rec.HasError {
		problem = "ano"
	}

	query := `
INSERT INTO logy (datum, zdroj, stranky, text, problem, marker_datum)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (datum, stranky) DO UPDATE SET
	text = COALESCE(logy.text, '') || E'\n' || EXCLUDED.text,
	problem = EXCLUDED.problem,
	marker_datum = EXCLUDED.marker_datum`

	args := []any{
		rec.Date,
		rec.Source,
		rec.Site,
		rec.Text,
		problem,
		nullDate(rec.MarkerDate),
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return "", fmt.Errorf("upsert log record: %w", err)
	}
	s.log.Info("log record upserted", zap.String("site", rec.Site))
	return "", nil
}
