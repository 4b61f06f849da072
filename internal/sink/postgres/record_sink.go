package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/harvest"
)

// RecordSink buffers import records and upserts them in one batch at flush.
// It produces no file artifact; Flush always returns an empty path.
type RecordSink struct {
	pool  execCloser
	table string
	log   *zap.Logger
	recs  []harvest.ImportRecord
}

// NewRecordSink connects a pool and builds the sink.
func NewRecordSink(ctx context.Context, cfg Config, log *zap.Logger) (*RecordSink, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRecordSinkWithPool(pool, cfg.Table, log)
}

// NewRecordSinkWithPool constructs a sink from an existing pool (primarily
// for testing).
func NewRecordSinkWithPool(pool execCloser, table string, log *zap.Logger) (*RecordSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RecordSink{pool: pool, table: table, log: log}, nil
}

// Close releases the underlying pool resources.
func (s *RecordSink) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Add queues one record.
func (s *RecordSink) Add(rec harvest.ImportRecord) {
	s.recs = append(s.recs, rec)
}

// Count reports the queued record count.
func (s *RecordSink) Count() int { return len(s.recs) }

// Flush upserts every queued record. The first failing row aborts the batch.
func (s *RecordSink) Flush(ctx context.Context) (string, error) {
	for _, rec := range s.recs {
		if err := s.upsert(ctx, rec); err != nil {
			return "", err
		}
	}
	s.log.Info("import records upserted",
		zap.String("table", s.table), zap.Int("records", len(s.recs)))
	return "", nil
}

func (s *RecordSink) upsert(ctx context.Context, rec harvest.ImportRecord) error {
	var (
		query string
		args  []any
	)
	if rec.Extended {
		query = fmt.Sprintf(`
INSERT INTO %s (detail_id, oblast, kategorie, nazev, cislo_jednaci, puvodce, zverejnit_od, zverejnit_do, nazev_souboru, datum_stazeni, nazev_normalizovany)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (nazev_souboru) DO UPDATE SET
	oblast = EXCLUDED.oblast,
	kategorie = EXCLUDED.kategorie,
	nazev = EXCLUDED.nazev,
	cislo_jednaci = EXCLUDED.cislo_jednaci,
	puvodce = EXCLUDED.puvodce,
	zverejnit_od = EXCLUDED.zverejnit_od,
	zverejnit_do = EXCLUDED.zverejnit_do,
	datum_stazeni = EXCLUDED.datum_stazeni,
	nazev_normalizovany = EXCLUDED.nazev_normalizovany`, s.table)
		args = []any{
			rec.DetailID,
			nullText(rec.Area),
			nullText(rec.Category),
			rec.Title,
			nullText(rec.CaseNumber),
			nullText(rec.Issuer),
			nullDate(rec.ValidFrom),
			nullDate(rec.ValidTo),
			rec.Filename,
			rec.DownloadedAt,
			nullText(rec.NormalizedTitle),
		}
	} else {
		query = fmt.Sprintf(`
INSERT INTO %s (nazev_souboru, datum_stazeni, nadpis, nadpis_normalizovany)
VALUES ($1,$2,$3,$4)
ON CONFLICT (nazev_souboru) DO UPDATE SET
	datum_stazeni = EXCLUDED.datum_stazeni,
	nadpis = EXCLUDED.nadpis,
	nadpis_normalizovany = EXCLUDED.nadpis_normalizovany`, s.table)
		args = []any{
			rec.Filename,
			rec.DownloadedAt,
			rec.Title,
			nullText(rec.NormalizedTitle),
		}
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert import record %s: %w", rec.Filename, err)
	}
	return nil
}
