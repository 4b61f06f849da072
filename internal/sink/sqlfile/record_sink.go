package sqlfile

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/harvest"
)

// RecordSink collects import records and renders them into one .sql file at
// flush. The file path is the flush artifact handed back for publishing.
type RecordSink struct {
	path  string
	table string
	log   *zap.Logger
	now   func() time.Time
	recs  []harvest.ImportRecord
}

// NewRecordSink builds a sink writing upserts for table into path.
func NewRecordSink(path, table string, log *zap.Logger) *RecordSink {
	return &RecordSink{
		path:  path,
		table: table,
		log:   log,
		now:   time.Now,
	}
}

// Add queues one record.
func (s *RecordSink) Add(rec harvest.ImportRecord) {
	s.recs = append(s.recs, rec)
}

// Count reports the queued record count.
func (s *RecordSink) Count() int { return len(s.recs) }

// Flush writes the script and returns its path.
func (s *RecordSink) Flush(_ context.Context) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "-- import %s: %s\n", s.table, s.now().Format(timestampLayout))
	fmt.Fprintf(&b, "-- zaznamu: %d\n\n", len(s.recs))

	for _, rec := range s.recs {
		b.WriteString(s.statement(rec))
		b.WriteString("\n\n")
	}

	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write import script: %w", err)
	}
	s.log.Info("import script written",
		zap.String("path", s.path), zap.Int("records", len(s.recs)))
	return s.path, nil
}

func (s *RecordSink) statement(rec harvest.ImportRecord) string {
	if rec.Extended {
		return s.extendedStatement(rec)
	}
	return fmt.Sprintf(`INSERT INTO %s (nazev_souboru, datum_stazeni, nadpis, nadpis_normalizovany)
VALUES (%s, %s, %s, %s)
ON DUPLICATE KEY UPDATE
    datum_stazeni = VALUES(datum_stazeni),
    nadpis = VALUES(nadpis),
    nadpis_normalizovany = VALUES(nadpis_normalizovany);`,
		s.table,
		escapeSQL(rec.Filename),
		escapeSQL(rec.DownloadedAt.Format(timestampLayout)),
		escapeSQL(rec.Title),
		nullableText(rec.NormalizedTitle),
	)
}

func (s *RecordSink) extendedStatement(rec harvest.ImportRecord) string {
	return fmt.Sprintf(`INSERT INTO %s (detail_id, oblast, kategorie, nazev, cislo_jednaci, puvodce, zverejnit_od, zverejnit_do, nazev_souboru, datum_stazeni, nazev_normalizovany)
VALUES (%d, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
ON DUPLICATE KEY UPDATE
    oblast = VALUES(oblast),
    kategorie = VALUES(kategorie),
    nazev = VALUES(nazev),
    cislo_jednaci = VALUES(cislo_jednaci),
    puvodce = VALUES(puvodce),
    zverejnit_od = VALUES(zverejnit_od),
    zverejnit_do = VALUES(zverejnit_do),
    datum_stazeni = VALUES(datum_stazeni),
    nazev_normalizovany = VALUES(nazev_normalizovany);`,
		s.table,
		rec.DetailID,
		nullableText(rec.Area),
		nullableText(rec.Category),
		escapeSQL(rec.Title),
		nullableText(rec.CaseNumber),
		nullableText(rec.Issuer),
		nullableDate(rec.ValidFrom),
		nullableDate(rec.ValidTo),
		escapeSQL(rec.Filename),
		escapeSQL(rec.DownloadedAt.Format(timestampLayout)),
		nullableText(rec.NormalizedTitle),
	)
}
