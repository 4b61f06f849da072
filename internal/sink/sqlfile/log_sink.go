package sqlfile

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/harvest"
)

// LogSink writes the run-summary row as a one-statement MySQL script. The
// logy table is keyed by (datum, stranky); a second run of the same day
// appends its text to the existing row instead of replacing it.
type LogSink struct {
	path string
	log  *zap.Logger
	now  func() time.Time
}

// NewLogSink builds a sink writing into path.
func NewLogSink(path string, log *zap.Logger) *LogSink {
	return &LogSink{
		path: path,
		log:  log,
		now:  time.Now,
	}
}

// Save writes the script and returns its path.
func (s *LogSink) Save(_ context.Context, rec harvest.LogRecord) (string, error) {
	problem := "ne"
	if rec.HasError {
		problem = "ano"
	}

	sql := fmt.Sprintf(`-- logy %s: %s

INSERT INTO logy (datum, zdroj, stranky, text, problem, marker_datum)
VALUES ('%s', %s, %s, %s, '%s', %s)
ON DUPLICATE KEY UPDATE
    text = CONCAT(COALESCE(text, ''), '\n', VALUES(text)),
    problem = VALUES(problem),
    marker_datum = VALUES(marker_datum);
`,
		rec.Site, s.now().Format(timestampLayout),
		rec.Date.Format("2006-01-02"),
		escapeSQL(rec.Source),
		escapeSQL(rec.Site),
		escapeSQL(rec.Text),
		problem,
		nullableDate(rec.MarkerDate),
	)

	if err := os.WriteFile(s.path, []byte(sql), 0o644); err != nil {
		return "", fmt.Errorf("write log script: %w", err)
	}
	s.log.Info("log script written", zap.String("path", s.path))
	return s.path, nil
}
