// Package harvest defines the core types of the pipeline and drives one
// harvest run: a date-bounded walk over a bulletin board's notice list,
// attachment downloads and artifact emission.
package harvest

import (
	"time"
)

// Notice is one published bulletin-board entry. Notices are transient:
// constructed per list page and discarded after processing.
type Notice struct {
	Published time.Time
	Title     string
	// DetailRef locates the notice detail: a relative URL (JMK) or a
	// page-local identifier (Brno).
	DetailRef string
	DetailID  int64

	// Auxiliary columns only the Brno board exposes.
	Area       string
	Category   string
	CaseNumber string
	Issuer     string
	ValidFrom  time.Time
	ValidTo    time.Time

	// Attachments are pre-extracted when the list rows carry them inline;
	// otherwise resolved through Site.Attachments.
	Attachments []Attachment
}

// Attachment is one downloadable file referenced by a notice.
type Attachment struct {
	// Ref is the site-local locator: a relative URL or an attachment id.
	Ref  string
	Name string
}

// DateRange is the inclusive publication-date window of one run, fixed at
// startup.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Newer reports whether t falls after the window (skip, keep scanning).
func (r DateRange) Newer(t time.Time) bool { return t.After(r.To) }

// Older reports whether t falls before the window (terminal for the
// traversal, the lists are ordered newest first).
func (r DateRange) Older(t time.Time) bool { return t.Before(r.From) }

// RunStats counts the work done by one run. Owned by the Harvester and
// discarded after the summary is emitted.
type RunStats struct {
	Pages      int
	Notices    int
	Downloaded int
	Uploaded   int
	Failed     int
}

// ImportRecord is one row handed to the record sink per downloaded file.
// Extended marks the rich Brno shape; the JMK shape carries only the first
// four fields.
type ImportRecord struct {
	Filename        string
	DownloadedAt    time.Time
	Title           string
	NormalizedTitle string

	Extended   bool
	DetailID   int64
	Area       string
	Category   string
	CaseNumber string
	Issuer     string
	ValidFrom  time.Time
	ValidTo    time.Time
}

// LogRecord is the run-summary row keyed downstream by (date, site).
type LogRecord struct {
	Date     time.Time
	Source   string
	Site     string
	Text     string
	HasError bool
	// MarkerDate lets downstream consumers detect that a report landed for
	// the day; zero means no marker.
	MarkerDate time.Time
}
