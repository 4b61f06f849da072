// Package brno implements the site variant for the Brno city hall bulletin
// board, a JSP application with offset pagination. The list rows carry all
// notice metadata and the attachment links inline, so no detail fetch is
// needed.
package brno

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/harvest"
	"github.com/chudst/edeska-harvester/internal/textutil"
)

const (
	listPath     = "eDeskaAktualni.jsp"
	downloadPath = "download.jsp?idPriloha="
)

// PageFetcher is the slice of the resilient fetcher the site needs.
type PageFetcher interface {
	Get(ctx context.Context, url string) (string, error)
	PostForm(ctx context.Context, url string, form url.Values) (string, error)
}

// Config identifies the board instance.
type Config struct {
	// BaseURL of the eDeska application, e.g. https://edeska.brno.cz/eDeska/
	BaseURL string
	// PageSize is the record count requested per page (the site default
	// is 25).
	PageSize int
}

// Site fetches and parses the Brno board.
type Site struct {
	base     *url.URL
	listURL  string
	pageSize int
	fetcher  PageFetcher
	log      *zap.Logger
}

// New builds the site.
func New(cfg Config, fetcher PageFetcher, log *zap.Logger) (*Site, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	list, err := base.Parse(listPath)
	if err != nil {
		return nil, fmt.Errorf("build list url: %w", err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	return &Site{
		base:     base,
		listURL:  list.String(),
		pageSize: cfg.PageSize,
		fetcher:  fetcher,
		log:      log,
	}, nil
}

// Name is the source-site identifier used in records and remote paths.
func (s *Site) Name() string { return "magistrat_mesta_brna" }

// FetchListPage loads list page number page. Page one is a plain GET; later
// pages POST the offset. The first page also advertises the total record
// count, used only to recognize the end of the list.
func (s *Site) FetchListPage(ctx context.Context, page int) (harvest.ListPage, error) {
	var (
		body string
		err  error
	)
	if page == 1 {
		body, err = s.fetcher.Get(ctx, s.listURL)
	} else {
		form := url.Values{
			"order": {"vyveseno"},
			"desc":  {"true"},
			"first": {strconv.Itoa((page - 1) * s.pageSize)},
			"count": {strconv.Itoa(s.pageSize)},
		}
		body, err = s.fetcher.PostForm(ctx, s.listURL, form)
	}
	if err != nil {
		return harvest.ListPage{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return harvest.ListPage{}, fmt.Errorf("parse list page: %w", err)
	}

	return harvest.ListPage{
		Notices: parseRows(doc, s.log),
		Total:   parseTotalCount(body),
	}, nil
}

// Attachments returns the links already extracted from the list row.
func (s *Site) Attachments(_ context.Context, n harvest.Notice) ([]harvest.Attachment, error) {
	return n.Attachments, nil
}

// DownloadURL builds the attachment download URL from its id.
func (s *Site) DownloadURL(a harvest.Attachment) string {
	u, err := s.base.Parse(downloadPath + a.Ref)
	if err != nil {
		return a.Ref
	}
	return u.String()
}

// Record builds the rich Brno import row carrying the auxiliary columns.
func (s *Site) Record(n harvest.Notice, filename string) harvest.ImportRecord {
	return harvest.ImportRecord{
		Filename:        filename,
		DownloadedAt:    n.Published,
		Title:           n.Title,
		NormalizedTitle: textutil.Normalize(n.Title),
		Extended:        true,
		DetailID:        n.DetailID,
		Area:            n.Area,
		Category:        n.Category,
		CaseNumber:      n.CaseNumber,
		Issuer:          n.Issuer,
		ValidFrom:       n.ValidFrom,
		ValidTo:         n.ValidTo,
	}
}
