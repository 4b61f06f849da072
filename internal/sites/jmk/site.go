// Package jmk implements the site variant for the South Moravian Region
// bulletin board, a GINIS application paginated through ASP.NET viewstate
// postbacks. Attachments live on a separate detail page per notice.
package jmk

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

const listPath = "Seznam.aspx?a=0"

// PageFetcher is the slice of the resilient fetcher the site needs.
type PageFetcher interface {
	Get(ctx context.Context, url string) (string, error)
	PostForm(ctx context.Context, url string, form url.Values) (string, error)
}

// Config identifies the board instance.
type Config struct {
	// BaseURL of the GINIS application, e.g.
	// https://eud.jmk.cz/Gordic/Ginis/App/UDE01/
	BaseURL string
}

// Site fetches and parses the JMK board. It carries the viewstate of the
// last loaded list page, which the next postback must echo; the pipeline is
// strictly sequential, so no locking is needed.
type Site struct {
	base    *url.URL
	listURL string
	fetcher PageFetcher
	pause   harvest.Pauser
	log     *zap.Logger

	viewstate string
	generator string
}

// New builds the site. pause runs before each detail fetch.
func New(cfg Config, fetcher PageFetcher, pause harvest.Pauser, log *zap.Logger) (*Site, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	list, err := base.Parse(listPath)
	if err != nil {
		return nil, fmt.Errorf("build list url: %w", err)
	}
	if pause == nil {
		pause = harvest.NopPauser()
	}
	return &Site{
		base:    base,
		listURL: list.String(),
		fetcher: fetcher,
		pause:   pause,
		log:     log,
	}, nil
}

// Name is the source-site identifier used in records and remote paths.
func (s *Site) Name() string { return "jihomoravsky_kraj" }

// FetchListPage loads list page number page. Page one is a plain GET; later
// pages are pager postbacks carrying the previous page's viewstate.
func (s *Site) FetchListPage(ctx context.Context, page int) (harvest.ListPage, error) {
	var (
		body string
		err  error
	)
	if page == 1 {
		body, err = s.fetcher.Get(ctx, s.listURL)
	} else {
		form := url.Values{
			"__EVENTTARGET":        {"P"},
			"__EVENTARGUMENT":      {strconv.Itoa(page)},
			"__VIEWSTATE":          {s.viewstate},
			"__VIEWSTATEGENERATOR": {s.generator},
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
	s.captureViewstate(doc)

	return harvest.ListPage{Notices: parseList(doc, s.log)}, nil
}

// Attachments fetches the notice's detail page and extracts its file links.
func (s *Site) Attachments(ctx context.Context, n harvest.Notice) ([]harvest.Attachment, error) {
	detailURL, err := s.absolute(n.DetailRef)
	if err != nil {
		return nil, fmt.Errorf("build detail url: %w", err)
	}

	s.pause(ctx)
	body, err := s.fetcher.Get(ctx, detailURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}
	return parseDetail(doc), nil
}

// DownloadURL resolves the attachment reference against the board base.
func (s *Site) DownloadURL(a harvest.Attachment) string {
	abs, err := s.absolute(a.Ref)
	if err != nil {
		return a.Ref
	}
	return abs
}

// Record builds the simple JMK import row. The downstream table keeps the
// title with its first letter uppercased and a diacritics-free lowercase
// variant for searching.
func (s *Site) Record(n harvest.Notice, filename string) harvest.ImportRecord {
	title := textutil.CapitalizeFirst(n.Title)
	return harvest.ImportRecord{
		Filename:        filename,
		DownloadedAt:    n.Published,
		Title:           title,
		NormalizedTitle: textutil.Normalize(title),
	}
}

func (s *Site) captureViewstate(doc *goquery.Document) {
	if v, ok := doc.Find("#__VIEWSTATE").Attr("value"); ok {
		s.viewstate = v
	}
	if v, ok := doc.Find("#__VIEWSTATEGENERATOR").Attr("value"); ok {
		s.generator = v
	}
}

func (s *Site) absolute(ref string) (string, error) {
	u, err := s.base.Parse(ref)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
