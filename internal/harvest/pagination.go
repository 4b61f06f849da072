package harvest

import (
	"context"

	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/textutil"
)

// EndReason records why the traversal stopped, distinguishing a natural end
// from an upstream failure in the run summary.
type EndReason int

const (
	// EndNone means the traversal is still running.
	EndNone EndReason = iota
	// EndBoundary means a notice older than the date range was reached.
	EndBoundary
	// EndExhausted means an empty page or the advertised total was reached.
	EndExhausted
	// EndFetchError means a page fetch failed after retries.
	EndFetchError
)

func (r EndReason) String() string {
	switch r {
	case EndBoundary:
		return "range boundary"
	case EndExhausted:
		return "list exhausted"
	case EndFetchError:
		return "page fetch error"
	default:
		return "running"
	}
}

// Pager walks the site's notice list page by page and yields the notices
// falling inside the date window, newest first. It is a lazy, finite,
// one-pass sequence.
//
// The stopping rule trusts the site-asserted descending ordering by
// publication date: the first notice older than the window terminates the
// whole traversal, including the rest of its page. Out-of-order listings
// are explicitly not tolerated.
type Pager struct {
	site   Site
	window DateRange
	pause  Pauser
	log    *zap.Logger

	// onPage is invoked once per non-empty page, before its notices are
	// yielded.
	onPage func()

	page   int
	buf    []Notice
	pos    int
	total  int
	seen   int
	pages  int
	done   bool
	reason EndReason
}

// NewPager builds a Pager over site for the given window. pause runs
// between page fetches; onPage may be nil.
func NewPager(site Site, window DateRange, pause Pauser, onPage func(), log *zap.Logger) *Pager {
	if pause == nil {
		pause = NopPauser()
	}
	return &Pager{
		site:   site,
		window: window,
		pause:  pause,
		onPage: onPage,
		log:    log,
	}
}

// Next yields the next in-range notice, loading further pages on demand.
// The second return is false once the traversal ended; Reason tells why.
func (p *Pager) Next(ctx context.Context) (Notice, bool) {
	for !p.done {
		for p.pos < len(p.buf) {
			n := p.buf[p.pos]
			p.pos++
			if p.window.Newer(n.Published) {
				continue
			}
			if p.window.Older(n.Published) {
				p.log.Info("reached a notice older than the range, stopping",
					zap.String("published", n.Published.Format(textutil.ISODateLayout)),
					zap.String("from", p.window.From.Format(textutil.ISODateLayout)),
				)
				p.finish(EndBoundary)
				return Notice{}, false
			}
			return n, true
		}
		p.advance(ctx)
	}
	return Notice{}, false
}

func (p *Pager) advance(ctx context.Context) {
	if p.total > 0 && p.seen >= p.total {
		p.log.Info("reached the end of the list", zap.Int("total", p.total))
		p.finish(EndExhausted)
		return
	}
	if p.page > 0 {
		p.pause(ctx)
	}
	p.page++

	p.log.Info("loading list page", zap.Int("page", p.page))
	listPage, err := p.site.FetchListPage(ctx, p.page)
	if err != nil {
		p.log.Error("list page fetch failed, stopping", zap.Int("page", p.page), zap.Error(err))
		p.finish(EndFetchError)
		return
	}
	if p.total == 0 && listPage.Total > 0 {
		p.total = listPage.Total
		p.log.Info("total records advertised by the board", zap.Int("total", p.total))
	}
	if len(listPage.Notices) == 0 {
		p.log.Info("no notices on the page, stopping")
		p.finish(EndExhausted)
		return
	}

	p.log.Info("notices found", zap.Int("count", len(listPage.Notices)))
	p.pages++
	if p.onPage != nil {
		p.onPage()
	}
	p.buf = listPage.Notices
	p.pos = 0
	p.seen += len(listPage.Notices)
}

func (p *Pager) finish(reason EndReason) {
	p.done = true
	p.reason = reason
	p.buf = nil
}

// Pages returns the number of non-empty pages consumed so far.
func (p *Pager) Pages() int { return p.pages }

// Reason reports why the traversal ended; EndNone while still running.
func (p *Pager) Reason() EndReason { return p.reason }
