package brno

import (
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/harvest"
	"github.com/chudst/edeska-harvester/internal/textutil"
)

var (
	totalCountPattern = regexp.MustCompile(`(\d+)\s*-\s*\d+\s+z\s+(\d+)`)
	detailIDPattern   = regexp.MustCompile(`detailId=(\d+)`)
	attachmentPattern = regexp.MustCompile(`idPriloha=(\d+)`)
)

// parseTotalCount reads the total record count from the "1 - 25 z 663"
// pager banner. Zero when the banner is missing; the pipeline then relies
// on an empty page to stop.
func parseTotalCount(body string) int {
	m := totalCountPattern.FindStringSubmatch(body)
	if m == nil {
		return 0
	}
	total, err := strconv.Atoi(m[2])
	if err != nil {
		return 0
	}
	return total
}

// parseRows extracts notices from the list table. A row without a title
// link or a parsable publication date is dropped, never an error.
func parseRows(doc *goquery.Document, log *zap.Logger) []harvest.Notice {
	var notices []harvest.Notice

	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		n, ok := parseRow(row, log)
		if ok {
			notices = append(notices, n)
		}
	})

	return notices
}

func parseRow(row *goquery.Selection, log *zap.Logger) (harvest.Notice, bool) {
	link := row.Find("td.edeska-sloupec-nazev a").First()
	href, ok := link.Attr("href")
	if !ok {
		return harvest.Notice{}, false
	}
	idMatch := detailIDPattern.FindStringSubmatch(href)
	if idMatch == nil {
		return harvest.Notice{}, false
	}
	detailID, _ := strconv.ParseInt(idMatch[1], 10, 64)

	// Two zverejnit cells: posted-from (required) and posted-until.
	var dates []string
	row.Find("td.edeska-sloupec-zverejnit").Each(func(_ int, cell *goquery.Selection) {
		dates = append(dates, textutil.CollapseWhitespace(cell.Text()))
	})
	if len(dates) == 0 || dates[0] == "" {
		return harvest.Notice{}, false
	}
	published, err := textutil.ParseCzechDate(dates[0])
	if err != nil {
		log.Warn("dropping row with unparsable date",
			zap.Int64("detail_id", detailID), zap.String("date", dates[0]))
		return harvest.Notice{}, false
	}

	n := harvest.Notice{
		Published:  published,
		Title:      textutil.CollapseWhitespace(link.Text()),
		DetailRef:  href,
		DetailID:   detailID,
		Area:       cellText(row, "td.edeska-sloupec-oblast"),
		Category:   cellText(row, "td.edeska-sloupec-kategorie"),
		CaseNumber: cellText(row, "td.edeska-sloupec-znacka"),
		Issuer:     cellText(row, "td.edeska-sloupec-puvodce"),
		ValidFrom:  published,
	}
	if len(dates) > 1 && dates[1] != "" {
		if until, err := textutil.ParseCzechDate(dates[1]); err == nil {
			n.ValidTo = until
		}
	}

	row.Find("td.edeska-sloupec-dokument a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		m := attachmentPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		n.Attachments = append(n.Attachments, harvest.Attachment{
			Ref:  m[1],
			Name: textutil.CollapseWhitespace(a.Text()),
		})
	})

	return n, true
}

func cellText(row *goquery.Selection, selector string) string {
	return textutil.CollapseWhitespace(row.Find(selector).First().Text())
}
