package jmk

import (
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/chudst/edeska-harvester/internal/harvest"
	"github.com/chudst/edeska-harvester/internal/textutil"
)

// parseList extracts notices from a list page. Rows are the table rows
// whose first cell carries the Priloha class; a row without a parsable
// publication date or a detail link is dropped, never an error.
func parseList(doc *goquery.Document, log *zap.Logger) []harvest.Notice {
	var notices []harvest.Notice

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("td.Priloha").Length() == 0 {
			return
		}

		dateText := textutil.CollapseWhitespace(row.Find("td[class^=VyveseniDneTd]").First().Text())
		published, err := textutil.ParseCzechDate(dateText)
		if err != nil {
			if dateText != "" {
				log.Warn("dropping row with unparsable date", zap.String("date", dateText))
			}
			return
		}

		link := row.Find("td[class^=NazevTd] a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		notices = append(notices, harvest.Notice{
			Published: published,
			Title:     textutil.CollapseWhitespace(link.Text()),
			DetailRef: href,
		})
	})

	return notices
}

// parseDetail extracts the attachment links of one notice detail page.
// A detail without attachments is a valid outcome.
func parseDetail(doc *goquery.Document) []harvest.Attachment {
	var attachments []harvest.Attachment

	doc.Find("a.soubor_odkaz").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		attachments = append(attachments, harvest.Attachment{
			Ref:  href,
			Name: textutil.CollapseWhitespace(link.Text()),
		})
	})

	return attachments
}
