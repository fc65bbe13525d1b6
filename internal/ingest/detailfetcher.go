package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// DetailFetcher fetches and parses a single notice detail page.
type DetailFetcher struct {
	client *Client
	logger *zap.Logger
}

// NewDetailFetcher builds a DetailFetcher.
func NewDetailFetcher(client *Client, logger *zap.Logger) *DetailFetcher {
	return &DetailFetcher{client: client, logger: logger}
}

// FetchDetail GETs the detail page and extracts the attachment list and the
// content body. A page without the content block fails with
// ErrContentBlockMissing.
func (f *DetailFetcher) FetchDetail(ctx context.Context, link string) (RemoteDetail, error) {
	body, err := f.client.Get(ctx, link)
	if err != nil {
		return RemoteDetail{}, err
	}
	detail, err := parseDetail(link, body)
	if err != nil {
		return RemoteDetail{}, err
	}
	detail.Raw = body
	f.logger.Debug("fetched notice detail",
		zap.String("link", link),
		zap.Int("attachments", len(detail.Attachments)),
	)
	return detail, nil
}

// parseDetail extracts attachments and the content block from detail HTML.
func parseDetail(link string, body []byte) (RemoteDetail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return RemoteDetail{}, fmt.Errorf("parse detail page: %w", err)
	}
	base, err := url.Parse(link)
	if err != nil {
		return RemoteDetail{}, fmt.Errorf("parse detail url: %w", err)
	}

	var attachments []Attachment
	doc.Find(".bd_detail_file > ul > li > a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		class, _ := a.Attr("class")
		attachments = append(attachments, Attachment{
			Href: base.ResolveReference(ref).String(),
			Name: strings.TrimSpace(a.Text()),
			Kind: ParseAttachmentKind(strings.TrimSpace(class)),
		})
	})

	content := doc.Find(".bd_detail_content")
	if content.Length() == 0 {
		return RemoteDetail{}, fmt.Errorf("%s: %w", link, ErrContentBlockMissing)
	}
	html, err := content.First().Html()
	if err != nil {
		return RemoteDetail{}, fmt.Errorf("render content block: %w", err)
	}

	return RemoteDetail{
		Attachments: attachments,
		BodyHTML:    strings.TrimSpace(html),
	}, nil
}
