package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// pinnedRowClass marks sticky announcements on the index page. Pinned rows
// sit outside the chronological stream and would poison the novelty anchor,
// so they are excluded from every fetch.
const pinnedRowClass = "lstNtc"

// ListFetcher fetches and parses the remote index page into stub entries.
type ListFetcher struct {
	client   *Client
	indexURL string
	logger   *zap.Logger
}

// NewListFetcher builds a ListFetcher for the fixed index URL.
func NewListFetcher(client *Client, indexURL string, logger *zap.Logger) *ListFetcher {
	return &ListFetcher{client: client, indexURL: indexURL, logger: logger}
}

// FetchList GETs the index page and returns its rows newest-first, the way
// the site renders them. Malformed rows are logged and skipped; they never
// fail the whole fetch.
func (f *ListFetcher) FetchList(ctx context.Context) ([]RemoteStub, error) {
	body, err := f.client.Get(ctx, f.indexURL)
	if err != nil {
		return nil, err
	}
	stubs, rowErrs, err := parseList(f.indexURL, body)
	if err != nil {
		return nil, err
	}
	for _, rowErr := range rowErrs {
		f.logger.Warn("skipping malformed index row", zap.Error(rowErr))
	}
	return stubs, nil
}

// parseList extracts stub entries from the index page HTML.
func parseList(indexURL string, body []byte) ([]RemoteStub, []error, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse index page: %w", err)
	}
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse index url: %w", err)
	}

	var (
		stubs   []RemoteStub
		rowErrs []error
	)
	doc.Find("table > tbody > tr").Each(func(i int, row *goquery.Selection) {
		if class, _ := row.Attr("class"); strings.Contains(class, pinnedRowClass) {
			return
		}
		stub, err := parseRow(base, i, row)
		if err != nil {
			rowErrs = append(rowErrs, err)
			return
		}
		stubs = append(stubs, stub)
	})
	return stubs, rowErrs, nil
}

// parseRow strictly maps one table row onto a RemoteStub. Every expected
// column must be present and well formed, or the row fails with a RowError.
func parseRow(base *url.URL, rowIdx int, row *goquery.Selection) (RemoteStub, error) {
	cells := row.Find("td")
	if cells.Length() < 6 {
		return RemoteStub{}, &RowError{
			Row:   rowIdx,
			Field: "cells",
			Err:   fmt.Errorf("expected at least 6 columns, got %d", cells.Length()),
		}
	}

	seqText := strings.TrimSpace(cells.Eq(0).Text())
	seq, err := strconv.Atoi(seqText)
	if err != nil {
		return RemoteStub{}, &RowError{
			Row:   rowIdx,
			Field: "sequenceId",
			Err:   fmt.Errorf("parse %q: %w", seqText, err),
		}
	}

	title := strings.TrimSpace(cells.Eq(2).Text())
	if title == "" {
		return RemoteStub{}, &RowError{Row: rowIdx, Field: "title", Err: fmt.Errorf("empty title")}
	}

	href, ok := cells.Eq(2).Find("a").Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return RemoteStub{}, &RowError{Row: rowIdx, Field: "detailLink", Err: fmt.Errorf("missing link")}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return RemoteStub{}, &RowError{
			Row:   rowIdx,
			Field: "detailLink",
			Err:   fmt.Errorf("parse %q: %w", href, err),
		}
	}

	published := strings.TrimSpace(cells.Eq(5).Text())
	if published == "" {
		return RemoteStub{}, &RowError{Row: rowIdx, Field: "publishedLabel", Err: fmt.Errorf("empty date")}
	}

	return RemoteStub{
		SequenceID:     seq,
		Title:          title,
		DetailLink:     base.ResolveReference(ref).String(),
		AuthorName:     strings.TrimSpace(cells.Eq(3).Text()),
		CategoryLabel:  strings.TrimSpace(cells.Eq(1).Text()),
		PublishedLabel: published,
	}, nil
}
