package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusboard/notice-ingest/internal/notice"
)

// AcademicTag marks every notice ingested from the remote academic board.
// The title of the most recent notice carrying it is the novelty anchor.
const AcademicTag = "academic"

// publishedLayouts are the date formats the source site renders in the
// index page's date column.
var publishedLayouts = []string{
	"2006.01.02",
	"2006-01-02",
	"2006.01.02 15:04",
}

// Scheduler orchestrates one crawl cycle: list fetch, novelty detection
// against the stored anchor, and strictly sequential per-item ingestion in
// chronological order.
type Scheduler struct {
	lists         ListSource
	details       DetailSource
	store         Store
	archive       Archiver
	clock         Clock
	loc           *time.Location
	archivePrefix string
	logger        *zap.Logger
}

// NewScheduler wires an ingestion Scheduler.
func NewScheduler(
	lists ListSource,
	details DetailSource,
	store Store,
	archive Archiver,
	clock Clock,
	loc *time.Location,
	archivePrefix string,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		lists:         lists,
		details:       details,
		store:         store,
		archive:       archive,
		clock:         clock,
		loc:           loc,
		archivePrefix: archivePrefix,
		logger:        logger,
	}
}

// RunCycle executes one ingestion cycle. A list-fetch or anchor-lookup
// failure aborts the whole cycle; the next scheduled tick is the retry.
// Per-item failures are logged, counted, and skipped so a single bad remote
// record never blocks the entries behind it.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleStats, error) {
	stats := CycleStats{}
	s.logger.Info("ingestion cycle started")

	list, err := s.lists.FetchList(ctx)
	if err != nil {
		CyclesTotal.WithLabelValues("list_fetch_failed").Inc()
		s.logger.Error("index fetch failed", zap.Error(err))
		return stats, err
	}
	stats.Fetched = len(list)

	anchor := ""
	recent, err := s.store.FindMostRecentByTag(ctx, AcademicTag)
	switch {
	case err == nil:
		anchor = recent.Title
	case errors.Is(err, notice.ErrNotFound):
		// Bootstrap: nothing stored yet, the whole list is novel.
	default:
		CyclesTotal.WithLabelValues("anchor_failed").Inc()
		s.logger.Error("anchor lookup failed", zap.Error(err))
		return stats, fmt.Errorf("look up novelty anchor: %w", err)
	}

	novel := noveltySet(list, anchor)
	stats.Novel = len(novel)
	NoveltySetSize.Observe(float64(len(novel)))
	s.logger.Info("novelty set computed",
		zap.Int("fetched", len(list)),
		zap.Int("novel", len(novel)),
		zap.String("anchor", anchor),
	)

	for _, stub := range novel {
		if err := ctx.Err(); err != nil {
			CyclesTotal.WithLabelValues("canceled").Inc()
			return stats, err
		}
		if err := s.ingestOne(ctx, stub); err != nil {
			stats.Skipped++
			s.logger.Warn("skipping remote entry",
				zap.String("title", stub.Title),
				zap.String("link", stub.DetailLink),
				zap.Error(err),
			)
			continue
		}
		stats.Created++
		NoticesIngested.Inc()
	}

	CyclesTotal.WithLabelValues("ok").Inc()
	s.logger.Info("ingestion cycle finished",
		zap.Int("created", stats.Created),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// noveltySet scans newest-first until the anchor title is hit (or the list
// is exhausted) and returns the collected entries reversed into
// chronological, oldest-first order. An empty anchor marks everything novel.
func noveltySet(list []RemoteStub, anchor string) []RemoteStub {
	var collected []RemoteStub
	for _, stub := range list {
		if anchor != "" && stub.Title == anchor {
			break
		}
		collected = append(collected, stub)
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected
}

// ingestOne drives detail fetch, assembly, tag/user resolution, and
// persistence for a single novel entry.
func (s *Scheduler) ingestOne(ctx context.Context, stub RemoteStub) error {
	detail, err := s.details.FetchDetail(ctx, stub.DetailLink)
	if err != nil {
		ItemFailures.WithLabelValues("detail_fetch").Inc()
		return fmt.Errorf("fetch detail: %w", err)
	}

	publishedAt, err := s.parsePublished(stub.PublishedLabel)
	if err != nil {
		ItemFailures.WithLabelValues("date_parse").Inc()
		return fmt.Errorf("parse published label %q: %w", stub.PublishedLabel, err)
	}

	body := AssembleBody(detail)

	tagIDs, err := s.store.FindOrCreateTags(ctx, []string{AcademicTag, stub.CategoryLabel})
	if err != nil {
		ItemFailures.WithLabelValues("tags").Inc()
		return fmt.Errorf("resolve tags: %w", err)
	}

	author, err := s.store.FindOrCreateTempUser(
		ctx,
		fmt.Sprintf("%s (%s)", stub.AuthorName, stub.CategoryLabel),
	)
	if err != nil {
		ItemFailures.WithLabelValues("author").Inc()
		return fmt.Errorf("resolve author: %w", err)
	}

	created, err := s.store.CreateNotice(ctx, notice.Draft{
		Title:       stub.Title,
		BodyHTML:    body,
		TagIDs:      tagIDs,
		Author:      author,
		PublishedAt: publishedAt,
	})
	if err != nil {
		ItemFailures.WithLabelValues("persist").Inc()
		return fmt.Errorf("persist notice: %w", err)
	}

	// Audit trail and snapshot are best-effort; the notice is already
	// committed and the anchor must keep advancing.
	if err := s.store.RecordCrawl(ctx, notice.CrawlRecord{
		URL:        stub.DetailLink,
		Title:      stub.Title,
		SequenceID: stub.SequenceID,
		CrawledAt:  s.clock.Now(),
	}); err != nil {
		s.logger.Warn("crawl audit write failed", zap.Int64("notice_id", created.ID), zap.Error(err))
	}
	if s.archive != nil && len(detail.Raw) > 0 {
		object := fmt.Sprintf("%s/%d.html", s.archivePrefix, stub.SequenceID)
		if err := s.archive.Save(ctx, object, detail.Raw); err != nil {
			s.logger.Warn("snapshot archive failed", zap.String("object", object), zap.Error(err))
		}
	}

	s.logger.Info("notice ingested",
		zap.Int64("notice_id", created.ID),
		zap.String("title", stub.Title),
	)
	return nil
}

// parsePublished interprets the scraped date label in the configured
// timezone, trying each layout the site is known to render.
func (s *Scheduler) parsePublished(label string) (time.Time, error) {
	var lastErr error
	for _, layout := range publishedLayouts {
		t, err := time.ParseInLocation(layout, label, s.loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
