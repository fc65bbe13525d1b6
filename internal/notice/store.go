package notice

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups when no matching row exists.
var ErrNotFound = errors.New("notice: not found")

// Store is the persistence collaborator boundary. Tag and temp-user
// resolution are modeled as single idempotent upserts so that overlapping
// cycles repeating partial work stay safe.
type Store interface {
	// FindMostRecentByTag returns the newest notice carrying the given tag,
	// or ErrNotFound when none exists.
	FindMostRecentByTag(ctx context.Context, tag string) (*Notice, error)

	// CreateNotice persists a draft and returns the stored notice.
	CreateNotice(ctx context.Context, draft Draft) (*Notice, error)

	// FindOrCreateTags resolves labels to tag IDs, creating missing tags.
	// The returned slice matches the order of labels.
	FindOrCreateTags(ctx context.Context, labels []string) ([]TagID, error)

	// FindOrCreateTempUser resolves a display name to a durable pseudo-user.
	FindOrCreateTempUser(ctx context.Context, displayName string) (UserRef, error)

	// FindNoticesWithDeadlineOn returns notices whose current deadline,
	// truncated to the calendar day of the store's timezone, falls on or
	// after the given day.
	FindNoticesWithDeadlineOn(ctx context.Context, day time.Time) ([]Notice, error)

	// DeviceTokensForNotice flattens the device tokens of every reminder
	// subscriber of the notice. Duplicates are not removed.
	DeviceTokensForNotice(ctx context.Context, noticeID int64) ([]string, error)

	// RecordCrawl writes the audit row for an ingested remote entry.
	RecordCrawl(ctx context.Context, rec CrawlRecord) error

	// LookupCrawled returns the crawl records already stored for the URLs.
	LookupCrawled(ctx context.Context, urls []string) ([]CrawlRecord, error)

	// Close releases the underlying connections.
	Close()
}
