package ingest

import (
	"context"
	"time"

	"github.com/campusboard/notice-ingest/internal/notice"
)

// ListSource fetches the remote index page.
type ListSource interface {
	FetchList(ctx context.Context) ([]RemoteStub, error)
}

// DetailSource fetches a single notice detail page.
type DetailSource interface {
	FetchDetail(ctx context.Context, link string) (RemoteDetail, error)
}

// Store is the slice of the persistence collaborator the ingestion pipeline
// needs: anchor lookup, idempotent tag/user upserts, notice creation, and
// the crawl audit row.
type Store interface {
	FindMostRecentByTag(ctx context.Context, tag string) (*notice.Notice, error)
	CreateNotice(ctx context.Context, draft notice.Draft) (*notice.Notice, error)
	FindOrCreateTags(ctx context.Context, labels []string) ([]notice.TagID, error)
	FindOrCreateTempUser(ctx context.Context, displayName string) (notice.UserRef, error)
	RecordCrawl(ctx context.Context, rec notice.CrawlRecord) error
}

// Archiver stores raw page snapshots.
type Archiver interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// Clock returns the current time. Injected for testability.
type Clock interface {
	Now() time.Time
}
