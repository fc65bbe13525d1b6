// Package notice defines the persisted notice-board entities shared by the
// ingestion and reminder subsystems, plus the store contract both consume.
package notice

import "time"

// TagID identifies a canonical tag row.
type TagID int64

// UserRef points at the owning user of a notice. For scraped notices this is
// a pseudo-user provisioned from the author string on the source site.
type UserRef struct {
	UUID string
	Name string
}

// Notice is the persisted entity as seen by this service. CreatedAt is
// immutable once written; CurrentDeadline is the single mutable deadline.
type Notice struct {
	ID              int64
	Title           string
	BodyHTML        string
	Author          UserRef
	Tags            []string
	PublishedAt     time.Time
	CreatedAt       time.Time
	CurrentDeadline *time.Time
	ImageURL        string
}

// Draft carries everything needed to create a notice. The store assigns the
// ID and creation timestamp.
type Draft struct {
	Title       string
	BodyHTML    string
	TagIDs      []TagID
	Author      UserRef
	PublishedAt time.Time
	Deadline    *time.Time
	ImageKeys   []string
}

// CrawlRecord is the audit row written for each successfully ingested remote
// entry, keyed by the remote detail URL.
type CrawlRecord struct {
	URL        string
	Title      string
	SequenceID int
	CrawledAt  time.Time
}
