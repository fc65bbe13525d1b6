package notice

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used for local development and tests.
type MemoryStore struct {
	mu         sync.Mutex
	nextID     int64
	nextTagID  TagID
	notices    []Notice
	tags       map[string]TagID
	tagNames   map[TagID]string
	users      map[string]UserRef
	tokens     map[int64][]string
	crawls     map[string]CrawlRecord
	nextUserID int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tags:     make(map[string]TagID),
		tagNames: make(map[TagID]string),
		users:    make(map[string]UserRef),
		tokens:   make(map[int64][]string),
		crawls:   make(map[string]CrawlRecord),
	}
}

// FindMostRecentByTag returns the latest-created notice carrying the tag.
func (s *MemoryStore) FindMostRecentByTag(_ context.Context, tag string) (*Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.notices) - 1; i >= 0; i-- {
		for _, t := range s.notices[i].Tags {
			if t == tag {
				n := s.notices[i]
				return &n, nil
			}
		}
	}
	return nil, ErrNotFound
}

// CreateNotice appends the draft as a new notice.
func (s *MemoryStore) CreateNotice(_ context.Context, draft Draft) (*Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tags := make([]string, 0, len(draft.TagIDs))
	for _, id := range draft.TagIDs {
		tags = append(tags, s.tagNames[id])
	}
	n := Notice{
		ID:              s.nextID,
		Title:           draft.Title,
		BodyHTML:        draft.BodyHTML,
		Author:          draft.Author,
		Tags:            tags,
		PublishedAt:     draft.PublishedAt,
		CreatedAt:       time.Now().UTC(),
		CurrentDeadline: draft.Deadline,
	}
	s.notices = append(s.notices, n)
	return &n, nil
}

// FindOrCreateTags upserts each label and returns the IDs in label order.
func (s *MemoryStore) FindOrCreateTags(_ context.Context, labels []string) ([]TagID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]TagID, 0, len(labels))
	for _, label := range labels {
		id, ok := s.tags[label]
		if !ok {
			s.nextTagID++
			id = s.nextTagID
			s.tags[label] = id
			s.tagNames[id] = label
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FindOrCreateTempUser upserts a pseudo-user keyed by display name.
func (s *MemoryStore) FindOrCreateTempUser(_ context.Context, displayName string) (UserRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.users[displayName]; ok {
		return ref, nil
	}
	s.nextUserID++
	ref := UserRef{UUID: fmt.Sprintf("temp-%d", s.nextUserID), Name: displayName}
	s.users[displayName] = ref
	return ref, nil
}

// FindNoticesWithDeadlineOn returns notices whose deadline day is on or
// after the given day.
func (s *MemoryStore) FindNoticesWithDeadlineOn(_ context.Context, day time.Time) ([]Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var out []Notice
	for _, n := range s.notices {
		if n.CurrentDeadline == nil {
			continue
		}
		d := n.CurrentDeadline.In(day.Location())
		dd := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, day.Location())
		if !dd.Before(start) {
			out = append(out, n)
		}
	}
	return out, nil
}

// DeviceTokensForNotice returns the tokens registered for the notice.
func (s *MemoryStore) DeviceTokensForNotice(_ context.Context, noticeID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens[noticeID]...), nil
}

// RecordCrawl stores the audit row keyed by URL.
func (s *MemoryStore) RecordCrawl(_ context.Context, rec CrawlRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crawls[rec.URL] = rec
	return nil
}

// LookupCrawled returns the stored crawl rows for the given URLs.
func (s *MemoryStore) LookupCrawled(_ context.Context, urls []string) ([]CrawlRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []CrawlRecord
	for _, u := range urls {
		if rec, ok := s.crawls[u]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// SubscribeReminder registers device tokens for a notice. Test/dev helper.
func (s *MemoryStore) SubscribeReminder(noticeID int64, tokens ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[noticeID] = append(s.tokens[noticeID], tokens...)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
