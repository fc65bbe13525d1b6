// Package postgres provides the Postgres-backed notice store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusboard/notice-ingest/internal/notice"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Timezone        string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements notice.Store on top of a pgx pool.
type Store struct {
	pool     pool
	timezone string
}

// New creates a Store using the provided config and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewWithPool(p, cfg.Timezone), nil
}

// NewWithPool wraps an existing pool. Used by tests with pgxmock.
func NewWithPool(p pool, timezone string) *Store {
	if timezone == "" {
		timezone = "Asia/Seoul"
	}
	return &Store{pool: p, timezone: timezone}
}

// Close closes the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// FindMostRecentByTag returns the newest notice carrying the tag, or
// notice.ErrNotFound when the tag has no notices yet.
func (s *Store) FindMostRecentByTag(ctx context.Context, tag string) (*notice.Notice, error) {
	query := `
		SELECT n.id, n.title, n.body, n.author_uuid, u.name, n.published_at, n.created_at, n.current_deadline
		FROM notices n
		JOIN users u ON u.uuid = n.author_uuid
		JOIN notice_tags nt ON nt.notice_id = n.id
		JOIN tags t ON t.id = nt.tag_id
		WHERE t.name = $1
		ORDER BY n.created_at DESC
		LIMIT 1
	`
	var n notice.Notice
	err := s.pool.QueryRow(ctx, query, tag).Scan(
		&n.ID, &n.Title, &n.BodyHTML, &n.Author.UUID, &n.Author.Name,
		&n.PublishedAt, &n.CreatedAt, &n.CurrentDeadline,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notice.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query most recent notice by tag %q: %w", tag, err)
	}
	n.Tags = []string{tag}
	return &n, nil
}

// CreateNotice inserts the notice row and its tag links. The inserts are
// deliberately not wrapped in a transaction; tag and user resolution are
// idempotent upserts, so repeating partial work after a failure is safe.
func (s *Store) CreateNotice(ctx context.Context, draft notice.Draft) (*notice.Notice, error) {
	n := notice.Notice{
		Title:           draft.Title,
		BodyHTML:        draft.BodyHTML,
		Author:          draft.Author,
		PublishedAt:     draft.PublishedAt,
		CurrentDeadline: draft.Deadline,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notices (title, body, author_uuid, published_at, current_deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, draft.Title, draft.BodyHTML, draft.Author.UUID, draft.PublishedAt, draft.Deadline).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert notice: %w", err)
	}
	for _, tagID := range draft.TagIDs {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO notice_tags (notice_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, n.ID, tagID)
		if err != nil {
			return nil, fmt.Errorf("link notice %d to tag %d: %w", n.ID, tagID, err)
		}
	}
	return &n, nil
}

// FindOrCreateTags upserts each label and returns IDs in label order.
func (s *Store) FindOrCreateTags(ctx context.Context, labels []string) ([]notice.TagID, error) {
	ids := make([]notice.TagID, 0, len(labels))
	for _, label := range labels {
		var id int64
		err := s.pool.QueryRow(ctx, `
			INSERT INTO tags (name)
			VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, label).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("upsert tag %q: %w", label, err)
		}
		ids = append(ids, notice.TagID(id))
	}
	return ids, nil
}

// FindOrCreateTempUser upserts a pseudo-user keyed by display name. The
// generated UUID is only used when the row does not exist yet.
func (s *Store) FindOrCreateTempUser(ctx context.Context, displayName string) (notice.UserRef, error) {
	newID, err := uuid.NewV7()
	if err != nil {
		return notice.UserRef{}, fmt.Errorf("generate user uuid: %w", err)
	}
	var ref notice.UserRef
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (uuid, name, is_temporary)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING uuid, name
	`, newID.String(), displayName).Scan(&ref.UUID, &ref.Name)
	if err != nil {
		return notice.UserRef{}, fmt.Errorf("upsert temp user %q: %w", displayName, err)
	}
	return ref, nil
}

// FindNoticesWithDeadlineOn returns notices whose current deadline, seen as
// a calendar day in the store timezone, falls on or after the given day.
func (s *Store) FindNoticesWithDeadlineOn(ctx context.Context, day time.Time) ([]notice.Notice, error) {
	query := `
		SELECT n.id, n.title, n.body, n.author_uuid, u.name, n.published_at, n.created_at,
		       n.current_deadline, COALESCE(f.url, '')
		FROM notices n
		JOIN users u ON u.uuid = n.author_uuid
		LEFT JOIN LATERAL (
			SELECT url FROM notice_files nf
			WHERE nf.notice_id = n.id
			ORDER BY nf.ord
			LIMIT 1
		) f ON TRUE
		WHERE n.current_deadline IS NOT NULL
		  AND (n.current_deadline AT TIME ZONE $2)::date >= ($1 AT TIME ZONE $2)::date
	`
	rows, err := s.pool.Query(ctx, query, day, s.timezone)
	if err != nil {
		return nil, fmt.Errorf("query notices with deadline: %w", err)
	}
	defer rows.Close()

	var out []notice.Notice
	for rows.Next() {
		var n notice.Notice
		if err := rows.Scan(
			&n.ID, &n.Title, &n.BodyHTML, &n.Author.UUID, &n.Author.Name,
			&n.PublishedAt, &n.CreatedAt, &n.CurrentDeadline, &n.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scan notice row: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notice rows: %w", err)
	}
	return out, nil
}

// DeviceTokensForNotice flattens the tokens of every reminder subscriber.
func (s *Store) DeviceTokensForNotice(ctx context.Context, noticeID int64) ([]string, error) {
	query := `
		SELECT ft.token
		FROM reminders r
		JOIN fcm_tokens ft ON ft.user_uuid = r.user_uuid
		WHERE r.notice_id = $1
	`
	return s.queryTokens(ctx, query, noticeID)
}

func (s *Store) queryTokens(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate device tokens: %w", err)
	}
	return tokens, nil
}

// RecordCrawl upserts the audit row keyed by the remote URL.
func (s *Store) RecordCrawl(ctx context.Context, rec notice.CrawlRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crawls (url, title, sequence_id, crawled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO UPDATE
		SET title = EXCLUDED.title, crawled_at = EXCLUDED.crawled_at
	`, rec.URL, rec.Title, rec.SequenceID, rec.CrawledAt)
	if err != nil {
		return fmt.Errorf("upsert crawl record for %s: %w", rec.URL, err)
	}
	return nil
}

// LookupCrawled returns stored crawl rows for the given URLs.
func (s *Store) LookupCrawled(ctx context.Context, urls []string) ([]notice.CrawlRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT url, title, sequence_id, crawled_at
		FROM crawls
		WHERE url = ANY($1)
	`, urls)
	if err != nil {
		return nil, fmt.Errorf("query crawl records: %w", err)
	}
	defer rows.Close()

	var out []notice.CrawlRecord
	for rows.Next() {
		var rec notice.CrawlRecord
		if err := rows.Scan(&rec.URL, &rec.Title, &rec.SequenceID, &rec.CrawledAt); err != nil {
			return nil, fmt.Errorf("scan crawl record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crawl records: %w", err)
	}
	return out, nil
}
