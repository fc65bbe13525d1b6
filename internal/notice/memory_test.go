package notice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFindMostRecentByTag(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.FindMostRecentByTag(ctx, "academic")
	require.ErrorIs(t, err, ErrNotFound)

	tagIDs, err := s.FindOrCreateTags(ctx, []string{"academic"})
	require.NoError(t, err)

	for _, title := range []string{"Older", "Newer"} {
		_, err := s.CreateNotice(ctx, Draft{Title: title, TagIDs: tagIDs})
		require.NoError(t, err)
	}
	_, err = s.CreateNotice(ctx, Draft{Title: "Untagged"})
	require.NoError(t, err)

	got, err := s.FindMostRecentByTag(ctx, "academic")
	require.NoError(t, err)
	require.Equal(t, "Newer", got.Title)
}

func TestMemoryStoreTagUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.FindOrCreateTags(ctx, []string{"academic", "장학"})
	require.NoError(t, err)
	second, err := s.FindOrCreateTags(ctx, []string{"academic", "장학"})
	require.NoError(t, err)
	require.Equal(t, first, second)

	third, err := s.FindOrCreateTags(ctx, []string{"장학", "academic"})
	require.NoError(t, err)
	require.Equal(t, []TagID{first[1], first[0]}, third)
}

func TestMemoryStoreTempUserUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.FindOrCreateTempUser(ctx, "Registrar (학사)")
	require.NoError(t, err)
	b, err := s.FindOrCreateTempUser(ctx, "Registrar (학사)")
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := s.FindOrCreateTempUser(ctx, "Registrar (장학)")
	require.NoError(t, err)
	require.NotEqual(t, a.UUID, c.UUID)
}

func TestMemoryStoreDeadlineQuery(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	day := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	past := day.AddDate(0, 0, -1)
	today := day.Add(8 * time.Hour)
	future := day.AddDate(0, 0, 3)

	for _, tc := range []struct {
		title    string
		deadline *time.Time
	}{
		{title: "Expired", deadline: &past},
		{title: "Due today", deadline: &today},
		{title: "Due later", deadline: &future},
		{title: "No deadline", deadline: nil},
	} {
		_, err := s.CreateNotice(ctx, Draft{Title: tc.title, Deadline: tc.deadline})
		require.NoError(t, err)
	}

	got, err := s.FindNoticesWithDeadlineOn(ctx, day)
	require.NoError(t, err)
	titles := make([]string, 0, len(got))
	for _, n := range got {
		titles = append(titles, n.Title)
	}
	require.Equal(t, []string{"Due today", "Due later"}, titles)
}

func TestMemoryStoreTokensAndCrawls(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	n, err := s.CreateNotice(ctx, Draft{Title: "Subscribed"})
	require.NoError(t, err)
	s.SubscribeReminder(n.ID, "token-a", "token-b")

	tokens, err := s.DeviceTokensForNotice(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"token-a", "token-b"}, tokens)

	none, err := s.DeviceTokensForNotice(ctx, 999)
	require.NoError(t, err)
	require.Empty(t, none)

	rec := CrawlRecord{
		URL:        "https://example.com/view?no=42",
		Title:      "Subscribed",
		SequenceID: 42,
		CrawledAt:  time.Now().UTC(),
	}
	require.NoError(t, s.RecordCrawl(ctx, rec))

	found, err := s.LookupCrawled(ctx, []string{rec.URL, "https://example.com/missing"})
	require.NoError(t, err)
	require.Equal(t, []CrawlRecord{rec}, found)
}
