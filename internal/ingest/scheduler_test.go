package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusboard/notice-ingest/internal/notice"
)

type listFunc func(ctx context.Context) ([]RemoteStub, error)

func (f listFunc) FetchList(ctx context.Context) ([]RemoteStub, error) { return f(ctx) }

type detailFunc func(ctx context.Context, link string) (RemoteDetail, error)

func (f detailFunc) FetchDetail(ctx context.Context, link string) (RemoteDetail, error) {
	return f(ctx, link)
}

type archiveFunc func(ctx context.Context, objectName string, data []byte) error

func (f archiveFunc) Save(ctx context.Context, objectName string, data []byte) error {
	return f(ctx, objectName, data)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func stub(seq int, title string) RemoteStub {
	return RemoteStub{
		SequenceID:     seq,
		Title:          title,
		DetailLink:     fmt.Sprintf("https://example.com/view?no=%d", seq),
		AuthorName:     "Registrar",
		CategoryLabel:  "학사",
		PublishedLabel: "2024.03.01",
	}
}

func okDetail(_ context.Context, link string) (RemoteDetail, error) {
	return RemoteDetail{BodyHTML: "<p>" + link + "</p>", Raw: []byte("<html/>")}, nil
}

func newTestScheduler(lists ListSource, details DetailSource, store Store, archiver Archiver) *Scheduler {
	return NewScheduler(
		lists,
		details,
		store,
		archiver,
		fixedClock{t: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)},
		time.UTC,
		"notices",
		zap.NewNop(),
	)
}

func TestNoveltySet(t *testing.T) {
	t.Parallel()

	list := []RemoteStub{stub(4, "A"), stub(3, "B"), stub(2, "C"), stub(1, "D")}

	cases := []struct {
		name   string
		anchor string
		want   []string
	}{
		{name: "anchor mid-list", anchor: "C", want: []string{"B", "A"}},
		{name: "anchor is newest", anchor: "A", want: nil},
		{name: "no anchor", anchor: "", want: []string{"D", "C", "B", "A"}},
		{name: "anchor vanished", anchor: "Z", want: []string{"D", "C", "B", "A"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var got []string
			for _, s := range noveltySet(list, tc.anchor) {
				got = append(got, s.Title)
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRunCycleBootstrapPersistsOldestFirst(t *testing.T) {
	t.Parallel()

	store := notice.NewMemoryStore()
	list := []RemoteStub{stub(3, "Third"), stub(2, "Second"), stub(1, "First")}

	var fetchedLinks []string
	details := detailFunc(func(ctx context.Context, link string) (RemoteDetail, error) {
		fetchedLinks = append(fetchedLinks, link)
		return okDetail(ctx, link)
	})

	s := newTestScheduler(
		listFunc(func(context.Context) ([]RemoteStub, error) { return list, nil }),
		details,
		store,
		&noopArchiver{},
	)

	stats, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, CycleStats{Fetched: 3, Novel: 3, Created: 3}, stats)

	// Oldest entry is fetched and persisted first so the anchor stays valid.
	require.Equal(t, []string{
		"https://example.com/view?no=1",
		"https://example.com/view?no=2",
		"https://example.com/view?no=3",
	}, fetchedLinks)

	recent, err := store.FindMostRecentByTag(context.Background(), AcademicTag)
	require.NoError(t, err)
	require.Equal(t, "Third", recent.Title)
}

func TestRunCycleIsIdempotentOnUnchangedList(t *testing.T) {
	t.Parallel()

	store := notice.NewMemoryStore()
	list := []RemoteStub{stub(2, "Newer"), stub(1, "Older")}
	s := newTestScheduler(
		listFunc(func(context.Context) ([]RemoteStub, error) { return list, nil }),
		detailFunc(okDetail),
		store,
		&noopArchiver{},
	)

	first, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.Created)

	second, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 0, second.Novel)
}

func TestRunCyclePicksUpOnlyEntriesAboveAnchor(t *testing.T) {
	t.Parallel()

	store := notice.NewMemoryStore()
	s := newTestScheduler(
		listFunc(func(context.Context) ([]RemoteStub, error) {
			return []RemoteStub{stub(1, "Anchor")}, nil
		}),
		detailFunc(okDetail),
		store,
		&noopArchiver{},
	)
	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	var fetched []string
	s2 := newTestScheduler(
		listFunc(func(context.Context) ([]RemoteStub, error) {
			return []RemoteStub{stub(3, "Newest"), stub(2, "Middle"), stub(1, "Anchor")}, nil
		}),
		detailFunc(func(ctx context.Context, link string) (RemoteDetail, error) {
			fetched = append(fetched, link)
			return okDetail(ctx, link)
		}),
		store,
		&noopArchiver{},
	)
	stats, err := s2.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Created)
	require.Equal(t, []string{
		"https://example.com/view?no=2",
		"https://example.com/view?no=3",
	}, fetched)
}

func TestRunCycleSkipsFailingItem(t *testing.T) {
	t.Parallel()

	store := notice.NewMemoryStore()
	s := newTestScheduler(
		listFunc(func(context.Context) ([]RemoteStub, error) {
			return []RemoteStub{stub(3, "Good late"), stub(2, "Bad"), stub(1, "Good early")}, nil
		}),
		detailFunc(func(ctx context.Context, link string) (RemoteDetail, error) {
			if link == "https://example.com/view?no=2" {
				return RemoteDetail{}, ErrContentBlockMissing
			}
			return okDetail(ctx, link)
		}),
		store,
		&noopArchiver{},
	)

	stats, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Created)
	require.Equal(t, 1, stats.Skipped)

	recent, err := store.FindMostRecentByTag(context.Background(), AcademicTag)
	require.NoError(t, err)
	require.Equal(t, "Good late", recent.Title)
}

func TestRunCycleSkipsUnparseableDate(t *testing.T) {
	t.Parallel()

	bad := stub(1, "Bad date")
	bad.PublishedLabel = "soon"

	store := notice.NewMemoryStore()
	s := newTestScheduler(
		listFunc(func(context.Context) ([]RemoteStub, error) { return []RemoteStub{bad}, nil }),
		detailFunc(okDetail),
		store,
		&noopArchiver{},
	)

	stats, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, stats.Created)
	require.Equal(t, 1, stats.Skipped)
}

func TestRunCycleAbortsOnListFetchFailure(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(
		listFunc(func(context.Context) ([]RemoteStub, error) {
			return nil, errors.New("connection refused")
		}),
		detailFunc(okDetail),
		notice.NewMemoryStore(),
		&noopArchiver{},
	)

	_, err := s.RunCycle(context.Background())
	require.Error(t, err)
}

func TestRunCycleSurvivesArchiveFailure(t *testing.T) {
	t.Parallel()

	store := notice.NewMemoryStore()
	s := newTestScheduler(
		listFunc(func(context.Context) ([]RemoteStub, error) {
			return []RemoteStub{stub(1, "Only")}, nil
		}),
		detailFunc(okDetail),
		store,
		archiveFunc(func(context.Context, string, []byte) error {
			return errors.New("bucket unavailable")
		}),
	)

	stats, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Created)
}

func TestSchedulerResolvesAuthorAndTags(t *testing.T) {
	t.Parallel()

	store := notice.NewMemoryStore()
	s := newTestScheduler(
		listFunc(func(context.Context) ([]RemoteStub, error) {
			return []RemoteStub{stub(1, "Tagged")}, nil
		}),
		detailFunc(okDetail),
		store,
		&noopArchiver{},
	)
	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	recent, err := store.FindMostRecentByTag(context.Background(), AcademicTag)
	require.NoError(t, err)
	require.Equal(t, "Registrar (학사)", recent.Author.Name)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), recent.PublishedAt)
}

type noopArchiver struct{}

func (*noopArchiver) Save(context.Context, string, []byte) error { return nil }
