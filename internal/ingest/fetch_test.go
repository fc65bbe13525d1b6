package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetAllowsRepeatedFetchesOfSameURL(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "response %d", hits.Add(1))
	}))
	defer srv.Close()

	c := NewClient(FetchConfig{Timeout: time.Second})
	for i := 1; i <= 3; i++ {
		body, err := c.Get(context.Background(), srv.URL)
		require.NoError(t, err, "fetch %d of the same URL", i)
		require.Equal(t, fmt.Sprintf("response %d", i), string(body))
	}
	require.EqualValues(t, 3, hits.Load())
}

func TestFetchListRepeatsAcrossCycles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(indexPage))
	}))
	defer srv.Close()

	f := NewListFetcher(NewClient(FetchConfig{Timeout: time.Second}), srv.URL, zap.NewNop())
	for i := 0; i < 2; i++ {
		stubs, err := f.FetchList(context.Background())
		require.NoError(t, err)
		require.Len(t, stubs, 2)
	}
}
