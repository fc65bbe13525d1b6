package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const detailPage = `<html><body>
<div class="bd_detail_file"><ul>
<li><a class="pdf" href="/files/guide.pdf">Enrollment guide</a></li>
<li><a class="zip" href="/files/forms.zip">Forms</a></li>
</ul></div>
<div class="bd_detail_content"><p>Enrollment opens March 4.</p></div>
</body></html>`

func TestParseDetailExtractsAttachmentsAndBody(t *testing.T) {
	t.Parallel()

	detail, err := parseDetail("https://example.com/notices/view?no=103", []byte(detailPage))
	require.NoError(t, err)

	require.Equal(t, "<p>Enrollment opens March 4.</p>", detail.BodyHTML)
	require.Len(t, detail.Attachments, 2)
	require.Equal(t, Attachment{
		Href: "https://example.com/files/guide.pdf",
		Name: "Enrollment guide",
		Kind: KindPDF,
	}, detail.Attachments[0])
	// Unknown class tokens collapse to etc.
	require.Equal(t, KindEtc, detail.Attachments[1].Kind)
}

func TestParseDetailMissingContentBlock(t *testing.T) {
	t.Parallel()

	page := `<html><body><div class="bd_detail_file"></div></body></html>`
	_, err := parseDetail("https://example.com/x", []byte(page))
	require.ErrorIs(t, err, ErrContentBlockMissing)
}

func TestParseDetailNoAttachments(t *testing.T) {
	t.Parallel()

	page := `<div class="bd_detail_content"><p>plain</p></div>`
	detail, err := parseDetail("https://example.com/x", []byte(page))
	require.NoError(t, err)
	require.Empty(t, detail.Attachments)
	require.Equal(t, "<p>plain</p>", detail.BodyHTML)
}

func TestFetchDetailKeepsRawBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(detailPage))
	}))
	defer srv.Close()

	f := NewDetailFetcher(NewClient(FetchConfig{Timeout: time.Second}), zap.NewNop())
	detail, err := f.FetchDetail(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []byte(detailPage), detail.Raw)
	require.Len(t, detail.Attachments, 2)
}

func TestParseAttachmentKind(t *testing.T) {
	t.Parallel()

	cases := map[string]AttachmentKind{
		"doc":     KindDoc,
		"hwp":     KindHwp,
		"pdf":     KindPDF,
		"imgs":    KindImgs,
		"xls":     KindXls,
		"etc":     KindEtc,
		"zip":     KindEtc,
		"":        KindEtc,
		"unknown": KindEtc,
	}
	for token, want := range cases {
		require.Equal(t, want, ParseAttachmentKind(token), "token %q", token)
	}
}
