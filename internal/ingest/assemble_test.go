package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleBodyWithoutAttachments(t *testing.T) {
	t.Parallel()

	detail := RemoteDetail{BodyHTML: "<p>hello</p>"}
	require.Equal(t, "<p>hello</p>", AssembleBody(detail))
}

func TestAssembleBodyPrependsAttachmentList(t *testing.T) {
	t.Parallel()

	detail := RemoteDetail{
		Attachments: []Attachment{
			{Href: "https://example.com/a.pdf", Name: "first.pdf", Kind: KindPDF},
			{Href: "https://example.com/b.hwp", Name: "second.hwp", Kind: KindHwp},
		},
		BodyHTML: "<p>content</p>",
	}

	got := AssembleBody(detail)
	want := `<ul>` +
		`<li><a href="https://example.com/a.pdf">first.pdf</a></li>` +
		`<li><a href="https://example.com/b.hwp">second.hwp</a></li>` +
		`</ul><p>content</p>`
	require.Equal(t, want, got)
}

func TestAssembleBodyEscapesNames(t *testing.T) {
	t.Parallel()

	detail := RemoteDetail{
		Attachments: []Attachment{{Href: "https://example.com/x", Name: `a<b>"c"`, Kind: KindEtc}},
		BodyHTML:    "<p>x</p>",
	}
	require.Contains(t, AssembleBody(detail), "a&lt;b&gt;&#34;c&#34;")
}
