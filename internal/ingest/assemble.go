package ingest

import (
	"html"
	"strings"
)

// AssembleBody builds the stored notice body from a parsed detail page.
// When attachments exist they are rendered as an unordered link list and
// prepended to the content, preserving attachment order; otherwise the
// content is returned verbatim. Pure function, no I/O.
func AssembleBody(detail RemoteDetail) string {
	if len(detail.Attachments) == 0 {
		return detail.BodyHTML
	}
	var b strings.Builder
	b.WriteString("<ul>")
	for _, att := range detail.Attachments {
		b.WriteString(`<li><a href="`)
		b.WriteString(html.EscapeString(att.Href))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(att.Name))
		b.WriteString("</a></li>")
	}
	b.WriteString("</ul>")
	b.WriteString(detail.BodyHTML)
	return b.String()
}
