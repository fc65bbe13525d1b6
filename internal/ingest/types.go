// Package ingest implements the incremental crawl of the remote academic
// notice board: list fetch, novelty detection against the stored anchor,
// detail reconstruction, and chronological persistence.
package ingest

// AttachmentKind classifies a detail-page attachment by the CSS class token
// the source site puts on the link.
type AttachmentKind string

// Attachment kinds rendered by the source site. Anything else maps to etc.
const (
	KindDoc  AttachmentKind = "doc"
	KindHwp  AttachmentKind = "hwp"
	KindPDF  AttachmentKind = "pdf"
	KindImgs AttachmentKind = "imgs"
	KindXls  AttachmentKind = "xls"
	KindEtc  AttachmentKind = "etc"
)

// ParseAttachmentKind restricts a raw class token to the known enum.
func ParseAttachmentKind(token string) AttachmentKind {
	switch AttachmentKind(token) {
	case KindDoc, KindHwp, KindPDF, KindImgs, KindXls, KindEtc:
		return AttachmentKind(token)
	default:
		return KindEtc
	}
}

// RemoteStub is one row of the remote index page. Ephemeral; never stored.
type RemoteStub struct {
	SequenceID     int
	Title          string
	DetailLink     string
	AuthorName     string
	CategoryLabel  string
	PublishedLabel string
}

// Attachment is one file link on a detail page.
type Attachment struct {
	Href string
	Name string
	Kind AttachmentKind
}

// RemoteDetail is the parsed detail page. Raw holds the unparsed response
// body so a snapshot can be archived alongside the stored notice.
type RemoteDetail struct {
	Attachments []Attachment
	BodyHTML    string
	Raw         []byte
}

// CycleStats summarizes one ingestion cycle.
type CycleStats struct {
	Fetched int `json:"fetched"`
	Novel   int `json:"novel"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
