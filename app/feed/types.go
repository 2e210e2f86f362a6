package feed

import (
	"time"
)

// Listing types

type Entry struct {
	Index       int // position in the feed's unfiltered item list
	Title       string
	Link        string
	Description string
	PubDate     string
	PublishedAt *time.Time
}

type AttachmentKind int

const (
	AttachmentOther AttachmentKind = iota
	AttachmentXML
	AttachmentPDF
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentXML:
		return "xml"
	case AttachmentPDF:
		return "pdf"
	default:
		return "other"
	}
}

// Channel is the feed header as seen by gofeed.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	FeedType    string
	UpdatedAt   *time.Time
}

// Preset types

type Preset struct {
	Name    string // Derived from filename (without .yml extension)
	URL     string `yaml:"url"`
	Title   string `yaml:"title"`
	Enabled bool   `yaml:"enabled"`
}
