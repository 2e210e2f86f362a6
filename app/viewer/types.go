package viewer

import (
	"context"
	"errors"
	"time"

	"github.com/lysyi3m/nse-pulse/app/feed"
	"github.com/lysyi3m/nse-pulse/app/fetch"
	"github.com/lysyi3m/nse-pulse/app/tree"
	"github.com/lysyi3m/nse-pulse/app/value"
)

const (
	MsgNoItems          = "No items found in this feed."
	MsgNoMatches        = "No items match your search."
	AttachmentErrPrefix = "Failed to load data structure. "
)

var (
	ErrEmptyURL        = errors.New("feed URL is required")
	ErrNoFeed          = errors.New("no feed loaded")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrNotLoaded       = errors.New("attachment not loaded")
	ErrPanelClosed     = errors.New("entry panel is closed")
	ErrSessionNotFound = errors.New("session not found")
)

type DocumentFetcher interface {
	FetchDocument(ctx context.Context, rawURL string) (fetch.Document, error)
	Fetch(ctx context.Context, rawURL string) (value.Value, error)
}

var _ DocumentFetcher = (*fetch.Pipeline)(nil)

type ChannelParser interface {
	Run(data []byte) (*feed.Channel, error)
}

var _ ChannelParser = (*feed.Parser)(nil)

// feedSlot is the result of the latest settled load.
type feedSlot struct {
	url      string
	channel  *feed.Channel
	title    string
	entries  []feed.Entry
	err      error
	loadedAt time.Time
	panels   map[int]bool
	memo     *attachmentMemo
}

type EntryView struct {
	Entry feed.Entry
	Kind  feed.AttachmentKind
	Open  bool

	// Set once the attachment of an open XML entry has settled.
	Loaded bool
	Error  string
	Rows   []tree.Row
}

type Snapshot struct {
	ID       string
	URL      string
	Title    string
	Channel  *feed.Channel
	Loaded   bool
	Error    string
	Term     string
	Total    int
	Matched  int
	Entries  []EntryView
	Empty    string
	LoadedAt time.Time
}
