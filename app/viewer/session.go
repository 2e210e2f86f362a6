// Package viewer keeps the state of one person looking at a feed: the loaded
// feed, the filter term and the expanded entries with their attachment
// trees.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/nse-pulse/app/feed"
	"github.com/lysyi3m/nse-pulse/app/tree"
	"github.com/lysyi3m/nse-pulse/app/value"
)

type Session struct {
	ID string

	fetcher DocumentFetcher
	parser  ChannelParser

	mu       sync.RWMutex
	slot     *feedSlot
	term     string
	lastUsed time.Time
}

func NewSession(id string, fetcher DocumentFetcher, parser ChannelParser) *Session {
	return &Session{
		ID:       id,
		fetcher:  fetcher,
		parser:   parser,
		lastUsed: time.Now(),
	}
}

// Load fetches the feed at rawURL and replaces the feed slot once the fetch
// settles. Concurrent loads are not cancelled: the last one to settle wins.
// A failed load clears the previous feed.
func (s *Session) Load(ctx context.Context, rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ErrEmptyURL
	}

	slot := &feedSlot{
		url:      rawURL,
		loadedAt: time.Now(),
		panels:   make(map[int]bool),
		memo:     newAttachmentMemo(),
	}

	doc, err := s.fetcher.FetchDocument(ctx, rawURL)
	if err != nil {
		slog.Error("Failed to load feed", "session", s.ID, "url", rawURL, "error", err)
		slot.err = err
	} else {
		slot.entries = feed.Project(doc.Value)
		slot.title = feed.ChannelTitle(doc.Value)

		if channel, err := s.parser.Run(doc.Body); err != nil {
			slog.Debug("Channel header not recognised", "url", rawURL, "error", err)
		} else {
			slot.channel = channel
		}

		slog.Info("Feed loaded", "session", s.ID, "url", rawURL, "items", len(slot.entries))
	}

	s.mu.Lock()
	s.slot = slot
	s.lastUsed = time.Now()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}
	return nil
}

func (s *Session) SetFilter(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.term = term
}

func (s *Session) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.term
}

func (s *Session) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.slot == nil {
		return ""
	}
	return s.slot.url
}

// ToggleEntry opens or closes the panel of the entry at index. Opening an
// XML entry loads its attachment the first time.
func (s *Session) ToggleEntry(ctx context.Context, index int) error {
	s.mu.Lock()
	slot := s.slot
	if slot == nil || slot.err != nil {
		s.mu.Unlock()
		return ErrNoFeed
	}
	entry, ok := findEntry(slot.entries, index)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrEntryNotFound, index)
	}
	open := !slot.panels[index]
	slot.panels[index] = open
	s.lastUsed = time.Now()
	s.mu.Unlock()

	if !open {
		// the tree is unmounted with its panel; the document stays memoized
		if a, ok := slot.memo.get(index); ok && a.view != nil {
			a.view.Store().Reset()
		}
		return nil
	}

	if entry.Kind() == feed.AttachmentXML {
		a := slot.memo.load(ctx, index, func(ctx context.Context) (value.Value, error) {
			return s.fetcher.Fetch(ctx, entry.Link)
		})
		if a.err != nil {
			slog.Warn("Failed to load attachment", "session", s.ID, "entry", index, "url", entry.Link, "error", a.err)
		}
	}

	return nil
}

// ApplyTree applies a disclosure intent to the attachment tree of an entry.
func (s *Session) ApplyTree(index int, intent tree.Intent) error {
	s.mu.Lock()
	slot := s.slot
	open := slot != nil && slot.panels[index]
	s.lastUsed = time.Now()
	s.mu.Unlock()

	if slot == nil || slot.err != nil {
		return ErrNoFeed
	}
	if _, ok := findEntry(slot.entries, index); !ok {
		return fmt.Errorf("%w: %d", ErrEntryNotFound, index)
	}
	if !open {
		return fmt.Errorf("%w: entry %d", ErrPanelClosed, index)
	}

	a, ok := slot.memo.get(index)
	if !ok || a.view == nil {
		return fmt.Errorf("%w: entry %d", ErrNotLoaded, index)
	}

	return a.view.Apply(intent)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	slot := s.slot
	term := s.term
	panels := make(map[int]bool)
	if slot != nil {
		for k, v := range slot.panels {
			panels[k] = v
		}
	}
	s.mu.RUnlock()

	snap := Snapshot{ID: s.ID, Term: term}
	if slot == nil {
		return snap
	}

	snap.URL = slot.url
	snap.Loaded = true
	snap.LoadedAt = slot.loadedAt
	if slot.err != nil {
		snap.Error = slot.err.Error()
		return snap
	}

	snap.Title = slot.title
	snap.Channel = slot.channel
	snap.Total = len(slot.entries)

	matched := feed.Filter(slot.entries, term)
	snap.Matched = len(matched)
	switch {
	case snap.Total == 0:
		snap.Empty = MsgNoItems
	case snap.Matched == 0:
		snap.Empty = MsgNoMatches
	}

	snap.Entries = make([]EntryView, 0, len(matched))
	for _, entry := range matched {
		ev := EntryView{
			Entry: entry,
			Kind:  entry.Kind(),
			Open:  panels[entry.Index],
		}
		if ev.Open && ev.Kind == feed.AttachmentXML {
			if a, ok := slot.memo.get(entry.Index); ok {
				ev.Loaded = true
				if a.err != nil {
					ev.Error = AttachmentErrPrefix + a.err.Error()
				} else {
					ev.Rows = tree.Flatten(a.view.Render())
				}
			}
		}
		snap.Entries = append(snap.Entries, ev)
	}

	return snap
}

func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastUsed
}

func findEntry(entries []feed.Entry, index int) (feed.Entry, bool) {
	for _, e := range entries {
		if e.Index == index {
			return e, true
		}
	}
	return feed.Entry{}, false
}
