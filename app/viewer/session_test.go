package viewer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/nse-pulse/app/feed"
	"github.com/lysyi3m/nse-pulse/app/fetch"
	"github.com/lysyi3m/nse-pulse/app/tree"
	"github.com/lysyi3m/nse-pulse/app/value"
)

const (
	feedURL       = "https://nsearchives.nseindia.com/content/RSS/Takeovers.xml"
	attachmentURL = "https://nsearchives.nseindia.com/corporate/acme.xml"
	brokenURL     = "https://nsearchives.nseindia.com/corporate/broken.xml"
)

const takeoversFeed = `<rss version="2.0"><channel>
<title>SAST Takeovers</title>
<item>
  <title>Acme Ltd</title>
  <link>https://nsearchives.nseindia.com/corporate/acme.xml</link>
  <description>NAME(S)OF THE ACQUIRER AND ITS(PAC) : Beta Corp</description>
</item>
<item>
  <title>Gamma Industries</title>
  <link>https://nsearchives.nseindia.com/corporate/gamma.pdf</link>
  <description>Open offer</description>
</item>
<item>
  <title>Delta Finance</title>
  <link>https://nsearchives.nseindia.com/corporate/broken.xml</link>
  <description>Disclosure</description>
</item>
</channel></rss>`

const attachmentDoc = `<filing><company>Acme Ltd</company><holders><holder>A</holder><holder>B</holder></holders></filing>`

type mockFetcher struct {
	mu    sync.Mutex
	docs  map[string]string
	errs  map[string]error
	calls map[string]int
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		docs: map[string]string{
			feedURL:       takeoversFeed,
			attachmentURL: attachmentDoc,
		},
		errs: map[string]error{
			brokenURL: errors.New("failed to fetch data: HTTP error: 500 Internal Server Error"),
		},
		calls: make(map[string]int),
	}
}

func (m *mockFetcher) FetchDocument(ctx context.Context, rawURL string) (fetch.Document, error) {
	m.mu.Lock()
	m.calls[rawURL]++
	body, ok := m.docs[rawURL]
	err := m.errs[rawURL]
	m.mu.Unlock()

	if err != nil {
		return fetch.Document{}, err
	}
	if !ok {
		return fetch.Document{}, errors.New("failed to fetch data: HTTP error: 404 Not Found")
	}

	v, err := value.Parse([]byte(body))
	if err != nil {
		return fetch.Document{}, err
	}
	return fetch.Document{URL: rawURL, Body: []byte(body), Value: v}, nil
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (value.Value, error) {
	doc, err := m.FetchDocument(ctx, rawURL)
	return doc.Value, err
}

func (m *mockFetcher) callCount(rawURL string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[rawURL]
}

func newLoadedSession(t *testing.T) (*Session, *mockFetcher) {
	t.Helper()
	fetcher := newMockFetcher()
	session := NewSession("test", fetcher, feed.NewParser())
	if err := session.Load(context.Background(), feedURL); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return session, fetcher
}

func TestSessionLoad(t *testing.T) {
	session, _ := newLoadedSession(t)

	snap := session.Snapshot()
	if !snap.Loaded || snap.Error != "" {
		t.Fatalf("Expected a loaded feed, got error '%s'", snap.Error)
	}
	if snap.Title != "SAST Takeovers" {
		t.Errorf("Expected title 'SAST Takeovers', got '%s'", snap.Title)
	}
	if snap.Total != 3 || snap.Matched != 3 {
		t.Errorf("Expected 3/3 entries, got %d/%d", snap.Matched, snap.Total)
	}
	if snap.Channel == nil || snap.Channel.FeedType != "rss" {
		t.Error("Expected channel header from the feed parser")
	}
	if snap.Entries[0].Entry.AcquirerLabel() != "Beta Corp" {
		t.Errorf("Expected acquirer 'Beta Corp', got '%s'", snap.Entries[0].Entry.AcquirerLabel())
	}
	if snap.Empty != "" {
		t.Errorf("Expected no empty message, got '%s'", snap.Empty)
	}
}

func TestSessionLoadEmptyURL(t *testing.T) {
	session, _ := newLoadedSession(t)

	if err := session.Load(context.Background(), "   "); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("Expected ErrEmptyURL, got %v", err)
	}
	if session.URL() != feedURL {
		t.Error("Expected the loaded feed to be kept")
	}
}

func TestSessionLoadFailureClearsFeed(t *testing.T) {
	session, _ := newLoadedSession(t)

	err := session.Load(context.Background(), "https://example.com/missing.xml")
	if err == nil {
		t.Fatal("Expected error")
	}

	snap := session.Snapshot()
	if !strings.Contains(snap.Error, "404") {
		t.Errorf("Expected error message with the cause, got '%s'", snap.Error)
	}
	if len(snap.Entries) != 0 || snap.Total != 0 {
		t.Errorf("Expected the previous entries to be cleared, got %d", len(snap.Entries))
	}
	if err := session.ToggleEntry(context.Background(), 0); !errors.Is(err, ErrNoFeed) {
		t.Errorf("Expected ErrNoFeed, got %v", err)
	}
}

func TestSessionLastLoadWins(t *testing.T) {
	session, fetcher := newLoadedSession(t)

	fetcher.mu.Lock()
	fetcher.docs["https://example.com/other.xml"] = `<rss><channel><item><title>Other</title></item></channel></rss>`
	fetcher.mu.Unlock()

	if err := session.ToggleEntry(context.Background(), 1); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := session.Load(context.Background(), "https://example.com/other.xml"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	snap := session.Snapshot()
	if snap.URL != "https://example.com/other.xml" || snap.Total != 1 {
		t.Errorf("Expected the later feed, got '%s' with %d entries", snap.URL, snap.Total)
	}
	if snap.Title != feed.DefaultChannelTitle {
		t.Errorf("Expected fallback title, got '%s'", snap.Title)
	}
	if snap.Entries[0].Open {
		t.Error("Expected panels of the previous feed to be gone")
	}
}

func TestSessionFilter(t *testing.T) {
	session, _ := newLoadedSession(t)

	session.SetFilter("BETA")
	snap := session.Snapshot()
	if snap.Matched != 1 || snap.Total != 3 {
		t.Errorf("Expected 1/3, got %d/%d", snap.Matched, snap.Total)
	}
	if snap.Term != "BETA" {
		t.Errorf("Expected term 'BETA', got '%s'", snap.Term)
	}

	session.SetFilter("nothing like this")
	if snap := session.Snapshot(); snap.Empty != MsgNoMatches {
		t.Errorf("Expected '%s', got '%s'", MsgNoMatches, snap.Empty)
	}
}

func TestSessionEmptyFeed(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.docs["https://example.com/empty.xml"] = `<rss><channel><title>Nothing</title></channel></rss>`
	session := NewSession("test", fetcher, feed.NewParser())

	if err := session.Load(context.Background(), "https://example.com/empty.xml"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if snap := session.Snapshot(); snap.Empty != MsgNoItems {
		t.Errorf("Expected '%s', got '%s'", MsgNoItems, snap.Empty)
	}
}

func TestSessionToggleXMLEntry(t *testing.T) {
	session, fetcher := newLoadedSession(t)
	ctx := context.Background()

	if err := session.ToggleEntry(ctx, 0); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entry := session.Snapshot().Entries[0]
	if !entry.Open || !entry.Loaded {
		t.Fatal("Expected the entry to be open with its attachment loaded")
	}
	if len(entry.Rows) == 0 || entry.Rows[0].Node.Label != "filing" {
		t.Errorf("Expected attachment tree rows, got %v", entry.Rows)
	}

	// close and reopen
	_ = session.ToggleEntry(ctx, 0)
	if session.Snapshot().Entries[0].Open {
		t.Error("Expected the entry to be closed")
	}
	_ = session.ToggleEntry(ctx, 0)

	if got := fetcher.callCount(attachmentURL); got != 1 {
		t.Errorf("Expected the attachment to be fetched once, got %d", got)
	}
}

func TestSessionAttachmentFailureIsMemoized(t *testing.T) {
	session, fetcher := newLoadedSession(t)
	ctx := context.Background()

	_ = session.ToggleEntry(ctx, 2)
	entry := session.Snapshot().Entries[2]
	if !strings.HasPrefix(entry.Error, AttachmentErrPrefix) {
		t.Errorf("Expected error with prefix '%s', got '%s'", AttachmentErrPrefix, entry.Error)
	}
	if !strings.Contains(entry.Error, "500") {
		t.Errorf("Expected the cause in the message, got '%s'", entry.Error)
	}

	_ = session.ToggleEntry(ctx, 2)
	_ = session.ToggleEntry(ctx, 2)

	if got := fetcher.callCount(brokenURL); got != 1 {
		t.Errorf("Expected a single fetch for the failed attachment, got %d", got)
	}
	if entry := session.Snapshot().Entries[2]; entry.Error == "" {
		t.Error("Expected the cached error to be shown again")
	}
}

func TestSessionTogglePDFEntry(t *testing.T) {
	session, fetcher := newLoadedSession(t)

	if err := session.ToggleEntry(context.Background(), 1); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entry := session.Snapshot().Entries[1]
	if !entry.Open || entry.Loaded {
		t.Errorf("Expected an open PDF entry without a tree, got %+v", entry)
	}
	if entry.Kind != feed.AttachmentPDF {
		t.Errorf("Expected PDF kind, got %s", entry.Kind)
	}
	if got := fetcher.callCount("https://nsearchives.nseindia.com/corporate/gamma.pdf"); got != 0 {
		t.Errorf("Expected no fetch for a PDF, got %d", got)
	}
}

func TestSessionToggleUnknownEntry(t *testing.T) {
	session, _ := newLoadedSession(t)

	if err := session.ToggleEntry(context.Background(), 42); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound, got %v", err)
	}
}

func TestSessionApplyTree(t *testing.T) {
	session, _ := newLoadedSession(t)
	ctx := context.Background()

	if err := session.ApplyTree(0, tree.Intent{Action: tree.ActionToggle, Path: "0"}); !errors.Is(err, ErrPanelClosed) {
		t.Errorf("Expected ErrPanelClosed before the entry is opened, got %v", err)
	}

	_ = session.ToggleEntry(ctx, 0)
	before := len(session.Snapshot().Entries[0].Rows)

	if err := session.ApplyTree(0, tree.Intent{Action: tree.ActionToggle, Path: "0/1"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	after := len(session.Snapshot().Entries[0].Rows)
	if after != before-3 {
		t.Errorf("Expected collapsing holders to hide 3 rows, got %d -> %d", before, after)
	}

	if err := session.ApplyTree(0, tree.Intent{Action: tree.ActionToggle, Path: "7"}); !errors.Is(err, tree.ErrUnknownPath) {
		t.Errorf("Expected tree.ErrUnknownPath, got %v", err)
	}
	if err := session.ApplyTree(9, tree.Intent{Action: tree.ActionToggle, Path: "0"}); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound, got %v", err)
	}
}

func TestSessionReopenResetsTree(t *testing.T) {
	session, fetcher := newLoadedSession(t)
	ctx := context.Background()

	_ = session.ToggleEntry(ctx, 0)
	fresh := len(session.Snapshot().Entries[0].Rows)

	if err := session.ApplyTree(0, tree.Intent{Action: tree.ActionToggle, Path: "0"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if rows := len(session.Snapshot().Entries[0].Rows); rows != 1 {
		t.Fatalf("Expected only the collapsed root row, got %d", rows)
	}

	// close and reopen
	_ = session.ToggleEntry(ctx, 0)
	if err := session.ApplyTree(0, tree.Intent{Action: tree.ActionToggle, Path: "0"}); !errors.Is(err, ErrPanelClosed) {
		t.Errorf("Expected ErrPanelClosed while the panel is closed, got %v", err)
	}
	_ = session.ToggleEntry(ctx, 0)

	if rows := len(session.Snapshot().Entries[0].Rows); rows != fresh {
		t.Errorf("Expected a fresh tree with %d rows after reopening, got %d", fresh, rows)
	}
	if calls := fetcher.callCount(attachmentURL); calls != 1 {
		t.Errorf("Expected the attachment to stay memoized, got %d fetches", calls)
	}
}

func TestAttachmentMemoCoalescesLoads(t *testing.T) {
	memo := newAttachmentMemo()
	release := make(chan struct{})
	var calls int32

	load := func(ctx context.Context) (value.Value, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return value.Mapping(value.KV("doc", value.String("x"))), nil
	}

	var wg sync.WaitGroup
	results := make([]*attachment, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = memo.load(context.Background(), 3, load)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected one load, got %d", got)
	}
	for i, a := range results {
		if a != results[0] {
			t.Errorf("Expected caller %d to share the settled attachment", i)
		}
	}
}

func TestAttachmentMemoIgnoresCallerCancellation(t *testing.T) {
	memo := newAttachmentMemo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := memo.load(ctx, 0, func(ctx context.Context) (value.Value, error) {
		return value.String("ok"), ctx.Err()
	})

	if a.err != nil {
		t.Errorf("Expected the load to run without the caller's cancellation, got %v", a.err)
	}
}
