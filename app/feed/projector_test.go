package feed

import (
	"testing"
	"time"

	"github.com/lysyi3m/nse-pulse/app/value"
)

func mustParse(t *testing.T, doc string) value.Value {
	t.Helper()
	v, err := value.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Failed to parse test document: %v", err)
	}
	return v
}

func TestProjectSingleItem(t *testing.T) {
	v := mustParse(t, `<rss><channel><title>Takeovers</title>
<item>
  <title>Acme Ltd</title>
  <link>https://nsearchives.nseindia.com/corporate/acme.xml</link>
  <description>NAME(S)OF THE ACQUIRER AND ITS(PAC) : Acme Holdings</description>
  <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
</item>
</channel></rss>`)

	entries := Project(v)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Title != "Acme Ltd" {
		t.Errorf("Expected title 'Acme Ltd', got '%s'", entry.Title)
	}
	if entry.Index != 0 {
		t.Errorf("Expected index 0, got %d", entry.Index)
	}
	if entry.PublishedAt == nil {
		t.Fatal("Expected parsed publish date")
	}
	if !entry.PublishedAt.Equal(time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected 2023-07-03 10:00 UTC, got %v", entry.PublishedAt)
	}
}

func TestProjectManyItems(t *testing.T) {
	v := mustParse(t, `<rss><channel>
<item><title>First</title></item>
<item><title>Second</title><link>https://example.com/2.pdf</link></item>
<item><title>Third</title></item>
</channel></rss>`)

	entries := Project(v)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	for i, want := range []string{"First", "Second", "Third"} {
		if entries[i].Title != want {
			t.Errorf("Expected entry %d to be '%s', got '%s'", i, want, entries[i].Title)
		}
		if entries[i].Index != i {
			t.Errorf("Expected index %d, got %d", i, entries[i].Index)
		}
	}

	if entries[0].Link != "" || entries[0].Description != "" || entries[0].PubDate != "" {
		t.Error("Expected missing fields to default to empty strings")
	}
	if entries[0].PublishedAt != nil {
		t.Error("Expected no publish date for an item without pubDate")
	}
}

func TestProjectNoItems(t *testing.T) {
	docs := []string{
		`<rss><channel><title>Empty</title></channel></rss>`,
		`<feed><entry/></feed>`,
		`<rss/>`,
	}

	for _, doc := range docs {
		entries := Project(mustParse(t, doc))
		if entries == nil || len(entries) != 0 {
			t.Errorf("Expected an empty, non-nil list for %s, got %v", doc, entries)
		}
	}
}

func TestProjectKeepsEmptyItems(t *testing.T) {
	v := mustParse(t, `<rss><channel><item><title>A</title></item><item></item><item><title>C</title></item></channel></rss>`)

	entries := Project(v)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	empty := entries[1]
	if empty.Index != 1 {
		t.Errorf("Expected the empty item to keep its position 1, got %d", empty.Index)
	}
	if empty.Title != "" || empty.Link != "" || empty.Description != "" || empty.PubDate != "" {
		t.Errorf("Expected empty fields, got %+v", empty)
	}
	if entries[2].Title != "C" || entries[2].Index != 2 {
		t.Errorf("Expected 'C' at position 2, got '%s' at %d", entries[2].Title, entries[2].Index)
	}
}

func TestProjectBareTextItem(t *testing.T) {
	v := mustParse(t, `<rss><channel><item>bare text</item><item><title>Real</title></item></channel></rss>`)

	entries := Project(v)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "" {
		t.Errorf("Expected bare text item to have no title, got '%s'", entries[0].Title)
	}
	if entries[1].Title != "Real" {
		t.Errorf("Expected 'Real', got '%s'", entries[1].Title)
	}
}

func TestProjectFieldWithAttributes(t *testing.T) {
	v := mustParse(t, `<rss><channel><item><title type="text">Titled</title></item></channel></rss>`)

	entries := Project(v)
	if entries[0].Title != "Titled" {
		t.Errorf("Expected 'Titled', got '%s'", entries[0].Title)
	}
}

func TestChannelTitle(t *testing.T) {
	if got := ChannelTitle(mustParse(t, `<rss><channel><title>Takeovers</title></channel></rss>`)); got != "Takeovers" {
		t.Errorf("Expected 'Takeovers', got '%s'", got)
	}
	if got := ChannelTitle(mustParse(t, `<rss><channel><item/></channel></rss>`)); got != DefaultChannelTitle {
		t.Errorf("Expected fallback title, got '%s'", got)
	}
}

func TestAcquirerLabel(t *testing.T) {
	with := Entry{Description: "NAME(S)OF THE ACQUIRER AND ITS(PAC) : Acme Holdings Pvt Ltd"}
	if got := with.AcquirerLabel(); got != "Acme Holdings Pvt Ltd" {
		t.Errorf("Expected 'Acme Holdings Pvt Ltd', got '%s'", got)
	}
	if !with.HasAcquirer() {
		t.Error("Expected HasAcquirer to be true")
	}

	without := Entry{Description: "Board meeting outcome"}
	if got := without.AcquirerLabel(); got != "Board meeting outcome" {
		t.Errorf("Expected the full description, got '%s'", got)
	}
	if without.HasAcquirer() {
		t.Error("Expected HasAcquirer to be false")
	}

	// the marker is matched literally, with its missing space
	spaced := Entry{Description: "NAME(S) OF THE ACQUIRER AND ITS(PAC) : Acme"}
	if spaced.HasAcquirer() {
		t.Error("Expected a differently spaced marker not to match")
	}
}

func TestEntryKind(t *testing.T) {
	tests := []struct {
		link string
		want AttachmentKind
	}{
		{"https://nsearchives.nseindia.com/a.xml", AttachmentXML},
		{"https://nsearchives.nseindia.com/a.XML", AttachmentXML},
		{"https://nsearchives.nseindia.com/a.pdf", AttachmentPDF},
		{"https://nsearchives.nseindia.com/a.zip", AttachmentOther},
		{"", AttachmentOther},
	}

	for _, tt := range tests {
		if got := (Entry{Link: tt.link}).Kind(); got != tt.want {
			t.Errorf("Expected %s for '%s', got %s", tt.want, tt.link, got)
		}
	}
}

func TestDisplayDate(t *testing.T) {
	raw := Entry{PubDate: "sometime soon"}
	if got := raw.DisplayDate(); got != "sometime soon" {
		t.Errorf("Expected raw pubDate, got '%s'", got)
	}

	published := time.Date(2024, 3, 6, 21, 30, 0, 0, time.Local)
	parsed := Entry{PubDate: "ignored", PublishedAt: &published}
	if got := parsed.DisplayDate(); got != "06 Mar 2024, 21:30" {
		t.Errorf("Expected '06 Mar 2024, 21:30', got '%s'", got)
	}
}
