package feed

import (
	"github.com/samber/lo"

	"github.com/lysyi3m/nse-pulse/app/value"
)

const DefaultChannelTitle = "Latest Filings"

// Project reads rss.channel.item into entries, in document order. A feed
// without items yields an empty slice.
func Project(v value.Value) []Entry {
	channel, ok := v.Lookup("rss", "channel")
	if !ok {
		return []Entry{}
	}

	shape, ok := channel.Field("item")
	if !ok {
		return []Entry{}
	}

	// an item that is not a mapping, such as <item></item>, still counts as
	// an entry with empty fields
	return lo.Map(value.Values(shape), func(item value.Value, i int) Entry {
		return projectItem(item, i)
	})
}

func projectItem(item value.Value, index int) Entry {
	entry := Entry{
		Index:       index,
		Title:       fieldText(item, "title"),
		Link:        fieldText(item, "link"),
		Description: fieldText(item, "description"),
		PubDate:     fieldText(item, "pubDate"),
	}
	entry.PublishedAt = parsePubDate(entry.PubDate)
	return entry
}

func ChannelTitle(v value.Value) string {
	if channel, ok := v.Lookup("rss", "channel"); ok {
		if title := fieldText(channel, "title"); title != "" {
			return title
		}
	}
	return DefaultChannelTitle
}

// fieldText reads the text of an element whether or not it carries
// attributes. A repeated element yields its first occurrence.
func fieldText(parent value.Value, key string) string {
	shape, ok := parent.Field(key)
	if !ok {
		return ""
	}

	values := value.Values(shape)
	if len(values) == 0 {
		return ""
	}
	v := values[0]

	if v.IsPrimitive() {
		return v.Text()
	}
	text, _ := v.GetText(value.TextKey)
	return text
}
