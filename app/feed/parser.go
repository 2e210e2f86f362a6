package feed

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Parser reads the channel header of a feed body. Item listing goes through
// the canonical value instead, so the projection sees exactly what the tree
// renderer sees.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Channel, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	channel := &Channel{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
		FeedType:    feed.FeedType,
		UpdatedAt:   cmp.Or(feed.UpdatedParsed, feed.PublishedParsed),
	}

	return channel, nil
}
