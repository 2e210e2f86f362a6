package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Takeover disclosures name the acquirer after this fixed marker.
var acquirerPattern = regexp.MustCompile(`NAME\(S\)OF THE ACQUIRER AND ITS\(PAC\) : (.*)`)

// AcquirerLabel returns the acquirer named in the description, or the whole
// description when it carries no acquirer marker.
func (e Entry) AcquirerLabel() string {
	if match := acquirerPattern.FindStringSubmatch(e.Description); match != nil {
		return match[1]
	}
	return e.Description
}

func (e Entry) HasAcquirer() bool {
	return acquirerPattern.MatchString(e.Description)
}

func (e Entry) Kind() AttachmentKind {
	link := strings.ToLower(e.Link)
	switch {
	case strings.HasSuffix(link, ".xml"):
		return AttachmentXML
	case strings.HasSuffix(link, ".pdf"):
		return AttachmentPDF
	default:
		return AttachmentOther
	}
}

// DisplayDate formats the publish date in local time, or returns the raw
// pubDate when it could not be parsed.
func (e Entry) DisplayDate() string {
	if e.PublishedAt == nil {
		return e.PubDate
	}
	return e.PublishedAt.In(time.Local).Format("02 Jan 2006, 15:04")
}

func parsePubDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}
