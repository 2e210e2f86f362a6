package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/nse-pulse/app/feed"
	"github.com/lysyi3m/nse-pulse/app/value"
)

func (h *Handler) APIGetFeed(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	doc, err := h.fetcher.FetchDocument(c.Request.Context(), rawURL)
	if err != nil {
		slog.Error("Feed fetch failed", "url", rawURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	entries := feed.Project(doc.Value)
	matched := feed.Filter(entries, c.Query("q"))

	items := make([]entryJSON, 0, len(matched))
	for _, e := range matched {
		items = append(items, toEntryJSON(e))
	}

	c.JSON(http.StatusOK, gin.H{
		"url":     rawURL,
		"title":   feed.ChannelTitle(doc.Value),
		"total":   len(entries),
		"matched": len(matched),
		"items":   items,
	})
}

func (h *Handler) APIGetDocument(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	v, err := h.fetcher.Fetch(c.Request.Context(), rawURL)
	if err != nil {
		slog.Error("Document fetch failed", "url", rawURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	// document text is shown verbatim, so no HTML escaping
	c.PureJSON(http.StatusOK, struct {
		URL      string      `json:"url"`
		Document value.Value `json:"document"`
	}{URL: rawURL, Document: v})
}

func (h *Handler) APIGetFeedXML(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	doc, err := h.fetcher.FetchDocument(c.Request.Context(), rawURL)
	if err != nil {
		slog.Error("Feed fetch failed", "url", rawURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	channel := feed.Channel{Title: feed.ChannelTitle(doc.Value)}
	if parsed, err := h.parser.Run(doc.Body); err == nil {
		channel = *parsed
	} else {
		slog.Debug("Channel header not recognised", "url", rawURL, "error", err)
	}

	matched := feed.Filter(feed.Project(doc.Value), c.Query("q"))

	selfLink := requestBaseURL(c) + c.Request.URL.RequestURI()
	rss, err := h.generator.Run(channel, matched, rawURL, selfLink)
	if err != nil {
		slog.Error("RSS generation error", "url", rawURL, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(matched)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) APIListPresets(c *gin.Context) {
	presets := h.presets.GetPresets()

	out := make([]map[string]interface{}, 0, len(presets))
	for _, p := range presets {
		out = append(out, map[string]interface{}{
			"name":    p.Name,
			"title":   p.Title,
			"url":     p.URL,
			"enabled": p.Enabled,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"presets": out,
		"total":   len(out),
	})
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host
}
