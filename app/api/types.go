package api

import (
	"github.com/lysyi3m/nse-pulse/app/feed"
	"github.com/lysyi3m/nse-pulse/app/viewer"
)

type GeneratorInterface interface {
	Run(channel feed.Channel, entries []feed.Entry, sourceURL, selfLink string) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type PresetSource interface {
	GetPresets() []feed.Preset
	Default() (feed.Preset, bool)
	GetPresetCount() int
}

var _ PresetSource = (*feed.PresetCache)(nil)

type Handler struct {
	registry  *viewer.Registry
	fetcher   viewer.DocumentFetcher
	parser    viewer.ChannelParser
	generator GeneratorInterface
	presets   PresetSource
	version   string
}

type entryJSON struct {
	Index       int     `json:"index"`
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Description string  `json:"description"`
	PubDate     string  `json:"pub_date"`
	PublishedAt *string `json:"published_at,omitempty"`
	Acquirer    string  `json:"acquirer,omitempty"`
	Kind        string  `json:"kind"`
}

type pageData struct {
	Session    viewer.Snapshot
	DefaultURL string
	Presets    []feed.Preset
	Version    string
	PageSize   int
}
