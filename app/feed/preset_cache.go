package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

type PresetCache struct {
	feedsDir string
	cache    map[string]*Preset
	mu       sync.RWMutex
}

func NewPresetCache(feedsDir string) *PresetCache {
	return &PresetCache{
		feedsDir: feedsDir,
		cache:    make(map[string]*Preset),
	}
}

func (pc *PresetCache) Run() error {
	if _, err := os.Stat(pc.feedsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(pc.feedsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		preset, err := pc.LoadPreset(presetName(file))
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Preset loaded", "preset", preset.Name, "enabled", preset.Enabled)
	}

	return nil
}

func (pc *PresetCache) LoadPreset(name string) (*Preset, error) {
	presetFile := pc.getPresetFilePath(name)
	preset, err := pc.parsePreset(presetFile)
	if err != nil {
		return nil, err
	}

	preset.Name = name

	if err := pc.validatePreset(preset); err != nil {
		return nil, fmt.Errorf("invalid preset %s: %w", presetFile, err)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache[preset.Name] = preset

	return preset, nil
}

func (pc *PresetCache) GetPreset(name string) (*Preset, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	preset, ok := pc.cache[name]
	if !ok {
		return nil, fmt.Errorf("preset with name '%s' not found", name)
	}
	return preset, nil
}

// GetPresets returns the presets sorted by name.
func (pc *PresetCache) GetPresets() []Preset {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	presets := make([]Preset, 0, len(pc.cache))
	for _, p := range pc.cache {
		presets = append(presets, *p)
	}
	slices.SortFunc(presets, func(a, b Preset) int {
		return strings.Compare(a.Name, b.Name)
	})
	return presets
}

// Default is the first enabled preset by name.
func (pc *PresetCache) Default() (Preset, bool) {
	for _, p := range pc.GetPresets() {
		if p.Enabled {
			return p, true
		}
	}
	return Preset{}, false
}

func (pc *PresetCache) Remove(name string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	delete(pc.cache, name)
}

func (pc *PresetCache) GetPresetCount() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	return len(pc.cache)
}

// Watch reloads presets when their files change, until ctx is done. A
// missing feeds directory is not watched.
func (pc *PresetCache) Watch(ctx context.Context) error {
	if _, err := os.Stat(pc.feedsDir); os.IsNotExist(err) {
		slog.Debug("Feeds directory missing, presets are not watched", "dir", pc.feedsDir)
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(pc.feedsDir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", pc.feedsDir, err)
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				pc.handleEvent(event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Preset watcher error", "error", err)
			}
		}
	}()

	return nil
}

func (pc *PresetCache) handleEvent(event fsnotify.Event) {
	if filepath.Ext(event.Name) != ".yml" {
		return
	}
	name := presetName(event.Name)

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if _, err := pc.LoadPreset(name); err != nil {
			slog.Warn("Failed to reload preset", "preset", name, "error", err)
			return
		}
		slog.Info("Preset reloaded", "preset", name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		pc.Remove(name)
		slog.Info("Preset removed", "preset", name)
	}
}

func (pc *PresetCache) parsePreset(presetFile string) (*Preset, error) {
	data, err := os.ReadFile(presetFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("failed to parse preset file: %w", err)
	}

	return &preset, nil
}

func (pc *PresetCache) validatePreset(preset *Preset) error {
	if preset.URL == "" {
		return fmt.Errorf("url is required")
	}

	u, err := url.Parse(preset.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) URL: %s", preset.URL)
	}

	return nil
}

func (pc *PresetCache) getPresetFilePath(name string) string {
	return filepath.Join(pc.feedsDir, name+".yml")
}

func presetName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), ".yml")
}
