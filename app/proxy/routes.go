// Package proxy holds the reverse-proxy route table: the hosts that refuse
// browser-style cross-origin requests are fetched through local path
// prefixes that forward to the real host with spoofed headers.
package proxy

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const ChromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Route struct {
	Prefix  string            `yaml:"prefix"`
	Target  string            `yaml:"target"`
	Headers map[string]string `yaml:"headers"`
}

type routesFile struct {
	Routes []Route `yaml:"routes"`
}

func DefaultRoutes() []Route {
	return []Route{
		{
			Prefix: "/nse-main",
			Target: "https://www.nseindia.com",
			Headers: map[string]string{
				"User-Agent": ChromeUserAgent,
				"Referer":    "https://www.nseindia.com/",
				"Accept":     "*/*",
			},
		},
		{
			Prefix: "/nse-archives",
			Target: "https://nsearchives.nseindia.com",
			Headers: map[string]string{
				"User-Agent": ChromeUserAgent,
				"Referer":    "https://www.nseindia.com/",
			},
		},
	}
}

// LoadRoutes reads a YAML route file. An empty path yields the built-in NSE
// routes.
func LoadRoutes(path string) ([]Route, error) {
	if path == "" {
		return DefaultRoutes(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}

	var file routesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse routes file: %w", err)
	}

	if len(file.Routes) == 0 {
		return nil, fmt.Errorf("routes file %s defines no routes", path)
	}

	return file.Routes, nil
}

type entry struct {
	route  Route
	target *url.URL
}

type Table struct {
	entries []entry
}

func NewTable(routes []Route) (*Table, error) {
	t := &Table{}
	prefixes := make(map[string]bool)
	hosts := make(map[string]bool)

	for i, route := range routes {
		if !strings.HasPrefix(route.Prefix, "/") || strings.HasSuffix(route.Prefix, "/") {
			return nil, fmt.Errorf("route %d: prefix must start and not end with '/': %q", i, route.Prefix)
		}

		target, err := url.Parse(route.Target)
		if err != nil {
			return nil, fmt.Errorf("route %d: invalid target: %w", i, err)
		}
		if target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("route %d: target must be an absolute URL: %q", i, route.Target)
		}

		host := strings.ToLower(target.Hostname())
		if prefixes[route.Prefix] {
			return nil, fmt.Errorf("route %d: duplicate prefix %s", i, route.Prefix)
		}
		if hosts[host] {
			return nil, fmt.Errorf("route %d: duplicate target host %s", i, host)
		}
		prefixes[route.Prefix] = true
		hosts[host] = true

		t.entries = append(t.entries, entry{route: route, target: target})
	}

	return t, nil
}

// Rewrite maps a URL on a proxied host to the matching local prefix under
// localBase, keeping path and query. The second result is false when no route
// matches, in which case the URL is returned unchanged.
func (t *Table) Rewrite(rawURL, localBase string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL, false
	}

	host := strings.ToLower(u.Hostname())
	for _, e := range t.entries {
		if strings.ToLower(e.target.Hostname()) != host {
			continue
		}

		var b strings.Builder
		b.WriteString(strings.TrimSuffix(localBase, "/"))
		b.WriteString(e.route.Prefix)
		if path := u.EscapedPath(); path != "" {
			b.WriteString(path)
		} else {
			b.WriteString("/")
		}
		if u.RawQuery != "" {
			b.WriteString("?")
			b.WriteString(u.RawQuery)
		}
		return b.String(), true
	}

	return rawURL, false
}
