package cfg

import "time"

type Cfg struct {
	// Network configuration
	Port         string
	LocalBase    string
	ProxyURL     string
	RoutesFile   string
	UserAgent    string
	FetchTimeout time.Duration
	APIAccessKey string

	// Application configuration
	FeedsDir string
	LogFile  string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// LocalBaseURL is the origin the fetch pipeline rewrites proxied hosts to.
// An empty LocalBase means the server itself hosts the proxy routes.
func (c *Cfg) LocalBaseURL() string {
	if c.LocalBase != "" {
		return c.LocalBase
	}
	return "http://localhost:" + c.Port
}
