package proxy

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/gin-gonic/gin"
)

// Register mounts every route as "<prefix>/*path" on the router.
func (t *Table) Register(r gin.IRouter) {
	for _, e := range t.entries {
		r.Any(e.route.Prefix+"/*path", newHandler(e))
		slog.Debug("Proxy route registered", "prefix", e.route.Prefix, "target", e.route.Target)
	}
}

func newHandler(e entry) gin.HandlerFunc {
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, e.route.Prefix)
			pr.Out.URL.RawPath = strings.TrimPrefix(pr.In.URL.RawPath, e.route.Prefix)
			pr.SetURL(e.target)

			// browser context of the caller would give the request away
			pr.Out.Header.Del("Origin")
			pr.Out.Header.Del("Cookie")
			for name, value := range e.route.Headers {
				pr.Out.Header.Set(name, value)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("Proxy request failed", "prefix", e.route.Prefix, "path", r.URL.Path, "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	return func(c *gin.Context) {
		rp.ServeHTTP(c.Writer, c.Request)
	}
}
