package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/nse-pulse/app/feed"
	"github.com/lysyi3m/nse-pulse/app/tree"
	"github.com/lysyi3m/nse-pulse/app/viewer"
)

func NewHandler(registry *viewer.Registry, fetcher viewer.DocumentFetcher, parser viewer.ChannelParser,
	generator GeneratorInterface, presets PresetSource, version string) *Handler {
	return &Handler{
		registry:  registry,
		fetcher:   fetcher,
		parser:    parser,
		generator: generator,
		presets:   presets,
		version:   version,
	}
}

func (h *Handler) NewSession(c *gin.Context) {
	session := h.registry.Create()
	c.Redirect(http.StatusSeeOther, sessionPath(session.ID, ""))
}

func (h *Handler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session.SetFilter(c.Query("q"))

	data := pageData{
		Session:  session.Snapshot(),
		Presets:  h.presets.GetPresets(),
		Version:  h.version,
		PageSize: tree.PageSize,
	}
	data.DefaultURL = data.Session.URL
	if data.DefaultURL == "" {
		if preset, ok := h.presets.Default(); ok {
			data.DefaultURL = preset.URL
		}
	}

	c.HTML(http.StatusOK, "session.html", data)
}

func (h *Handler) LoadFeed(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	// the failure is shown inline by the session page
	if err := session.Load(c.Request.Context(), c.PostForm("url")); err != nil && !errors.Is(err, viewer.ErrEmptyURL) {
		slog.Debug("Feed load failed", "session", session.ID, "error", err)
	}

	c.Redirect(http.StatusSeeOther, sessionPath(session.ID, ""))
}

func (h *Handler) ToggleEntry(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry index"})
		return
	}

	if err := session.ToggleEntry(c.Request.Context(), index); err != nil {
		h.respondSessionError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, entryPath(session.ID, c.PostForm("q"), index))
}

func (h *Handler) ApplyTree(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry index"})
		return
	}

	action, err := tree.ParseAction(c.PostForm("action"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent := tree.Intent{Action: action, Path: c.PostForm("path")}
	if err := session.ApplyTree(index, intent); err != nil {
		h.respondSessionError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, entryPath(session.ID, c.PostForm("q"), index))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"sessions":  h.registry.Len(),
		"presets":   h.presets.GetPresetCount(),
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) session(c *gin.Context) (*viewer.Session, bool) {
	session, err := h.registry.Get(c.Param("id"))
	if err != nil {
		if c.Request.Method == http.MethodGet {
			// expired or evicted, start over
			c.Redirect(http.StatusSeeOther, "/")
		} else {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		}
		return nil, false
	}
	return session, true
}

func (h *Handler) respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, viewer.ErrEntryNotFound), errors.Is(err, viewer.ErrNoFeed):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, viewer.ErrNotLoaded), errors.Is(err, viewer.ErrPanelClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, tree.ErrUnknownPath), errors.Is(err, tree.ErrNotContainer):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Session request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func sessionPath(id, term string) string {
	p := "/sessions/" + url.PathEscape(id)
	if term != "" {
		p += "?q=" + url.QueryEscape(term)
	}
	return p
}

func entryPath(id, term string, index int) string {
	return sessionPath(id, term) + "#entry-" + strconv.Itoa(index)
}

func toEntryJSON(e feed.Entry) entryJSON {
	out := entryJSON{
		Index:       e.Index,
		Title:       e.Title,
		Link:        e.Link,
		Description: e.Description,
		PubDate:     e.PubDate,
		Kind:        e.Kind().String(),
	}
	if e.PublishedAt != nil {
		published := e.PublishedAt.Format(time.RFC3339)
		out.PublishedAt = &published
	}
	if e.HasAcquirer() {
		out.Acquirer = e.AcquirerLabel()
	}
	return out
}
