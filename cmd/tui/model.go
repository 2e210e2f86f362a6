package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lysyi3m/nse-pulse/app/feed"
	"github.com/lysyi3m/nse-pulse/app/tree"
	"github.com/lysyi3m/nse-pulse/app/viewer"
)

type focus int

const (
	focusList focus = iota
	focusURL
	focusFilter
)

// line is one selectable row of the list: an entry header or a row of an
// open entry's attachment tree.
type line struct {
	entry int
	row   *tree.Row
	text  string
	plain bool // not selectable
}

type loadedMsg struct{ err error }

type toggledMsg struct {
	entry int
	err   error
}

type Model struct {
	ctx     context.Context
	session *viewer.Session
	version string
	styles  Styles

	urlInput    textinput.Model
	filterInput textinput.Model
	viewport    viewport.Model
	focus       focus

	snap    viewer.Snapshot
	lines   []line
	cursor  int
	loading bool
	status  string

	width  int
	height int
}

func NewModel(ctx context.Context, session *viewer.Session, defaultURL, version string) Model {
	ui := textinput.New()
	ui.Placeholder = "Paste RSS feed URL here..."
	ui.CharLimit = 2048
	ui.Width = 80
	ui.SetValue(defaultURL)
	ui.Focus()

	fi := textinput.New()
	fi.Placeholder = "Search in feed..."
	fi.CharLimit = 100
	fi.Width = 40

	m := Model{
		ctx:         ctx,
		session:     session,
		version:     version,
		styles:      DefaultStyles(),
		urlInput:    ui,
		filterInput: fi,
		viewport:    viewport.New(80, 20),
		focus:       focusURL,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case loadedMsg:
		m.loading = false
		m.status = ""
		m.cursor = 0
		if msg.err == nil {
			m.focus = focusList
			m.urlInput.Blur()
		}
		m.refresh()
		return m, nil

	case toggledMsg:
		m.loading = false
		m.status = ""
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		switch m.focus {
		case focusURL:
			return m.updateURL(msg)
		case focusFilter:
			return m.updateFilter(msg)
		default:
			return m.updateList(msg)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateURL(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.loading {
			return m, nil
		}
		rawURL := strings.TrimSpace(m.urlInput.Value())
		if rawURL == "" {
			return m, nil
		}
		m.loading = true
		m.status = "Loading..."
		return m, m.load(rawURL)
	case tea.KeyEsc:
		if m.snap.Loaded {
			m.focus = focusList
			m.urlInput.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.focus = focusList
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	// live filtering
	m.session.SetFilter(m.filterInput.Value())
	m.cursor = 0
	m.refresh()
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "u":
		m.focus = focusURL
		m.urlInput.Focus()
		return m, textinput.Blink
	case "/":
		if m.snap.Total > 0 {
			m.focus = focusFilter
			m.filterInput.Focus()
			return m, textinput.Blink
		}
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter", " ":
		return m.activate(tree.ActionToggle)
	case "m":
		return m.activate(tree.ActionShowMore)
	case "a":
		return m.activate(tree.ActionShowAll)
	}

	return m, nil
}

// activate applies an action to the selected line. Entry headers toggle
// their panel, tree rows receive the disclosure intent.
func (m Model) activate(action tree.Action) (tea.Model, tea.Cmd) {
	if m.loading || m.cursor >= len(m.lines) {
		return m, nil
	}
	l := m.lines[m.cursor]

	if l.row == nil {
		if action != tree.ActionToggle {
			return m, nil
		}
		m.loading = true
		m.status = "Loading..."
		return m, m.toggle(l.entry)
	}

	var path string
	switch {
	case l.row.IsControl():
		path = l.row.Control.Path
		if action == tree.ActionToggle {
			action = tree.ActionShowMore
		}
	case !l.row.Node.Leaf:
		path = l.row.Node.Path
		if action != tree.ActionToggle {
			// paging applies to the container's own window
			if l.row.Node.More == nil {
				return m, nil
			}
		}
	default:
		return m, nil
	}

	if err := m.session.ApplyTree(l.entry, tree.Intent{Action: action, Path: path}); err != nil {
		m.status = err.Error()
	}
	m.refresh()
	return m, nil
}

func (m Model) load(rawURL string) tea.Cmd {
	session := m.session
	ctx := m.ctx
	return func() tea.Msg {
		return loadedMsg{err: session.Load(ctx, rawURL)}
	}
}

func (m Model) toggle(index int) tea.Cmd {
	session := m.session
	ctx := m.ctx
	return func() tea.Msg {
		return toggledMsg{entry: index, err: session.ToggleEntry(ctx, index)}
	}
}

func (m *Model) move(delta int) {
	next := m.cursor
	for {
		next += delta
		if next < 0 || next >= len(m.lines) {
			return
		}
		if !m.lines[next].plain {
			m.cursor = next
			m.render()
			return
		}
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-7, 3) // header, inputs, counter, footer
	m.urlInput.Width = max(width-4, 20)
	m.render()
}

// refresh rebuilds the lines from a fresh session snapshot.
func (m *Model) refresh() {
	m.snap = m.session.Snapshot()
	m.lines = buildLines(m.snap, m.styles)
	if m.cursor >= len(m.lines) {
		m.cursor = max(len(m.lines)-1, 0)
	}
	for m.cursor < len(m.lines)-1 && m.lines[m.cursor].plain {
		m.cursor++
	}
	m.render()
}

func (m *Model) render() {
	var sb strings.Builder
	for i, l := range m.lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		if i == m.cursor && m.focus == focusList && !l.plain {
			sb.WriteString(m.styles.Selected.Render(l.text))
		} else {
			sb.WriteString(l.text)
		}
	}
	m.viewport.SetContent(sb.String())

	switch {
	case m.cursor < m.viewport.YOffset:
		m.viewport.SetYOffset(m.cursor)
	case m.cursor >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

func buildLines(snap viewer.Snapshot, styles Styles) []line {
	if !snap.Loaded || snap.Error != "" {
		return nil
	}
	if snap.Empty != "" {
		return []line{{text: styles.Muted.Render(snap.Empty), plain: true}}
	}

	var lines []line
	for _, ev := range snap.Entries {
		lines = append(lines, line{entry: ev.Entry.Index, text: entryText(ev, styles)})

		if !ev.Open {
			continue
		}
		if ev.Kind != feed.AttachmentXML {
			lines = append(lines, line{entry: ev.Entry.Index, plain: true,
				text: "    " + styles.Muted.Render("Open Document: "+ev.Entry.Link)})
			continue
		}
		if !ev.Loaded {
			continue
		}
		if ev.Error != "" {
			lines = append(lines, line{entry: ev.Entry.Index, plain: true, text: "    " + styles.Error.Render(ev.Error)})
			continue
		}
		for i := range ev.Rows {
			row := ev.Rows[i]
			lines = append(lines, line{entry: ev.Entry.Index, row: &row, text: rowText(row, styles)})
		}
	}
	return lines
}

func entryText(ev viewer.EntryView, styles Styles) string {
	marker := "▸"
	if ev.Open {
		marker = "▾"
	}

	kind := "XML Data"
	switch ev.Kind {
	case feed.AttachmentPDF:
		kind = "PDF Document"
	case feed.AttachmentOther:
		kind = "Open Document"
	}

	parts := []string{marker + " " + ev.Entry.Title}
	if date := ev.Entry.DisplayDate(); date != "" {
		parts = append(parts, styles.Muted.Render(date))
	}
	if label := ev.Entry.AcquirerLabel(); label != "" {
		parts = append(parts, label)
	}
	parts = append(parts, styles.Label.Render("["+kind+"]"))

	return strings.Join(parts, "  ")
}

func rowText(row tree.Row, styles Styles) string {
	indent := strings.Repeat("  ", row.Depth+2)

	if row.IsControl() {
		return indent + styles.Control.Render(fmt.Sprintf("Show %d more...", tree.PageSize)) + "  " +
			styles.Control.Render(fmt.Sprintf("Show all (%d more)", row.Control.Remaining()))
	}

	n := row.Node
	if n.Leaf {
		return indent + styles.Label.Render(n.Label+":") + " " + n.Text
	}

	marker := "▸"
	if n.Expanded {
		marker = "▾"
	}
	return indent + marker + " " + n.Label + " " + styles.Muted.Render(n.Badge())
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render("NSE Pulse") + " " + m.styles.Muted.Render("v"+m.version))
	sb.WriteString("\n")
	sb.WriteString(m.urlInput.View())
	sb.WriteString("\n")

	switch {
	case m.snap.Error != "":
		sb.WriteString(m.styles.Error.Render(m.snap.Error))
	case m.snap.Loaded && m.snap.Total > 0:
		sb.WriteString(m.styles.Title.Render(m.snap.Title) + "  " +
			m.styles.Counter.Render(fmt.Sprintf("%d / %d", m.snap.Matched, m.snap.Total)) + "  " +
			m.filterInput.View())
	case !m.snap.Loaded:
		sb.WriteString(m.styles.Muted.Render("Analyze NSE RSS Feeds"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	footer := "enter: open/toggle  m: show more  a: show all  /: search  u: url  q: quit"
	if m.status != "" {
		footer = m.status
	}
	sb.WriteString(m.styles.Footer.Render(footer))

	return sb.String()
}
