// Package tree renders a canonical value as a collapsible tree with lazily
// paginated containers.
package tree

import (
	"strconv"

	"github.com/lysyi3m/nse-pulse/app/value"
)

type Node struct {
	Path  string
	Label string
	Depth int

	// Leaf nodes carry the primitive's text.
	Leaf bool
	Text string

	Kind     value.Kind
	Size     int
	Expanded bool
	Children []Node
	More     *More
}

// Badge is "{n}" for a mapping and "[n]" for a list.
func (n Node) Badge() string {
	switch n.Kind {
	case value.KindMapping:
		return "{" + strconv.Itoa(n.Size) + "}"
	case value.KindList:
		return "[" + strconv.Itoa(n.Size) + "]"
	default:
		return ""
	}
}

// More is the paging control trailing a container window that does not show
// every entry.
type More struct {
	Path  string
	Depth int
	Shown int
	Total int
}

func (m More) Remaining() int {
	return m.Total - m.Shown
}

// Next is the window size after a ShowMore.
func (m More) Next() int {
	return min(m.Shown+PageSize, m.Total)
}

// Render builds the node for v. Containers rendered for the first time get
// the default state: expanded with a window of PageSize entries.
func Render(v value.Value, label string, depth int, path string, store *Store) Node {
	n := Node{
		Path:  path,
		Label: label,
		Depth: depth,
	}

	if v.IsPrimitive() {
		n.Leaf = true
		n.Text = v.Text()
		return n
	}

	st := store.mount(path)
	n.Kind = v.Kind()
	n.Size = v.Len()
	n.Expanded = st.Expanded
	if !n.Expanded {
		return n
	}

	shown := min(st.VisibleCount, n.Size)
	n.Children = make([]Node, 0, shown)
	for i := 0; i < shown; i++ {
		entry, _ := v.Entry(i)
		n.Children = append(n.Children, Render(entry.Value, entry.Key, depth+1, JoinPath(path, i), store))
	}

	if shown < n.Size {
		n.More = &More{Path: path, Depth: depth + 1, Shown: shown, Total: n.Size}
	}

	return n
}
