package tree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lysyi3m/nse-pulse/app/value"
)

type Action string

const (
	ActionToggle   Action = "toggle"
	ActionShowMore Action = "show-more"
	ActionShowAll  Action = "show-all"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionToggle, ActionShowMore, ActionShowAll:
		return a, nil
	default:
		return "", fmt.Errorf("unknown tree action %q", s)
	}
}

type Intent struct {
	Action Action
	Path   string
}

var (
	ErrUnknownPath  = errors.New("unknown tree path")
	ErrNotContainer = errors.New("tree path is not a container")
)

// View binds a document to its disclosure state. The top-level entries of
// the document are always shown; everything below follows the store.
type View struct {
	root  value.Value
	store *Store
}

func NewView(root value.Value, store *Store) *View {
	if store == nil {
		store = NewStore()
	}
	return &View{root: root, store: store}
}

func (v *View) Store() *Store {
	return v.store
}

func (v *View) Render() []Node {
	nodes := make([]Node, 0, v.root.Len())
	for i, entry := range v.root.Entries() {
		nodes = append(nodes, Render(entry.Value, entry.Key, 0, strconv.Itoa(i), v.store))
	}
	return nodes
}

// Resolve returns the value at a currently rendered path. Paths hidden under
// a collapsed ancestor or beyond a window are unknown.
func (v *View) Resolve(path string) (value.Value, error) {
	if path == "" {
		return value.Value{}, fmt.Errorf("%w: empty path", ErrUnknownPath)
	}

	current := v.root
	walked := ""
	for depth, segment := range strings.Split(path, "/") {
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 {
			return value.Value{}, fmt.Errorf("%w: %s", ErrUnknownPath, path)
		}

		if depth > 0 {
			st, ok := v.store.State(walked)
			if !ok || !st.Expanded || index >= st.VisibleCount {
				return value.Value{}, fmt.Errorf("%w: %s", ErrUnknownPath, path)
			}
		}

		entry, ok := current.Entry(index)
		if !ok {
			return value.Value{}, fmt.Errorf("%w: %s", ErrUnknownPath, path)
		}
		current = entry.Value
		walked = JoinPath(walked, index)
	}

	return current, nil
}

func (v *View) Apply(in Intent) error {
	target, err := v.Resolve(in.Path)
	if err != nil {
		return err
	}
	if target.IsPrimitive() {
		return fmt.Errorf("%w: %s", ErrNotContainer, in.Path)
	}

	switch in.Action {
	case ActionToggle:
		v.store.Toggle(in.Path)
	case ActionShowMore:
		v.store.ShowMore(in.Path, target.Len())
	case ActionShowAll:
		v.store.ShowAll(in.Path, target.Len())
	default:
		return fmt.Errorf("unknown tree action %q", in.Action)
	}

	return nil
}
