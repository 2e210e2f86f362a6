package viewer

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/lysyi3m/nse-pulse/app/tree"
	"github.com/lysyi3m/nse-pulse/app/value"
)

type attachment struct {
	view *tree.View
	err  error
}

// attachmentMemo settles each entry's attachment at most once for the
// lifetime of a loaded feed. Failures are kept like successes.
type attachmentMemo struct {
	mu      sync.Mutex
	group   singleflight.Group
	settled map[int]*attachment
}

func newAttachmentMemo() *attachmentMemo {
	return &attachmentMemo{settled: make(map[int]*attachment)}
}

func (m *attachmentMemo) get(index int) (*attachment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.settled[index]
	return a, ok
}

func (m *attachmentMemo) load(ctx context.Context, index int, fetch func(context.Context) (value.Value, error)) *attachment {
	if a, ok := m.get(index); ok {
		return a
	}

	res, _, _ := m.group.Do(strconv.Itoa(index), func() (any, error) {
		if a, ok := m.get(index); ok {
			return a, nil
		}

		// the result outlives the request that triggered it
		v, err := fetch(context.WithoutCancel(ctx))
		a := &attachment{err: err}
		if err == nil {
			a.view = tree.NewView(v, nil)
		}

		m.mu.Lock()
		m.settled[index] = a
		m.mu.Unlock()

		return a, nil
	})

	return res.(*attachment)
}
