package tree

// Row is one line of a rendered tree: a node, or the paging control of the
// container above it.
type Row struct {
	Node    Node
	Depth   int
	Control *More
}

func (r Row) IsControl() bool {
	return r.Control != nil
}

// Flatten lists nodes depth-first, each container followed by its visible
// children and then its paging control.
func Flatten(nodes []Node) []Row {
	var rows []Row
	for _, n := range nodes {
		rows = appendRows(rows, n)
	}
	return rows
}

func appendRows(rows []Row, n Node) []Row {
	rows = append(rows, Row{Node: n, Depth: n.Depth})
	for _, child := range n.Children {
		rows = appendRows(rows, child)
	}
	if n.More != nil {
		rows = append(rows, Row{Depth: n.More.Depth, Control: n.More})
	}
	return rows
}
