package lexgraph

import "time"

// Node is a typed vertex in the lexical knowledge graph.
// Nodes carry no payload of their own: all lexical content lives in the
// source tables the Ref points at. A node exists to anchor edges.
type Node struct {
	// Key is the unique node identifier.
	Key NodeKey `json:"key"`

	// CreatedAt is the timestamp when the node was first created.
	// Re-upserting an existing node never changes it.
	CreatedAt time.Time `json:"created_at"`
}

// NewNode creates a Node with the given kind and reference id,
// stamped with the current time.
func NewNode(kind NodeKind, ref int64) Node {
	return Node{
		Key:       NewNodeKey(kind, ref),
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks that the node carries a canonical kind.
func (n Node) Validate() error {
	return n.Key.Validate()
}
