package lexgraph

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeKey uniquely identifies a node in the graph. It pairs the node kind
// with the referenced entity id (word id, sense id, interned label id,
// concept id), so no separate ID allocator is needed: the key is derived
// deterministically from data the pipeline already has.
//
// The serialized form "Kind:Ref" (e.g. "Word:4821") is produced by String
// and only appears at the persistence boundary; in-process code passes the
// struct around and never parses strings.
type NodeKey struct {
	// Kind is the node kind component of the key.
	Kind NodeKind `json:"kind"`

	// Ref is the referenced entity id within that kind.
	Ref int64 `json:"ref"`
}

// NewNodeKey creates a NodeKey from a kind and a reference id.
func NewNodeKey(kind NodeKind, ref int64) NodeKey {
	return NodeKey{Kind: kind, Ref: ref}
}

// IsZero returns true if the key is the zero value (no kind, ref 0).
func (k NodeKey) IsZero() bool {
	return k.Kind == "" && k.Ref == 0
}

// String returns the serialized key form "Kind:Ref".
func (k NodeKey) String() string {
	return string(k.Kind) + ":" + strconv.FormatInt(k.Ref, 10)
}

// Validate checks that the key carries a canonical kind.
func (k NodeKey) Validate() error {
	if err := k.Kind.Validate(); err != nil {
		return fmt.Errorf("node key %q: %w", k.String(), err)
	}
	return nil
}

// ParseNodeKey parses the serialized "Kind:Ref" form back into a NodeKey.
// Returns an error if the kind is unknown or the ref is not an integer.
func ParseNodeKey(s string) (NodeKey, error) {
	kind, ref, ok := strings.Cut(s, ":")
	if !ok {
		return NodeKey{}, fmt.Errorf("malformed node key %q: missing separator", s)
	}
	k, err := ParseNodeKind(kind)
	if err != nil {
		return NodeKey{}, fmt.Errorf("malformed node key %q: %w", s, err)
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return NodeKey{}, fmt.Errorf("malformed node key %q: ref is not an integer", s)
	}
	return NodeKey{Kind: k, Ref: id}, nil
}
