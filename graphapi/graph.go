package graphapi

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Graph is the canonical, directly-submittable form of a workflow: a flat
// mapping of node id to node, in the renderer's prompt submission format.
// The editor/export form (separate nodes and links arrays) is resolved into
// this form by NormalizeJSON before anything else looks at it.
type Graph struct {
	Nodes map[string]*Node
}

// Node is a single unit of work within a Graph. Inputs maps input name to
// either a literal value or an edge reference; the two are distinguished by
// shape only (see AsEdgeRef). Widgets holds positional widget values carried
// over verbatim from an editor export until the rebuilder decodes them.
type Node struct {
	Type     string
	Title    string
	Inputs   map[string]any
	Widgets  []any
	Disabled bool
}

type nodeMeta struct {
	Title string `json:"title,omitempty"`
}

type nodeJSON struct {
	Type     string         `json:"class_type"`
	Inputs   map[string]any `json:"inputs"`
	Widgets  []any          `json:"widgets_values,omitempty"`
	Disabled bool           `json:"disabled,omitempty"`
	Meta     *nodeMeta      `json:"_meta,omitempty"`
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var tmp nodeJSON
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	n.Type = tmp.Type
	n.Inputs = tmp.Inputs
	n.Widgets = tmp.Widgets
	n.Disabled = tmp.Disabled
	if n.Inputs == nil {
		n.Inputs = make(map[string]any)
	}
	if tmp.Meta != nil {
		n.Title = tmp.Meta.Title
	}
	return nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	tmp := nodeJSON{
		Type:     n.Type,
		Inputs:   n.Inputs,
		Widgets:  n.Widgets,
		Disabled: n.Disabled,
	}
	if tmp.Inputs == nil {
		tmp.Inputs = make(map[string]any)
	}
	if n.Title != "" {
		tmp.Meta = &nodeMeta{Title: n.Title}
	}
	return json.Marshal(tmp)
}

func (t *Graph) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &t.Nodes)
}

func (t *Graph) MarshalJSON() ([]byte, error) {
	if t.Nodes == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.Nodes)
}

func (t *Graph) GetNodeByID(id string) *Node {
	val, ok := t.Nodes[id]
	if ok {
		return val
	}
	return nil
}

// GetNodesWithType returns the ids of all nodes of the given type, in
// traversal order.
func (t *Graph) GetNodesWithType(nodeType string) []string {
	retv := make([]string, 0)
	for _, id := range t.SortedIDs() {
		if t.Nodes[id].Type == nodeType {
			retv = append(retv, id)
		}
	}
	return retv
}

// SortedIDs returns the node ids in deterministic traversal order: numeric
// ids (the common case for editor exports) sort numerically, any others sort
// lexically after them.
func (t *Graph) SortedIDs() []string {
	ids := make([]string, 0, len(t.Nodes))
	for id := range t.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		if (aerr == nil) != (berr == nil) {
			return aerr == nil
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Clone deep-copies the graph through a JSON round trip so a rebuild can
// mutate freely without touching the stored template.
func (t *Graph) Clone() *Graph {
	retv := &Graph{Nodes: make(map[string]*Node)}
	data, err := json.Marshal(t)
	if err != nil {
		return retv
	}
	if err := json.Unmarshal(data, retv); err != nil {
		return &Graph{Nodes: make(map[string]*Node)}
	}
	if retv.Nodes == nil {
		retv.Nodes = make(map[string]*Node)
	}
	return retv
}

func (t *Graph) GraphToJSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// EdgeRef is a data dependency on another node's output slot.
type EdgeRef struct {
	NodeID string
	Slot   int
}

// AsEdgeRef reports whether v has the wire shape of an edge reference: a two
// element array of producer node id and output slot index. Values carry no
// type tag, the shape is the only discriminator.
func AsEdgeRef(v any) (EdgeRef, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return EdgeRef{}, false
	}
	id, ok := pair[0].(string)
	if !ok {
		return EdgeRef{}, false
	}
	switch slot := pair[1].(type) {
	case float64:
		return EdgeRef{NodeID: id, Slot: int(slot)}, true
	case int:
		return EdgeRef{NodeID: id, Slot: slot}, true
	}
	return EdgeRef{}, false
}

// Value renders the reference back into its wire shape.
func (e EdgeRef) Value() []any {
	return []any{e.NodeID, e.Slot}
}
