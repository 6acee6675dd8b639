package graphapi

import (
	"encoding/json"
	"log/slog"
	"strconv"
)

// ModeBypass is the editor node mode reserved for bypassed nodes. It is the
// only mode that maps to the canonical Disabled flag.
const ModeBypass = 4

// Workflow is the editor/export form of a graph: separate nodes and links
// arrays as written by the visual graph editor.
type Workflow struct {
	Nodes      []*WorkflowNode `json:"nodes"`
	Links      linkList        `json:"links"`
	LastNodeID int             `json:"last_node_id"`
	LastLinkID int             `json:"last_link_id"`
	Version    float32         `json:"version"`
}

type WorkflowNode struct {
	ID           int             `json:"id"`
	Type         string          `json:"type"`
	Title        string          `json:"title,omitempty"`
	Mode         int             `json:"mode"`
	Order        int             `json:"order"`
	WidgetValues []any           `json:"widgets_values"`
	Inputs       []*WorkflowSlot `json:"inputs,omitempty"`
	Outputs      []*WorkflowSlot `json:"outputs,omitempty"`
}

// WorkflowSlot is a connection point on an editor node. Input slots carry a
// single link id, output slots a list of them.
type WorkflowSlot struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Link  *int   `json:"link,omitempty"`
	Links []int  `json:"links,omitempty"`
}

type linkList []*Link

// malformed link entries are dropped rather than failing the whole template
func (ll *linkList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]*Link, 0, len(raw))
	for _, r := range raw {
		l := &Link{}
		if err := json.Unmarshal(r, l); err != nil {
			slog.Warn("ignoring malformed link entry", "error", err)
			continue
		}
		out = append(out, l)
	}
	*ll = out
	return nil
}

// NormalizeJSON reconciles a stored workflow template into canonical form.
// data may be either the canonical node id to node mapping, or an editor
// export carrying a non-empty "nodes" array. Canonical input passes through
// structurally unchanged; normalization is idempotent.
func NormalizeJSON(data []byte) (*Graph, error) {
	var peek struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &peek); err == nil && len(peek.Nodes) > 0 {
		wf := &Workflow{}
		if err := json.Unmarshal(data, wf); err != nil {
			return nil, err
		}
		return wf.Canonical(), nil
	}

	g := &Graph{}
	if err := json.Unmarshal(data, g); err != nil {
		// last resort: an editor export whose top level did not read as
		// one (e.g. an empty nodes array)
		wf := &Workflow{}
		if werr := json.Unmarshal(data, wf); werr == nil {
			return wf.Canonical(), nil
		}
		return nil, err
	}
	if g.Nodes == nil {
		g.Nodes = make(map[string]*Node)
	}
	return g, nil
}

// Canonical resolves the editor form into the canonical graph. Link ids
// become edge references, the bypass mode becomes the disabled flag, and
// positional widget values are retained verbatim; decoding them needs the
// per-type widget tables and is left to extraction and rebuild.
func (w *Workflow) Canonical() *Graph {
	g := &Graph{Nodes: make(map[string]*Node, len(w.Nodes))}

	// link id -> producer
	table := make(map[int]EdgeRef, len(w.Links))
	for _, l := range w.Links {
		table[l.ID] = EdgeRef{NodeID: strconv.Itoa(l.OriginID), Slot: l.OriginSlot}
	}

	for _, wn := range w.Nodes {
		if wn == nil {
			continue
		}
		node := &Node{
			Type:     wn.Type,
			Title:    wn.Title,
			Inputs:   make(map[string]any),
			Widgets:  wn.WidgetValues,
			Disabled: wn.Mode == ModeBypass,
		}
		for _, in := range wn.Inputs {
			if in == nil || in.Link == nil {
				continue
			}
			ref, ok := table[*in.Link]
			if !ok {
				slog.Warn("input references unresolvable link",
					"node", wn.ID, "input", in.Name, "link", *in.Link)
				continue
			}
			node.Inputs[in.Name] = ref.Value()
		}
		g.Nodes[strconv.Itoa(wn.ID)] = node
	}
	return g
}
