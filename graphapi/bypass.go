package graphapi

import "log/slog"

// maxBypassPasses bounds the cascading removal loop on malformed graphs.
// Normal graphs, acyclic among live nodes, converge long before this.
const maxBypassPasses = 64

// resolveBypasses removes every disabled node from the graph so that no
// surviving edge references one. Consumers are rewired through pass-through
// families to the nearest live producer where the slot convention allows it;
// where it does not, the dangling input is deleted if optional, and the
// consuming node is removed if the input was required. Removal cascades to a
// fixed point.
func resolveBypasses(g *Graph) {
	disabled := make(map[string]bool)
	// each disabled node's own wiring, snapshotted before any mutation
	snapshot := make(map[string]map[string]any)
	for id, n := range g.Nodes {
		if !n.Disabled {
			continue
		}
		disabled[id] = true
		snap := make(map[string]any, len(n.Inputs))
		for k, v := range n.Inputs {
			snap[k] = v
		}
		snapshot[id] = snap
	}
	if len(disabled) == 0 {
		return
	}

	// resolve walks upstream through disabled producers until it reaches a
	// live one; the visited set guards against disabled cycles in malformed
	// input
	var resolve func(ref EdgeRef, visited map[string]bool) (EdgeRef, bool)
	resolve = func(ref EdgeRef, visited map[string]bool) (EdgeRef, bool) {
		if !disabled[ref.NodeID] {
			if g.GetNodeByID(ref.NodeID) == nil {
				return EdgeRef{}, false
			}
			return ref, true
		}
		if visited[ref.NodeID] {
			return EdgeRef{}, false
		}
		visited[ref.NodeID] = true

		n := g.GetNodeByID(ref.NodeID)
		if n == nil {
			return EdgeRef{}, false
		}
		input, ok := passThroughName(n, ref.Slot)
		if !ok {
			return EdgeRef{}, false
		}
		up, ok := AsEdgeRef(snapshot[ref.NodeID][input])
		if !ok {
			return EdgeRef{}, false
		}
		return resolve(up, visited)
	}

	remove := make(map[string]bool, len(disabled))
	for id := range disabled {
		remove[id] = true
	}

	for id, n := range g.Nodes {
		if disabled[id] {
			continue
		}
		for name, v := range n.Inputs {
			ref, ok := AsEdgeRef(v)
			if !ok || !disabled[ref.NodeID] {
				continue
			}
			if live, ok := resolve(ref, make(map[string]bool)); ok {
				n.Inputs[name] = live.Value()
			} else if InputRequired(n.Type, name) {
				remove[id] = true
			} else {
				delete(n.Inputs, name)
			}
		}
	}

	// delete the dead set, then mark the transitive closure of nodes
	// orphaned by the deletion. The closure settles a removal chain of any
	// depth inside a single pass, so the cap never fires on an acyclic
	// graph however deep the cascade runs.
	for pass := 0; ; pass++ {
		if pass >= maxBypassPasses {
			slog.Warn("bypass resolution hit iteration cap", "cap", maxBypassPasses)
			break
		}
		for id := range remove {
			delete(g.Nodes, id)
		}
		remove = make(map[string]bool)
		for changed := true; changed; {
			changed = false
			for id, n := range g.Nodes {
				if remove[id] {
					continue
				}
				for name, v := range n.Inputs {
					ref, ok := AsEdgeRef(v)
					if !ok {
						continue
					}
					if !remove[ref.NodeID] && g.GetNodeByID(ref.NodeID) != nil {
						continue
					}
					if InputRequired(n.Type, name) {
						remove[id] = true
						changed = true
						break
					}
					delete(n.Inputs, name)
				}
			}
		}
		if len(remove) == 0 {
			break
		}
	}
}

// passThroughName maps an output slot of a disabled node to the input that
// transparently feeds it. Families outside the registry have no confirmed
// bypass semantics and fail resolution, except single-input presentation
// markers (Reroute) which forward their only input.
func passThroughName(n *Node, slot int) (string, bool) {
	if names, ok := passThroughSlots[n.Type]; ok {
		if slot >= 0 && slot < len(names) {
			return names[slot], true
		}
		return "", false
	}
	if IsPresentation(n.Type) && len(n.Inputs) == 1 {
		for name := range n.Inputs {
			return name, true
		}
	}
	return "", false
}
