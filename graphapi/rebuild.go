package graphapi

import "log/slog"

// MediaDisabled is the sentinel a media binding carries to disable the
// owning loader node instead of assigning an asset reference.
const MediaDisabled = "__disabled__"

// LoRAOverride adjusts one discovered LoRA slot during a rebuild.
type LoRAOverride struct {
	Strength float64
	Bypassed bool
	LoraName string
}

// ExtraBinding lets a caller expose an input the registry does not know
// about, so overrides can address it by name.
type ExtraBinding struct {
	Name   string
	NodeID string
	Input  string
}

// RebuildOverrides carries everything a caller may change about a template:
// flat parameter values, media asset bindings (or MediaDisabled), LoRA slot
// settings and extra caller-declared bindings. All maps are optional, and
// keys that resolve to nothing are ignored; partial overrides are the
// expected common case.
type RebuildOverrides struct {
	Parameters map[string]any
	Media      map[string]string
	LoRAs      map[string]LoRAOverride
	Extra      []ExtraBinding
}

// RebuildJSON normalizes a stored template (canonical or editor form) and
// rebuilds it with the given overrides.
func RebuildJSON(template []byte, ov RebuildOverrides) (*Graph, error) {
	base, err := NormalizeJSON(template)
	if err != nil {
		return nil, err
	}
	return Rebuild(base, ov), nil
}

// Rebuild produces the final, directly-submittable graph for a template:
// the base graph is cloned (never mutated), overrides are applied against
// descriptors extracted from the original base, bypassed nodes are resolved
// away, presentation-only nodes are stripped, and remaining positional
// widget values are decoded into named inputs.
func Rebuild(base *Graph, ov RebuildOverrides) *Graph {
	final := base.Clone()

	// descriptors come from the untouched template so override resolution
	// is not affected by earlier mutations
	set := ExtractParameters(base)
	for _, ex := range ov.Extra {
		if ex.Name == "" || base.GetNodeByID(ex.NodeID) == nil {
			continue
		}
		if matchDescriptor(ex.Name, set.Parameters) != nil {
			continue
		}
		set.Parameters = append(set.Parameters, ParameterDescriptor{
			Name:   ex.Name,
			Label:  ex.Name,
			Kind:   KindText,
			NodeID: ex.NodeID,
			Input:  ex.Input,
		})
	}

	for key, value := range ov.Parameters {
		d := matchDescriptor(key, set.Parameters)
		if d == nil {
			slog.Debug("override key matches no parameter", "key", key)
			continue
		}
		if n := final.GetNodeByID(d.NodeID); n != nil {
			applyValue(n, d.Input, value)
		}
	}

	for key, ref := range ov.Media {
		m := matchMedia(key, set.Media)
		if m == nil {
			slog.Debug("media binding matches no input", "key", key)
			continue
		}
		n := final.GetNodeByID(m.NodeID)
		if n == nil {
			continue
		}
		if ref == MediaDisabled {
			n.Disabled = true
			continue
		}
		n.Inputs[m.Input] = ref
		if len(n.Widgets) > 0 {
			n.Widgets[0] = ref
		}
	}

	for _, slot := range set.LoRAs {
		n := final.GetNodeByID(slot.NodeID)
		if n == nil {
			continue
		}
		lo, ok := ov.LoRAs[slot.Name]
		if !ok {
			lo, ok = ov.LoRAs[slot.Label]
		}
		if !ok {
			// untouched slots keep their template values; a stale disabled
			// flag from an earlier session must not survive
			n.Disabled = false
			continue
		}
		if lo.Bypassed {
			n.Disabled = true
			continue
		}
		n.Disabled = false
		applyValue(n, slot.StrengthModelInput, lo.Strength)
		if slot.StrengthClipInput != "" {
			applyValue(n, slot.StrengthClipInput, lo.Strength)
		}
		if lo.LoraName != "" {
			if spec, ok := loraRegistry[n.Type]; ok {
				applyValue(n, spec.NameInput, lo.LoraName)
			}
		}
	}

	// presentation-only nodes are resolved away with the bypassed set so no
	// consumer is left referencing them
	for _, n := range final.Nodes {
		if IsPresentation(n.Type) {
			n.Disabled = true
		}
	}
	resolveBypasses(final)
	for id, n := range final.Nodes {
		if IsPresentation(n.Type) {
			delete(final.Nodes, id)
		}
	}

	// decode surviving positional values; named and linked inputs win
	for _, n := range final.Nodes {
		order := WidgetOrder(n.Type)
		for i, name := range order {
			if i >= len(n.Widgets) {
				break
			}
			if frontendWidgets[name] {
				continue
			}
			if _, ok := n.Inputs[name]; ok {
				continue
			}
			n.Inputs[name] = n.Widgets[i]
		}
		n.Widgets = nil
	}

	return final
}

// applyValue writes a named input and keeps the positional copy, if the node
// still carries one, in sync. The named input is authoritative; the
// positional list only survives until finalization.
func applyValue(n *Node, input string, value any) {
	if input == "" {
		return
	}
	n.Inputs[input] = value
	if i := widgetIndex(n.Type, input); i >= 0 && i < len(n.Widgets) {
		n.Widgets[i] = value
	}
}

// matchDescriptor resolves an override key against the descriptor list:
// exact name first, then name with owning-node-id suffix, then input name
// with owning-node-id suffix.
func matchDescriptor(key string, descs []ParameterDescriptor) *ParameterDescriptor {
	for i := range descs {
		if descs[i].Name == key {
			return &descs[i]
		}
	}
	for i := range descs {
		if descs[i].Name+"_"+descs[i].NodeID == key {
			return &descs[i]
		}
	}
	for i := range descs {
		if descs[i].Input+"_"+descs[i].NodeID == key {
			return &descs[i]
		}
	}
	return nil
}

func matchMedia(key string, media []MediaInput) *MediaInput {
	for i := range media {
		if media[i].Name == key {
			return &media[i]
		}
	}
	for i := range media {
		if media[i].Name+"_"+media[i].NodeID == key {
			return &media[i]
		}
	}
	for i := range media {
		if media[i].Input+"_"+media[i].NodeID == key {
			return &media[i]
		}
	}
	return nil
}
