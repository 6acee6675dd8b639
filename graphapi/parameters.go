package graphapi

import "fmt"

// ParameterDescriptor is a UI-exposable declaration of one editable graph
// input. Descriptors are analysis output only; applying values back to a
// graph goes through Rebuild.
type ParameterDescriptor struct {
	Name        string
	Label       string
	Kind        ParamKind
	NodeID      string
	Input       string
	Default     any
	Min         float64
	Max         float64
	Step        float64
	HasRange    bool
	Options     []string
	Description string
}

// LoRASlot is a pluggable fine-tuning adapter parameter group discovered on
// a LoRA loader node.
type LoRASlot struct {
	Name               string
	Label              string
	NodeID             string
	StrengthModelInput string
	StrengthClipInput  string
	DefaultStrength    float64
	LoraName           string
}

// MediaInput is an image, mask or video input slot a user can bind an asset
// to (or disable).
type MediaInput struct {
	Name    string
	Label   string
	Kind    ParamKind
	NodeID  string
	Input   string
	Default any
}

// OutputNode is an output/save node discovered in the graph.
type OutputNode struct {
	NodeID   string
	Kind     string
	Label    string
	Selected bool
}

// ParameterSet is everything the extractor and classifier expose for one
// canonical graph. Slices are ordered by node traversal order; descriptors
// belonging to the same node are contiguous.
type ParameterSet struct {
	Parameters []ParameterDescriptor
	LoRAs      []LoRASlot
	Media      []MediaInput
	Outputs    []OutputNode
}

// widgetValue returns the positional widget value backing the named input,
// when the node carries a positional list and the registry knows the slot.
func widgetValue(n *Node, input string) (any, bool) {
	if len(n.Widgets) == 0 {
		return nil, false
	}
	i := widgetIndex(n.Type, input)
	if i < 0 || i >= len(n.Widgets) {
		return nil, false
	}
	return n.Widgets[i], true
}

// inputValue resolves the current literal value of a named input: widget
// slot first, named input second. Edge references are not literal values.
func inputValue(n *Node, input string) (any, bool) {
	if v, ok := widgetValue(n, input); ok {
		return v, true
	}
	v, ok := n.Inputs[input]
	if !ok {
		return nil, false
	}
	if _, isRef := AsEdgeRef(v); isRef {
		return nil, false
	}
	return v, true
}

// uniqueName keeps descriptor names unique across the whole set by suffixing
// repeats with the owning node id.
func uniqueName(used map[string]bool, base, nodeID string) string {
	name := base
	if used[name] {
		name = fmt.Sprintf("%s_%s", base, nodeID)
	}
	used[name] = true
	return name
}

// ExtractParameters scans a canonical graph against the type registries and
// returns everything a parameter UI needs: typed descriptors, LoRA slots,
// media inputs and output nodes. Unsupported node types yield nothing.
func ExtractParameters(g *Graph) *ParameterSet {
	set := &ParameterSet{
		Parameters: make([]ParameterDescriptor, 0),
		LoRAs:      make([]LoRASlot, 0),
		Media:      make([]MediaInput, 0),
		Outputs:    make([]OutputNode, 0),
	}
	used := make(map[string]bool)

	for _, id := range g.SortedIDs() {
		n := g.Nodes[id]

		for _, spec := range paramRegistry[n.Type] {
			value, present := inputValue(n, spec.Input)
			if spec.WhenPresent && !present {
				continue
			}
			if !present {
				value = spec.Default
			}
			label := spec.Label
			if n.Title != "" {
				label = fmt.Sprintf("%s (%s)", spec.Label, n.Title)
			}
			set.Parameters = append(set.Parameters, ParameterDescriptor{
				Name:        uniqueName(used, spec.Input, id),
				Label:       label,
				Kind:        spec.Kind,
				NodeID:      id,
				Input:       spec.Input,
				Default:     value,
				Min:         spec.Min,
				Max:         spec.Max,
				Step:        spec.Step,
				HasRange:    spec.HasRange,
				Options:     spec.Options,
				Description: spec.Description,
			})
		}

		if spec, ok := loraRegistry[n.Type]; ok {
			name, _ := inputValue(n, spec.NameInput)
			loraName, _ := name.(string)
			strength := 1.0
			if v, ok := inputValue(n, spec.StrengthModelInput); ok {
				if f, ok := asFloat(v); ok {
					strength = f
				}
			}
			label := n.Title
			if label == "" {
				label = loraName
			}
			if label == "" {
				label = "LoRA " + id
			}
			set.LoRAs = append(set.LoRAs, LoRASlot{
				Name:               uniqueName(used, "lora", id),
				Label:              label,
				NodeID:             id,
				StrengthModelInput: spec.StrengthModelInput,
				StrengthClipInput:  spec.StrengthClipInput,
				DefaultStrength:    strength,
				LoraName:           loraName,
			})
		}

		if spec, ok := mediaRegistry[n.Type]; ok {
			value, _ := inputValue(n, spec.Input)
			label := n.Title
			if label == "" {
				label = spec.Label
			}
			set.Media = append(set.Media, MediaInput{
				Name:    uniqueName(used, spec.Input, id),
				Label:   label,
				Kind:    spec.Kind,
				NodeID:  id,
				Input:   spec.Input,
				Default: value,
			})
		}

		if spec, ok := outputRegistry[n.Type]; ok {
			label := n.Title
			if label == "" {
				label = spec.Label
			}
			set.Outputs = append(set.Outputs, OutputNode{
				NodeID:   id,
				Kind:     spec.Kind,
				Label:    label,
				Selected: spec.Kind != "preview",
			})
		}
	}

	classifyPrompts(g, set, used)
	return set
}

func asFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	}
	return 0, false
}
