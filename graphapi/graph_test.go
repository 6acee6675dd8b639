package graphapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedIDsNumericFirst(t *testing.T) {
	g := &Graph{Nodes: map[string]*Node{
		"10":    {Type: "A", Inputs: map[string]any{}},
		"2":     {Type: "B", Inputs: map[string]any{}},
		"1":     {Type: "C", Inputs: map[string]any{}},
		"alpha": {Type: "D", Inputs: map[string]any{}},
	}}
	assert.Equal(t, []string{"1", "2", "10", "alpha"}, g.SortedIDs())
}

func TestGetNodesWithType(t *testing.T) {
	g := &Graph{Nodes: map[string]*Node{
		"7": {Type: "CLIPTextEncode", Inputs: map[string]any{}},
		"2": {Type: "CLIPTextEncode", Inputs: map[string]any{}},
		"5": {Type: "KSampler", Inputs: map[string]any{}},
	}}
	assert.Equal(t, []string{"2", "7"}, g.GetNodesWithType("CLIPTextEncode"))
	assert.Empty(t, g.GetNodesWithType("SaveImage"))
}

func TestCloneIsDeep(t *testing.T) {
	g := mustNormalize(t, canonicalT2I)
	clone := g.Clone()
	require.Len(t, clone.Nodes, len(g.Nodes))

	clone.GetNodeByID("3").Inputs["steps"] = 99
	clone.GetNodeByID("6").Title = "changed"
	delete(clone.Nodes, "9")

	assert.EqualValues(t, 20, g.GetNodeByID("3").Inputs["steps"])
	assert.Equal(t, "Positive Prompt", g.GetNodeByID("6").Title)
	assert.NotNil(t, g.GetNodeByID("9"))
}

func TestClonePreservesDisabledAndWidgets(t *testing.T) {
	g := &Graph{Nodes: map[string]*Node{
		"1": {
			Type:     "LoraLoader",
			Inputs:   map[string]any{"model": []any{"2", 0}},
			Widgets:  []any{"style.safetensors", 1.0, 1.0},
			Disabled: true,
		},
	}}
	clone := g.Clone()
	n := clone.GetNodeByID("1")
	require.NotNil(t, n)
	assert.True(t, n.Disabled)
	require.Len(t, n.Widgets, 3)
	assert.Equal(t, "style.safetensors", n.Widgets[0])
}

func TestAsEdgeRef(t *testing.T) {
	ref, ok := AsEdgeRef([]any{"4", float64(1)})
	require.True(t, ok)
	assert.Equal(t, EdgeRef{NodeID: "4", Slot: 1}, ref)

	ref, ok = AsEdgeRef([]any{"4", 2})
	require.True(t, ok)
	assert.Equal(t, EdgeRef{NodeID: "4", Slot: 2}, ref)

	for _, v := range []any{
		nil,
		"4",
		float64(4),
		[]any{"4"},
		[]any{"4", 0, "extra"},
		[]any{4.0, 0},
		[]any{"4", "0"},
	} {
		_, ok := AsEdgeRef(v)
		assert.False(t, ok, "%#v must not read as an edge reference", v)
	}
}

func TestEdgeRefValueRoundTrip(t *testing.T) {
	ref := EdgeRef{NodeID: "12", Slot: 3}
	back, ok := AsEdgeRef(ref.Value())
	require.True(t, ok)
	assert.Equal(t, ref, back)
}

func TestNodeCodecMeta(t *testing.T) {
	g := mustNormalize(t, canonicalT2I)
	data, err := g.GraphToJSON()
	require.NoError(t, err)

	round := mustNormalize(t, data)
	assert.Equal(t, "Negative Prompt", round.GetNodeByID("7").Title)
	// untitled nodes must not grow an empty _meta block
	assert.Contains(t, data, `"4":{"class_type":"CheckpointLoaderSimple","inputs":{"ckpt_name":"sd_xl_base.safetensors"}}`)
}
