package graphapi

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendChunk(buf *bytes.Buffer, chunkType string, data []byte) {
	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(chunkType)
	buf.Write(data)
	buf.Write([]byte{0, 0, 0, 0}) // CRC is not validated
}

func textChunk(keyword, content string) []byte {
	data := make([]byte, 0, len(keyword)+1+len(content))
	data = append(data, keyword...)
	data = append(data, 0)
	return append(data, content...)
}

func pngWithChunks(chunks ...[]byte) []byte {
	buf := &bytes.Buffer{}
	buf.Write(pngSignature)
	appendChunk(buf, "IHDR", make([]byte, 13))
	for _, c := range chunks {
		appendChunk(buf, "tEXt", c)
	}
	appendChunk(buf, "IEND", nil)
	return buf.Bytes()
}

func TestPNGMetadata(t *testing.T) {
	data := pngWithChunks(
		textChunk("prompt", `{"1":{"class_type":"KSampler","inputs":{}}}`),
		textChunk("parameters", "steps: 20"),
	)
	meta, err := PNGMetadata(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "steps: 20", meta["parameters"])
	assert.Contains(t, meta["prompt"], "KSampler")
}

func TestNormalizeFromPNGPrefersWorkflow(t *testing.T) {
	workflow := `{
		"nodes": [{"id": 1, "type": "CheckpointLoaderSimple", "mode": 0, "order": 0, "widgets_values": ["a.safetensors"]}],
		"links": []
	}`
	prompt := `{"2":{"class_type":"KSampler","inputs":{}}}`

	g, err := NormalizeFromPNG(bytes.NewReader(pngWithChunks(
		textChunk("prompt", prompt),
		textChunk("workflow", workflow),
	)))
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.NotNil(t, g.GetNodeByID("1"))
}

func TestNormalizeFromPNGFallsBackToPrompt(t *testing.T) {
	g, err := NormalizeFromPNG(bytes.NewReader(pngWithChunks(
		textChunk("prompt", canonicalT2I),
	)))
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 7)
}

func TestNormalizeFromPNGWithoutMetadata(t *testing.T) {
	_, err := NormalizeFromPNG(bytes.NewReader(pngWithChunks()))
	assert.Error(t, err)
}

func TestPNGMetadataRejectsNonPNG(t *testing.T) {
	_, err := PNGMetadata(bytes.NewReader([]byte("GIF89a not a png at all")))
	assert.Error(t, err)
}
