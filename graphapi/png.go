package graphapi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
)

// The renderer embeds the source workflow as a tEXt chunk in the PNG files
// it writes, which makes any rendered image a loadable template.

var pngSignature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

// PNGMetadata reads every tEXt chunk of a PNG stream into a keyword to
// content map. CRCs are not validated.
func PNGMetadata(r io.Reader) (map[string]string, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, errors.New("not a valid PNG file")
	}

	meta := make(map[string]string)

	// each chunk: 4-byte length, 4-byte type, payload, 4-byte CRC
	var header [8]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF {
				return meta, nil
			}
			return nil, err
		}
		length := int64(binary.BigEndian.Uint32(header[:4]))

		if string(header[4:]) != "tEXt" {
			if _, err := io.CopyN(io.Discard, r, length+4); err != nil {
				return nil, err
			}
			continue
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		keyword, content, ok := bytes.Cut(payload, []byte{0})
		if !ok {
			return nil, errors.New("malformed tEXt chunk")
		}
		meta[string(keyword)] = string(content)

		if _, err := io.CopyN(io.Discard, r, 4); err != nil {
			return nil, err
		}
	}
}

// NormalizeFromPNG recovers the embedded workflow from PNG data and
// normalizes it. The "workflow" keyword carries the editor export; "prompt"
// carries the canonical form and is used as a fallback.
func NormalizeFromPNG(r io.Reader) (*Graph, error) {
	metadata, err := PNGMetadata(r)
	if err != nil {
		return nil, err
	}
	workflow, ok := metadata["workflow"]
	if !ok {
		if workflow, ok = metadata["prompt"]; !ok {
			return nil, errors.New("png does not contain workflow metadata")
		}
	}
	return NormalizeJSON([]byte(workflow))
}

// NormalizeFromPNGFile recovers and normalizes the workflow embedded in a
// PNG file on disk.
func NormalizeFromPNGFile(path string) (*Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return NormalizeFromPNG(file)
}
