package network

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON encodes a network as indented JSON and writes it to w.
// The output round-trips through [ReadJSON].
func WriteJSON(n *Network, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(n); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a network from r and checks its structural invariants.
// Hand-edited or corrupted input fails here rather than surfacing later as
// a routing bug. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Network, error) {
	var n Network
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// ExportJSON writes a network to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(n *Network, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(n, f)
}

// ImportJSON reads a JSON file at path and returns the decoded network.
// Returns the same validation errors as [ReadJSON] for malformed input.
func ImportJSON(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
