package lineage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Dataset Serialization API
// =============================================================================

// ReadDatasetFile reads a JSON dataset from disk.
func ReadDatasetFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(f)
}

// ReadDataset decodes a JSON dataset from r.
// Entities without a key are rejected; everything else is accepted as-is.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := checkKeys(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// UnmarshalDataset decodes JSON bytes into a Dataset.
func UnmarshalDataset(data []byte) (*Dataset, error) {
	return ReadDataset(bytes.NewReader(data))
}

// MarshalDataset encodes a dataset as indented JSON.
func MarshalDataset(ds *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDataset(ds, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDataset writes a dataset as indented JSON to w.
func WriteDataset(ds *Dataset, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteDatasetFile writes a dataset to a JSON file.
func WriteDatasetFile(ds *Dataset, path string) error {
	data, err := MarshalDataset(ds)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ErrMissingKey is returned when an entity has an empty key.
var ErrMissingKey = errors.New("entity key must not be empty")

func checkKeys(ds *Dataset) error {
	for i, e := range ds.UpstreamEntities {
		if e.Key == "" {
			return fmt.Errorf("upstream_entities[%d]: %w", i, ErrMissingKey)
		}
	}
	for i, e := range ds.DownstreamEntities {
		if e.Key == "" {
			return fmt.Errorf("downstream_entities[%d]: %w", i, ErrMissingKey)
		}
	}
	return nil
}
