package sitedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Data is the merged top-level data document handed to templates.
type Data map[string]any

// LoadData shallow-merges data.json from every source layer. A top-level key
// in the override layer replaces the default value wholesale; nested objects
// and arrays are never merged.
func LoadData(src Sources) (Data, error) {
	data := Data{}
	for _, dir := range src.layers() {
		path := filepath.Join(dir, DataFile)
		layer, err := readData(path)
		if err != nil {
			return nil, newConfigError(src.DisplayName(path), err)
		}
		for k, v := range layer {
			data[k] = v
		}
	}
	return data, nil
}

func readData(path string) (map[string]any, error) {
	b, err := readOptional(path)
	if err != nil || b == nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	if b[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object at the top level")
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
