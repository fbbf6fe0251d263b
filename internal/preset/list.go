package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Entry is one named preset in a list file.
type Entry struct {
	Name   string   `json:"name"`
	Config Document `json:"config"`
}

// LoadList reads a list file. A missing file is an empty list.
func LoadList(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preset list: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse preset list %s: %w", path, err)
	}
	for _, e := range entries {
		if err := e.Config.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", e.Name, err)
		}
	}
	return entries, nil
}

// SaveList overwrites path with entries.
func SaveList(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode preset list: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write preset list: %w", err)
	}
	return nil
}

// AppendToList adds a named document to the list file at path. Duplicate
// names are allowed, matching how the list has always been written.
func AppendToList(path, name string, d Document) error {
	entries, err := LoadList(path)
	if err != nil {
		return err
	}
	return SaveList(path, append(entries, Entry{Name: name, Config: d}))
}

// RemoveFromList drops the first entry called name.
func RemoveFromList(path, name string) error {
	entries, err := LoadList(path)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.Name == name {
			return SaveList(path, append(entries[:i], entries[i+1:]...))
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}
