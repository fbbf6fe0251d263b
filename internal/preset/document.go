// Package preset persists band sets: the plain {"breaks","colors"} document,
// the named list file the editor has always written, and a SQLite store.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/MeKo-Tech/posterize/internal/bandset"
	"github.com/MeKo-Tech/posterize/internal/colorspace"
)

// ErrNotFound is returned when a named preset does not exist.
var ErrNotFound = errors.New("preset not found")

// Document is the persisted form of a band set.
type Document struct {
	Breaks []int              `json:"breaks"`
	Colors []colorspace.Color `json:"colors"`
}

// FromBandSet captures the breaks and colors of s.
func FromBandSet(s *bandset.BandSet) Document {
	breaks, colors := s.Preset()
	return Document{Breaks: breaks, Colors: colors}
}

// Default is the document of a fresh band set.
func Default() Document {
	return FromBandSet(bandset.New())
}

// BandSet validates the document and builds a band set from it.
func (d Document) BandSet() (*bandset.BandSet, error) {
	return bandset.FromPreset(d.Breaks, d.Colors)
}

// Validate checks the document against the band set invariants.
func (d Document) Validate() error {
	return bandset.Validate(d.Breaks, d.Colors)
}

// Decode reads a document from r and validates it.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode preset: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Encode writes d as indented JSON.
func Encode(w io.Writer, d Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	return nil
}

// ReadFile loads a single document from path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open preset file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// WriteFile stores a single document at path.
func WriteFile(path string, d Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preset file: %w", err)
	}
	if err := Encode(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
