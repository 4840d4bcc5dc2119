package logconf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is wrapped by ParseError when the source has no content.
var ErrEmptyDocument = errors.New("document is empty")

// Load parses a YAML logging document. Unknown keys are rejected so typos
// surface as parse errors rather than silently ignored parameters.
func Load(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read: %w", err)}
	}
	return LoadBytes(data)
}

// LoadBytes parses a YAML logging document held in memory.
func LoadBytes(data []byte) (*Document, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return doc, nil
}

// LoadFile parses the YAML logging document at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Source: path, Err: fmt.Errorf("read file: %w", err)}
	}
	doc, err := decode(data)
	if err != nil {
		return nil, &ParseError{Source: path, Err: err}
	}
	return doc, nil
}

func decode(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &doc, nil
}
