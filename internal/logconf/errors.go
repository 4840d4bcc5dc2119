package logconf

import "fmt"

// ParseError reports a source that is not well-formed structured data.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse logging document: %v", e.Err)
	}
	return fmt.Sprintf("parse logging document %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError names the first entry of a document that fails validation.
type ValidationError struct {
	Section string
	Name    string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid logging document: %s: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("invalid logging document: %s %q: %v", e.Section, e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ResourceError reports a handler whose target could not be acquired.
type ResourceError struct {
	Handler string
	Kind    HandlerKind
	Err     error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("handler %q (%s): %v", e.Handler, e.Kind, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
