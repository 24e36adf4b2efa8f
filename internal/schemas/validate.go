// Package schemas declares the shape of every structured model response and checks
// model output against it with gojsonschema.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Names of the embedded output schemas
const (
	Questions     = "questions"
	Transcription = "transcription"
	Analysis      = "analysis"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// ValidationError lists every place model output departs from its schema.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError is one schema violation. Field is "(root)" for top-level problems.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s validation failed:\n", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// SchemaLoadError means validation could not run: the schema is missing or broken,
// or the document is not JSON at all.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

type compiled struct {
	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

var cache sync.Map // name -> *compiled

// Load returns the compiled schema called name.
func Load(name string) (*gojsonschema.Schema, error) {
	v, _ := cache.LoadOrStore(name, &compiled{})
	c := v.(*compiled)
	c.once.Do(func() {
		c.schema, c.err = compile(name)
	})
	return c.schema, c.err
}

func compile(name string) (*gojsonschema.Schema, error) {
	path := name + ".schema.json"
	data, err := schemaFiles.ReadFile(path)
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "schema not embedded", Cause: err}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "invalid schema", Cause: err}
	}
	return schema, nil
}

// ValidateOutput checks model output against the named schema.
func ValidateOutput(name, jsonContent string) error {
	schema, err := Load(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return &SchemaLoadError{Path: name + ".schema.json", Message: "document is not valid JSON", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
