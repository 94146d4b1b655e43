// Package jsonschema validates config values against their JSON Schema
// document, per spec.md §4.3 and the JsonSchemaValidator component in
// §2. It is a thin wrapper over kin-openapi's openapi3.Schema, which
// implements the JSON Schema subset OpenAPI uses for request/response
// bodies — close enough to draft-07 for the value shapes configs hold.
// This package is the only user of kin-openapi in the codebase.
package jsonschema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ValidationError is one human-readable complaint about value shape,
// with the JSON pointer into the value where the mismatch occurred.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator validates raw JSON values against raw JSON Schema documents.
type Validator struct{}

// New returns a ready-to-use Validator. It holds no state: schemas are
// parsed fresh on every call since configs rarely validate the same
// schema twice in a hot loop (unlike SDK reads, which skip validation
// entirely).
func New() *Validator {
	return &Validator{}
}

// Validate checks valueJSON against schemaJSON. A nil or empty
// schemaJSON (or the literal JSON null) means "no schema": validation
// is skipped and Validate reports no errors, per spec.md §4.3's
// "empty schema = no validation" rule.
func (v *Validator) Validate(schemaJSON, valueJSON []byte) ([]ValidationError, error) {
	if isEmptySchema(schemaJSON) {
		return nil, nil
	}

	schema := &openapi3.Schema{}
	if err := json.Unmarshal(schemaJSON, schema); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}

	var value interface{}
	if err := json.Unmarshal(valueJSON, &value); err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}

	if err := schema.VisitJSON(value); err != nil {
		return flattenValidationError(err), nil
	}
	return nil, nil
}

// ValidateSchemaDocument reports whether schemaJSON is itself a
// well-formed JSON Schema document, independent of any value. Used when
// a config or variant schema is written, so authors get a BadRequest at
// write time rather than a confusing failure on the next value edit.
func (v *Validator) ValidateSchemaDocument(schemaJSON []byte) error {
	if isEmptySchema(schemaJSON) {
		return nil
	}
	schema := &openapi3.Schema{}
	if err := json.Unmarshal(schemaJSON, schema); err != nil {
		return fmt.Errorf("malformed schema document: %w", err)
	}
	return schema.Validate(context.Background())
}

func isEmptySchema(schemaJSON []byte) bool {
	trimmed := strings.TrimSpace(string(schemaJSON))
	return trimmed == "" || trimmed == "null"
}

func flattenValidationError(err error) []ValidationError {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		out := make([]ValidationError, 0, len(multi))
		for _, sub := range multi {
			out = append(out, toValidationError(sub))
		}
		return out
	}
	return []ValidationError{toValidationError(err)}
}

func toValidationError(err error) ValidationError {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		return ValidationError{
			Path:    "/" + strings.Join(schemaErr.JSONPointer(), "/"),
			Message: schemaErr.Reason,
		}
	}
	return ValidationError{Message: err.Error()}
}
