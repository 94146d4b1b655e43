package jsonschema

import "testing"

const textSchema = `{"type":"object","required":["text"],"properties":{"text":{"type":"string"}}}`

func TestValidate_EmptySchemaSkipsValidation(t *testing.T) {
	v := New()
	errs, err := v.Validate(nil, []byte(`{"anything":true}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	errs, err = v.Validate([]byte("null"), []byte(`42`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("expected no validation errors for null schema, got %v", errs)
	}
}

func TestValidate_ValidValue(t *testing.T) {
	v := New()
	errs, err := v.Validate([]byte(textSchema), []byte(`{"text":"hi"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestValidate_InvalidValue(t *testing.T) {
	v := New()
	errs, err := v.Validate([]byte(textSchema), []byte(`{"text":42}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) == 0 {
		t.Fatal("expected validation errors for wrong type")
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	v := New()
	errs, err := v.Validate([]byte(textSchema), []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) == 0 {
		t.Fatal("expected validation errors for missing required field")
	}
}

func TestValidateSchemaDocument_WellFormed(t *testing.T) {
	v := New()
	if err := v.ValidateSchemaDocument([]byte(textSchema)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateSchemaDocument_Empty(t *testing.T) {
	v := New()
	if err := v.ValidateSchemaDocument(nil); err != nil {
		t.Fatalf("unexpected error for empty schema: %v", err)
	}
}

func TestValidateSchemaDocument_Malformed(t *testing.T) {
	v := New()
	if err := v.ValidateSchemaDocument([]byte(`{"type": 123}`)); err == nil {
		t.Fatal("expected error for malformed schema document")
	}
}
