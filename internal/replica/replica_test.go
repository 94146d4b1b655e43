package replica

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kv-shepherd.io/shepherd/internal/override"
)

func TestWalkPath_ObjectThenArray(t *testing.T) {
	value := map[string]interface{}{
		"limits": []interface{}{
			map[string]interface{}{"name": "cpu", "max": float64(4)},
		},
	}
	got, err := walkPath(value, []interface{}{"limits", float64(0), "max"})
	require.NoError(t, err)
	assert.Equal(t, float64(4), got)
}

func TestWalkPath_EmptyPathReturnsWholeValue(t *testing.T) {
	value := map[string]interface{}{"a": 1.0}
	got, err := walkPath(value, nil)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestWalkPath_IndexOutOfRangeErrors(t *testing.T) {
	value := []interface{}{1.0}
	_, err := walkPath(value, []interface{}{float64(5)})
	assert.Error(t, err)
}

type fakeResolver struct {
	value interface{}
	err   error
}

func (f fakeResolver) Resolve(ctx context.Context, ref override.Reference) (interface{}, error) {
	return f.value, f.err
}

func TestResolveOverrideReferences_ReplacesReferenceWithLiteral(t *testing.T) {
	overrides := []override.Override{
		{
			Name:  "use-base",
			Value: override.Value{Kind: override.ValueKindReference, Reference: &override.Reference{ConfigName: "other"}},
		},
		{
			Name:  "already-literal",
			Value: override.Value{Kind: override.ValueKindLiteral, Literal: "x"},
		},
	}

	resolved, err := resolveOverrideReferences(context.Background(), fakeResolver{value: "resolved-value"}, overrides)
	require.NoError(t, err)

	assert.Equal(t, override.ValueKindLiteral, resolved[0].Value.Kind)
	assert.Equal(t, "resolved-value", resolved[0].Value.Literal)
	assert.Equal(t, "x", resolved[1].Value.Literal)
}

func TestResolveOverrideReferences_EmptyInputStaysEmpty(t *testing.T) {
	resolved, err := resolveOverrideReferences(context.Background(), fakeResolver{}, nil)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestOrNullJSON_EmptyBecomesLiteralNull(t *testing.T) {
	assert.Equal(t, "null", string(orNullJSON(nil)))
}
