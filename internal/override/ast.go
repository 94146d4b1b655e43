// Package override implements the conditional-override AST described in
// spec.md §4.5: a small recursive condition tree evaluated against an
// SDK-supplied attribute bag, plus reference resolution for RHS values
// that point at another config in the same project.
package override

import (
	"encoding/json"
	"fmt"
)

// Operator names every condition node kind, leaf and composite.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "not_in"
	OpLessThan           Operator = "less_than"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpSegmentation       Operator = "segmentation"
	OpAnd                Operator = "and"
	OpOr                 Operator = "or"
	OpNot                Operator = "not"
)

// MaxConditionDepth bounds recursive condition nesting at parse time, per
// spec.md §9's "Override AST" redesign note.
const MaxConditionDepth = 32

// Condition is one node of the condition tree. Leaf nodes (everything
// but and/or/not) set Property and RHS (or the segmentation fields);
// composite nodes set Children.
type Condition struct {
	Op Operator

	// Leaf comparison fields.
	Property string
	RHS      Value

	// Segmentation-only fields.
	FromPercentage float64
	ToPercentage   float64
	Seed           string

	// Composite-only field.
	Children []Condition
}

type conditionWire struct {
	Op             Operator          `json:"op"`
	Property       string            `json:"property,omitempty"`
	RHS            json.RawMessage   `json:"value,omitempty"`
	FromPercentage float64           `json:"fromPercentage,omitempty"`
	ToPercentage   float64           `json:"toPercentage,omitempty"`
	Seed           string            `json:"seed,omitempty"`
	Children       []json.RawMessage `json:"children,omitempty"`
}

// UnmarshalJSON parses a condition node, recursing into children and
// enforcing MaxConditionDepth.
func (c *Condition) UnmarshalJSON(data []byte) error {
	return c.unmarshalAtDepth(data, 0)
}

func (c *Condition) unmarshalAtDepth(data []byte, depth int) error {
	if depth > MaxConditionDepth {
		return fmt.Errorf("override condition nesting exceeds %d levels", MaxConditionDepth)
	}
	var wire conditionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("parse condition: %w", err)
	}
	c.Op = wire.Op
	c.Property = wire.Property
	c.FromPercentage = wire.FromPercentage
	c.ToPercentage = wire.ToPercentage
	c.Seed = wire.Seed

	switch wire.Op {
	case OpAnd, OpOr, OpNot:
		c.Children = make([]Condition, len(wire.Children))
		for i, raw := range wire.Children {
			if err := c.Children[i].unmarshalAtDepth(raw, depth+1); err != nil {
				return err
			}
		}
	case OpEquals, OpIn, OpNotIn, OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		if len(wire.RHS) > 0 {
			if err := json.Unmarshal(wire.RHS, &c.RHS); err != nil {
				return fmt.Errorf("parse condition value: %w", err)
			}
		}
	case OpSegmentation:
		// no RHS to parse; FromPercentage/ToPercentage/Seed already set.
	default:
		return fmt.Errorf("unknown condition operator %q", wire.Op)
	}
	return nil
}

// MarshalJSON re-serializes a condition node to the same wire shape
// UnmarshalJSON accepts.
func (c Condition) MarshalJSON() ([]byte, error) {
	wire := conditionWire{
		Op:             c.Op,
		Property:       c.Property,
		FromPercentage: c.FromPercentage,
		ToPercentage:   c.ToPercentage,
		Seed:           c.Seed,
	}
	switch c.Op {
	case OpAnd, OpOr, OpNot:
		wire.Children = make([]json.RawMessage, len(c.Children))
		for i, child := range c.Children {
			raw, err := json.Marshal(child)
			if err != nil {
				return nil, err
			}
			wire.Children[i] = raw
		}
	case OpEquals, OpIn, OpNotIn, OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		raw, err := json.Marshal(c.RHS)
		if err != nil {
			return nil, err
		}
		wire.RHS = raw
	}
	return json.Marshal(wire)
}

// ValueKind discriminates a literal RHS from a cross-config reference.
type ValueKind string

const (
	ValueKindLiteral   ValueKind = "literal"
	ValueKindReference ValueKind = "reference"
)

// Reference points at a JSON path inside another config's value, within
// the same project. Chains are not followed: a reference that itself
// resolves to a reference is returned as-is (spec.md §9 decision: one
// hop only).
type Reference struct {
	ProjectID  string
	ConfigName string
	Path       []interface{}
}

// Value is either a literal JSON value or a Reference. It round-trips
// through JSON as either a bare literal or an object carrying
// projectId/configName/path.
type Value struct {
	Kind      ValueKind
	Literal   interface{}
	Reference *Reference
}

type referenceWire struct {
	ProjectID  string        `json:"projectId"`
	ConfigName string        `json:"configName"`
	Path       []interface{} `json:"path"`
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		if _, hasConfigName := probe["configName"]; hasConfigName {
			var wire referenceWire
			if err := json.Unmarshal(data, &wire); err != nil {
				return fmt.Errorf("parse reference: %w", err)
			}
			v.Kind = ValueKindReference
			v.Reference = &Reference{ProjectID: wire.ProjectID, ConfigName: wire.ConfigName, Path: wire.Path}
			return nil
		}
	}
	var literal interface{}
	if err := json.Unmarshal(data, &literal); err != nil {
		return fmt.Errorf("parse literal value: %w", err)
	}
	v.Kind = ValueKindLiteral
	v.Literal = literal
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == ValueKindReference && v.Reference != nil {
		return json.Marshal(referenceWire{
			ProjectID:  v.Reference.ProjectID,
			ConfigName: v.Reference.ConfigName,
			Path:       v.Reference.Path,
		})
	}
	return json.Marshal(v.Literal)
}

// Override is a single named conditional replacement of a variant's base
// value, per spec.md §3.
type Override struct {
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Value      Value       `json:"value"`
}
