package override

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// AttributeBag is the SDK-supplied request context conditions are
// evaluated against (e.g. userId, plan, country).
type AttributeBag map[string]interface{}

// ReferenceResolver resolves a one-hop Reference to its underlying
// literal value. Implementations look the referenced config up within
// the same project and walk ref.Path into its value.
type ReferenceResolver interface {
	Resolve(ctx context.Context, ref Reference) (interface{}, error)
}

// Evaluator applies override conditions and resolves RHS references.
type Evaluator struct {
	resolver ReferenceResolver
}

// NewEvaluator builds an Evaluator backed by resolver. resolver may be
// nil if the caller only needs EvaluateConditions (no reference RHS).
func NewEvaluator(resolver ReferenceResolver) *Evaluator {
	return &Evaluator{resolver: resolver}
}

// EvaluateOverrides walks overrides in declared order, returning the
// value of the first override whose conditions all match, or base if
// none match. Per spec.md §4.5, evaluation is total: an unknown
// property never errors, it just fails to match.
func (e *Evaluator) EvaluateOverrides(ctx context.Context, overrides []Override, attrs AttributeBag, base interface{}) (interface{}, error) {
	for _, ov := range overrides {
		matched, err := e.evaluateConjunction(ctx, ov.Conditions, attrs)
		if err != nil {
			return nil, err
		}
		if matched {
			return e.resolveValue(ctx, ov.Value)
		}
	}
	return base, nil
}

// evaluateConjunction evaluates a list of sibling conditions as an
// implicit AND, matching how an override's top-level Conditions list is
// defined (§4.5: "evaluate its conditions (conjunction)").
func (e *Evaluator) evaluateConjunction(ctx context.Context, conditions []Condition, attrs AttributeBag) (bool, error) {
	for _, c := range conditions {
		ok, err := e.Evaluate(ctx, c, attrs)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Evaluate evaluates a single condition node against attrs.
func (e *Evaluator) Evaluate(ctx context.Context, c Condition, attrs AttributeBag) (bool, error) {
	switch c.Op {
	case OpAnd:
		if len(c.Children) == 0 {
			return true, nil // empty and = true, per spec.md §4.5.
		}
		for _, child := range c.Children {
			ok, err := e.Evaluate(ctx, child, attrs)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case OpOr:
		if len(c.Children) == 0 {
			return false, nil // empty or = false, per spec.md §4.5.
		}
		for _, child := range c.Children {
			ok, err := e.Evaluate(ctx, child, attrs)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		if len(c.Children) != 1 {
			return false, fmt.Errorf("not condition requires exactly one child")
		}
		ok, err := e.Evaluate(ctx, c.Children[0], attrs)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case OpSegmentation:
		return e.evaluateSegmentation(c, attrs), nil
	default:
		return e.evaluateLeaf(ctx, c, attrs)
	}
}

func (e *Evaluator) evaluateLeaf(ctx context.Context, c Condition, attrs AttributeBag) (bool, error) {
	propValue, ok := attrs[c.Property]
	if !ok {
		return false, nil // unknown property: total function, no match.
	}
	rhs, err := e.resolveValue(ctx, c.RHS)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case OpEquals:
		return compareEqual(propValue, rhs), nil
	case OpIn:
		return valueInSlice(propValue, rhs), nil
	case OpNotIn:
		return !valueInSlice(propValue, rhs), nil
	case OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		return compareOrdered(c.Op, propValue, rhs)
	default:
		return false, fmt.Errorf("unsupported leaf operator %q", c.Op)
	}
}

func (e *Evaluator) evaluateSegmentation(c Condition, attrs AttributeBag) bool {
	propValue, ok := attrs[c.Property]
	if !ok {
		return false
	}
	bucket := segmentationBucket(c.Seed, fmt.Sprintf("%v", propValue))
	return bucket >= c.FromPercentage && bucket < c.ToPercentage
}

// segmentationBucket deterministically maps seed+value into [0, 100).
func segmentationBucket(seed, value string) float64 {
	sum := sha256.Sum256([]byte(seed + "\x00" + value))
	n := binary.BigEndian.Uint32(sum[:4])
	return float64(n) / float64(1<<32) * 100
}

func (e *Evaluator) resolveValue(ctx context.Context, v Value) (interface{}, error) {
	if v.Kind == ValueKindLiteral || v.Reference == nil {
		return v.Literal, nil
	}
	if e.resolver == nil {
		return nil, fmt.Errorf("override references a config but no reference resolver is configured")
	}
	return e.resolver.Resolve(ctx, *v.Reference)
}
