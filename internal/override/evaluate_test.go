package override

import (
	"context"
	"testing"
)

func TestEvaluate_Equals(t *testing.T) {
	e := NewEvaluator(nil)
	c := Condition{Op: OpEquals, Property: "plan", RHS: Value{Kind: ValueKindLiteral, Literal: "pro"}}

	ok, err := e.Evaluate(context.Background(), c, AttributeBag{"plan": "pro"})
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = e.Evaluate(context.Background(), c, AttributeBag{"plan": "free"})
	if err != nil || ok {
		t.Fatalf("expected no match, got ok=%v err=%v", ok, err)
	}
}

func TestEvaluate_UnknownPropertyIsNoMatch(t *testing.T) {
	e := NewEvaluator(nil)
	c := Condition{Op: OpEquals, Property: "missing", RHS: Value{Kind: ValueKindLiteral, Literal: "x"}}
	ok, err := e.Evaluate(context.Background(), c, AttributeBag{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected unknown property to evaluate as no-match, not an error")
	}
}

func TestEvaluate_InNotIn(t *testing.T) {
	e := NewEvaluator(nil)
	rhs := Value{Kind: ValueKindLiteral, Literal: []interface{}{"a", "b", "c"}}

	inCond := Condition{Op: OpIn, Property: "tier", RHS: rhs}
	ok, _ := e.Evaluate(context.Background(), inCond, AttributeBag{"tier": "b"})
	if !ok {
		t.Fatal("expected tier=b to be in [a,b,c]")
	}

	notInCond := Condition{Op: OpNotIn, Property: "tier", RHS: rhs}
	ok, _ = e.Evaluate(context.Background(), notInCond, AttributeBag{"tier": "z"})
	if !ok {
		t.Fatal("expected tier=z to be not_in [a,b,c]")
	}
}

func TestEvaluate_Ordered(t *testing.T) {
	e := NewEvaluator(nil)
	c := Condition{Op: OpGreaterThanOrEqual, Property: "age", RHS: Value{Kind: ValueKindLiteral, Literal: float64(18)}}

	ok, _ := e.Evaluate(context.Background(), c, AttributeBag{"age": float64(21)})
	if !ok {
		t.Fatal("expected 21 >= 18")
	}
	ok, _ = e.Evaluate(context.Background(), c, AttributeBag{"age": float64(17)})
	if ok {
		t.Fatal("expected 17 < 18 to not match")
	}
}

func TestEvaluate_AndOrNot(t *testing.T) {
	e := NewEvaluator(nil)
	attrs := AttributeBag{"plan": "pro", "country": "US"}

	and := Condition{Op: OpAnd, Children: []Condition{
		{Op: OpEquals, Property: "plan", RHS: Value{Kind: ValueKindLiteral, Literal: "pro"}},
		{Op: OpEquals, Property: "country", RHS: Value{Kind: ValueKindLiteral, Literal: "US"}},
	}}
	ok, _ := e.Evaluate(context.Background(), and, attrs)
	if !ok {
		t.Fatal("expected and of two true conditions to be true")
	}

	not := Condition{Op: OpNot, Children: []Condition{
		{Op: OpEquals, Property: "plan", RHS: Value{Kind: ValueKindLiteral, Literal: "free"}},
	}}
	ok, _ = e.Evaluate(context.Background(), not, attrs)
	if !ok {
		t.Fatal("expected not(plan==free) to be true when plan=pro")
	}

	emptyAnd := Condition{Op: OpAnd}
	ok, _ = e.Evaluate(context.Background(), emptyAnd, attrs)
	if !ok {
		t.Fatal("empty and should evaluate to true")
	}

	emptyOr := Condition{Op: OpOr}
	ok, _ = e.Evaluate(context.Background(), emptyOr, attrs)
	if ok {
		t.Fatal("empty or should evaluate to false")
	}
}

func TestEvaluate_SegmentationDeterministic(t *testing.T) {
	e := NewEvaluator(nil)
	c := Condition{Op: OpSegmentation, Property: "userId", Seed: "rollout-1", FromPercentage: 0, ToPercentage: 100}
	attrs := AttributeBag{"userId": "u-123"}

	ok1, _ := e.Evaluate(context.Background(), c, attrs)
	ok2, _ := e.Evaluate(context.Background(), c, attrs)
	if ok1 != ok2 {
		t.Fatal("segmentation must be deterministic for the same seed+property")
	}
	if !ok1 {
		t.Fatal("expected full [0,100) range to always match")
	}

	cNone := c
	cNone.FromPercentage = 0
	cNone.ToPercentage = 0
	ok, _ := e.Evaluate(context.Background(), cNone, attrs)
	if ok {
		t.Fatal("expected empty range to never match")
	}
}

type stubResolver struct {
	value interface{}
	err   error
}

func (s stubResolver) Resolve(ctx context.Context, ref Reference) (interface{}, error) {
	return s.value, s.err
}

func TestEvaluateOverrides_FirstMatchWins(t *testing.T) {
	e := NewEvaluator(nil)
	overrides := []Override{
		{
			Name:       "eu-discount",
			Conditions: []Condition{{Op: OpEquals, Property: "country", RHS: Value{Kind: ValueKindLiteral, Literal: "DE"}}},
			Value:      Value{Kind: ValueKindLiteral, Literal: "discounted"},
		},
		{
			Name:       "catch-all",
			Conditions: nil,
			Value:      Value{Kind: ValueKindLiteral, Literal: "default-override"},
		},
	}
	got, err := e.EvaluateOverrides(context.Background(), overrides, AttributeBag{"country": "FR"}, "base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "default-override" {
		t.Fatalf("got %v, want default-override (no conditions = always matches)", got)
	}
}

func TestEvaluateOverrides_NoneMatchReturnsBase(t *testing.T) {
	e := NewEvaluator(nil)
	overrides := []Override{
		{
			Name:       "only-de",
			Conditions: []Condition{{Op: OpEquals, Property: "country", RHS: Value{Kind: ValueKindLiteral, Literal: "DE"}}},
			Value:      Value{Kind: ValueKindLiteral, Literal: "discounted"},
		},
	}
	got, err := e.EvaluateOverrides(context.Background(), overrides, AttributeBag{"country": "FR"}, "base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "base" {
		t.Fatalf("got %v, want base", got)
	}
}

func TestEvaluateOverrides_ResolvesReferenceValue(t *testing.T) {
	resolver := stubResolver{value: "resolved-value"}
	e := NewEvaluator(resolver)
	overrides := []Override{
		{
			Name: "ref-override",
			Value: Value{
				Kind:      ValueKindReference,
				Reference: &Reference{ProjectID: "proj-1", ConfigName: "other", Path: []interface{}{"nested"}},
			},
		},
	}
	got, err := e.EvaluateOverrides(context.Background(), overrides, AttributeBag{}, "base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "resolved-value" {
		t.Fatalf("got %v, want resolved-value", got)
	}
}

func TestResolveValue_MissingResolverErrors(t *testing.T) {
	e := NewEvaluator(nil)
	_, err := e.resolveValue(context.Background(), Value{Kind: ValueKindReference, Reference: &Reference{ConfigName: "x"}})
	if err == nil {
		t.Fatal("expected error when resolving a reference with no resolver configured")
	}
}
