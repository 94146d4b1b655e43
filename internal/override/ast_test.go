package override

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCondition_UnmarshalLeaf(t *testing.T) {
	raw := `{"op":"equals","property":"plan","value":"pro"}`
	var c Condition
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Op != OpEquals || c.Property != "plan" {
		t.Fatalf("got %+v", c)
	}
	if c.RHS.Kind != ValueKindLiteral || c.RHS.Literal != "pro" {
		t.Fatalf("got RHS %+v", c.RHS)
	}
}

func TestCondition_UnmarshalReferenceRHS(t *testing.T) {
	raw := `{"op":"equals","property":"tier","value":{"projectId":"p1","configName":"tiers","path":["default"]}}`
	var c Condition
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.RHS.Kind != ValueKindReference {
		t.Fatalf("expected reference RHS, got %+v", c.RHS)
	}
	if c.RHS.Reference.ConfigName != "tiers" {
		t.Fatalf("got %+v", c.RHS.Reference)
	}
}

func TestCondition_UnmarshalComposite(t *testing.T) {
	raw := `{"op":"and","children":[
		{"op":"equals","property":"a","value":1},
		{"op":"equals","property":"b","value":2}
	]}`
	var c Condition
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Op != OpAnd || len(c.Children) != 2 {
		t.Fatalf("got %+v", c)
	}
}

func TestCondition_UnmarshalSegmentation(t *testing.T) {
	raw := `{"op":"segmentation","property":"userId","seed":"rollout","fromPercentage":0,"toPercentage":50}`
	var c Condition
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Seed != "rollout" || c.ToPercentage != 50 {
		t.Fatalf("got %+v", c)
	}
}

func TestCondition_UnmarshalUnknownOperator(t *testing.T) {
	var c Condition
	err := json.Unmarshal([]byte(`{"op":"bogus"}`), &c)
	if err == nil {
		t.Fatal("expected error for unknown operator")
	}
}

func TestCondition_DepthLimitEnforced(t *testing.T) {
	inner := `{"op":"equals","property":"x","value":1}`
	nested := inner
	for i := 0; i < MaxConditionDepth+5; i++ {
		nested = `{"op":"not","children":[` + nested + `]}`
	}
	var c Condition
	err := json.Unmarshal([]byte(nested), &c)
	if err == nil {
		t.Fatal("expected depth-limit error for deeply nested conditions")
	}
	if !strings.Contains(err.Error(), "nesting") {
		t.Fatalf("expected nesting error, got %v", err)
	}
}

func TestCondition_RoundTrip(t *testing.T) {
	c := Condition{
		Op: OpAnd,
		Children: []Condition{
			{Op: OpEquals, Property: "plan", RHS: Value{Kind: ValueKindLiteral, Literal: "pro"}},
			{Op: OpSegmentation, Property: "userId", Seed: "s1", FromPercentage: 0, ToPercentage: 50},
		},
	}
	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Condition
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Op != c.Op || len(got.Children) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestValue_RoundTripLiteralAndReference(t *testing.T) {
	lit := Value{Kind: ValueKindLiteral, Literal: float64(42)}
	raw, err := json.Marshal(lit)
	if err != nil {
		t.Fatalf("marshal literal: %v", err)
	}
	var gotLit Value
	if err := json.Unmarshal(raw, &gotLit); err != nil {
		t.Fatalf("unmarshal literal: %v", err)
	}
	if gotLit.Kind != ValueKindLiteral || gotLit.Literal != float64(42) {
		t.Fatalf("got %+v", gotLit)
	}

	ref := Value{Kind: ValueKindReference, Reference: &Reference{ProjectID: "p1", ConfigName: "c1", Path: []interface{}{"a", float64(0)}}}
	raw, err = json.Marshal(ref)
	if err != nil {
		t.Fatalf("marshal reference: %v", err)
	}
	var gotRef Value
	if err := json.Unmarshal(raw, &gotRef); err != nil {
		t.Fatalf("unmarshal reference: %v", err)
	}
	if gotRef.Kind != ValueKindReference || gotRef.Reference.ConfigName != "c1" {
		t.Fatalf("got %+v", gotRef)
	}
}
