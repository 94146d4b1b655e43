package canonicaljson

import "testing"

func TestMarshal_SortsObjectKeys(t *testing.T) {
	a := map[string]interface{}{"b": 1, "a": 2}
	b := map[string]interface{}{"a": 2, "b": 1}

	encA, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal(a) error = %v", err)
	}
	encB, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal(b) error = %v", err)
	}
	if string(encA) != string(encB) {
		t.Fatalf("canonical encodings differ: %q vs %q", encA, encB)
	}
	if string(encA) != `{"a":2,"b":1}` {
		t.Fatalf("got %q", encA)
	}
}

func TestMarshal_PreservesNumbersAsNumbers(t *testing.T) {
	enc, err := Marshal(map[string]interface{}{"n": 42})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(enc) != `{"n":42}` {
		t.Fatalf("got %q, want number not string", enc)
	}
}

func TestMarshalRaw_EmptyInput(t *testing.T) {
	enc, err := MarshalRaw(nil)
	if err != nil {
		t.Fatalf("MarshalRaw(nil) error = %v", err)
	}
	if enc != nil {
		t.Fatalf("got %q, want nil passthrough", enc)
	}
}

func TestEqual_OrderInsensitive(t *testing.T) {
	a := []byte(`{"x":1,"y":2}`)
	b := []byte(`{"y":2,"x":1}`)
	if !Equal(a, b) {
		t.Fatal("expected order-insensitive equality")
	}
}

func TestEqual_DetectsRealDifference(t *testing.T) {
	a := []byte(`{"x":1}`)
	b := []byte(`{"x":2}`)
	if Equal(a, b) {
		t.Fatal("expected inequality")
	}
}

func TestMarshal_NestedArraysAndObjects(t *testing.T) {
	v := map[string]interface{}{
		"list": []interface{}{
			map[string]interface{}{"z": 1, "a": 2},
			3,
		},
	}
	enc, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	want := `{"list":[{"a":2,"z":1},3]}`
	if string(enc) != want {
		t.Fatalf("got %q, want %q", enc, want)
	}
}
