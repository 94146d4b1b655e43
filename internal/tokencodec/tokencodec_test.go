package tokencodec

import (
	"testing"

	"github.com/google/uuid"
)

func TestBuildParse_RoundTrip(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	token, random, err := Build(PrefixAdminKey, id)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if random == nil || len(random) != randomLen {
		t.Fatalf("expected %d random bytes, got %d", randomLen, len(random))
	}

	prefix, gotID, gotRandom, err := Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if prefix != PrefixAdminKey {
		t.Errorf("prefix = %q, want %q", prefix, PrefixAdminKey)
	}
	if gotID != id {
		t.Errorf("id = %v, want %v", gotID, id)
	}
	if string(gotRandom) != string(random) {
		t.Error("random portion did not round-trip")
	}
}

func TestBuild_DistinctTokensPerCall(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	t1, _, err := Build(PrefixSDKKey, id)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t2, _, err := Build(PrefixSDKKey, id)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if t1 == t2 {
		t.Fatal("expected distinct tokens for distinct random portions")
	}
}

func TestParse_MissingSeparator(t *testing.T) {
	if _, _, _, err := Parse("nounderscorehere"); err == nil {
		t.Fatal("expected error for token missing prefix separator")
	}
}

func TestParse_InvalidHex(t *testing.T) {
	if _, _, _, err := Parse("rpa_not-hex-at-all"); err == nil {
		t.Fatal("expected error for invalid hex payload")
	}
}

func TestParse_WrongLength(t *testing.T) {
	if _, _, _, err := Parse("rpa_deadbeef"); err == nil {
		t.Fatal("expected error for short payload")
	}
}
