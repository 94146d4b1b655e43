package hashing

import "testing"

func TestHashAdminKey_VerifyRoundTrip(t *testing.T) {
	svc := New(DefaultParams())
	hash, err := svc.HashAdminKey("rpa_supersecrettoken")
	if err != nil {
		t.Fatalf("HashAdminKey: %v", err)
	}
	ok, err := svc.Verify(hash, "rpa_supersecrettoken")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected verify to succeed for the correct token")
	}
}

func TestHashAdminKey_RejectsWrongToken(t *testing.T) {
	svc := New(DefaultParams())
	hash, err := svc.HashAdminKey("rpa_correct")
	if err != nil {
		t.Fatalf("HashAdminKey: %v", err)
	}
	ok, err := svc.Verify(hash, "rpa_wrong")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("expected verify to fail for the wrong token")
	}
}

func TestHashAdminKey_DistinctSaltsPerCall(t *testing.T) {
	svc := New(DefaultParams())
	h1, err := svc.HashAdminKey("rpa_same")
	if err != nil {
		t.Fatalf("HashAdminKey: %v", err)
	}
	h2, err := svc.HashAdminKey("rpa_same")
	if err != nil {
		t.Fatalf("HashAdminKey: %v", err)
	}
	if h1 == h2 {
		t.Fatal("expected distinct hashes for distinct salts")
	}
}

func TestHashSDKKey_VerifyRoundTrip(t *testing.T) {
	svc := New(DefaultParams())
	hash, err := svc.HashSDKKey("rp_sdktoken")
	if err != nil {
		t.Fatalf("HashSDKKey: %v", err)
	}
	ok, err := svc.Verify(hash, "rp_sdktoken")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected verify to succeed for the correct token")
	}
}

func TestHashSDKKey_RejectsWrongToken(t *testing.T) {
	svc := New(DefaultParams())
	hash, err := svc.HashSDKKey("rp_correct")
	if err != nil {
		t.Fatalf("HashSDKKey: %v", err)
	}
	ok, err := svc.Verify(hash, "rp_wrong")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("expected verify to fail for the wrong token")
	}
}

func TestVerify_UnknownProfile(t *testing.T) {
	svc := New(DefaultParams())
	_, err := svc.Verify("$unknownalgo$abc$def", "whatever")
	if err == nil {
		t.Fatal("expected error for unknown hash profile")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	svc := New(DefaultParams())
	_, err := svc.Verify("not-a-hash-string", "whatever")
	if err == nil {
		t.Fatal("expected error for malformed hash string")
	}
}
