package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	a := New("test-secret", time.Hour)

	token, err := a.Issue("parent@example.com", TierMonthly)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	user, err := a.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.Email != "parent@example.com" {
		t.Errorf("email = %q", user.Email)
	}
	if user.Tier != TierMonthly {
		t.Errorf("tier = %q", user.Tier)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := New("secret-a", time.Hour).Issue("x@example.com", TierFree)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := New("secret-b", time.Hour).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := New("s", time.Hour).Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyUnknownTierFallsBackToFree(t *testing.T) {
	a := New("s", time.Hour)
	token, err := a.Issue("x@example.com", Tier("platinum"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	user, err := a.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.Tier != TierFree {
		t.Fatalf("tier = %q, want free fallback", user.Tier)
	}
}

func TestFromAuthorizationHeader(t *testing.T) {
	if _, err := FromAuthorizationHeader(""); err == nil {
		t.Error("empty header should fail")
	}
	if _, err := FromAuthorizationHeader("Basic abc"); err == nil {
		t.Error("non-bearer header should fail")
	}
	if _, err := FromAuthorizationHeader("Bearer "); err == nil {
		t.Error("empty bearer token should fail")
	}
	token, err := FromAuthorizationHeader("Bearer abc.def.ghi")
	if err != nil {
		t.Fatalf("bearer parse: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Fatalf("token = %q", token)
	}
}

func TestParseTier(t *testing.T) {
	if tier, err := ParseTier(" Yearly "); err != nil || tier != TierYearly {
		t.Fatalf("ParseTier yearly: %v %v", tier, err)
	}
	if _, err := ParseTier("platinum"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestScanCounterFreeLimit(t *testing.T) {
	c := NewScanCounter(2)
	user := User{Email: "x@example.com", Tier: TierFree}

	for i := 0; i < 2; i++ {
		if ok, _ := c.Allow(user); !ok {
			t.Fatalf("scan %d should be allowed", i+1)
		}
	}
	if ok, message := c.Allow(user); ok || message == "" {
		t.Fatal("third scan should be denied with a message")
	}
	if remaining := c.Remaining(user); remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}
}

func TestScanCounterPaidUnlimited(t *testing.T) {
	c := NewScanCounter(1)
	user := User{Email: "x@example.com", Tier: TierLifetime}

	for i := 0; i < 5; i++ {
		if ok, _ := c.Allow(user); !ok {
			t.Fatal("paid tiers are unlimited")
		}
	}
	if remaining := c.Remaining(user); remaining != -1 {
		t.Fatalf("remaining = %d, want -1", remaining)
	}
}
