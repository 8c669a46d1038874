package auth

import (
	"testing"
	"time"
)

func testTokens(now time.Time) *Tokens {
	return &Tokens{
		Secret:    []byte("test-secret"),
		Issuer:    "storefront",
		Audience:  "sellers",
		TTL:       time.Hour,
		ClockSkew: time.Second,
		Now:       func() time.Time { return now },
	}
}

func TestIssueAndParse(t *testing.T) {
	tokens := testTokens(time.Now())

	signed, err := tokens.Issue("seller-1", "s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SellerID != "seller-1" || claims.StoreID != "s1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseExpiredToken(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	signed, err := testTokens(issuedAt).Issue("seller-1", "s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := testTokens(time.Now()).Parse(signed); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseWrongSecret(t *testing.T) {
	now := time.Now()
	signed, err := testTokens(now).Issue("seller-1", "s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := testTokens(now)
	other.Secret = []byte("different-secret")
	if _, err := other.Parse(signed); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseWrongIssuer(t *testing.T) {
	now := time.Now()
	issuer := testTokens(now)
	issuer.Issuer = "someone-else"
	signed, err := issuer.Issue("seller-1", "s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := testTokens(now).Parse(signed); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestParseEmptyToken(t *testing.T) {
	if _, err := testTokens(time.Now()).Parse("  "); err == nil {
		t.Fatal("expected error for empty token")
	}
}
