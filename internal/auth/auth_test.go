package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatalf("expected password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := SignJWT("operator", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	subject, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if subject != "operator" {
		t.Fatalf("unexpected subject: %q", subject)
	}
}

func TestJWT_RejectsWrongSecret(t *testing.T) {
	token, err := SignJWT("operator", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestJWT_RejectsExpired(t *testing.T) {
	token, err := SignJWT("operator", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "test-secret"); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
