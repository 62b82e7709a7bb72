package utils

import (
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("rahasia-123")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if hash == "rahasia-123" {
		t.Fatal("Expected hash to differ from the plain password")
	}

	if !CheckPassword("rahasia-123", hash) {
		t.Errorf("Expected correct password to verify")
	}
	if CheckPassword("rahasia-124", hash) {
		t.Errorf("Expected wrong password to fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("42", "professional", "supersecret")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, err := ValidateToken(token, "supersecret")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if claims.UserID != "42" {
		t.Errorf("Expected UserID 42, got %s", claims.UserID)
	}
	if claims.Role != "professional" {
		t.Errorf("Expected Role professional, got %s", claims.Role)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("42", "user", "supersecret")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := ValidateToken(token, "othersecret"); err == nil {
		t.Error("Expected error with wrong secret")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token", "supersecret"); err == nil {
		t.Error("Expected error for malformed token")
	}
}
