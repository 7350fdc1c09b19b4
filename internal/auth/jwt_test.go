package auth

import (
	"errors"
	"os"
	"testing"
)

func TestOperatorTokenRoundTrip(t *testing.T) {
	os.Setenv("OPS_JWT_SECRET", "test-secret")
	defer os.Unsetenv("OPS_JWT_SECRET")

	token, err := GenerateOperatorToken()
	if err != nil {
		t.Fatalf("GenerateOperatorToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Role != RoleOperator {
		t.Errorf("Expected role %q, got %q", RoleOperator, claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	os.Setenv("OPS_JWT_SECRET", "test-secret")
	defer os.Unsetenv("OPS_JWT_SECRET")

	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("Expected error for malformed token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	os.Setenv("OPS_JWT_SECRET", "secret-a")
	token, err := GenerateOperatorToken()
	if err != nil {
		t.Fatalf("GenerateOperatorToken failed: %v", err)
	}

	os.Setenv("OPS_JWT_SECRET", "secret-b")
	defer os.Unsetenv("OPS_JWT_SECRET")

	if _, err := ValidateToken(token); err == nil {
		t.Error("Expected error for token signed with different secret")
	}
}

func TestMissingSecret(t *testing.T) {
	os.Unsetenv("OPS_JWT_SECRET")

	if _, err := GenerateOperatorToken(); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("Expected ErrMissingSecret, got %v", err)
	}
	if _, err := ValidateToken("whatever"); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("Expected ErrMissingSecret, got %v", err)
	}
}
