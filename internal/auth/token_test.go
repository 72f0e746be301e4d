package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Generate("user-42")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	userID, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("expected user-42, got %q", userID)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, err := other.Generate("user-42")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	if _, err := m.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)

	token, err := m.Generate("user-42")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
