package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordAuthenticator(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	authenticator := NewPasswordAuthenticator(hash)
	ctx := context.Background()

	subject, err := authenticator.Authenticate(ctx, "correct horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if subject != CoordinatorSubject {
		t.Errorf("subject = %s, want %s", subject, CoordinatorSubject)
	}

	if _, err := authenticator.Authenticate(ctx, "wrong horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	token, expiresAt, err := manager.Generate(CoordinatorSubject)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiry %v is in the past", expiresAt)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Subject != CoordinatorSubject {
		t.Errorf("subject = %s, want %s", claims.Subject, CoordinatorSubject)
	}

	t.Run("other secret is rejected", func(t *testing.T) {
		_, err := NewJWTManager("other-secret", time.Hour).Validate(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		expired, _, err := NewJWTManager("test-secret", -time.Minute).Generate(CoordinatorSubject)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := manager.Validate(expired); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}
