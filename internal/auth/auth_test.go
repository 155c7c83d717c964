package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/storage/sqlite"
)

func setupStorage(t *testing.T) UserStorage {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitfair-auth-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestPasswordRegisterAndAuthenticate(t *testing.T) {
	authenticator := NewPasswordAuthenticator(setupStorage(t))
	ctx := context.Background()

	user, err := authenticator.Register(ctx, "alice@example.com", "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse battery" {
		t.Error("password was not hashed")
	}
	if user.Provider != models.AuthProviderLocal {
		t.Errorf("provider = %s, want local", user.Provider)
	}

	authed, err := authenticator.Authenticate(ctx, "alice@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if authed.ID != user.ID {
		t.Errorf("authenticated ID = %s, want %s", authed.ID, user.ID)
	}

	if _, err := authenticator.Authenticate(ctx, "alice@example.com", "wrong password"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := authenticator.Authenticate(ctx, "nobody@example.com", "whatever password"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestPasswordRegisterValidation(t *testing.T) {
	authenticator := NewPasswordAuthenticator(setupStorage(t))
	ctx := context.Background()

	if _, err := authenticator.Register(ctx, "a@example.com", "a", "short"); err != ErrWeakPassword {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := authenticator.Register(ctx, "alice@example.com", "alice", "long enough password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := authenticator.Register(ctx, "alice@example.com", "alice2", "long enough password"); err != ErrEmailExists {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
	if _, err := authenticator.Register(ctx, "other@example.com", "alice", "long enough password"); err != ErrUsernameExists {
		t.Errorf("expected ErrUsernameExists, got %v", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)
	user := models.NewUser("alice@example.com", "alice", "hash")

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Errorf("claims = %+v, want user %s", claims, user.ID)
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret-key-32-bytes-long!!!", -time.Minute)
	user := models.NewUser("alice@example.com", "alice", "hash")

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTRejectsTamperedToken(t *testing.T) {
	manager := NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)
	other := NewJWTManager("a-completely-different-secret!!!", time.Hour)
	user := models.NewUser("alice@example.com", "alice", "hash")

	token, err := other.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}
