package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/splitfair/splitfair/internal/models"
)

// fakeGoogle stands in for the token and userinfo endpoints.
func fakeGoogle(t *testing.T, profile GoogleProfile) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.FormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fake-token"})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fake-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(profile)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newGoogleAuthenticator(t *testing.T, storage UserStorage, profile GoogleProfile) *GoogleAuthenticator {
	t.Helper()

	server := fakeGoogle(t, profile)
	g := NewGoogleAuthenticator(storage, "client-id", "client-secret", "http://localhost/callback")
	g.httpClient = server.Client()
	g.tokenEndpoint = server.URL + "/token"
	g.userInfoEndpoint = server.URL + "/userinfo"
	return g
}

func TestGoogleLoginCreatesUser(t *testing.T) {
	storage := setupStorage(t)
	g := newGoogleAuthenticator(t, storage, GoogleProfile{
		Sub:     "sub-123",
		Email:   "carol@example.com",
		Name:    "Carol Danvers",
		Picture: "https://pic/carol",
	})

	user, err := g.Login(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Username != "caroldanvers" {
		t.Errorf("username = %s, want caroldanvers", user.Username)
	}
	if user.GoogleID != "sub-123" || user.Provider != models.AuthProviderGoogle {
		t.Errorf("user = %+v, want google-linked account", user)
	}

	// Second login with the same subject reuses the account.
	again, err := g.Login(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("second login created a new account: %s vs %s", again.ID, user.ID)
	}
}

func TestGoogleLoginLinksExistingEmailAccount(t *testing.T) {
	storage := setupStorage(t)
	existing := models.NewUser("dave@example.com", "dave", "hash")
	if err := storage.CreateUser(context.Background(), existing); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	g := newGoogleAuthenticator(t, storage, GoogleProfile{
		Sub:   "sub-456",
		Email: "dave@example.com",
		Name:  "Dave",
	})

	user, err := g.Login(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != existing.ID {
		t.Errorf("login created a new account instead of linking: %s vs %s", user.ID, existing.ID)
	}
	if user.GoogleID != "sub-456" {
		t.Errorf("google ID = %s, want sub-456", user.GoogleID)
	}
}

func TestGoogleLoginSuffixesTakenUsername(t *testing.T) {
	storage := setupStorage(t)
	taken := models.NewUser("taken@example.com", "erin", "hash")
	if err := storage.CreateUser(context.Background(), taken); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	g := newGoogleAuthenticator(t, storage, GoogleProfile{
		Sub:   "sub-789",
		Email: "erin@gmail.com",
		Name:  "Erin",
	})

	user, err := g.Login(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Username != "erin1" {
		t.Errorf("username = %s, want erin1", user.Username)
	}
}

func TestGoogleLoginRejectsBadCode(t *testing.T) {
	g := newGoogleAuthenticator(t, setupStorage(t), GoogleProfile{
		Sub:   "sub-000",
		Email: "x@example.com",
	})

	if _, err := g.Login(context.Background(), "bad-code"); err == nil {
		t.Error("expected error for rejected code")
	}
}
