package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/splitfair/splitfair/internal/models"
)

var ErrGoogleExchange = errors.New("google code exchange failed")

const (
	defaultTokenEndpoint    = "https://oauth2.googleapis.com/token"
	defaultUserInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleProfile is the subset of the Google userinfo response we consume.
type GoogleProfile struct {
	Sub     string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleAuthenticator exchanges OAuth authorization codes for Google profiles
// and maps them onto local user accounts. Accounts are matched first by the
// Google subject, then by email (linking the Google identity to an existing
// password account), and created otherwise.
type GoogleAuthenticator struct {
	storage      UserStorage
	clientID     string
	clientSecret string
	redirectURL  string

	httpClient       *http.Client
	tokenEndpoint    string
	userInfoEndpoint string
}

// NewGoogleAuthenticator creates a Google OAuth authenticator.
func NewGoogleAuthenticator(storage UserStorage, clientID, clientSecret, redirectURL string) *GoogleAuthenticator {
	return &GoogleAuthenticator{
		storage:          storage,
		clientID:         clientID,
		clientSecret:     clientSecret,
		redirectURL:      redirectURL,
		httpClient:       &http.Client{Timeout: 10 * time.Second},
		tokenEndpoint:    defaultTokenEndpoint,
		userInfoEndpoint: defaultUserInfoEndpoint,
	}
}

// Login exchanges the authorization code and returns the matched or newly
// created local user.
func (g *GoogleAuthenticator) Login(ctx context.Context, code string) (*models.User, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrGoogleExchange)
	}

	accessToken, err := g.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := g.fetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return g.findOrCreateUser(ctx, profile)
}

// exchangeCode trades the authorization code for an access token.
func (g *GoogleAuthenticator) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"redirect_uri":  {g.redirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGoogleExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrGoogleExchange, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGoogleExchange, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token in response", ErrGoogleExchange)
	}
	return body.AccessToken, nil
}

// fetchProfile retrieves the user's Google profile with the access token.
func (g *GoogleAuthenticator) fetchProfile(ctx context.Context, accessToken string) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo endpoint returned %d", ErrGoogleExchange, resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleExchange, err)
	}
	if profile.Sub == "" || profile.Email == "" {
		return nil, fmt.Errorf("%w: incomplete profile", ErrGoogleExchange)
	}
	return &profile, nil
}

func (g *GoogleAuthenticator) findOrCreateUser(ctx context.Context, profile *GoogleProfile) (*models.User, error) {
	if user, err := g.storage.GetUserByGoogleID(ctx, profile.Sub); err == nil && user != nil {
		return user, nil
	}

	// An existing password account with the same email gets linked instead of
	// duplicated.
	if user, err := g.storage.GetUserByEmail(ctx, profile.Email); err == nil && user != nil {
		if err := g.storage.LinkGoogleAccount(ctx, user.ID, profile.Sub, profile.Picture); err != nil {
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}
		return g.storage.GetUserByID(ctx, user.ID)
	}

	username, err := g.uniqueUsername(ctx, profile)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	user := &models.User{
		ID:        uuid.New().String(),
		Email:     profile.Email,
		Username:  username,
		GoogleID:  profile.Sub,
		Picture:   profile.Picture,
		Provider:  models.AuthProviderGoogle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := g.storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// uniqueUsername derives a username from the profile name (falling back to
// the email local part) and appends a numeric suffix until it is free.
func (g *GoogleAuthenticator) uniqueUsername(ctx context.Context, profile *GoogleProfile) (string, error) {
	base := strings.ToLower(strings.ReplaceAll(profile.Name, " ", ""))
	if base == "" {
		base = strings.SplitN(profile.Email, "@", 2)[0]
	}

	candidate := base
	for suffix := 1; ; suffix++ {
		if _, err := g.storage.GetUserByUsername(ctx, candidate); err != nil {
			// No user holds this name.
			return candidate, nil
		}
		if suffix > 1000 {
			return "", fmt.Errorf("could not find a free username for %q", base)
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}
}
