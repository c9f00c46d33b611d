// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"scholarship-portal/internal/common/errors"
	"scholarship-portal/internal/common/logger"
)

// TokenResponse holds the response from Keycloak's token endpoint.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
}

type userInfo struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}

// KeycloakSession signs an applicant in with the password grant and exposes
// the resulting access token and profile through the Session interface.
type KeycloakSession struct {
	baseURL    string
	realm      string
	clientID   string
	httpClient *http.Client
	logger     logger.Logger

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	tokenExpiry  time.Time
	profile      Profile
}

func NewKeycloakSession(baseURL, realm, clientID string, log logger.Logger) *KeycloakSession {
	return &KeycloakSession{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		realm:      realm,
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.WithFields(map[string]interface{}{"component": "keycloak"}),
	}
}

func (k *KeycloakSession) realmURL(suffix string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/%s", k.baseURL, k.realm, suffix)
}

// SignIn exchanges credentials for a token and loads the profile.
func (k *KeycloakSession) SignIn(ctx context.Context, username, password string) error {
	data := url.Values{}
	data.Set("grant_type", "password")
	data.Set("client_id", k.clientID)
	data.Set("username", username)
	data.Set("password", password)
	data.Set("scope", "openid profile email")

	tokenResp, err := k.requestToken(ctx, data)
	if err != nil {
		return errors.NewAuthenticationError(err.Error())
	}
	k.storeToken(tokenResp)

	profile, err := k.fetchProfile(ctx, tokenResp.AccessToken)
	if err != nil {
		return errors.NewAuthenticationError(err.Error())
	}

	k.mu.Lock()
	k.profile = profile
	k.mu.Unlock()

	k.logger.Info("signed in", map[string]interface{}{"userId": profile.UserID})
	return nil
}

// Refresh renews the access token when it is about to expire.
func (k *KeycloakSession) Refresh(ctx context.Context) error {
	k.mu.RLock()
	refresh := k.refreshToken
	stillValid := k.accessToken != "" && time.Until(k.tokenExpiry) > 30*time.Second
	k.mu.RUnlock()

	if stillValid {
		return nil
	}
	if refresh == "" {
		return errors.NewAuthenticationError("no refresh token, sign in again")
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", k.clientID)
	data.Set("refresh_token", refresh)

	tokenResp, err := k.requestToken(ctx, data)
	if err != nil {
		return errors.NewAuthenticationError(err.Error())
	}
	k.storeToken(tokenResp)
	return nil
}

func (k *KeycloakSession) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.realmURL("token"), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("keycloak token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &tokenResp, nil
}

func (k *KeycloakSession) storeToken(t *TokenResponse) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.accessToken = t.AccessToken
	if t.RefreshToken != "" {
		k.refreshToken = t.RefreshToken
	}
	k.tokenExpiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
}

func (k *KeycloakSession) fetchProfile(ctx context.Context, token string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.realmURL("userinfo"), nil)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to execute userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Profile{}, fmt.Errorf("userinfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	name := info.Name
	if name == "" {
		name = info.PreferredUsername
	}
	return Profile{UserID: info.Sub, Name: name, Email: info.Email}, nil
}

func (k *KeycloakSession) CurrentToken() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if time.Now().After(k.tokenExpiry) {
		return ""
	}
	return k.accessToken
}

func (k *KeycloakSession) CurrentProfile() Profile {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.profile
}

// OnLogout ends the Keycloak session and forgets the tokens. The end-session
// call is best effort.
func (k *KeycloakSession) OnLogout() {
	k.mu.Lock()
	refresh := k.refreshToken
	k.accessToken = ""
	k.refreshToken = ""
	k.tokenExpiry = time.Time{}
	k.mu.Unlock()

	if refresh == "" {
		return
	}

	data := url.Values{}
	data.Set("client_id", k.clientID)
	data.Set("refresh_token", refresh)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.realmURL("logout"), strings.NewReader(data.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		k.logger.Warn("keycloak logout failed", map[string]interface{}{"error": err})
		return
	}
	resp.Body.Close()
}
