package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"knouxart/internal/config"
	"knouxart/internal/storage"
)

// Profile is the identity an OAuth provider reports for the signed-in user.
type Profile struct {
	Email string
	Name  string
	Image string
}

// Provider wraps an OAuth2 configuration with the provider's profile API.
type Provider struct {
	Name   string
	Config *oauth2.Config

	// ProfileURL returns the user's profile; EmailsURL, when set, lists the
	// user's addresses for accounts that hide their email on the profile.
	ProfileURL string
	EmailsURL  string

	decode func(body []byte) (Profile, error)
}

// NewGoogleProvider builds the Google sign-in provider.
func NewGoogleProvider(c config.OAuthProvider) *Provider {
	return &Provider{
		Name: storage.ProviderGoogle,
		Config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		ProfileURL: "https://openidconnect.googleapis.com/v1/userinfo",
		decode:     decodeGoogle,
	}
}

// NewGitHubProvider builds the GitHub sign-in provider.
func NewGitHubProvider(c config.OAuthProvider) *Provider {
	return &Provider{
		Name: storage.ProviderGitHub,
		Config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"read:user", "user:email"},
		},
		ProfileURL: "https://api.github.com/user",
		EmailsURL:  "https://api.github.com/user/emails",
		decode:     decodeGitHub,
	}
}

// ProvidersFromConfig returns the providers that have credentials.
func ProvidersFromConfig(c config.AuthConfig) []*Provider {
	var out []*Provider
	if c.Google.Enabled() {
		out = append(out, NewGoogleProvider(c.Google))
	}
	if c.GitHub.Enabled() {
		out = append(out, NewGitHubProvider(c.GitHub))
	}
	return out
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// Exchange trades the callback code for a token and fetches the profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	client := p.Config.Client(ctx, tok)

	body, err := getJSON(ctx, client, p.ProfileURL)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	prof, err := p.decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	if prof.Email == "" && p.EmailsURL != "" {
		body, err := getJSON(ctx, client, p.EmailsURL)
		if err != nil {
			return nil, fmt.Errorf("fetch emails: %w", err)
		}
		prof.Email, err = primaryEmail(body)
		if err != nil {
			return nil, fmt.Errorf("decode emails: %w", err)
		}
	}

	return &prof, nil
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeGoogle(body []byte) (Profile, error) {
	var v struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Profile{}, err
	}
	return Profile{Email: v.Email, Name: v.Name, Image: v.Picture}, nil
}

func decodeGitHub(body []byte) (Profile, error) {
	var v struct {
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Profile{}, err
	}
	name := v.Name
	if name == "" {
		name = v.Login
	}
	return Profile{Email: v.Email, Name: name, Image: v.AvatarURL}, nil
}

// primaryEmail picks the primary verified address, else the first verified one.
func primaryEmail(body []byte) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", err
	}

	var fallback string
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			return e.Email, nil
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	return fallback, nil
}
