package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// profileTimeout bounds the outbound profile fetch. On timeout the sign-in
// fails; nothing retries automatically.
const profileTimeout = 10 * time.Second

// Profile is the provider-neutral result of a completed OAuth exchange —
// exactly the fields the sign-in upsert needs.
type Profile struct {
	Provider          string // "github" | "google"
	ProviderAccountID string // provider's stable user identifier
	Name              string
	Username          string // raw; the auth service slugifies before storing
	Email             string
	Image             string
}

// Provider wraps one OAuth identity provider's Authorization Code flow:
// build the consent URL, then trade the callback code for a Profile.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// GitHubProvider implements Provider for GitHub OAuth Apps.
//
// The code-for-token exchange is server-to-server with our ClientSecret;
// the access token never reaches the browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider. callbackURL must exactly match
// the Authorization callback URL registered with the OAuth App.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

func (p *GitHubProvider) Name() string { return "github" }

// AuthURL returns the consent URL. The state is a random nonce stored in a
// cookie before the redirect and checked on callback — without it, an
// attacker could complete an OAuth flow on the victim's behalf (CSRF).
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// githubUser is the slice of GitHub's /user response we care about.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"` // empty if hidden in GitHub settings
	AvatarURL string `json:"avatar_url"`
}

// Exchange trades the authorization code for a GitHub profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, profileTimeout)
	defer cancel()

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	var gh githubUser
	if err := fetchJSON(ctx, p.config.Client(ctx, token), "https://api.github.com/user", &gh); err != nil {
		return nil, err
	}
	if gh.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	return &Profile{
		Provider:          "github",
		ProviderAccountID: strconv.FormatInt(gh.ID, 10),
		Name:              name,
		Username:          gh.Login,
		Email:             gh.Email,
		Image:             gh.AvatarURL,
	}, nil
}

// GoogleProvider implements Provider for Google OAuth.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider for the given client
// credentials and callback URL.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// googleUser is the slice of the userinfo response we care about.
type googleUser struct {
	Sub     string `json:"sub"` // Google's stable account id
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Exchange trades the authorization code for a Google profile. Google has no
// separate username concept, so the email local part seeds the username and
// the auth service slugifies it.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, profileTimeout)
	defer cancel()

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	var gu googleUser
	if err := fetchJSON(ctx, p.config.Client(ctx, token), "https://www.googleapis.com/oauth2/v3/userinfo", &gu); err != nil {
		return nil, err
	}
	if gu.Sub == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty sub)")
	}

	username, _, _ := strings.Cut(gu.Email, "@")

	return &Profile{
		Provider:          "google",
		ProviderAccountID: gu.Sub,
		Name:              gu.Name,
		Username:          username,
		Email:             gu.Email,
		Image:             gu.Picture,
	}, nil
}

// fetchJSON GETs url with the token-bearing client and decodes the JSON
// body into out.
func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("auth: building profile request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: %s returned status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("auth: decoding %s response: %w", url, err)
	}
	return nil
}
