package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/devasign/devasign/internal/api/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	GitHubName       = "github"
	GitHubAPIBaseURL = "https://api.github.com"
)

// DefaultGitHubScopes is enough to read the profile and the verified emails.
var DefaultGitHubScopes = []string{"read:user", "user:email"}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	// Overrides for GitHub Enterprise and tests; empty means github.com.
	Endpoint   *oauth2.Endpoint
	APIBaseURL string
	HTTPClient *http.Client
}

type GitHub struct {
	oauth   *oauth2.Config
	apiBase string
	client  *http.Client
}

// GitHubEndpointAt returns the OAuth endpoints of a GitHub instance hosted
// at baseURL, e.g. a GitHub Enterprise server.
func GitHubEndpointAt(baseURL string) *oauth2.Endpoint {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &oauth2.Endpoint{
		AuthURL:   baseURL + "/login/oauth/authorize",
		TokenURL:  baseURL + "/login/oauth/access_token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func NewGitHub(cfg GitHubConfig) *GitHub {
	endpoint := github.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultGitHubScopes
	}
	apiBase := strings.TrimSuffix(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = GitHubAPIBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &GitHub{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       scopes,
		},
		apiBase: apiBase,
		client:  client,
	}
}

func (g *GitHub) Name() string { return GitHubName }

func (g *GitHub) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

// FetchProfile exchanges code for a GitHub token, then reads /user and, to
// learn which addresses are verified, /user/emails.
func (g *GitHub) FetchProfile(ctx context.Context, code string) (domain.Profile, error) {
	if g.oauth.ClientID == "" || g.oauth.ClientSecret == "" {
		return domain.Profile{}, ErrNotConfigured
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("github: exchange code: %w", err)
	}
	client := g.oauth.Client(ctx, tok)

	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := g.get(ctx, client, "/user", &user); err != nil {
		return domain.Profile{}, err
	}
	if user.ID == 0 || user.Login == "" {
		return domain.Profile{}, fmt.Errorf("github: /user returned an incomplete profile")
	}

	p := domain.Profile{
		ProviderID:  strconv.FormatInt(user.ID, 10),
		Username:    user.Login,
		DisplayName: user.Name,
		AvatarURL:   user.AvatarURL,
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := g.get(ctx, client, "/user/emails", &emails); err != nil {
		// GitHub only lets verified addresses be public, so the profile
		// email is still usable without the emails scope.
		if user.Email != "" {
			p.Email, p.EmailVerified = user.Email, true
			return p, nil
		}
		return domain.Profile{}, err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			p.Email, p.EmailVerified = e.Email, true
			return p, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			p.Email, p.EmailVerified = e.Email, true
			return p, nil
		}
	}
	if user.Email != "" {
		p.Email, p.EmailVerified = user.Email, true
	}
	return p, nil
}

func (g *GitHub) get(ctx context.Context, client *http.Client, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "devasign-api")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github: GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("github: decode %s: %w", path, err)
	}
	return nil
}
