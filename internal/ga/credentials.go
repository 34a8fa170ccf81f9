package ga

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	analytics "google.golang.org/api/analytics/v3"
	"google.golang.org/api/option"
)

// legacyCredentials is the oauth2client storage format (analytics.dat).
type legacyCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	TokenURI     string `json:"token_uri"`
}

// credentialsOption accepts service account, authorized user or legacy
// refresh-token JSON.
func credentialsOption(ctx context.Context, credentialsJSON string) (option.ClientOption, error) {
	if strings.TrimSpace(credentialsJSON) == "" {
		return nil, ErrNoCredentials
	}

	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), analytics.AnalyticsReadonlyScope)
	if err == nil {
		return option.WithCredentials(creds), nil
	}

	ts, legacyErr := legacyTokenSource(ctx, credentialsJSON)
	if legacyErr != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return option.WithTokenSource(ts), nil
}

func legacyTokenSource(ctx context.Context, credentialsJSON string) (oauth2.TokenSource, error) {
	var legacy legacyCredentials
	if err := json.Unmarshal([]byte(credentialsJSON), &legacy); err != nil {
		return nil, err
	}
	if legacy.ClientID == "" || legacy.RefreshToken == "" {
		return nil, fmt.Errorf("legacy credentials need client_id and refresh_token")
	}
	tokenURL := legacy.TokenURI
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}
	conf := &oauth2.Config{
		ClientID:     legacy.ClientID,
		ClientSecret: legacy.ClientSecret,
		Endpoint:     oauth2.Endpoint{AuthURL: google.Endpoint.AuthURL, TokenURL: tokenURL},
		Scopes:       []string{analytics.AnalyticsReadonlyScope},
	}
	// The stored access token has long expired; start from the refresh token.
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: legacy.RefreshToken}), nil
}
