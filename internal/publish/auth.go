package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// AuthFlow drives the one-time OAuth2 authorization that produces the token
// file NewYouTube reads on every later run.
type AuthFlow struct {
	config *oauth2.Config
}

// NewAuthFlow loads the OAuth2 client credentials for the upload scope.
func NewAuthFlow(credentialsFile string) (*AuthFlow, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read youtube credentials: %w", err)
	}
	config, err := google.ConfigFromJSON(creds, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse youtube credentials: %w", err)
	}
	return &AuthFlow{config: config}, nil
}

// URL returns the consent page address the operator must open in a browser.
func (f *AuthFlow) URL() string {
	return f.config.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the pasted authorization code for a refresh token and
// writes it to tokenFile.
func (f *AuthFlow) Exchange(ctx context.Context, code, tokenFile string) error {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return saveToken(tokenFile, token)
}

func saveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
