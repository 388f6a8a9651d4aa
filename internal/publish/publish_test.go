package publish

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestParseChannel(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantID  int64
		wantUn  string
		wantErr bool
	}{
		{"numeric id", "-1001234567890", -1001234567890, "", false},
		{"username", "@medicaledudaily", 0, "@medicaledudaily", false},
		{"empty", "", 0, "", true},
		{"garbage", "not-a-channel", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChannel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseChannel(%q): %v", tt.in, err)
			}
			if got.ID != tt.wantID || got.Username != tt.wantUn {
				t.Errorf("parseChannel(%q) = %+v", tt.in, got)
			}
		})
	}
}

func TestBuildTitle(t *testing.T) {
	title := buildTitle("Heart Failure", "Acute Heart Failure")
	if title != "🩺 Heart Failure: Acute Heart Failure" {
		t.Errorf("title = %q", title)
	}

	long := buildTitle(strings.Repeat("A", 80), strings.Repeat("B", 80))
	if n := len([]rune(long)); n != youtubeTitleLimit {
		t.Errorf("long title length = %d, want %d", n, youtubeTitleLimit)
	}
}

func TestBuildTags(t *testing.T) {
	tags := buildTags("Heart Failure", "Acute Heart Failure")
	if tags[len(tags)-2] != "heart failure" || tags[len(tags)-1] != "acute heart failure" {
		t.Errorf("topic tags missing or not lowercased: %v", tags)
	}
}

const testCredentials = `{
  "installed": {
    "client_id": "client-123.apps.googleusercontent.com",
    "client_secret": "secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestAuthFlowURL(t *testing.T) {
	credsPath := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(credsPath, []byte(testCredentials), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}

	flow, err := NewAuthFlow(credsPath)
	if err != nil {
		t.Fatalf("new auth flow: %v", err)
	}

	url := flow.URL()
	for _, want := range []string{
		"accounts.google.com",
		"client-123.apps.googleusercontent.com",
		"youtube.upload",
		"access_type=offline",
	} {
		if !strings.Contains(url, want) {
			t.Errorf("auth URL missing %q: %s", want, url)
		}
	}
}

func TestAuthFlowMissingCredentials(t *testing.T) {
	if _, err := NewAuthFlow(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing credentials file")
	}
}

func TestSaveTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	if err := saveToken(path, token); err != nil {
		t.Fatalf("save token: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	var got oauth2.Token
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("token file is not valid JSON: %v", err)
	}
	if got.RefreshToken != "refresh" || got.AccessToken != "access" {
		t.Errorf("token round trip = %+v", got)
	}
}
