package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	// youtubeTitleLimit and youtubeDescriptionLimit are platform caps.
	youtubeTitleLimit       = 100
	youtubeDescriptionLimit = 5000
	// educationCategoryID is YouTube's category for educational content.
	educationCategoryID = "27"
)

// UploadResult identifies a published video.
type UploadResult struct {
	VideoID string
	URL     string
}

// YouTube uploads finished videos as Shorts.
type YouTube struct {
	svc *youtube.Service
}

// NewYouTube builds an authenticated uploader from an OAuth2 client
// credentials file and a previously obtained token file.
func NewYouTube(ctx context.Context, credentialsFile, tokenFile string) (*YouTube, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read youtube credentials: %w", err)
	}
	config, err := google.ConfigFromJSON(creds, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse youtube credentials: %w", err)
	}

	tokenData, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read youtube token (run the authorization flow first): %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("parse youtube token: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(config.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &YouTube{svc: svc}, nil
}

// UploadShort uploads a vertical video as a public Short and returns its
// ID and watch URL.
func (y *YouTube) UploadShort(ctx context.Context, videoPath, topic, subtopic, description string) (*UploadResult, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       buildTitle(topic, subtopic),
			Description: truncate(description, youtubeDescriptionLimit),
			Tags:        buildTags(topic, subtopic),
			CategoryId:  educationCategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "public",
			SelfDeclaredMadeForKids: false,
		},
	}

	resp, err := y.svc.Videos.Insert([]string{"snippet", "status"}, video).
		Media(f).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}
	return &UploadResult{
		VideoID: resp.Id,
		URL:     "https://youtube.com/shorts/" + resp.Id,
	}, nil
}

func buildTitle(topic, subtopic string) string {
	return truncate(fmt.Sprintf("🩺 %s: %s", topic, subtopic), youtubeTitleLimit)
}

func buildTags(topic, subtopic string) []string {
	return []string{
		"medical education", "USMLE", "PLAB", "medical student",
		"medicine", "clinical case", "MCQ", "medical exam",
		strings.ToLower(topic), strings.ToLower(subtopic),
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
