package stats

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeClient reads public video statistics via the Data API v3.
type YouTubeClient struct {
	apiKey string
}

// NewYouTubeClient creates a client, or nil when no API key is configured.
func NewYouTubeClient(apiKey string) *YouTubeClient {
	if apiKey == "" {
		return nil
	}
	return &YouTubeClient{apiKey: apiKey}
}

// FetchStats returns view/like/comment counts for a video. YouTube does
// not report shares.
func (c *YouTubeClient) FetchStats(ctx context.Context, videoID string) (*PlatformStats, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}

	resp, err := svc.Videos.List([]string{"statistics"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	s := resp.Items[0].Statistics
	if s == nil {
		return nil, fmt.Errorf("video %s has no statistics", videoID)
	}

	return &PlatformStats{
		Views:    int64(s.ViewCount),
		Likes:    int64(s.LikeCount),
		Comments: int64(s.CommentCount),
	}, nil
}
