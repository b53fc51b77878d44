// Package stats periodically pulls view/like/comment/share counts from the
// upload platforms and feeds them into the performance store. Each record
// fails independently; one broken fetch never aborts the batch.
package stats

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/analytics"
	"github.com/darkmind/darkmind/pkg/logging"
)

// PlatformStats is one platform's counters for a single video.
type PlatformStats struct {
	Views    int64
	Likes    int64
	Comments int64
	Shares   int64
}

// PlatformClient fetches public stats for a platform video ID.
type PlatformClient interface {
	FetchStats(ctx context.Context, videoID string) (*PlatformStats, error)
}

// Sink is the store surface the fetcher writes into. Satisfied by
// *analytics.Store.
type Sink interface {
	VideosForStatsFetch(ctx context.Context, maxAge time.Duration) []analytics.StatsTarget
	MetricsUpdated(ctx context.Context, runID string, m analytics.Metrics) error
}

// Fetcher merges YouTube and TikTok stats into the store.
type Fetcher struct {
	store   Sink
	youtube PlatformClient
	tiktok  PlatformClient
	maxAge  time.Duration
	logger  *zap.Logger
}

// NewFetcher creates a stats fetcher. Either platform client may be nil.
func NewFetcher(store Sink, youtube, tiktok PlatformClient, maxAge time.Duration) *Fetcher {
	return &Fetcher{
		store:   store,
		youtube: youtube,
		tiktok:  tiktok,
		maxAge:  maxAge,
		logger:  logging.WithComponent("stats-fetcher"),
	}
}

// FetchAndUpdateAll refreshes stats for every recent video that has at
// least one platform ID. Returns how many records were updated.
func (f *Fetcher) FetchAndUpdateAll(ctx context.Context) int {
	targets := f.store.VideosForStatsFetch(ctx, f.maxAge)
	if len(targets) == 0 {
		f.logger.Debug("No videos to update")
		return 0
	}

	f.logger.Info("Fetching platform stats", zap.Int("videos", len(targets)))

	updated := 0
	for _, target := range targets {
		var yt, tt *PlatformStats

		if target.YouTubeID != "" && f.youtube != nil {
			var err error
			yt, err = f.youtube.FetchStats(ctx, target.YouTubeID)
			if err != nil {
				f.logger.Warn("YouTube stats fetch failed",
					zap.String("run_id", target.RunID), zap.Error(err))
			}
		}
		if target.TikTokID != "" && f.tiktok != nil {
			var err error
			tt, err = f.tiktok.FetchStats(ctx, target.TikTokID)
			if err != nil {
				f.logger.Warn("TikTok stats fetch failed",
					zap.String("run_id", target.RunID), zap.Error(err))
			}
		}

		if yt == nil && tt == nil {
			continue
		}

		merged := merge(yt, tt)

		// Never regress views with a stale read; the first successful
		// merge of a batch always lands so non-view changes still flow.
		if merged.Views <= target.Views && updated != 0 {
			continue
		}

		if err := f.store.MetricsUpdated(ctx, target.RunID, merged); err != nil {
			f.logger.Error("Metrics update failed",
				zap.String("run_id", target.RunID), zap.Error(err))
			continue
		}
		updated++
	}

	f.logger.Info("Stats fetch complete",
		zap.Int("updated", updated), zap.Int("total", len(targets)))
	return updated
}

// merge takes the per-metric max across platforms rather than summing, so
// the same audience is not double-counted. Shares come from TikTok only;
// YouTube does not report them.
func merge(yt, tt *PlatformStats) analytics.Metrics {
	if yt == nil {
		yt = &PlatformStats{}
	}
	if tt == nil {
		tt = &PlatformStats{}
	}
	return analytics.Metrics{
		Views:    max64(yt.Views, tt.Views),
		Likes:    max64(yt.Likes, tt.Likes),
		Comments: max64(yt.Comments, tt.Comments),
		Shares:   tt.Shares,
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
