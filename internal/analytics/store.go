package analytics

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/db"
	"github.com/darkmind/darkmind/internal/models"
	"github.com/darkmind/darkmind/pkg/logging"
	"github.com/darkmind/darkmind/pkg/telemetry"
)

// Formats are the fixed content formats the factory produces.
var Formats = []string{"story_lesson", "scary_truth", "hidden_psychology"}

// Tier labels how much real engagement data backs an hour recommendation.
type Tier string

const (
	// TierDaySpecific means enough same-weekday samples exist to trust them.
	TierDaySpecific Tier = "day-specific"
	// TierCrossDay means weekday data is thin but overall data is usable.
	TierCrossDay Tier = "cross-day"
	// TierPsychology means the static prior table is all we have.
	TierPsychology Tier = "psychology"
)

const (
	// minDayHourSamples is the per-hour sample floor for day-specific hours.
	minDayHourSamples = 2
	// minHourSamples is the sample floor for cross-day hourly aggregates.
	minHourSamples = 3
	// minFormatSamples is the sample floor for trusting a format aggregate.
	minFormatSamples = 3
	// dayConfidenceFloor / anyConfidenceFloor gate the confidence tiers.
	dayConfidenceFloor = 4
	anyConfidenceFloor = 6
)

// VideoInfo carries the script attributes persisted with a new record.
type VideoInfo struct {
	Format         string
	Topic          string
	HookText       string
	VoiceType      string
	SuggestedMusic string
}

// Metrics is one platform-stats measurement for a video.
type Metrics struct {
	Views        int64
	Likes        int64
	Comments     int64
	Shares       int64
	WatchTimeAvg float64
}

// TopicHistory splits every topic ever used from the subset that pumped.
type TopicHistory struct {
	Used   []string `json:"used"`
	Pumped []string `json:"pumped"`
}

// ViralCandidate is a pumped video with no follow-up yet.
type ViralCandidate struct {
	RunID    string `json:"run_id"`
	Topic    string `json:"topic"`
	Format   string `json:"format"`
	Views    int64  `json:"views"`
	HookText string `json:"hook_text"`
}

// Confidence reports how much learned data backs today's hour choices.
type Confidence struct {
	DayVideos  int64 `json:"day_videos"`
	AnyVideos  int64 `json:"any_videos"`
	DataDriven bool  `json:"data_driven"`
	Tier       Tier  `json:"tier"`
}

// StatsTarget is a video eligible for a platform stats fetch.
type StatsTarget struct {
	RunID     string
	YouTubeID string
	TikTokID  string
	Views     int64
	Likes     int64
	Comments  int64
	Shares    int64
}

// Store is the performance store: the single owner of all persisted video
// records and their derived aggregates. Writes flow through it; the query
// surface degrades to neutral values on any internal error so callers in
// the scheduling loop never have to handle store failures.
type Store struct {
	videos  *db.VideoRepository
	hours   *db.HourlyRepository
	formats *db.FormatRepository
	logger  *zap.Logger

	now  func() time.Time
	rand *rand.Rand
}

// NewStore creates a performance store over the given database.
func NewStore(database *db.DB) *Store {
	repo := db.NewRepository(database.DB)
	return &Store{
		videos:  db.NewVideoRepository(repo),
		hours:   db.NewHourlyRepository(repo),
		formats: db.NewFormatRepository(repo),
		logger:  logging.WithComponent("analytics"),
		now:     time.Now,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RecordCreated logs a freshly produced video. Post hour and weekday are
// stamped from the current local time and never revised afterwards. A
// duplicate run ID is ignored and logged, not treated as a failure.
func (s *Store) RecordCreated(ctx context.Context, runID string, info VideoInfo, outputPath string) error {
	now := s.now()
	video := &models.Video{
		RunID:          runID,
		Format:         info.Format,
		Topic:          info.Topic,
		HookText:       info.HookText,
		VoiceType:      info.VoiceType,
		SuggestedMusic: info.SuggestedMusic,
		PostHour:       now.Hour(),
		PostDayOfWeek:  int(now.Weekday()),
		CreatedAt:      now.Unix(),
		OutputPath:     outputPath,
	}

	inserted, err := s.videos.Create(ctx, video)
	if err != nil {
		return fmt.Errorf("failed to log video %s: %w", runID, err)
	}
	if !inserted {
		s.logger.Warn("Duplicate run ID, record kept as-is", zap.String("run_id", runID))
		return nil
	}

	s.logger.Info("Logged new video",
		zap.String("run_id", runID),
		zap.String("format", info.Format),
		zap.Int("post_hour", video.PostHour))
	return nil
}

// MetricsUpdated overwrites a record's counters with a fresh measurement,
// recomputes engagement rate and the pumped flag, then rebuilds all
// aggregates from the base table. The write is unconditional: the store
// does not enforce view monotonicity, callers are expected not to regress.
func (s *Store) MetricsUpdated(ctx context.Context, runID string, m Metrics) error {
	video, err := s.videos.GetByRunID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load video %s: %w", runID, err)
	}
	if video == nil {
		return fmt.Errorf("no video record for run %s", runID)
	}

	video.ApplyMetrics(m.Views, m.Likes, m.Comments, m.Shares, m.WatchTimeAvg)
	video.LastStatsFetch = s.now().Unix()

	if err := s.videos.Save(ctx, video); err != nil {
		return fmt.Errorf("failed to update metrics for %s: %w", runID, err)
	}

	if err := s.RebuildAggregates(ctx); err != nil {
		// Aggregates are derived and idempotently reproducible; a failed
		// rebuild is logged and retried on the next metric write.
		s.logger.Error("Aggregate rebuild failed", zap.Error(err))
	}

	s.logger.Info("Updated video metrics",
		zap.String("run_id", runID),
		zap.Int64("views", m.Views),
		zap.Bool("pumped", video.Pumped))
	return nil
}

// SavePlatformIDs attaches platform identifiers after a successful upload
// and derives the canonical public URLs. Only identifiers actually provided
// are merged; an empty argument leaves the stored value untouched.
func (s *Store) SavePlatformIDs(ctx context.Context, runID, youtubeID, tiktokID string) error {
	video, err := s.videos.GetByRunID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load video %s: %w", runID, err)
	}
	if video == nil {
		return fmt.Errorf("no video record for run %s", runID)
	}

	if youtubeID != "" {
		video.YouTubeID = youtubeID
		video.YouTubeURL = fmt.Sprintf("https://youtube.com/shorts/%s", youtubeID)
	}
	if tiktokID != "" {
		video.TikTokID = tiktokID
		video.TikTokURL = fmt.Sprintf("https://www.tiktok.com/@/video/%s", tiktokID)
	}

	if err := s.videos.Save(ctx, video); err != nil {
		return fmt.Errorf("failed to save platform IDs for %s: %w", runID, err)
	}
	return nil
}

// RebuildAggregates recomputes the hourly and format materialized views
// from a full scan of the base table. The rebuild is idempotent, so
// concurrent invocations are last-write-wins over identical derived data.
func (s *Store) RebuildAggregates(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "analytics.rebuild_aggregates")
	defer span.End()

	now := s.now().Unix()

	for hour := 0; hour < 24; hour++ {
		row, err := s.videos.HourAverages(ctx, hour)
		if err != nil {
			return fmt.Errorf("hour %d averages: %w", hour, err)
		}
		if row.Count == 0 {
			continue
		}
		agg := &models.HourlyPerformance{
			Hour:          hour,
			AvgViews:      row.AvgViews,
			AvgEngagement: row.AvgEngagement,
			TotalVideos:   row.Count,
			LastUpdated:   now,
		}
		if err := s.hours.Replace(ctx, agg); err != nil {
			return fmt.Errorf("hour %d replace: %w", hour, err)
		}
	}

	for _, format := range Formats {
		row, err := s.videos.FormatAverages(ctx, format)
		if err != nil {
			return fmt.Errorf("format %s averages: %w", format, err)
		}
		if row.Count == 0 {
			continue
		}
		topics, err := s.videos.PumpedTopicsByFormat(ctx, format, 10)
		if err != nil {
			return fmt.Errorf("format %s topics: %w", format, err)
		}
		agg := &models.FormatPerformance{
			Format:        format,
			AvgViews:      row.AvgViews,
			AvgEngagement: row.AvgEngagement,
			TotalVideos:   row.Count,
			LastUpdated:   now,
		}
		agg.SetBestTopics(topics)
		if err := s.formats.Replace(ctx, agg); err != nil {
			return fmt.Errorf("format %s replace: %w", format, err)
		}
	}

	return nil
}

// BestPostHour returns the hour with the highest average engagement among
// hours with enough samples. With no qualifying data it picks a random
// prior hour for today's weekday so early-stage posting still varies.
func (s *Store) BestPostHour(ctx context.Context) int {
	rows, err := s.hours.Best(ctx, minHourSamples, 1)
	if err != nil {
		s.logger.Error("Best post hour query failed", zap.Error(err))
	} else if len(rows) > 0 {
		return rows[0].Hour
	}

	peaks := PeakHours(s.now().Weekday())
	return peaks[s.rand.Intn(len(peaks))]
}

// BestFormat returns the format with the highest average views among
// formats with enough tracked videos; ok is false when none qualifies.
func (s *Store) BestFormat(ctx context.Context) (string, bool) {
	row, err := s.formats.Best(ctx, minFormatSamples)
	if err != nil {
		s.logger.Error("Best format query failed", zap.Error(err))
		return "", false
	}
	if row == nil {
		return "", false
	}
	return row.Format, true
}

// PumpedTopics returns topics that crossed the pump threshold for a format,
// most-viewed first.
func (s *Store) PumpedTopics(ctx context.Context, format string) []string {
	topics, err := s.videos.PumpedTopicsByFormat(ctx, format, 8)
	if err != nil {
		s.logger.Error("Pumped topics query failed", zap.Error(err))
		return nil
	}
	return topics
}

// UsedTopics returns every topic ever used and the subset that pumped,
// newest first. Feeds the freshness filter and the script generator.
func (s *Store) UsedTopics(ctx context.Context) TopicHistory {
	rows, err := s.videos.TopicsByRecency(ctx)
	if err != nil {
		s.logger.Error("Used topics query failed", zap.Error(err))
		return TopicHistory{}
	}
	history := TopicHistory{}
	for _, row := range rows {
		history.Used = append(history.Used, row.Topic)
		if row.Pumped {
			history.Pumped = append(history.Pumped, row.Topic)
		}
	}
	return history
}

// RecentHooks returns the most recent hook texts so script generation can
// avoid repeating itself.
func (s *Store) RecentHooks(ctx context.Context, limit int) []string {
	hooks, err := s.videos.RecentHooks(ctx, limit)
	if err != nil {
		s.logger.Error("Recent hooks query failed", zap.Error(err))
		return nil
	}
	return hooks
}

// ViralCandidates returns pumped videos with no later video sharing the
// exact same topic, best performer first. These are follow-up material.
func (s *Store) ViralCandidates(ctx context.Context) []ViralCandidate {
	pumped, err := s.videos.PumpedWithTopic(ctx)
	if err != nil {
		s.logger.Error("Viral candidates query failed", zap.Error(err))
		return nil
	}

	var candidates []ViralCandidate
	for _, video := range pumped {
		followups, err := s.videos.CountFollowups(ctx, video.Topic, video.CreatedAt, video.RunID)
		if err != nil {
			s.logger.Error("Follow-up count failed",
				zap.String("run_id", video.RunID), zap.Error(err))
			continue
		}
		if followups == 0 {
			candidates = append(candidates, ViralCandidate{
				RunID:    video.RunID,
				Topic:    video.Topic,
				Format:   video.Format,
				Views:    video.Views,
				HookText: video.HookText,
			})
		}
	}
	return candidates
}

// TodayVideoCount counts videos created since local midnight.
func (s *Store) TodayVideoCount(ctx context.Context) int64 {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := s.videos.CountCreatedSince(ctx, midnight.Unix())
	if err != nil {
		s.logger.Error("Today count query failed", zap.Error(err))
		return 0
	}
	return count
}

// BestHoursForDay returns up to n learned posting hours for a weekday,
// ranked by average engagement. Tiered:
//  1. day-specific grouped hours with >= 2 samples each (authoritative)
//  2. cross-day hourly aggregates with >= 3 samples
//  3. empty — the caller fills from the prior table
func (s *Store) BestHoursForDay(ctx context.Context, day time.Weekday, n int) []int {
	stats, err := s.videos.HourStatsForDay(ctx, int(day), minDayHourSamples, n)
	if err != nil {
		s.logger.Error("Day hour stats query failed", zap.Error(err))
		return nil
	}
	if len(stats) > 0 {
		hours := make([]int, 0, len(stats))
		for _, st := range stats {
			hours = append(hours, st.Hour)
		}
		return hours
	}

	rows, err := s.hours.Best(ctx, minHourSamples, n)
	if err != nil {
		s.logger.Error("Cross-day hour query failed", zap.Error(err))
		return nil
	}
	hours := make([]int, 0, len(rows))
	for _, row := range rows {
		hours = append(hours, row.Hour)
	}
	return hours
}

// HourConfidence reports how much measured data backs hour selection for a
// weekday. Degrades to the psychology tier on any internal error.
func (s *Store) HourConfidence(ctx context.Context, day time.Weekday) Confidence {
	fallback := Confidence{Tier: TierPsychology}

	dayCount, err := s.videos.CountMeasuredForDay(ctx, int(day))
	if err != nil {
		s.logger.Error("Day confidence query failed", zap.Error(err))
		return fallback
	}
	anyCount, err := s.videos.CountMeasured(ctx)
	if err != nil {
		s.logger.Error("Any confidence query failed", zap.Error(err))
		return fallback
	}

	tier := TierPsychology
	switch {
	case dayCount >= dayConfidenceFloor:
		tier = TierDaySpecific
	case anyCount >= anyConfidenceFloor:
		tier = TierCrossDay
	}

	return Confidence{
		DayVideos:  dayCount,
		AnyVideos:  anyCount,
		DataDriven: tier != TierPsychology,
		Tier:       tier,
	}
}

// VideosForStatsFetch returns videos with at least one platform ID created
// within the age window, newest first.
func (s *Store) VideosForStatsFetch(ctx context.Context, maxAge time.Duration) []StatsTarget {
	cutoff := s.now().Add(-maxAge).Unix()
	videos, err := s.videos.ForStatsFetch(ctx, cutoff)
	if err != nil {
		s.logger.Error("Stats fetch query failed", zap.Error(err))
		return nil
	}

	targets := make([]StatsTarget, 0, len(videos))
	for _, v := range videos {
		targets = append(targets, StatsTarget{
			RunID:     v.RunID,
			YouTubeID: v.YouTubeID,
			TikTokID:  v.TikTokID,
			Views:     v.Views,
			Likes:     v.Likes,
			Comments:  v.Comments,
			Shares:    v.Shares,
		})
	}
	return targets
}

// RecentVideos returns the newest records for reporting surfaces.
func (s *Store) RecentVideos(ctx context.Context, limit int) []models.Video {
	videos, err := s.videos.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("Recent videos query failed", zap.Error(err))
		return nil
	}
	return videos
}
