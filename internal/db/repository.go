package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/darkmind/darkmind/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// VideoRepository provides video-record database operations
type VideoRepository struct {
	*Repository
}

// NewVideoRepository creates a new video repository
func NewVideoRepository(repo *Repository) *VideoRepository {
	return &VideoRepository{Repository: repo}
}

// Create inserts a new video record. Inserts are idempotent by run_id: a
// duplicate is silently ignored, never overwritten. Returns whether a row
// was actually inserted.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}},
			DoNothing: true,
		}).
		Create(video)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetByRunID retrieves a video by run identifier
func (r *VideoRepository) GetByRunID(ctx context.Context, runID string) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &video, nil
}

// Save persists all fields of an existing video record
func (r *VideoRepository) Save(ctx context.Context, video *models.Video) error {
	return r.db.WithContext(ctx).Save(video).Error
}

// HourStat is one grouped row of per-hour engagement for a weekday
type HourStat struct {
	Hour          int     `gorm:"column:post_hour"`
	AvgEngagement float64 `gorm:"column:avg_eng"`
	Count         int64   `gorm:"column:cnt"`
}

// HourStatsForDay groups a weekday's measured videos by post hour, keeping
// only hours with at least minCount samples, ranked by average engagement.
func (r *VideoRepository) HourStatsForDay(ctx context.Context, dayOfWeek, minCount, limit int) ([]HourStat, error) {
	var stats []HourStat
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Select("post_hour, AVG(engagement_rate) AS avg_eng, COUNT(*) AS cnt").
		Where("post_day_of_week = ? AND views > 0", dayOfWeek).
		Group("post_hour").
		Having("COUNT(*) >= ?", minCount).
		Order("avg_eng DESC").
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// AggregateRow is the averaged shape used to rebuild materialized views
type AggregateRow struct {
	AvgViews      float64 `gorm:"column:avg_views"`
	AvgEngagement float64 `gorm:"column:avg_engagement"`
	Count         int64   `gorm:"column:cnt"`
}

// HourAverages averages all measured videos posted at the given hour
func (r *VideoRepository) HourAverages(ctx context.Context, hour int) (*AggregateRow, error) {
	var row AggregateRow
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Select("COALESCE(AVG(views), 0) AS avg_views, COALESCE(AVG(engagement_rate), 0) AS avg_engagement, COUNT(*) AS cnt").
		Where("post_hour = ? AND views > 0", hour).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FormatAverages averages all measured videos of the given format
func (r *VideoRepository) FormatAverages(ctx context.Context, format string) (*AggregateRow, error) {
	var row AggregateRow
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Select("COALESCE(AVG(views), 0) AS avg_views, COALESCE(AVG(engagement_rate), 0) AS avg_engagement, COUNT(*) AS cnt").
		Where("format = ? AND views > 0", format).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// PumpedTopicsByFormat returns topics of pumped videos for a format,
// most-viewed first.
func (r *VideoRepository) PumpedTopicsByFormat(ctx context.Context, format string, limit int) ([]string, error) {
	var topics []string
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("format = ? AND pumped = ?", format, true).
		Order("views DESC").
		Limit(limit).
		Pluck("topic", &topics).Error
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// TopicRow pairs a topic with its pumped flag
type TopicRow struct {
	Topic  string `gorm:"column:topic"`
	Pumped bool   `gorm:"column:pumped"`
}

// TopicsByRecency returns every non-empty topic ever used, newest first
func (r *VideoRepository) TopicsByRecency(ctx context.Context) ([]TopicRow, error) {
	var rows []TopicRow
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Select("topic, pumped").
		Where("topic != ''").
		Order("created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RecentHooks returns the most recent non-empty hook texts
func (r *VideoRepository) RecentHooks(ctx context.Context, limit int) ([]string, error) {
	var hooks []string
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("hook_text != ''").
		Order("created_at DESC").
		Limit(limit).
		Pluck("hook_text", &hooks).Error
	if err != nil {
		return nil, err
	}
	return hooks, nil
}

// PumpedWithTopic returns all pumped videos with a non-empty topic,
// most-viewed first.
func (r *VideoRepository) PumpedWithTopic(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.WithContext(ctx).
		Where("pumped = ? AND topic != ''", true).
		Order("views DESC").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// CountFollowups counts videos sharing the exact topic created strictly
// after the given timestamp, excluding the original run.
func (r *VideoRepository) CountFollowups(ctx context.Context, topic string, after int64, excludeRunID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("topic = ? AND created_at > ? AND run_id != ?", topic, after, excludeRunID).
		Count(&count).Error
	return count, err
}

// CountCreatedSince counts videos created at or after the given timestamp
func (r *VideoRepository) CountCreatedSince(ctx context.Context, ts int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("created_at >= ?", ts).
		Count(&count).Error
	return count, err
}

// CountMeasured counts videos with at least one recorded view
func (r *VideoRepository) CountMeasured(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("views > 0").
		Count(&count).Error
	return count, err
}

// CountMeasuredForDay counts measured videos posted on the given weekday
func (r *VideoRepository) CountMeasuredForDay(ctx context.Context, dayOfWeek int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("post_day_of_week = ? AND views > 0", dayOfWeek).
		Count(&count).Error
	return count, err
}

// CountPumped counts videos past the pump threshold
func (r *VideoRepository) CountPumped(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("pumped = ?", true).
		Count(&count).Error
	return count, err
}

// ForStatsFetch returns videos created after the cutoff that carry at least
// one platform ID, newest first.
func (r *VideoRepository) ForStatsFetch(ctx context.Context, cutoff int64) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND (youtube_id != '' OR tiktok_id != '')", cutoff).
		Order("created_at DESC").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// Recent returns the newest videos up to limit
func (r *VideoRepository) Recent(ctx context.Context, limit int) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// Totals summarizes the whole base table
type Totals struct {
	Count    int64   `gorm:"column:cnt"`
	AvgViews float64 `gorm:"column:avg_views"`
	MaxViews int64   `gorm:"column:max_views"`
}

// GetTotals returns whole-table count/avg/max view figures
func (r *VideoRepository) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Select("COUNT(*) AS cnt, COALESCE(AVG(views), 0) AS avg_views, COALESCE(MAX(views), 0) AS max_views").
		Scan(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// HourlyRepository provides hourly-aggregate database operations
type HourlyRepository struct {
	*Repository
}

// NewHourlyRepository creates a new hourly aggregate repository
func NewHourlyRepository(repo *Repository) *HourlyRepository {
	return &HourlyRepository{Repository: repo}
}

// Replace upserts the aggregate row for an hour
func (r *HourlyRepository) Replace(ctx context.Context, agg *models.HourlyPerformance) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hour"}},
			UpdateAll: true,
		}).
		Create(agg).Error
}

// Best returns hours with at least minVideos samples ranked by engagement
func (r *HourlyRepository) Best(ctx context.Context, minVideos, limit int) ([]models.HourlyPerformance, error) {
	var rows []models.HourlyPerformance
	err := r.db.WithContext(ctx).
		Where("total_videos >= ?", minVideos).
		Order("avg_engagement DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TopByViews returns the highest-average-view hours
func (r *HourlyRepository) TopByViews(ctx context.Context, limit int) ([]models.HourlyPerformance, error) {
	var rows []models.HourlyPerformance
	err := r.db.WithContext(ctx).
		Order("avg_views DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FormatRepository provides format-aggregate database operations
type FormatRepository struct {
	*Repository
}

// NewFormatRepository creates a new format aggregate repository
func NewFormatRepository(repo *Repository) *FormatRepository {
	return &FormatRepository{Repository: repo}
}

// Replace upserts the aggregate row for a format
func (r *FormatRepository) Replace(ctx context.Context, agg *models.FormatPerformance) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "format"}},
			UpdateAll: true,
		}).
		Create(agg).Error
}

// Best returns the top format by average views with at least minVideos
// samples, or nil when none qualifies.
func (r *FormatRepository) Best(ctx context.Context, minVideos int) (*models.FormatPerformance, error) {
	var row models.FormatPerformance
	err := r.db.WithContext(ctx).
		Where("total_videos >= ?", minVideos).
		Order("avg_views DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// All returns every format aggregate, best average views first
func (r *FormatRepository) All(ctx context.Context) ([]models.FormatPerformance, error) {
	var rows []models.FormatPerformance
	err := r.db.WithContext(ctx).
		Order("avg_views DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
