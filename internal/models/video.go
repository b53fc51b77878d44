package models

// PumpThreshold is the minimum view count for a video to count as pumped
// (gone viral). Fixed product constant.
const PumpThreshold = 10_000

// Video represents one produced video and its measured performance.
// A row is created as soon as the pipeline finishes rendering (all counts
// zero) and mutated in place whenever fresh platform metrics arrive.
// Rows are never deleted.
type Video struct {
	ID             int64   `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	RunID          string  `gorm:"type:varchar(64);uniqueIndex;not null;column:run_id" json:"run_id"`
	Format         string  `gorm:"type:varchar(32);column:format" json:"format"`
	Topic          string  `gorm:"type:text;column:topic" json:"topic"`
	HookText       string  `gorm:"type:text;column:hook_text" json:"hook_text"`
	VoiceType      string  `gorm:"type:varchar(64);column:voice_type" json:"voice_type"`
	SuggestedMusic string  `gorm:"type:varchar(64);column:suggested_music" json:"suggested_music"`
	PostHour       int     `gorm:"column:post_hour" json:"post_hour"`
	PostDayOfWeek  int     `gorm:"column:post_day_of_week" json:"post_day_of_week"`
	CreatedAt      int64   `gorm:"column:created_at" json:"created_at"`
	OutputPath     string  `gorm:"type:text;column:output_path" json:"output_path"`
	Views          int64   `gorm:"not null;default:0;column:views" json:"views"`
	Likes          int64   `gorm:"not null;default:0;column:likes" json:"likes"`
	Comments       int64   `gorm:"not null;default:0;column:comments" json:"comments"`
	Shares         int64   `gorm:"not null;default:0;column:shares" json:"shares"`
	WatchTimeAvg   float64 `gorm:"not null;default:0;column:watch_time_avg" json:"watch_time_avg"`
	EngagementRate float64 `gorm:"not null;default:0;column:engagement_rate" json:"engagement_rate"`
	Pumped         bool    `gorm:"not null;default:false;column:pumped" json:"pumped"`
	YouTubeID      string  `gorm:"type:varchar(32);default:'';column:youtube_id" json:"youtube_id"`
	TikTokID       string  `gorm:"type:varchar(32);default:'';column:tiktok_id" json:"tiktok_id"`
	YouTubeURL     string  `gorm:"type:text;default:'';column:youtube_url" json:"youtube_url"`
	TikTokURL      string  `gorm:"type:text;default:'';column:tiktok_url" json:"tiktok_url"`
	LastStatsFetch int64   `gorm:"not null;default:0;column:last_stats_fetch" json:"last_stats_fetch"`
}

// TableName specifies the table name for Video
func (Video) TableName() string {
	return "videos"
}

// ApplyMetrics overwrites the measured counters and recomputes the derived
// engagement rate and pumped flag. Post hour and day-of-week are fixed at
// creation and never touched here.
func (v *Video) ApplyMetrics(views, likes, comments, shares int64, watchTimeAvg float64) {
	v.Views = views
	v.Likes = likes
	v.Comments = comments
	v.Shares = shares
	v.WatchTimeAvg = watchTimeAvg

	denom := views
	if denom < 1 {
		denom = 1
	}
	v.EngagementRate = float64(likes+comments+shares) / float64(denom) * 100
	v.Pumped = views >= PumpThreshold
}
