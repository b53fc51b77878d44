package models

import "encoding/json"

// HourlyPerformance is a materialized view over videos grouped by hour of
// day. It is fully rebuilt from the base table after every metric update and
// is never an independent source of truth.
type HourlyPerformance struct {
	Hour          int     `gorm:"primaryKey;autoIncrement:false;column:hour" json:"hour"`
	AvgViews      float64 `gorm:"not null;default:0;column:avg_views" json:"avg_views"`
	AvgEngagement float64 `gorm:"not null;default:0;column:avg_engagement" json:"avg_engagement"`
	TotalVideos   int64   `gorm:"not null;default:0;column:total_videos" json:"total_videos"`
	LastUpdated   int64   `gorm:"column:last_updated" json:"last_updated"`
}

// TableName specifies the table name for HourlyPerformance
func (HourlyPerformance) TableName() string {
	return "hourly_performance"
}

// FormatPerformance is a materialized view over videos grouped by content
// format. BestTopics holds up to 10 pumped topics as a JSON array,
// most-viewed first.
type FormatPerformance struct {
	Format        string  `gorm:"primaryKey;type:varchar(32);column:format" json:"format"`
	AvgViews      float64 `gorm:"not null;default:0;column:avg_views" json:"avg_views"`
	AvgEngagement float64 `gorm:"not null;default:0;column:avg_engagement" json:"avg_engagement"`
	TotalVideos   int64   `gorm:"not null;default:0;column:total_videos" json:"total_videos"`
	BestTopics    string  `gorm:"type:text;default:'[]';column:best_topics" json:"-"`
	LastUpdated   int64   `gorm:"column:last_updated" json:"last_updated"`
}

// TableName specifies the table name for FormatPerformance
func (FormatPerformance) TableName() string {
	return "format_performance"
}

// BestTopicsList decodes the stored JSON topic list.
func (f *FormatPerformance) BestTopicsList() []string {
	var topics []string
	if err := json.Unmarshal([]byte(f.BestTopics), &topics); err != nil {
		return nil
	}
	return topics
}

// SetBestTopics encodes the topic list into the stored JSON column.
func (f *FormatPerformance) SetBestTopics(topics []string) {
	if topics == nil {
		topics = []string{}
	}
	data, err := json.Marshal(topics)
	if err != nil {
		f.BestTopics = "[]"
		return
	}
	f.BestTopics = string(data)
}
