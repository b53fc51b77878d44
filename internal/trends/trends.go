// Package trends defines the boundary contract with the external
// trend-intelligence subsystem. The scheduler treats trend data as
// best-effort: a nil or failing provider degrades to randomized format
// scores so rotation still happens with zero data.
package trends

import "context"

// Angle is one suggested topic angle with an estimated viral score (0-100).
type Angle struct {
	Topic      string  `json:"topic"`
	WhyItWorks string  `json:"why_it_works"`
	ViralScore float64 `json:"viral_score"`
}

// Intelligence is the per-format output of trend research.
type Intelligence struct {
	MainTopics        []string `json:"main_topics"`
	ViralAngles       []Angle  `json:"viral_angles"`
	BestTopicRightNow string   `json:"best_topic_right_now"`
}

// AverageViralScore averages the angle scores; ok is false with no angles.
func (i *Intelligence) AverageViralScore() (float64, bool) {
	if i == nil || len(i.ViralAngles) == 0 {
		return 0, false
	}
	var sum float64
	for _, angle := range i.ViralAngles {
		sum += angle.ViralScore
	}
	return sum / float64(len(i.ViralAngles)), true
}

// Provider supplies trend intelligence per content format.
type Provider interface {
	// IntelligenceFor returns research for one format.
	IntelligenceFor(ctx context.Context, format string) (*Intelligence, error)
	// TrendingTopics returns ranked topic lists keyed by format.
	TrendingTopics(ctx context.Context) (map[string][]string, error)
}
