package scheduler

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/analytics"
	"github.com/darkmind/darkmind/internal/topics"
)

// Probability bands for the topic-source roll: remix a proven winner 30%
// of the time, ride a trend 50%, leave the rest free-form so the system
// never locks into its own filter bubble.
const (
	remixBand = 0.30
	trendBand = 0.80
)

// Decision is what the next run should produce.
type Decision struct {
	Format        string
	TopicHint     string
	ViralFollowup bool
}

// NextDecision picks the format and topic hint for the next run. Viral
// follow-ups take absolute priority; otherwise the best learned format (or
// a random one with no data) is paired with a remixed winner, a trending
// topic, or nothing at all depending on the roll.
func (s *Scheduler) NextDecision(ctx context.Context) Decision {
	if candidates := s.store.ViralCandidates(ctx); len(candidates) > 0 {
		best := candidates[0]
		s.logger.Info("Viral follow-up triggered",
			zap.String("topic", best.Topic),
			zap.Int64("views", best.Views))
		return Decision{
			Format:        best.Format,
			TopicHint:     best.Topic,
			ViralFollowup: true,
		}
	}

	format, ok := s.store.BestFormat(ctx)
	if !ok {
		// No analytics data yet: rotate formats uniformly.
		format = analytics.Formats[s.rand.Intn(len(analytics.Formats))]
	}

	pumped := s.store.PumpedTopics(ctx, format)

	var trending []string
	if s.trends != nil {
		if all, err := s.trends.TrendingTopics(ctx); err != nil {
			s.logger.Debug("Trend fetch skipped", zap.Error(err))
		} else {
			trending = all[format]
		}
	}

	decision := Decision{Format: format}
	roll := s.rand.Float64()
	switch {
	case len(pumped) > 0 && roll < remixBand:
		base := pumped[s.rand.Intn(len(pumped))]
		decision.TopicHint = "new angle on: " + base
		s.logger.Info("Remixing pumped winner", zap.String("base", base))
	case len(trending) > 0 && roll < trendBand:
		decision.TopicHint = trending[s.rand.Intn(len(trending))]
		s.logger.Info("Using trending topic", zap.String("topic", decision.TopicHint))
	default:
		s.logger.Info("Free-form run", zap.String("format", format))
	}
	return decision
}

// PickFreshTopic ranks formats by their average trend viral score (random
// 40-70 when no data, so formats still rotate), adds a ±10 jitter to
// prevent a narrow data edge from locking one format in, then walks each
// format's candidate topics through the freshness filter. Returns the
// first fresh (topic, format) pair.
func (s *Scheduler) PickFreshTopic(ctx context.Context, trending map[string][]string, history analytics.TopicHistory) (string, string, bool) {
	scores := make(map[string]float64, len(analytics.Formats))

	for _, format := range analytics.Formats {
		var avg float64
		var ok bool
		if s.trends != nil {
			if research, err := s.trends.IntelligenceFor(ctx, format); err == nil {
				avg, ok = research.AverageViralScore()
			}
		}
		if !ok {
			avg = 40 + s.rand.Float64()*30
		}
		scores[format] = avg
	}

	jittered := make(map[string]float64, len(scores))
	for format, score := range scores {
		jittered[format] = score + s.rand.Float64()*20 - 10
	}

	ranked := append([]string(nil), analytics.Formats...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return jittered[ranked[i]] > jittered[ranked[j]]
	})
	s.logger.Info("Format ranking this run", zap.Strings("order", ranked))

	for _, format := range ranked {
		var candidates []string
		if s.trends != nil {
			if research, err := s.trends.IntelligenceFor(ctx, format); err == nil && research != nil {
				if research.BestTopicRightNow != "" {
					candidates = append(candidates, research.BestTopicRightNow)
				}
				main := research.MainTopics
				if len(main) > 4 {
					main = main[:4]
				}
				candidates = append(candidates, main...)
			}
		}
		candidates = append(candidates, trending[format]...)

		if topic, ok := topics.PickFresh(candidates, history.Used, history.Pumped); ok {
			return topic, format, true
		}
	}
	return "", "", false
}
