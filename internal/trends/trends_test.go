package trends

import (
	"context"
	"errors"
	"testing"
)

func TestAverageViralScore(t *testing.T) {
	tests := []struct {
		name  string
		intel *Intelligence
		want  float64
		ok    bool
	}{
		{"nil intelligence", nil, 0, false},
		{"no angles", &Intelligence{}, 0, false},
		{
			"averages scores",
			&Intelligence{ViralAngles: []Angle{
				{Topic: "a", ViralScore: 80},
				{Topic: "b", ViralScore: 60},
			}},
			70, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.intel.AverageViralScore()
			if got != tt.want || ok != tt.ok {
				t.Errorf("AverageViralScore() = (%f, %v), want (%f, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

type countingProvider struct {
	intel     *Intelligence
	topics    map[string][]string
	err       error
	intelHits int
	topicHits int
}

func (p *countingProvider) IntelligenceFor(ctx context.Context, format string) (*Intelligence, error) {
	p.intelHits++
	return p.intel, p.err
}

func (p *countingProvider) TrendingTopics(ctx context.Context) (map[string][]string, error) {
	p.topicHits++
	return p.topics, p.err
}

func TestCachedProvider_NilCachePassThrough(t *testing.T) {
	inner := &countingProvider{
		intel:  &Intelligence{BestTopicRightNow: "hot topic"},
		topics: map[string][]string{"story_lesson": {"one"}},
	}
	provider := NewCachedProvider(inner, nil)
	ctx := context.Background()

	intel, err := provider.IntelligenceFor(ctx, "story_lesson")
	if err != nil || intel.BestTopicRightNow != "hot topic" {
		t.Errorf("IntelligenceFor = (%+v, %v)", intel, err)
	}

	topics, err := provider.TrendingTopics(ctx)
	if err != nil || len(topics["story_lesson"]) != 1 {
		t.Errorf("TrendingTopics = (%v, %v)", topics, err)
	}

	// Every call falls through with a disabled cache.
	provider.IntelligenceFor(ctx, "story_lesson")
	if inner.intelHits != 2 {
		t.Errorf("Expected 2 inner hits, got %d", inner.intelHits)
	}
}

func TestCachedProvider_PropagatesErrors(t *testing.T) {
	inner := &countingProvider{err: errors.New("upstream down")}
	provider := NewCachedProvider(inner, nil)

	if _, err := provider.IntelligenceFor(context.Background(), "story_lesson"); err == nil {
		t.Error("Expected inner error to propagate")
	}
	if _, err := provider.TrendingTopics(context.Background()); err == nil {
		t.Error("Expected inner error to propagate")
	}
}
