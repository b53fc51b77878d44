package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/analytics"
	"github.com/darkmind/darkmind/internal/pipeline"
	"github.com/darkmind/darkmind/internal/stats"
	"github.com/darkmind/darkmind/pkg/config"
	"github.com/darkmind/darkmind/pkg/logging"
	"github.com/darkmind/darkmind/pkg/telemetry"
)

// errBackoff is how long the loop sleeps after an internal error before
// resuming; the loop itself never exits on a transient failure.
const errBackoff = time.Minute

// Loop is the cooperative polling loop: a light tick every TickInterval, a
// full gate check every CheckInterval, and a stats refresh every
// StatsFetchInterval. At most one production run is in flight at a time;
// the gate's same-hour lockout and daily cap enforce that without a mutex
// around the pipeline itself.
type Loop struct {
	scheduler *Scheduler
	store     *analytics.Store
	runner    pipeline.Runner
	fetcher   *stats.Fetcher
	schedCfg  config.SchedulerConfig
	statsCfg  config.StatsConfig
	logger    *zap.Logger

	now            func() time.Time
	lastCheck      time.Time
	lastStatsFetch time.Time
}

// NewLoop assembles the scheduling loop. The stats fetcher may be nil.
func NewLoop(sched *Scheduler, store *analytics.Store, runner pipeline.Runner, fetcher *stats.Fetcher, schedCfg config.SchedulerConfig, statsCfg config.StatsConfig) *Loop {
	return &Loop{
		scheduler: sched,
		store:     store,
		runner:    runner,
		fetcher:   fetcher,
		schedCfg:  schedCfg,
		statsCfg:  statsCfg,
		logger:    logging.WithComponent("scheduler-loop"),
		now:       time.Now,
	}
}

// Run drives the loop until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("Starting scheduler loop",
		zap.Int("active_start", l.schedCfg.ActiveHoursStart),
		zap.Int("active_end", l.schedCfg.ActiveHoursEnd),
		zap.Duration("check_interval", l.schedCfg.CheckInterval))

	l.logger.Info("Analytics at startup",
		zap.String("summary", l.store.Summary(ctx).Render()))

	// The current hour may already be a scheduled slot; fire right away
	// instead of waiting a full check interval.
	if ok, _ := l.scheduler.ShouldRunNow(ctx); ok {
		l.logger.Info("Current hour is a scheduled slot, running immediately")
		if err := l.RunOnce(ctx, false); err != nil {
			l.logger.Error("Immediate run failed", zap.Error(err))
		}
	}
	l.lastCheck = l.now()

	ticker := time.NewTicker(l.schedCfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Scheduler loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := l.tick(ctx); err != nil {
				l.logger.Error("Scheduler loop error", zap.Error(err))
				l.wait(ctx, errBackoff)
			}
		}
	}
}

// tick runs one light iteration: a gate check when the check interval has
// elapsed, then the stats timer.
func (l *Loop) tick(ctx context.Context) error {
	if l.now().Sub(l.lastCheck) >= l.schedCfg.CheckInterval {
		l.lastCheck = l.now()
		if ok, reason := l.scheduler.ShouldRunNow(ctx); ok {
			if err := l.RunOnce(ctx, false); err != nil {
				return err
			}
		} else {
			l.logger.Debug("Skipping run", zap.String("reason", reason))
		}
	}

	l.maybeFetchStats(ctx)
	return nil
}

// RunOnce executes one full decision + production cycle. With force set
// the gate is bypassed (manual trigger).
func (l *Loop) RunOnce(ctx context.Context, force bool) error {
	if !force {
		ok, reason := l.scheduler.ShouldRunNow(ctx)
		if !ok {
			l.logger.Info("Run skipped", zap.String("reason", reason))
			return nil
		}
	}

	ctx, span := telemetry.StartSpan(ctx, "scheduler.run_once")
	defer span.End()

	decision := l.scheduler.NextDecision(ctx)
	history := l.store.UsedTopics(ctx)
	hooks := l.store.RecentHooks(ctx, 20)

	// With no hint yet, let trend intelligence pick the best fresh topic.
	// Viral follow-ups skip research: same topic, new script.
	if decision.TopicHint == "" && !decision.ViralFollowup {
		if trending := l.trendingTopics(ctx); len(trending) > 0 {
			if topic, format, ok := l.scheduler.PickFreshTopic(ctx, trending, history); ok {
				decision.TopicHint = topic
				decision.Format = format
				l.logger.Info("Picked fresh topic",
					zap.String("topic", topic), zap.String("format", format))
			} else if fallback := oldestKnownTopic(trending, history); fallback != "" {
				// Never block a scheduled run for lack of a fresh topic.
				decision.TopicHint = fallback
				l.logger.Warn("All topics used before, reusing oldest",
					zap.String("topic", fallback))
			}
		}
	}

	runID := uuid.NewString()
	result, err := l.runner.Run(ctx, pipeline.Request{
		RunID:         runID,
		Format:        decision.Format,
		TopicHint:     decision.TopicHint,
		ViralFollowup: decision.ViralFollowup,
		UsedTopics:    history.Used,
		UsedHooks:     hooks,
	})
	if err != nil {
		l.logger.Error("Pipeline run failed", zap.String("run_id", runID), zap.Error(err))
		return err
	}

	if err := l.store.RecordCreated(ctx, result.RunID, analytics.VideoInfo{
		Format:         result.Script.Format,
		Topic:          result.Script.Topic,
		HookText:       result.Script.HookText,
		VoiceType:      result.Script.VoiceType,
		SuggestedMusic: result.Script.SuggestedMusic,
	}, result.OutputPath); err != nil {
		l.logger.Error("Failed to record video", zap.Error(err))
	}

	if result.YouTubeID != "" || result.TikTokID != "" {
		if err := l.store.SavePlatformIDs(ctx, result.RunID, result.YouTubeID, result.TikTokID); err != nil {
			l.logger.Error("Failed to save platform IDs", zap.Error(err))
		}
	}

	l.scheduler.MarkRun(ctx)
	// The pipeline fetches stats right after upload; push the periodic
	// timer forward so it does not immediately re-fetch.
	l.lastStatsFetch = l.now()

	l.logger.Info("Run complete",
		zap.String("run_id", result.RunID),
		zap.String("topic", result.Script.Topic),
		zap.String("output", result.OutputPath))
	return nil
}

// maybeFetchStats refreshes platform stats when the fetch interval has
// elapsed. Failures are logged and retried on the next interval.
func (l *Loop) maybeFetchStats(ctx context.Context) {
	if l.fetcher == nil {
		return
	}
	if l.now().Sub(l.lastStatsFetch) < l.statsCfg.FetchInterval {
		return
	}
	l.logger.Info("Periodic stats fetch")
	l.fetcher.FetchAndUpdateAll(ctx)
	l.lastStatsFetch = l.now()
}

// trendingTopics asks the trend provider for ranked topics; absence or
// failure degrades to nil.
func (l *Loop) trendingTopics(ctx context.Context) map[string][]string {
	if l.scheduler.trends == nil {
		return nil
	}
	trending, err := l.scheduler.trends.TrendingTopics(ctx)
	if err != nil {
		l.logger.Warn("Trend research skipped", zap.Error(err))
		return nil
	}
	return trending
}

// oldestKnownTopic is the worse-than-nothing fallback when every candidate
// is stale: the first scraped topic, else the oldest topic on record.
func oldestKnownTopic(trending map[string][]string, history analytics.TopicHistory) string {
	for _, format := range analytics.Formats {
		for _, topic := range trending[format] {
			if topic != "" {
				return topic
			}
		}
	}
	if n := len(history.Used); n > 0 {
		// Used topics are newest-first.
		return history.Used[n-1]
	}
	return ""
}

// wait sleeps for the duration or until the context is cancelled.
func (l *Loop) wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
