package analytics

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/darkmind/darkmind/internal/db"
	"github.com/darkmind/darkmind/pkg/config"
)

// baseTime is a Tuesday evening; tests shift around it as needed.
var baseTime = time.Date(2025, 6, 10, 19, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := &config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "test.db")}
	database, err := db.New(cfg, "ERROR")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := NewStore(database)
	store.now = func() time.Time { return baseTime }
	store.rand = rand.New(rand.NewSource(1))
	return store
}

func setNow(store *Store, at time.Time) {
	store.now = func() time.Time { return at }
}

func mustCreate(t *testing.T, store *Store, runID, format, topic string, at time.Time) {
	t.Helper()
	setNow(store, at)
	info := VideoInfo{Format: format, Topic: topic, HookText: "hook " + runID}
	if err := store.RecordCreated(context.Background(), runID, info, "/out/"+runID+".mp4"); err != nil {
		t.Fatalf("RecordCreated(%s) failed: %v", runID, err)
	}
}

func mustMeasure(t *testing.T, store *Store, runID string, views, likes int64) {
	t.Helper()
	if err := store.MetricsUpdated(context.Background(), runID, Metrics{Views: views, Likes: likes}); err != nil {
		t.Fatalf("MetricsUpdated(%s) failed: %v", runID, err)
	}
}

func TestRecordCreated_DuplicateRunID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, "run-1", "story_lesson", "original topic", baseTime)
	// Same run ID again must be a no-op, not an overwrite or an error.
	info := VideoInfo{Format: "scary_truth", Topic: "replacement topic"}
	if err := store.RecordCreated(ctx, "run-1", info, "/out/other.mp4"); err != nil {
		t.Fatalf("Duplicate RecordCreated returned error: %v", err)
	}

	videos := store.RecentVideos(ctx, 10)
	if len(videos) != 1 {
		t.Fatalf("Expected 1 video after duplicate insert, got %d", len(videos))
	}
	if videos[0].Topic != "original topic" {
		t.Errorf("Duplicate insert overwrote record: topic = %q", videos[0].Topic)
	}
	if videos[0].PostHour != 19 || videos[0].PostDayOfWeek != int(time.Tuesday) {
		t.Errorf("Expected post hour 19 on Tuesday, got hour %d day %d",
			videos[0].PostHour, videos[0].PostDayOfWeek)
	}
}

func TestMetricsUpdated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, "run-1", "story_lesson", "topic one", baseTime)
	err := store.MetricsUpdated(ctx, "run-1", Metrics{
		Views: 12000, Likes: 600, Comments: 300, Shares: 300, WatchTimeAvg: 21.5,
	})
	if err != nil {
		t.Fatalf("MetricsUpdated failed: %v", err)
	}

	videos := store.RecentVideos(ctx, 1)
	if len(videos) != 1 {
		t.Fatal("Expected one video")
	}
	v := videos[0]
	if v.Views != 12000 || v.Likes != 600 {
		t.Errorf("Counters not stored: views=%d likes=%d", v.Views, v.Likes)
	}
	// (600+300+300)/12000 * 100 = 10.0
	if v.EngagementRate < 9.99 || v.EngagementRate > 10.01 {
		t.Errorf("EngagementRate = %f, want 10.0", v.EngagementRate)
	}
	if !v.Pumped {
		t.Error("12000 views should mark the video pumped")
	}
	if v.LastStatsFetch != baseTime.Unix() {
		t.Errorf("LastStatsFetch = %d, want %d", v.LastStatsFetch, baseTime.Unix())
	}
}

func TestMetricsUpdated_BelowThreshold(t *testing.T) {
	store := newTestStore(t)

	mustCreate(t, store, "run-1", "story_lesson", "topic one", baseTime)
	mustMeasure(t, store, "run-1", 9999, 100)

	v := store.RecentVideos(context.Background(), 1)[0]
	if v.Pumped {
		t.Error("9999 views must not mark the video pumped")
	}
}

func TestMetricsUpdated_UnknownRun(t *testing.T) {
	store := newTestStore(t)

	if err := store.MetricsUpdated(context.Background(), "nope", Metrics{Views: 1}); err == nil {
		t.Error("Expected error for unknown run ID")
	}
}

func TestBestPostHour(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// No data: falls back to a prior hour for the current weekday (Tuesday).
	got := store.BestPostHour(ctx)
	priors := map[int]bool{7: true, 8: true, 12: true, 19: true, 20: true, 21: true}
	if !priors[got] {
		t.Errorf("BestPostHour with no data = %d, want a Tuesday prior hour", got)
	}

	// Hour 19 gets three high-engagement videos, hour 20 three weak ones.
	at19 := time.Date(2025, 6, 10, 19, 0, 0, 0, time.UTC)
	at20 := time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC)
	for i, run := range []string{"a", "b", "c"} {
		mustCreate(t, store, "hi-"+run, "story_lesson", "", at19.Add(time.Duration(i)*time.Minute))
		mustMeasure(t, store, "hi-"+run, 1000, 200)
	}
	for i, run := range []string{"a", "b", "c"} {
		mustCreate(t, store, "lo-"+run, "story_lesson", "", at20.Add(time.Duration(i)*time.Minute))
		mustMeasure(t, store, "lo-"+run, 1000, 10)
	}

	if got := store.BestPostHour(ctx); got != 19 {
		t.Errorf("BestPostHour = %d, want 19", got)
	}
}

func TestBestFormat(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok := store.BestFormat(ctx); ok {
		t.Error("BestFormat with no data should report ok=false")
	}

	// Two measured videos are below the sample floor.
	for i := 0; i < 2; i++ {
		run := "few-" + string(rune('a'+i))
		mustCreate(t, store, run, "scary_truth", "", baseTime.Add(time.Duration(i)*time.Minute))
		mustMeasure(t, store, run, 9000, 10)
	}
	if _, ok := store.BestFormat(ctx); ok {
		t.Error("Two samples should not qualify a format")
	}

	// Three measured story_lesson videos with higher average views win.
	for i := 0; i < 3; i++ {
		run := "win-" + string(rune('a'+i))
		mustCreate(t, store, run, "story_lesson", "", baseTime.Add(time.Duration(10+i)*time.Minute))
		mustMeasure(t, store, run, 20000, 10)
	}
	run := "few-c"
	mustCreate(t, store, run, "scary_truth", "", baseTime.Add(20*time.Minute))
	mustMeasure(t, store, run, 9000, 10)

	format, ok := store.BestFormat(ctx)
	if !ok || format != "story_lesson" {
		t.Errorf("BestFormat = (%q, %v), want (story_lesson, true)", format, ok)
	}
}

func TestPumpedTopics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, "run-1", "story_lesson", "second best", baseTime)
	mustMeasure(t, store, "run-1", 15000, 100)
	mustCreate(t, store, "run-2", "story_lesson", "top topic", baseTime.Add(time.Minute))
	mustMeasure(t, store, "run-2", 50000, 100)
	mustCreate(t, store, "run-3", "story_lesson", "never pumped", baseTime.Add(2*time.Minute))
	mustMeasure(t, store, "run-3", 500, 100)
	mustCreate(t, store, "run-4", "scary_truth", "other format", baseTime.Add(3*time.Minute))
	mustMeasure(t, store, "run-4", 90000, 100)

	got := store.PumpedTopics(ctx, "story_lesson")
	want := []string{"top topic", "second best"}
	if len(got) != len(want) {
		t.Fatalf("PumpedTopics = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PumpedTopics[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUsedTopics(t *testing.T) {
	store := newTestStore(t)

	mustCreate(t, store, "run-1", "story_lesson", "oldest topic", baseTime)
	mustMeasure(t, store, "run-1", 15000, 100)
	mustCreate(t, store, "run-2", "story_lesson", "middle topic", baseTime.Add(time.Hour))
	mustCreate(t, store, "run-3", "story_lesson", "newest topic", baseTime.Add(2*time.Hour))

	history := store.UsedTopics(context.Background())
	wantUsed := []string{"newest topic", "middle topic", "oldest topic"}
	if len(history.Used) != 3 {
		t.Fatalf("Used = %v, want %v", history.Used, wantUsed)
	}
	for i := range wantUsed {
		if history.Used[i] != wantUsed[i] {
			t.Errorf("Used[%d] = %q, want %q", i, history.Used[i], wantUsed[i])
		}
	}
	if len(history.Pumped) != 1 || history.Pumped[0] != "oldest topic" {
		t.Errorf("Pumped = %v, want [oldest topic]", history.Pumped)
	}
}

func TestViralCandidates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, "run-1", "story_lesson", "viral topic", baseTime)
	mustMeasure(t, store, "run-1", 50000, 100)

	candidates := store.ViralCandidates(ctx)
	if len(candidates) != 1 || candidates[0].RunID != "run-1" {
		t.Fatalf("Expected run-1 as the only viral candidate, got %v", candidates)
	}
	if candidates[0].Views != 50000 || candidates[0].Topic != "viral topic" {
		t.Errorf("Candidate fields wrong: %+v", candidates[0])
	}

	// A strictly later video on the exact same topic retires the candidate.
	mustCreate(t, store, "run-2", "story_lesson", "viral topic", baseTime.Add(time.Hour))

	if candidates := store.ViralCandidates(ctx); len(candidates) != 0 {
		t.Errorf("Expected no candidates after follow-up, got %v", candidates)
	}
}

func TestTodayVideoCount(t *testing.T) {
	store := newTestStore(t)

	yesterday := baseTime.Add(-24 * time.Hour)
	mustCreate(t, store, "old", "story_lesson", "", yesterday)
	mustCreate(t, store, "am", "story_lesson", "", time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	mustCreate(t, store, "pm", "story_lesson", "", time.Date(2025, 6, 10, 19, 0, 0, 0, time.UTC))

	setNow(store, baseTime)
	if got := store.TodayVideoCount(context.Background()); got != 2 {
		t.Errorf("TodayVideoCount = %d, want 2", got)
	}
}

func TestBestHoursForDay_DaySpecific(t *testing.T) {
	store := newTestStore(t)

	// Two measured Tuesday videos per hour: hour 19 strong, hour 12 weak.
	for i, hour := range []int{19, 19, 12, 12} {
		run := "tue-" + string(rune('a'+i))
		at := time.Date(2025, 6, 10, hour, i, 0, 0, time.UTC)
		mustCreate(t, store, run, "story_lesson", "", at)
		likes := int64(10)
		if hour == 19 {
			likes = 200
		}
		mustMeasure(t, store, run, 1000, likes)
	}

	got := store.BestHoursForDay(context.Background(), time.Tuesday, 3)
	if len(got) != 2 || got[0] != 19 || got[1] != 12 {
		t.Errorf("BestHoursForDay = %v, want [19 12]", got)
	}
}

func TestBestHoursForDay_CrossDayFallback(t *testing.T) {
	store := newTestStore(t)

	// Three measured Monday videos at hour 8; nothing on Tuesday.
	monday := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := "mon-" + string(rune('a'+i))
		mustCreate(t, store, run, "story_lesson", "", monday.Add(time.Duration(i)*time.Minute))
		mustMeasure(t, store, run, 1000, 100)
	}

	got := store.BestHoursForDay(context.Background(), time.Tuesday, 3)
	if len(got) != 1 || got[0] != 8 {
		t.Errorf("BestHoursForDay = %v, want cross-day fallback [8]", got)
	}
}

func TestBestHoursForDay_NoData(t *testing.T) {
	store := newTestStore(t)

	if got := store.BestHoursForDay(context.Background(), time.Tuesday, 3); len(got) != 0 {
		t.Errorf("BestHoursForDay with no data = %v, want empty", got)
	}
}

func TestHourConfidence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conf := store.HourConfidence(ctx, time.Tuesday)
	if conf.Tier != TierPsychology || conf.DataDriven {
		t.Errorf("Empty store confidence = %+v, want psychology tier", conf)
	}

	// Six measured Monday videos: cross-day for Tuesday.
	monday := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		run := "mon-" + string(rune('a'+i))
		mustCreate(t, store, run, "story_lesson", "", monday.Add(time.Duration(i)*time.Minute))
		mustMeasure(t, store, run, 1000, 50)
	}
	conf = store.HourConfidence(ctx, time.Tuesday)
	if conf.Tier != TierCrossDay || !conf.DataDriven {
		t.Errorf("Confidence = %+v, want cross-day tier", conf)
	}

	// Four measured Tuesday videos: day-specific.
	for i := 0; i < 4; i++ {
		run := "tue-" + string(rune('a'+i))
		mustCreate(t, store, run, "story_lesson", "", baseTime.Add(time.Duration(i)*time.Minute))
		mustMeasure(t, store, run, 1000, 50)
	}
	conf = store.HourConfidence(ctx, time.Tuesday)
	if conf.Tier != TierDaySpecific || conf.DayVideos != 4 {
		t.Errorf("Confidence = %+v, want day-specific with 4 day videos", conf)
	}
}

func TestSavePlatformIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, "run-1", "story_lesson", "topic", baseTime)

	if err := store.SavePlatformIDs(ctx, "run-1", "yt123", ""); err != nil {
		t.Fatalf("SavePlatformIDs failed: %v", err)
	}
	v := store.RecentVideos(ctx, 1)[0]
	if v.YouTubeID != "yt123" || v.YouTubeURL != "https://youtube.com/shorts/yt123" {
		t.Errorf("YouTube fields = %q %q", v.YouTubeID, v.YouTubeURL)
	}

	// Setting TikTok later must not clear the YouTube fields.
	if err := store.SavePlatformIDs(ctx, "run-1", "", "tt456"); err != nil {
		t.Fatalf("SavePlatformIDs failed: %v", err)
	}
	v = store.RecentVideos(ctx, 1)[0]
	if v.YouTubeID != "yt123" {
		t.Error("YouTube ID was cleared by a TikTok-only update")
	}
	if v.TikTokURL != "https://www.tiktok.com/@/video/tt456" {
		t.Errorf("TikTok URL = %q", v.TikTokURL)
	}

	if err := store.SavePlatformIDs(ctx, "nope", "x", ""); err == nil {
		t.Error("Expected error for unknown run ID")
	}
}

func TestVideosForStatsFetch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, store, "fresh", "story_lesson", "", baseTime.Add(-time.Hour))
	mustCreate(t, store, "no-ids", "story_lesson", "", baseTime.Add(-2*time.Hour))
	mustCreate(t, store, "stale", "story_lesson", "", baseTime.Add(-40*24*time.Hour))

	for _, run := range []string{"fresh", "stale"} {
		if err := store.SavePlatformIDs(ctx, run, "yt-"+run, ""); err != nil {
			t.Fatalf("SavePlatformIDs(%s) failed: %v", run, err)
		}
	}

	setNow(store, baseTime)
	targets := store.VideosForStatsFetch(ctx, 30*24*time.Hour)
	if len(targets) != 1 || targets[0].RunID != "fresh" {
		t.Errorf("VideosForStatsFetch = %v, want only the fresh video with IDs", targets)
	}
}

func TestRebuildAggregates_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := "run-" + string(rune('a'+i))
		mustCreate(t, store, run, "story_lesson", "", baseTime.Add(time.Duration(i)*time.Minute))
		mustMeasure(t, store, run, 1000, 100)
	}

	first := store.BestPostHour(ctx)
	if err := store.RebuildAggregates(ctx); err != nil {
		t.Fatalf("RebuildAggregates failed: %v", err)
	}
	if err := store.RebuildAggregates(ctx); err != nil {
		t.Fatalf("Second RebuildAggregates failed: %v", err)
	}
	if got := store.BestPostHour(ctx); got != first {
		t.Errorf("BestPostHour changed after rebuild: %d -> %d", first, got)
	}
}
