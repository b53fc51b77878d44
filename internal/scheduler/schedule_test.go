package scheduler

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/analytics"
	"github.com/darkmind/darkmind/pkg/config"
)

// tuesdayNoon is a fixed Tuesday for deterministic weekday priors.
var tuesdayNoon = time.Date(2025, 6, 10, 12, 30, 0, 0, time.UTC)

type stubAnalytics struct {
	bestHours  []int
	confidence analytics.Confidence
	todayCount int64
	bestFormat string
	bestOK     bool
	pumped     map[string][]string
	candidates []analytics.ViralCandidate
}

func (a *stubAnalytics) BestHoursForDay(ctx context.Context, day time.Weekday, n int) []int {
	return a.bestHours
}
func (a *stubAnalytics) HourConfidence(ctx context.Context, day time.Weekday) analytics.Confidence {
	return a.confidence
}
func (a *stubAnalytics) TodayVideoCount(ctx context.Context) int64 { return a.todayCount }
func (a *stubAnalytics) BestFormat(ctx context.Context) (string, bool) {
	return a.bestFormat, a.bestOK
}
func (a *stubAnalytics) PumpedTopics(ctx context.Context, format string) []string {
	return a.pumped[format]
}
func (a *stubAnalytics) ViralCandidates(ctx context.Context) []analytics.ViralCandidate {
	return a.candidates
}

type stubSettings struct{ max int }

func (s stubSettings) MaxVideosPerDay() int { return s.max }

func newTestScheduler(store Analytics, maxPerDay int) *Scheduler {
	s := &Scheduler{
		store:    store,
		settings: stubSettings{max: maxPerDay},
		cfg: config.SchedulerConfig{
			ActiveHoursStart: 6,
			ActiveHoursEnd:   23,
		},
		logger:      zap.NewNop(),
		now:         func() time.Time { return tuesdayNoon },
		rand:        rand.New(rand.NewSource(1)),
		lastRunHour: -1,
	}
	return s
}

func atTime(s *Scheduler, at time.Time) {
	s.now = func() time.Time { return at }
}

func TestShouldRunNow_OutsideActiveHours(t *testing.T) {
	s := newTestScheduler(&stubAnalytics{}, 4)
	atTime(s, time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC))

	ok, reason := s.ShouldRunNow(context.Background())
	if ok || !strings.Contains(reason, "outside active hours") {
		t.Errorf("ShouldRunNow at 03:00 = (%v, %q)", ok, reason)
	}
}

func TestShouldRunNow_DailyCap(t *testing.T) {
	s := newTestScheduler(&stubAnalytics{todayCount: 2}, 2)

	ok, reason := s.ShouldRunNow(context.Background())
	if ok || reason != "daily cap reached (2/2)" {
		t.Errorf("ShouldRunNow at cap = (%v, %q)", ok, reason)
	}
}

func TestShouldRunNow_AlreadyRanThisHour(t *testing.T) {
	s := newTestScheduler(&stubAnalytics{bestHours: []int{12}}, 4)
	ctx := context.Background()

	s.MarkRun(ctx)
	ok, reason := s.ShouldRunNow(ctx)
	if ok || reason != "already ran this hour" {
		t.Errorf("ShouldRunNow after MarkRun = (%v, %q)", ok, reason)
	}
}

func TestShouldRunNow_NotAScheduledSlot(t *testing.T) {
	// Learned hour 19, Tuesday priors fill; cap 3 keeps {7, 8, 12}... the
	// learned hour lands first in combination but slots are sorted, so the
	// timetable is the three earliest distinct hours: 7, 8, 12.
	s := newTestScheduler(&stubAnalytics{bestHours: []int{19}}, 3)
	ctx := context.Background()

	slots := s.TodaySchedule(ctx)
	if len(slots) != 3 {
		t.Fatalf("Expected 3 slots, got %v", slots)
	}

	// 14:30 is past every scheduled hour that remains.
	atTime(s, time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC))
	ok, reason := s.ShouldRunNow(ctx)
	if ok || !strings.Contains(reason, "none remaining today") {
		t.Errorf("ShouldRunNow at 14:30 = (%v, %q)", ok, reason)
	}

	// 10:00 is between slots; the next one must be named.
	atTime(s, time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC))
	ok, reason = s.ShouldRunNow(ctx)
	if ok || !strings.Contains(reason, "not a scheduled slot, next: 12:") {
		t.Errorf("ShouldRunNow at 10:00 = (%v, %q)", ok, reason)
	}
}

func TestShouldRunNow_JitterMinute(t *testing.T) {
	s := newTestScheduler(&stubAnalytics{}, 6)
	ctx := context.Background()

	slots := s.TodaySchedule(ctx)
	if len(slots) == 0 {
		t.Fatal("Expected a non-empty schedule")
	}
	slot := slots[0]
	if slot.Minute < 5 || slot.Minute > 55 {
		t.Fatalf("Slot minute %d outside jitter range [5,55]", slot.Minute)
	}

	// Before the jittered minute: wait.
	atTime(s, time.Date(2025, 6, 10, slot.Hour, 0, 0, 0, time.UTC))
	ok, reason := s.ShouldRunNow(ctx)
	if ok || !strings.Contains(reason, "waiting for") {
		t.Errorf("ShouldRunNow before jitter minute = (%v, %q)", ok, reason)
	}

	// At or past the jittered minute: fire.
	atTime(s, time.Date(2025, 6, 10, slot.Hour, slot.Minute, 0, 0, time.UTC))
	ok, reason = s.ShouldRunNow(ctx)
	if !ok || reason != "ok" {
		t.Errorf("ShouldRunNow at jitter minute = (%v, %q)", ok, reason)
	}
}

func TestTodaySchedule_SortedWithinWindowAndCapped(t *testing.T) {
	// Learned hour 2 is outside the active window and must be dropped.
	s := newTestScheduler(&stubAnalytics{bestHours: []int{22, 2, 7}}, 4)

	slots := s.TodaySchedule(context.Background())
	if len(slots) == 0 || len(slots) > 4 {
		t.Fatalf("Schedule length %d, want 1..4", len(slots))
	}
	for i, slot := range slots {
		if slot.Hour < 6 || slot.Hour >= 23 {
			t.Errorf("Slot %v outside active window", slot)
		}
		if slot.Minute < 5 || slot.Minute > 55 {
			t.Errorf("Slot %v minute outside jitter range", slot)
		}
		if i > 0 && slots[i-1].Hour >= slot.Hour {
			t.Errorf("Slots not sorted: %v", slots)
		}
	}
}

func TestDateRollover_ResetsCounterAndHourLock(t *testing.T) {
	store := &stubAnalytics{}
	s := newTestScheduler(store, 1)
	ctx := context.Background()

	s.MarkRun(ctx)

	// Same hour: the hour lock fires before the cap is even consulted.
	ok, reason := s.ShouldRunNow(ctx)
	if ok || reason != "already ran this hour" {
		t.Fatalf("Expected hour lock after MarkRun, got (%v, %q)", ok, reason)
	}

	// One hour later the lock is gone and the cap takes over.
	atTime(s, tuesdayNoon.Add(time.Hour))
	ok, reason = s.ShouldRunNow(ctx)
	if ok || !strings.Contains(reason, "daily cap reached") {
		t.Fatalf("Expected cap in the next hour, got (%v, %q)", ok, reason)
	}

	// Next day, same wall-clock hour. The counter re-derives from the
	// store and the hour lock resets.
	atTime(s, tuesdayNoon.Add(24*time.Hour))
	ok, reason = s.ShouldRunNow(ctx)
	if !ok && (strings.Contains(reason, "daily cap") || reason == "already ran this hour") {
		t.Errorf("Rollover did not reset state: (%v, %q)", ok, reason)
	}
}

func TestDateRollover_ReconcilesFromStore(t *testing.T) {
	store := &stubAnalytics{}
	s := newTestScheduler(store, 2)
	ctx := context.Background()

	s.ShouldRunNow(ctx) // pins today's date

	// A restart-like rollover with two videos already in the store today.
	store.todayCount = 2
	atTime(s, tuesdayNoon.Add(24*time.Hour))
	ok, reason := s.ShouldRunNow(ctx)
	if ok || reason != "daily cap reached (2/2)" {
		t.Errorf("Expected store-derived cap after rollover, got (%v, %q)", ok, reason)
	}
}
