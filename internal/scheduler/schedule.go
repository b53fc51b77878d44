// Package scheduler decides when the next video run fires and what it
// should be about. It blends learned posting hours from the performance
// store with static psychology priors, builds a jittered daily timetable,
// and gates runs against the active window and the daily cap.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/analytics"
	"github.com/darkmind/darkmind/internal/trends"
	"github.com/darkmind/darkmind/pkg/config"
	"github.com/darkmind/darkmind/pkg/logging"
)

// Analytics is the read surface of the performance store the scheduler
// depends on. Satisfied by *analytics.Store.
type Analytics interface {
	BestHoursForDay(ctx context.Context, day time.Weekday, n int) []int
	HourConfidence(ctx context.Context, day time.Weekday) analytics.Confidence
	TodayVideoCount(ctx context.Context) int64
	BestFormat(ctx context.Context) (string, bool)
	PumpedTopics(ctx context.Context, format string) []string
	ViralCandidates(ctx context.Context) []analytics.ViralCandidate
}

// SettingsSource supplies the runtime-editable daily cap.
type SettingsSource interface {
	MaxVideosPerDay() int
}

// Slot is one scheduled posting time. The minute is jittered so posts
// never land exactly on the hour.
type Slot struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// Scheduler owns the per-day schedule and the run gate. Its in-memory
// state (last run hour, daily counter, cached schedule) is reconciled
// against the store at every date rollover so restarts are safe.
type Scheduler struct {
	store    Analytics
	settings SettingsSource
	trends   trends.Provider
	cfg      config.SchedulerConfig
	logger   *zap.Logger

	now  func() time.Time
	rand *rand.Rand

	mu           sync.Mutex
	lastRunHour  int
	dailyDate    string
	dailyCount   int
	schedule     []Slot
	scheduleDate string
}

// New creates a scheduler. The trends provider may be nil.
func New(store Analytics, settingsStore SettingsSource, provider trends.Provider, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		store:       store,
		settings:    settingsStore,
		trends:      provider,
		cfg:         cfg,
		logger:      logging.WithComponent("scheduler"),
		now:         time.Now,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		lastRunHour: -1,
	}
}

// buildDailySchedule assembles today's posting slots: learned hours first,
// prior-table hours as filler, restricted to the active window, truncated
// to the daily cap, each with a random minute between 5 and 55.
// Callers must hold s.mu.
func (s *Scheduler) buildDailySchedule(ctx context.Context) []Slot {
	now := s.now()
	weekday := now.Weekday()
	maxVideos := s.settings.MaxVideosPerDay()

	learned := s.store.BestHoursForDay(ctx, weekday, maxVideos)
	confidence := s.store.HourConfidence(ctx, weekday)
	priors := analytics.PeakHours(weekday)

	// Learned hours first, priors fill remaining slots; order preserved,
	// duplicates dropped.
	seen := make(map[int]struct{})
	var combined []int
	for _, h := range append(append([]int{}, learned...), priors...) {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		combined = append(combined, h)
	}

	var active []int
	for _, h := range combined {
		if h >= s.cfg.ActiveHoursStart && h < s.cfg.ActiveHoursEnd {
			active = append(active, h)
		}
	}
	sort.Ints(active)
	if len(active) > maxVideos {
		active = active[:maxVideos]
	}

	slots := make([]Slot, 0, len(active))
	for _, h := range active {
		slots = append(slots, Slot{Hour: h, Minute: 5 + s.rand.Intn(51)})
	}

	rendered := make([]string, 0, len(slots))
	for _, slot := range slots {
		rendered = append(rendered, slot.String())
	}
	s.logger.Info("Built daily schedule",
		zap.String("day", weekday.String()),
		zap.Strings("slots", rendered),
		zap.String("tier", string(confidence.Tier)),
		zap.Ints("learned_hours", learned))

	return slots
}

// todaySchedule returns the cached schedule, rebuilding it lazily after a
// local-date rollover. Callers must hold s.mu.
func (s *Scheduler) todaySchedule(ctx context.Context) []Slot {
	today := s.now().Format("2006-01-02")
	if s.scheduleDate != today || len(s.schedule) == 0 {
		s.schedule = s.buildDailySchedule(ctx)
		s.scheduleDate = today
	}
	return s.schedule
}

// TodaySchedule returns a copy of today's slots for reporting surfaces.
func (s *Scheduler) TodaySchedule(ctx context.Context) []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := s.todaySchedule(ctx)
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

// dailyRunCount returns today's run counter, re-derived from the store at
// every date change so process restarts cannot under-count. Callers must
// hold s.mu.
func (s *Scheduler) dailyRunCount(ctx context.Context) int {
	today := s.now().Format("2006-01-02")
	if s.dailyDate != today {
		s.dailyDate = today
		s.dailyCount = int(s.store.TodayVideoCount(ctx))
		s.lastRunHour = -1
	}
	return s.dailyCount
}

// ShouldRunNow is the run gate. It returns whether a run should fire at
// this instant and, when not, a human-readable reason. Negative checks
// have no side effects.
func (s *Scheduler) ShouldRunNow(ctx context.Context) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if now.Hour() < s.cfg.ActiveHoursStart || now.Hour() >= s.cfg.ActiveHoursEnd {
		return false, fmt.Sprintf("outside active hours (%02d:00-%02d:00)",
			s.cfg.ActiveHoursStart, s.cfg.ActiveHoursEnd)
	}

	count := s.dailyRunCount(ctx)

	if now.Hour() == s.lastRunHour {
		return false, "already ran this hour"
	}

	maxVideos := s.settings.MaxVideosPerDay()
	if count >= maxVideos {
		return false, fmt.Sprintf("daily cap reached (%d/%d)", count, maxVideos)
	}

	schedule := s.todaySchedule(ctx)
	var current *Slot
	for i := range schedule {
		if schedule[i].Hour == now.Hour() {
			current = &schedule[i]
			break
		}
	}
	if current == nil {
		next := "none remaining today"
		for _, slot := range schedule {
			if slot.Hour > now.Hour() {
				next = slot.String()
				break
			}
		}
		return false, fmt.Sprintf("not a scheduled slot, next: %s", next)
	}

	if now.Minute() < current.Minute {
		return false, fmt.Sprintf("waiting for :%02d (now :%02d)", current.Minute, now.Minute())
	}

	return true, "ok"
}

// MarkRun records a successful run: locks out the current hour and bumps
// the daily counter.
func (s *Scheduler) MarkRun(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dailyRunCount(ctx) // roll the date forward if needed
	s.lastRunHour = s.now().Hour()
	s.dailyCount++
}
