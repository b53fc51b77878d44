// Package pipeline defines the boundary contract with the video production
// subsystem (script generation, rendering, upload). The scheduling core
// only dispatches runs and persists results; everything between is an
// external collaborator.
package pipeline

import "context"

// Request describes one production run the scheduler wants executed.
type Request struct {
	RunID         string   `json:"run_id"`
	Format        string   `json:"format,omitempty"`
	TopicHint     string   `json:"topic_hint,omitempty"`
	ViralFollowup bool     `json:"viral_followup,omitempty"`
	UsedTopics    []string `json:"used_topics,omitempty"`
	UsedHooks     []string `json:"used_hooks,omitempty"`
}

// Script is the structured script object produced by generation.
type Script struct {
	Format         string `json:"format"`
	Topic          string `json:"topic"`
	HookText       string `json:"hook_text"`
	VoiceType      string `json:"voice_type"`
	SuggestedMusic string `json:"suggested_music"`
}

// Result reports a completed production run.
type Result struct {
	RunID      string `json:"run_id"`
	Script     Script `json:"script"`
	OutputPath string `json:"output_path"`
	YouTubeID  string `json:"youtube_id,omitempty"`
	TikTokID   string `json:"tiktok_id,omitempty"`
}

// Runner executes one full production run to completion.
type Runner interface {
	Run(ctx context.Context, req Request) (*Result, error)
}
