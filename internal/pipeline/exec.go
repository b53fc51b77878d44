package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/pkg/config"
	"github.com/darkmind/darkmind/pkg/logging"
)

// ExecRunner invokes the production pipeline as an external command. The
// request is passed as JSON on stdin and the result is expected as JSON on
// stdout, so the pipeline implementation can live in any language.
type ExecRunner struct {
	command string
	timeout time.Duration
	logger  *zap.Logger
}

// NewExecRunner creates a runner for the configured pipeline command.
func NewExecRunner(cfg *config.PipelineConfig) (*ExecRunner, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("pipeline_command is not configured")
	}
	return &ExecRunner{
		command: cfg.Command,
		timeout: cfg.Timeout,
		logger:  logging.WithComponent("pipeline"),
	}, nil
}

// Run executes the pipeline command and decodes its result. Runs take
// minutes; the timeout guards against a hung render.
func (r *ExecRunner) Run(ctx context.Context, req Request) (*Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pipeline request: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.command)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("Dispatching pipeline run",
		zap.String("run_id", req.RunID),
		zap.String("topic_hint", req.TopicHint),
		zap.Bool("viral_followup", req.ViralFollowup))

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pipeline command failed: %w (stderr: %s)", err, stderr.String())
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline result: %w", err)
	}
	if result.RunID == "" {
		result.RunID = req.RunID
	}
	return &result, nil
}
