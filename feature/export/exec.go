package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"asset-pipeline/core/asset"
)

// ExecConverter runs converter executables. The request is written as JSON to
// stdin and the result is read as JSON from stdout.
type ExecConverter struct {
	ModelTool   string
	TextureTool string
	// Timeout bounds one invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// NewExecConverter creates a converter from the export configuration.
func NewExecConverter(cfg Config) *ExecConverter {
	return &ExecConverter{
		ModelTool:   cfg.ModelTool,
		TextureTool: cfg.TextureTool,
		Timeout:     cfg.ToolTimeout,
	}
}

func (e *ExecConverter) tool(kind asset.Kind) string {
	if kind == asset.KindTexture {
		return e.TextureTool
	}
	return e.ModelTool
}

// Convert invokes the tool for req.Kind.
func (e *ExecConverter) Convert(ctx context.Context, req Request) (*Result, error) {
	tool := e.tool(req.Kind)
	if tool == "" {
		return nil, fmt.Errorf("no converter configured for %s", req.Kind)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode converter request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, "--json")
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that keep the pipes open must not hold Run after the kill.
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()

	var res Result
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &res); err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("%s failed: %w: %s", tool, runErr, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("decode %s output: %w", tool, err)
	}
	if runErr != nil && res.Success {
		// A non-zero exit overrides a success report.
		res.Success = false
		if res.Error == "" {
			res.Error = runErr.Error()
		}
	}
	return &res, nil
}
