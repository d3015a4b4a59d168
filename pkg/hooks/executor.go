package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/pandemap/pkg/debug"
)

// maxSummaryOutput caps captured output quoted in Summary.
const maxSummaryOutput = 200

// Result is the outcome of one hook run.
type Result struct {
	Hook     Hook
	Phase    Phase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs configured hooks for one export.
type Executor struct {
	config  *Config
	ctx     ExportContext
	results []Result
}

// NewExecutor creates an executor. A nil config runs nothing.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, ctx: ctx}
}

// RunPreExport runs pre-export hooks in order and stops at the first
// failing hook whose on_error is "fail".
func (e *Executor) RunPreExport(ctx context.Context) error {
	for _, hook := range e.config.Phase(PreExport) {
		res := e.run(ctx, hook, PreExport)
		if !res.Success && hook.OnError != Continue {
			return fmt.Errorf("pre-export hook %q failed: %w", hook.Name, res.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook. Failures of hooks with
// on_error "fail" are joined into the returned error.
func (e *Executor) RunPostExport(ctx context.Context) error {
	var errs []error
	for _, hook := range e.config.Phase(PostExport) {
		res := e.run(ctx, hook, PostExport)
		if !res.Success && hook.OnError == Fail {
			errs = append(errs, fmt.Errorf("post-export hook %q failed: %w", hook.Name, res.Error))
		}
	}
	return errors.Join(errs...)
}

func (e *Executor) run(parent context.Context, hook Hook, phase Phase) Result {
	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", hook.Command)
	cmd.Env = append(os.Environ(), e.ctx.ToEnv()...)
	for k, v := range hook.Env {
		cmd.Env = append(cmd.Env, k+"="+os.ExpandEnv(v))
	}
	// sh may leave children holding the pipes after a timeout kill.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Hook:     hook,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
		Error:    err,
	}
	if ctx.Err() == context.DeadlineExceeded {
		res.Success = false
		res.Error = fmt.Errorf("timed out after %s", timeout)
	}
	debug.Log("hook %s/%s: success=%v in %s", phase, hook.Name, res.Success, res.Duration)
	e.results = append(e.results, res)
	return res
}

// Results returns every run so far, in order.
func (e *Executor) Results() []Result {
	return e.results
}

// Summary describes the runs for the user, or "" when nothing ran.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	var ok, failed int
	var sb strings.Builder
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&sb, "  %s %s: %v\n", r.Phase, r.Hook.Name, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&sb, "    stderr: %s\n", truncate(r.Stderr, maxSummaryOutput))
		}
	}
	return fmt.Sprintf("Hooks: %d succeeded, %d failed\n", ok, failed) + sb.String()
}

// RunHooks loads hooks from dir and returns an executor for ctx, or nil
// when disabled or nothing is configured.
func RunHooks(dir string, ctx ExportContext, disabled bool) (*Executor, []string, error) {
	if disabled {
		return nil, nil, nil
	}
	cfg, warnings, err := Load(dir)
	if err != nil || cfg.Empty() {
		return nil, warnings, err
	}
	return NewExecutor(cfg, ctx), warnings, nil
}

// truncate flattens s to one line of at most n terminal cells.
func truncate(s string, n int) string {
	return runewidth.Truncate(strings.ReplaceAll(s, "\n", " "), n, "...")
}
