// Package cli implements the subprocess handler (SPEC_FULL.md §4.F): a tool
// backed by an external command, with base arguments/environment from the
// manifest merged with per-call overrides. Grounded on
// original_source/.../pforge-runtime/src/handlers/cli.rs, translated from
// tokio::process::Command + tokio::time::timeout into os/exec plus
// context.WithTimeout.
package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/paiml/forge-go/internal/forgerr"
)

// Handler runs a fixed command with manifest-declared base args/env/cwd,
// merged with per-call overrides supplied in Input.
type Handler struct {
	Command string
	Args    []string
	Cwd     string
	Env     map[string]string
	// Deadline bounds a single invocation. Zero means no deadline is applied
	// here (an outer reliability/deadline gate may still apply one).
	Deadline time.Duration
}

// Input is the per-call payload a CLI tool invocation accepts: additional
// arguments appended after the manifest's base args, and environment
// variables overlaid on top of the manifest's base env (call wins on
// conflict).
type Input struct {
	Args []string          `json:"args,omitempty"`
	Env  map[string]string `json:"env,omitempty"`
}

// Output is the captured result of running the subprocess to completion.
type Output struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Handle implements handler.Handler[Input, Output].
func (h Handler) Handle(ctx context.Context, in Input) (Output, error) {
	if h.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Deadline)
		defer cancel()
	}

	args := make([]string, 0, len(h.Args)+len(in.Args))
	args = append(args, h.Args...)
	args = append(args, in.Args...)

	cmd := exec.CommandContext(ctx, h.Command, args...)
	if h.Cwd != "" {
		cmd.Dir = h.Cwd
	}
	cmd.Env = mergeEnv(h.Env, in.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode(cmd, err)}

	if err != nil {
		// A process killed because ctx expired also reports *exec.ExitError,
		// so the context is checked first.
		if ctx.Err() != nil {
			return out, forgerr.Wrap(forgerr.KindDeadline, "command timed out: "+h.Command, ctx.Err())
		}
		if _, ok := err.(*exec.ExitError); ok {
			// Non-zero exit is data, not a handler failure: the caller can
			// inspect ExitCode/Stderr.
			return out, nil
		}
		return out, forgerr.Wrap(forgerr.KindHandlerFailure, "failed to execute command '"+h.Command+"'", err)
	}
	return out, nil
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

// mergeEnv overlays the handler's base env, then the call's override env, on
// top of the runtime's own inherited environment (call wins on conflict),
// mirroring tokio::process::Command's default of inheriting the parent
// environment and layering .env() calls on top of it.
func mergeEnv(base, override map[string]string) []string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(override))
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				merged[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}
	return env
}
