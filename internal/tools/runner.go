// Package tools wraps the external programs the pipeline drives
// (bcftools, bgzip, tabix, samtools and the variant callers) behind
// structured argument-list invocations.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external commands. The production implementation shells
// out; tests substitute fakes.
type Runner interface {
	// Run executes a command, discarding stdout.
	Run(ctx context.Context, name string, args ...string) error
	// RunToFile executes a command with stdout redirected to outPath.
	RunToFile(ctx context.Context, outPath, name string, args ...string) error
	// Output executes a command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands via os/exec. Stderr is captured and attached
// to errors so a failing (sample, region) unit can be diagnosed from the
// propagated error alone.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return cmdError(name, args, stderr.Bytes(), err)
	}
	return nil
}

func (ExecRunner) RunToFile(ctx context.Context, outPath, name string, args ...string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return cmdError(name, args, stderr.Bytes(), err)
	}
	return out.Close()
}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, cmdError(name, args, stderr.Bytes(), err)
	}
	return stdout.Bytes(), nil
}

// cmdError wraps a subprocess failure with the command line and the tail
// of its stderr.
func cmdError(name string, args []string, stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	if len(msg) > 500 {
		msg = "..." + msg[len(msg)-500:]
	}
	if msg != "" {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
	}
	return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
}
