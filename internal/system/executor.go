package system

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Commander runs external commands. Executor is the real implementation;
// tests substitute a recording fake.
type Commander interface {
	// Run executes a command and discards output
	Run(name string, args ...string) error
	// RunInput executes a command with input on stdin
	RunInput(input []byte, name string, args ...string) error
	// RunCombined executes a command with input on stdin and returns
	// stdout and stderr interleaved, even when the command fails
	RunCombined(input []byte, name string, args ...string) (string, error)
}

// Executor handles execution of external commands
type Executor struct {
	dryRun bool
	debug  bool
	out    io.Writer
}

// NewExecutor creates a new executor
func NewExecutor(debug, dryRun bool) *Executor {
	return &Executor{
		dryRun: dryRun,
		debug:  debug,
		out:    os.Stderr,
	}
}

// Run executes a command and discards output
func (e *Executor) Run(name string, args ...string) error {
	_, err := e.RunOutput(name, args...)
	return err
}

// RunOutput executes a command and returns stdout
func (e *Executor) RunOutput(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	return e.RunCmd(cmd)
}

// RunInput executes a command feeding input on stdin
func (e *Executor) RunInput(input []byte, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = bytes.NewReader(input)
	_, err := e.RunCmd(cmd)
	return err
}

// RunCombined executes a command feeding input on stdin and returns the
// combined stdout/stderr. The output is returned on failure too, so callers
// can inspect what the tool printed.
func (e *Executor) RunCombined(input []byte, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}
	if e.skip(cmd) {
		return "", nil
	}

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	if err := cmd.Run(); err != nil {
		return combined.String(), fmt.Errorf("%s failed: %w", cmd.Args[0], err)
	}
	return combined.String(), nil
}

// RunCmd executes a prepared command
func (e *Executor) RunCmd(cmd *exec.Cmd) (string, error) {
	if e.skip(cmd) {
		return "", nil
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w\nStderr: %s",
			cmd.Args[0], err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// skip prints the command in debug and dry-run mode and reports whether
// it must not be executed.
func (e *Executor) skip(cmd *exec.Cmd) bool {
	if e.dryRun {
		fmt.Fprintf(e.out, "[DRY RUN] %s\n", cmd.String())
		return true
	}
	if e.debug {
		fmt.Fprintf(e.out, "[DEBUG] Executing: %s\n", cmd.String())
	}
	return false
}

// CommandExists checks if a command is available in PATH
func (e *Executor) CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// CheckDependencies verifies required commands are available
func (e *Executor) CheckDependencies(deps []string) error {
	var missing []string
	for _, dep := range deps {
		if !e.CommandExists(dep) {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required commands: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// ExitCode extracts the exit status of a failed command, or -1 if err
// does not come from a process that ran to completion. Any error in the
// chain with an ExitCode method counts, *exec.ExitError included.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var status interface{ ExitCode() int }
	if errors.As(err, &status) {
		return status.ExitCode()
	}
	return -1
}
