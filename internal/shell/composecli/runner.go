// Package composecli shells out to docker-compose (or the docker compose
// plugin) for the operations that need compose's own container naming and
// dependency handling: bringing services up, recreating them, and tearing
// the project down.
package composecli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotInstalled means neither docker-compose nor the docker compose
	// plugin is available on PATH.
	ErrNotInstalled = errors.New("docker-compose is not installed")
)

// CommandError wraps a failed compose invocation with its argv and output.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out != "" {
		return fmt.Sprintf("%s: %v: %s", strings.Join(e.Args, " "), e.Err, out)
	}
	return fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Binary Detection
// =============================================================================

// Detect locates the compose command, preferring the standalone
// docker-compose binary and falling back to the docker compose plugin.
func Detect(ctx context.Context) ([]string, error) {
	if _, err := exec.LookPath("docker-compose"); err == nil {
		return []string{"docker-compose"}, nil
	}
	if _, err := exec.LookPath("docker"); err == nil {
		if err := exec.CommandContext(ctx, "docker", "compose", "version").Run(); err == nil {
			return []string{"docker", "compose"}, nil
		}
	}
	return nil, ErrNotInstalled
}

// =============================================================================
// Runner
// =============================================================================

// runFunc executes a command and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Runner invokes compose subcommands against a fixed compose file and
// project name.
type Runner struct {
	bin     []string
	file    string
	project string
	logger  *slog.Logger
	run     runFunc
}

// NewRunner creates a runner for the given compose command (as returned by
// Detect), compose file path, and project name.
func NewRunner(bin []string, file, project string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		bin:     bin,
		file:    file,
		project: project,
		logger:  logger,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// invoke runs a compose subcommand with the runner's file and project
// arguments prepended.
func (r *Runner) invoke(ctx context.Context, args ...string) (string, error) {
	argv := append([]string{}, r.bin...)
	argv = append(argv, "-f", r.file)
	if r.project != "" {
		argv = append(argv, "-p", r.project)
	}
	argv = append(argv, args...)

	r.logger.Debug("running compose command", "args", strings.Join(argv, " "))

	out, err := r.run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return string(out), &CommandError{Args: argv, Output: string(out), Err: err}
	}
	return string(out), nil
}

// ValidateConfig checks that the compose file is accepted by the compose
// tool itself.
func (r *Runner) ValidateConfig(ctx context.Context) error {
	_, err := r.invoke(ctx, "config", "-q")
	return err
}

// Up starts (or creates) the given services detached. With no services it
// brings up the whole project.
func (r *Runner) Up(ctx context.Context, services ...string) error {
	args := append([]string{"up", "-d"}, services...)
	_, err := r.invoke(ctx, args...)
	return err
}

// UpForceRecreate recreates a single service's container even if its
// configuration has not changed.
func (r *Runner) UpForceRecreate(ctx context.Context, service string) error {
	_, err := r.invoke(ctx, "up", "-d", "--force-recreate", service)
	return err
}

// Stop stops the given services without removing their containers.
func (r *Runner) Stop(ctx context.Context, services ...string) error {
	args := append([]string{"stop"}, services...)
	_, err := r.invoke(ctx, args...)
	return err
}

// Down stops and removes the project's containers and networks.
func (r *Runner) Down(ctx context.Context) error {
	_, err := r.invoke(ctx, "down")
	return err
}

// ContainerID resolves the container currently bound to a service. Returns
// an empty string when the service has never been instantiated.
func (r *Runner) ContainerID(ctx context.Context, service string) (string, error) {
	out, err := r.invoke(ctx, "ps", "-q", service)
	if err != nil {
		return "", err
	}
	// One ID per line; a service maps to at most one container here.
	for _, line := range strings.Split(out, "\n") {
		if id := strings.TrimSpace(line); id != "" {
			return id, nil
		}
	}
	return "", nil
}
