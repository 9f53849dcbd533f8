// Package e2e exercises the deploy flows against a real Docker daemon.
// Tests skip automatically when no daemon is reachable.
package e2e

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cappuccino213/eWordDockerManager/internal/shell/docker"
)

// requireDocker connects to the daemon or skips the test.
func requireDocker(t *testing.T) *docker.DockerClient {
	t.Helper()
	cli, err := docker.NewDockerClient("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := cli.Ping(); err != nil {
		cli.Close()
		t.Skipf("docker daemon not reachable: %v", err)
	}
	t.Cleanup(func() { cli.Close() })
	return cli
}

// quietLogger discards log output so test failures stay readable.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeComposeFixture writes a compose file into a temp dir and returns
// its path.
func writeComposeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
