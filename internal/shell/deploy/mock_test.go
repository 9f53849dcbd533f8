package deploy

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/cappuccino213/eWordDockerManager/internal/shell/docker"
)

// =============================================================================
// Test Doubles
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockDocker implements docker.Client against in-memory state.
type mockDocker struct {
	containers []docker.ContainerInfo
	images     map[string]bool // tag -> present

	loadCalls []string // archive paths passed to LoadImage
	loadErr   map[string]error

	existsCalls []string
	existsErr   error
	listErr     error
}

func newMockDocker() *mockDocker {
	return &mockDocker{
		images:  make(map[string]bool),
		loadErr: make(map[string]error),
	}
}

func (m *mockDocker) ListContainers(opts docker.ListOptions) ([]docker.ContainerInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.containers, nil
}

func (m *mockDocker) InspectContainer(containerID string) (*docker.ContainerInfo, error) {
	for _, c := range m.containers {
		if c.ID == containerID {
			info := c
			return &info, nil
		}
	}
	return nil, docker.NewDockerError("InspectContainer", "container", containerID, "container not found", docker.ErrContainerNotFound)
}

func (m *mockDocker) StopContainer(containerID string, timeout *time.Duration) error { return nil }

func (m *mockDocker) RemoveContainer(containerID string, opts docker.RemoveOptions) error {
	return nil
}

func (m *mockDocker) ImageExists(image string) (bool, error) {
	m.existsCalls = append(m.existsCalls, image)
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.images[image], nil
}

func (m *mockDocker) LoadImage(archivePath string) error {
	m.loadCalls = append(m.loadCalls, archivePath)
	return m.loadErr[archivePath]
}

func (m *mockDocker) RemoveImage(image string, force bool) error { return nil }

func (m *mockDocker) ListImages() ([]docker.ImageInfo, error) { return nil, nil }

func (m *mockDocker) Ping() error { return nil }

func (m *mockDocker) Close() error { return nil }

// mockCompose implements ComposeRunner, recording invocations.
type mockCompose struct {
	upCalls       []string // service names passed to Up
	recreateCalls []string
	downCalls     int

	containerIDs map[string]string // service -> container ID
	upErr        map[string]error
	validateErr  error
}

func newMockCompose() *mockCompose {
	return &mockCompose{
		containerIDs: make(map[string]string),
		upErr:        make(map[string]error),
	}
}

func (m *mockCompose) ValidateConfig(ctx context.Context) error { return m.validateErr }

func (m *mockCompose) Up(ctx context.Context, services ...string) error {
	m.upCalls = append(m.upCalls, services...)
	for _, svc := range services {
		if err := m.upErr[svc]; err != nil {
			return err
		}
	}
	return nil
}

func (m *mockCompose) UpForceRecreate(ctx context.Context, service string) error {
	m.recreateCalls = append(m.recreateCalls, service)
	return m.upErr[service]
}

func (m *mockCompose) ContainerID(ctx context.Context, service string) (string, error) {
	return m.containerIDs[service], nil
}

func (m *mockCompose) Down(ctx context.Context) error {
	m.downCalls++
	return nil
}

// scriptPrompter answers confirmations from a fixed script.
type scriptPrompter struct {
	answers []bool
	asked   []string
}

func (p *scriptPrompter) Confirm(prompt string, defaultYes bool) (bool, error) {
	p.asked = append(p.asked, prompt)
	if len(p.answers) == 0 {
		return defaultYes, nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}
