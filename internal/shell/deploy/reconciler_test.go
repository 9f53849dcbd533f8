package deploy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cappuccino213/eWordDockerManager/internal/shell/docker"
)

// =============================================================================
// ServiceReconciler Tests
// =============================================================================

func TestReconciler_CreatesAllMissingServicesInOrder(t *testing.T) {
	cli := newMockDocker()
	runner := newMockCompose()
	prompt := &scriptPrompter{}
	r := NewServiceReconciler(cli, runner, prompt, testLogger())

	results, err := r.Run(context.Background(), []string{"web", "db", "cache"})
	require.NoError(t, err)

	assert.Equal(t, []string{"web", "db", "cache"}, runner.upCalls)
	assert.Empty(t, runner.recreateCalls)
	assert.Empty(t, prompt.asked)

	require.Len(t, results, 3)
	for _, res := range results {
		assert.Equal(t, ServiceCreated, res.Outcome)
	}
}

func TestReconciler_PromptsForExistingContainer(t *testing.T) {
	cli := newMockDocker()
	cli.containers = []docker.ContainerInfo{
		{ID: "abc123", Name: "eword_web_1", State: "running"},
	}
	runner := newMockCompose()
	runner.containerIDs["web"] = "abc123"
	prompt := &scriptPrompter{answers: []bool{true}}
	r := NewServiceReconciler(cli, runner, prompt, testLogger())

	results, err := r.Run(context.Background(), []string{"web"})
	require.NoError(t, err)

	require.Len(t, prompt.asked, 1)
	assert.Contains(t, prompt.asked[0], "eword_web_1")
	assert.Equal(t, []string{"web"}, runner.recreateCalls)
	assert.Empty(t, runner.upCalls)

	require.Len(t, results, 1)
	assert.Equal(t, ServiceRecreated, results[0].Outcome)
	assert.Equal(t, "eword_web_1", results[0].Container)
}

func TestReconciler_DeclinedLeavesUntouched(t *testing.T) {
	cli := newMockDocker()
	cli.containers = []docker.ContainerInfo{
		{ID: "abc123", Name: "eword_web_1", State: "running"},
	}
	runner := newMockCompose()
	runner.containerIDs["web"] = "abc123"
	prompt := &scriptPrompter{answers: []bool{false}}
	r := NewServiceReconciler(cli, runner, prompt, testLogger())

	results, err := r.Run(context.Background(), []string{"web"})
	require.NoError(t, err)

	assert.Empty(t, runner.upCalls)
	assert.Empty(t, runner.recreateCalls)
	require.Len(t, results, 1)
	assert.Equal(t, ServiceKept, results[0].Outcome)
}

func TestReconciler_StaleIdentifierRoutesToCreate(t *testing.T) {
	// compose remembers a container ID but no such container exists.
	cli := newMockDocker()
	runner := newMockCompose()
	runner.containerIDs["web"] = "gone123"
	prompt := &scriptPrompter{}
	r := NewServiceReconciler(cli, runner, prompt, testLogger())

	results, err := r.Run(context.Background(), []string{"web"})
	require.NoError(t, err)

	assert.Equal(t, []string{"web"}, runner.upCalls)
	assert.Empty(t, prompt.asked)
	assert.Equal(t, ServiceCreated, results[0].Outcome)
}

func TestReconciler_BoundNameAbsentFromSnapshot(t *testing.T) {
	// The bound container inspects fine but its name is not in the
	// snapshot: treated as absent.
	cli := newMockDocker()
	cli.containers = []docker.ContainerInfo{
		{ID: "abc123", Name: "eword_web_1", State: "exited"},
	}
	runner := newMockCompose()
	runner.containerIDs["db"] = "abc123"
	prompt := &scriptPrompter{}
	r := NewServiceReconciler(cli, runner, prompt, testLogger())

	// Snapshot contains eword_web_1, and db's bound container resolves to
	// that same name, so db routes to prompt; web has no binding.
	results, err := r.Run(context.Background(), []string{"web"})
	require.NoError(t, err)

	assert.Equal(t, []string{"web"}, runner.upCalls)
	require.Len(t, results, 1)
	assert.Equal(t, ServiceCreated, results[0].Outcome)
}

func TestReconciler_PerServiceFailureContinues(t *testing.T) {
	cli := newMockDocker()
	runner := newMockCompose()
	runner.upErr["db"] = errors.New("port already allocated")
	prompt := &scriptPrompter{}
	r := NewServiceReconciler(cli, runner, prompt, testLogger())

	results, err := r.Run(context.Background(), []string{"web", "db", "cache"})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, ServiceCreated, results[0].Outcome)
	assert.Equal(t, ServiceFailed, results[1].Outcome)
	assert.Error(t, results[1].Err)
	assert.Equal(t, ServiceCreated, results[2].Outcome)
}

func TestReconciler_SnapshotFailure(t *testing.T) {
	cli := newMockDocker()
	cli.listErr = errors.New("daemon unreachable")
	r := NewServiceReconciler(cli, newMockCompose(), &scriptPrompter{}, testLogger())

	_, err := r.Run(context.Background(), []string{"web"})
	require.Error(t, err)
}

func TestReconciler_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newMockCompose()
	r := NewServiceReconciler(newMockDocker(), runner, &scriptPrompter{}, testLogger())

	_, err := r.Run(ctx, []string{"web"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.upCalls)
}
