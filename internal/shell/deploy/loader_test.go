package deploy

import (
	"archive/tar"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// writeArchive writes a docker-save style tar whose manifest declares the
// given repo tag. An empty tag writes a manifest without RepoTags.
func writeArchive(t *testing.T, path, tag string) {
	t.Helper()

	manifest := `[{"Config":"cfg.json","RepoTags":[],"Layers":[]}]`
	if tag != "" {
		manifest = `[{"Config":"cfg.json","RepoTags":["` + tag + `"],"Layers":[]}]`
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	tw := tar.NewWriter(f)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "manifest.json",
		Mode: 0644,
		Size: int64(len(manifest)),
	}))
	_, err = tw.Write([]byte(manifest))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
}

// =============================================================================
// ImageLoader Tests
// =============================================================================

func TestImageLoader_EmptyDirIsNoOp(t *testing.T) {
	cli := newMockDocker()
	loader := NewImageLoader(cli, t.TempDir(), ".tar", testLogger())

	report, err := loader.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, cli.loadCalls)
}

func TestImageLoader_SkipsPresentTag(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "app.tar"), "myapp:1.0")

	cli := newMockDocker()
	cli.images["myapp:1.0"] = true
	loader := NewImageLoader(cli, dir, ".tar", testLogger())

	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeSkipped, report.Results[0].Outcome)
	assert.Equal(t, "myapp:1.0", report.Results[0].RepoTag)
	assert.Empty(t, cli.loadCalls)
}

func TestImageLoader_LoadsAbsentTag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.tar")
	writeArchive(t, path, "myapp:1.0")

	cli := newMockDocker()
	loader := NewImageLoader(cli, dir, ".tar", testLogger())

	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeLoaded, report.Results[0].Outcome)
	assert.Equal(t, []string{path}, cli.loadCalls)
}

func TestImageLoader_SecondRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.tar")
	writeArchive(t, path, "myapp:1.0")

	cli := newMockDocker()
	loader := NewImageLoader(cli, dir, ".tar", testLogger())

	_, err := loader.Run(context.Background())
	require.NoError(t, err)
	// Simulate the store now holding the tag.
	cli.images["myapp:1.0"] = true

	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkipped, report.Results[0].Outcome)
	assert.Len(t, cli.loadCalls, 1) // only the first run loaded
}

func TestImageLoader_FallbackWithoutTag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "untagged.tar")
	writeArchive(t, path, "")

	cli := newMockDocker()
	loader := NewImageLoader(cli, dir, ".tar", testLogger())

	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeFallback, report.Results[0].Outcome)
	assert.Empty(t, report.Results[0].RepoTag)
	// Exactly one unconditional load, image index never consulted.
	assert.Equal(t, []string{path}, cli.loadCalls)
	assert.Empty(t, cli.existsCalls)
}

func TestImageLoader_FallbackFailureContinues(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "a-untagged.tar")
	good := filepath.Join(dir, "b-app.tar")
	writeArchive(t, bad, "")
	writeArchive(t, good, "myapp:1.0")

	cli := newMockDocker()
	cli.loadErr[bad] = errors.New("daemon rejected archive")
	loader := NewImageLoader(cli, dir, ".tar", testLogger())

	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, OutcomeFailed, report.Results[0].Outcome)
	assert.Equal(t, OutcomeLoaded, report.Results[1].Outcome)
}

func TestImageLoader_KnownTagFailureAbortsBatch(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a-app.tar")
	second := filepath.Join(dir, "b-db.tar")
	writeArchive(t, first, "myapp:1.0")
	writeArchive(t, second, "mydb:1.0")

	cli := newMockDocker()
	cli.loadErr[first] = errors.New("disk full")
	loader := NewImageLoader(cli, dir, ".tar", testLogger())

	report, err := loader.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadAborted)

	// The second archive was never processed.
	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeFailed, report.Results[0].Outcome)
	assert.Equal(t, []string{first}, cli.loadCalls)
}

func TestImageLoader_IndexQueryFailureAborts(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "app.tar"), "myapp:1.0")

	cli := newMockDocker()
	cli.existsErr = errors.New("daemon unreachable")
	loader := NewImageLoader(cli, dir, ".tar", testLogger())

	_, err := loader.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, cli.loadCalls)
}

func TestImageLoader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "app.tar"), "myapp:1.0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cli := newMockDocker()
	loader := NewImageLoader(cli, dir, ".tar", testLogger())

	_, err := loader.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, cli.loadCalls)
}

func TestLoadReport_Count(t *testing.T) {
	report := &LoadReport{Results: []LoadResult{
		{Outcome: OutcomeLoaded},
		{Outcome: OutcomeSkipped},
		{Outcome: OutcomeSkipped},
	}}
	assert.Equal(t, 1, report.Count(OutcomeLoaded))
	assert.Equal(t, 2, report.Count(OutcomeSkipped))
	assert.Equal(t, 0, report.Count(OutcomeFailed))
}
