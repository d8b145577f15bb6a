package operant

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:  "memory",
		ResultsDir: filepath.Join(t.TempDir(), "results"),
		ExportsDir: filepath.Join(t.TempDir(), "exports"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	require.NoError(t, client.Init(ctx))

	summary, err := client.Run(ctx, RunRequest{
		GenotypeLength: 8,
		PopulationSize: 20,
		Generations:    50,
		MutationRate:   0.01,
		MeanInterval:   10,
		Seed:           42,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.BestByGeneration, 50)
	assert.GreaterOrEqual(t, summary.Reinforcements, 1)
	assert.Equal(t, 50, summary.Summary.Generations)

	events, err := client.Events(ctx, EventsRequest{RunID: summary.RunID})
	require.NoError(t, err)
	require.Len(t, events, 50)
	for i, event := range events {
		assert.Equal(t, i, event.Generation)
	}

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Len(t, history, 50)

	persisted, err := client.Summary(ctx, SummaryRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Equal(t, summary.Summary, persisted)
}

func TestClientRunAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{Generations: 5, Seed: 7})
	require.NoError(t, err)
	assert.Len(t, summary.BestByGeneration, 5)

	events, err := client.Events(ctx, EventsRequest{RunID: summary.RunID})
	require.NoError(t, err)
	// Default target is the midpoint of the 10-bit phenotype range.
	assert.InDelta(t, 511.5, events[0].Target, 1e-9)
}

func TestClientRunsListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first, err := client.Run(ctx, RunRequest{Generations: 5, Seed: 1})
	require.NoError(t, err)
	second, err := client.Run(ctx, RunRequest{Generations: 5, Seed: 2})
	require.NoError(t, err)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].RunID)
	assert.Equal(t, first.RunID, runs[1].RunID)

	latest, err := client.Events(ctx, EventsRequest{Latest: true})
	require.NoError(t, err)
	assert.Len(t, latest, 5)
}

func TestClientExportLatest(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{Generations: 5, Seed: 3})
	require.NoError(t, err)

	export, err := client.Export(ctx, ExportRequest{Latest: true})
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, export.RunID)
	assert.FileExists(t, filepath.Join(export.Directory, "events.csv"))
	assert.FileExists(t, filepath.Join(export.Directory, "summary.json"))
}

func TestClientExportRejectsAmbiguousRequest(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.Export(ctx, ExportRequest{RunID: "run-1", Latest: true})
	assert.Error(t, err)
	_, err = client.Export(ctx, ExportRequest{})
	assert.Error(t, err)
}

func TestClientResetDropsStoredRuns(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{Generations: 5, Seed: 4})
	require.NoError(t, err)
	require.NoError(t, client.Reset(ctx))

	_, err = client.Events(ctx, EventsRequest{RunID: summary.RunID})
	assert.Error(t, err)
}

func TestClientRunRejectsInvalidPolicy(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.Run(ctx, RunRequest{Generations: 5, Selection: "tournament"})
	assert.Error(t, err)
}

func TestClientDeterministicRunIDsDiffer(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	a, err := client.Run(ctx, RunRequest{Generations: 5, Seed: 10})
	require.NoError(t, err)
	b, err := client.Run(ctx, RunRequest{Generations: 5, Seed: 11})
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}
