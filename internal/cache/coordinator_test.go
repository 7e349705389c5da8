package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kahurangi/trapnz-mirror/internal/model"
	"github.com/kahurangi/trapnz-mirror/internal/store"
	"github.com/kahurangi/trapnz-mirror/internal/trapnz"
)

func newTestCoordinator(t *testing.T, source trapnz.Source, window time.Duration) *Coordinator {
	t.Helper()
	st, err := store.Open("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewCoordinator(st, source, window, zap.NewNop())
}

// flakySource fails every call for one line uuid and delegates the
// rest to a fixture.
type flakySource struct {
	inner    trapnz.Source
	failUUID string
}

func (f *flakySource) GetLine(ctx context.Context, lineUUID string) (*model.Line, error) {
	if lineUUID == f.failUUID {
		return nil, errors.New("upstream unavailable")
	}
	return f.inner.GetLine(ctx, lineUUID)
}

func (f *flakySource) GetTrapsByLine(ctx context.Context, lineUUID string) ([]model.Trap, error) {
	if lineUUID == f.failUUID {
		return nil, errors.New("upstream unavailable")
	}
	return f.inner.GetTrapsByLine(ctx, lineUUID)
}

func (f *flakySource) GetTrapRecords(ctx context.Context, trapUUID string, limit int, sortOrder, sortColumn string) ([]model.TrapRecord, error) {
	return f.inner.GetTrapRecords(ctx, trapUUID, limit, sortOrder, sortColumn)
}

func TestFetchLinesPopulatesStore(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	c := newTestCoordinator(t, fixture, time.Hour)

	lines, err := c.FetchLinesByUUIDs(context.Background(), []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Test Line 1", lines[0].Name)
	assert.Equal(t, "Test Project 1", lines[0].Project.Name)
}

func TestFreshCategoryServedFromStore(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	c := newTestCoordinator(t, fixture, time.Hour)
	ctx := context.Background()

	_, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)

	// Upstream changes while the category is still fresh.
	renamed := trapnz.SeedLine()
	renamed.Name = "Renamed Upstream"
	fixture.AddLine(renamed)

	lines, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Test Line 1", lines[0].Name)
}

func TestForceRefreshBypassesFreshness(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	c := newTestCoordinator(t, fixture, time.Hour)
	ctx := context.Background()

	_, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)

	renamed := trapnz.SeedLine()
	renamed.Name = "Renamed Upstream"
	fixture.AddLine(renamed)

	lines, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, true)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Renamed Upstream", lines[0].Name)
}

func TestStaleCategoryRefetched(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	c := newTestCoordinator(t, fixture, 20*time.Millisecond)
	ctx := context.Background()

	_, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)

	renamed := trapnz.SeedLine()
	renamed.Name = "Renamed Upstream"
	fixture.AddLine(renamed)

	time.Sleep(40 * time.Millisecond)

	lines, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Renamed Upstream", lines[0].Name)
}

func TestCategoriesTrackedIndependently(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	c := newTestCoordinator(t, fixture, time.Hour)
	ctx := context.Background()

	_, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)

	assert.False(t, c.needsRefresh(categoryLines, false))
	assert.True(t, c.needsRefresh(categoryTraps, false))
	assert.True(t, c.needsRefresh(categoryRecords, false))
}

func TestSourceFailureKeepsStoredData(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	flaky := &flakySource{inner: fixture}
	c := newTestCoordinator(t, flaky, time.Hour)
	ctx := context.Background()

	_, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)

	// Upstream starts failing for the seed line; a forced refresh must
	// keep serving the stored copy rather than lose it.
	flaky.failUUID = trapnz.SeedLineUUID

	lines, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, true)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Test Line 1", lines[0].Name)
}

func TestPartialFailureStoresTheRest(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	second := trapnz.SeedLine()
	second.UUID = "test-line-2"
	second.Name = "Test Line 2"
	fixture.AddLine(second)

	flaky := &flakySource{inner: fixture, failUUID: trapnz.SeedLineUUID}
	c := newTestCoordinator(t, flaky, time.Hour)

	lines, err := c.FetchLinesByUUIDs(context.Background(),
		[]string{trapnz.SeedLineUUID, "test-line-2"}, false)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "test-line-2", lines[0].UUID)
}

func TestRetrieveAllWalksContainmentChain(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	c := newTestCoordinator(t, fixture, time.Hour)

	snapshot, err := c.RetrieveAll(context.Background(), []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 1)
	require.Len(t, snapshot.Traps, 1)
	require.Len(t, snapshot.Records, 1)

	assert.Equal(t, trapnz.SeedLineUUID, snapshot.Lines[0].UUID)
	assert.Equal(t, trapnz.SeedTrapUUID, snapshot.Traps[0].UUID)
	assert.Equal(t, trapnz.SeedRecordUUID, snapshot.Records[0].UUID)
	assert.Equal(t, trapnz.SeedLineUUID, snapshot.Traps[0].Line.UUID)
	assert.Equal(t, trapnz.SeedTrapUUID, snapshot.Records[0].Trap.UUID)
}

func TestInvalidateForcesNextFetch(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	c := newTestCoordinator(t, fixture, time.Hour)
	ctx := context.Background()

	_, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)

	renamed := trapnz.SeedLine()
	renamed.Name = "Renamed Upstream"
	fixture.AddLine(renamed)

	c.Invalidate()

	lines, err := c.FetchLinesByUUIDs(ctx, []string{trapnz.SeedLineUUID}, false)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Renamed Upstream", lines[0].Name)
}

func TestRecordHistoryLimit(t *testing.T) {
	fixture := trapnz.NewFixture(zap.NewNop())
	base := trapnz.SeedRecord()
	for i := 0; i < 4; i++ {
		record := base
		record.UUID = base.UUID + string(rune('a'+i))
		record.Date = base.Date.Add(time.Duration(i+1) * time.Hour)
		fixture.AddRecord(trapnz.SeedTrapUUID, record)
	}
	c := newTestCoordinator(t, fixture, time.Hour)

	records, err := c.FetchTrapRecordsByTrap(context.Background(), trapnz.SeedTrapUUID, 3, false)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records[0].Date.After(records[1].Date))
}
