package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kahurangi/trapnz-mirror/internal/cache"
	"github.com/kahurangi/trapnz-mirror/internal/model"
	"github.com/kahurangi/trapnz-mirror/internal/store"
	"github.com/kahurangi/trapnz-mirror/internal/trapnz"
)

func newTestTools(t *testing.T) (*Tools, *store.Store, *trapnz.Fixture) {
	t.Helper()
	st, err := store.Open("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fixture := trapnz.NewFixture(zap.NewNop())
	coordinator := cache.NewCoordinator(st, fixture, time.Hour, zap.NewNop())
	return New(coordinator, st, zap.NewNop()), st, fixture
}

func TestGetLinesByUUIDs(t *testing.T) {
	tools, _, _ := newTestTools(t)

	result := tools.GetLinesByUUIDs(context.Background(), []string{trapnz.SeedLineUUID}, false)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.Data["count"])

	lines, ok := result.Data["lines"].([]model.Line)
	require.True(t, ok)
	assert.Equal(t, "Test Line 1", lines[0].Name)
}

func TestGetLinesByUUIDsRequiresInput(t *testing.T) {
	tools, _, _ := newTestTools(t)

	result := tools.GetLinesByUUIDs(context.Background(), nil, false)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Nil(t, result.Data)
}

func TestSearchTrapsByStatus(t *testing.T) {
	tools, st, _ := newTestTools(t)
	ctx := context.Background()

	green := trapnz.SeedTrap()
	require.NoError(t, st.UpsertTrap(ctx, &green))

	red := trapnz.SeedTrap()
	red.UUID = "test-trap-2"
	red.Name = "Test Trap 2"
	red.OverallHealth = model.HealthRed
	require.NoError(t, st.UpsertTrap(ctx, &red))

	result := tools.SearchTrapsByStatus(ctx, "red")
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.Data["count"])

	traps := result.Data["traps"].([]model.Trap)
	assert.Equal(t, "test-trap-2", traps[0].UUID)

	// Unrecognised statuses normalise to unknown rather than erroring.
	result = tools.SearchTrapsByStatus(ctx, "purple")
	require.True(t, result.Success)
	assert.Equal(t, 0, result.Data["count"])
	assert.Equal(t, "unknown", result.Data["status"])
}

func TestSearchTrapsByType(t *testing.T) {
	tools, st, _ := newTestTools(t)
	ctx := context.Background()

	trap := trapnz.SeedTrap()
	require.NoError(t, st.UpsertTrap(ctx, &trap))

	result := tools.SearchTrapsByType(ctx, "doc")
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.Data["count"])

	result = tools.SearchTrapsByType(ctx, "AT220")
	require.True(t, result.Success)
	assert.Equal(t, 0, result.Data["count"])
}

func TestTrapPerformanceSummary(t *testing.T) {
	tools, st, _ := newTestTools(t)
	ctx := context.Background()

	heartbeat := trapnz.SeedRecord()
	require.NoError(t, st.UpsertTrapRecord(ctx, &heartbeat))

	battery := 11.8
	caught := trapnz.SeedRecord()
	caught.UUID = "test-record-2"
	caught.Date = caught.Date.Add(2 * time.Hour)
	caught.Event = "Possum Caught"
	caught.Status = "Sprung"
	caught.BatteryVoltage = &battery
	require.NoError(t, st.UpsertTrapRecord(ctx, &caught))

	result := tools.GetTrapPerformanceSummary(ctx, trapnz.SeedTrapUUID)
	require.True(t, result.Success, result.Error)

	assert.Equal(t, 2, result.Data["record_count"])
	assert.Equal(t, 1, result.Data["possum_events"])
	assert.InDelta(t, 12.15, result.Data["average_battery"].(float64), 0.0001)
	assert.Equal(t, 11.8, result.Data["min_battery"])
	assert.Equal(t, 12.5, result.Data["max_battery"])

	recent := result.Data["recent_events"].([]map[string]any)
	require.Len(t, recent, 2)
	assert.Equal(t, "Possum Caught", recent[0]["event"])
	assert.Equal(t, 11.8, recent[0]["battery_voltage"])
}

func TestTrapPerformanceSummaryNoRecords(t *testing.T) {
	tools, _, _ := newTestTools(t)

	result := tools.GetTrapPerformanceSummary(context.Background(), "no-such-trap")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no-such-trap")
}

func TestLineSummary(t *testing.T) {
	tools, st, _ := newTestTools(t)
	ctx := context.Background()

	green := trapnz.SeedTrap()
	require.NoError(t, st.UpsertTrap(ctx, &green))

	red := trapnz.SeedTrap()
	red.UUID = "test-trap-2"
	red.Name = "Test Trap 2"
	red.OverallHealth = model.HealthRed
	red.Possums = 3
	require.NoError(t, st.UpsertTrap(ctx, &red))

	result := tools.GetLineSummary(ctx, trapnz.SeedLineUUID)
	require.True(t, result.Success, result.Error)

	assert.Equal(t, "Test Line 1", result.Data["line_name"])
	assert.Equal(t, "Test Project 1", result.Data["project_name"])
	assert.Equal(t, 2, result.Data["total_traps"])
	assert.Equal(t, 1, result.Data["healthy_traps"])
	assert.InDelta(t, 50.0, result.Data["health_percentage"].(float64), 0.0001)
	assert.Equal(t, 8, result.Data["total_possums"])

	digests := result.Data["traps"].([]map[string]any)
	require.Len(t, digests, 2)
}

func TestLineSummaryUnknownLine(t *testing.T) {
	tools, _, _ := newTestTools(t)

	result := tools.GetLineSummary(context.Background(), "no-such-line")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not found")
}

func TestVolunteerTools(t *testing.T) {
	tools, _, _ := newTestTools(t)
	ctx := context.Background()

	result := tools.UpdateVolunteer(ctx, "Sam", `{"days":["monday"]}`)
	require.True(t, result.Success, result.Error)

	result = tools.GetVolunteers(ctx)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.Data["count"])

	result = tools.UpdateVolunteer(ctx, "", "{}")
	assert.False(t, result.Success)
}

func TestDispatchRoutesByName(t *testing.T) {
	tools, st, _ := newTestTools(t)
	ctx := context.Background()

	line := trapnz.SeedLine()
	require.NoError(t, st.UpsertLine(ctx, &line))

	result := tools.Dispatch(ctx, "get_line_summary", map[string]any{
		"line_uuid": trapnz.SeedLineUUID,
	})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "Test Line 1", result.Data["line_name"])

	result = tools.Dispatch(ctx, "get_lines_by_uuids", map[string]any{
		"line_uuids": []any{trapnz.SeedLineUUID},
	})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.Data["count"])
}

func TestDispatchUnknownTool(t *testing.T) {
	tools, _, _ := newTestTools(t)

	result := tools.Dispatch(context.Background(), "drain_swamp", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "drain_swamp")
}
