// Package tools is the query façade consumed by the agent layer and
// the command consumer. Every operation returns a Result envelope
// rather than an error: downstream callers are conversational agents
// that need a uniform success/data/error shape to reason about.
package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kahurangi/trapnz-mirror/internal/cache"
	"github.com/kahurangi/trapnz-mirror/internal/model"
	"github.com/kahurangi/trapnz-mirror/internal/store"
)

// Result is the envelope every tool returns.
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func ok(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

func fail(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Tools wires the coordinator and store behind the tool surface.
type Tools struct {
	coordinator *cache.Coordinator
	store       *store.Store
	logger      *zap.Logger
}

func New(coordinator *cache.Coordinator, st *store.Store, logger *zap.Logger) *Tools {
	return &Tools{coordinator: coordinator, store: st, logger: logger}
}

// GetAllLines lists every line already mirrored locally. It never
// consults the remote source: "all" means all the mirror has seen.
func (t *Tools) GetAllLines(ctx context.Context) Result {
	lines, err := t.store.GetAllLines(ctx)
	if err != nil {
		return fail("failed to list lines: %v", err)
	}
	return ok(map[string]any{"lines": lines, "count": len(lines)})
}

// GetAllTraps lists every trap already mirrored locally.
func (t *Tools) GetAllTraps(ctx context.Context) Result {
	traps, err := t.store.GetAllTraps(ctx)
	if err != nil {
		return fail("failed to list traps: %v", err)
	}
	return ok(map[string]any{"traps": traps, "count": len(traps)})
}

// GetAllTrapRecords lists the latest mirrored record per trap.
func (t *Tools) GetAllTrapRecords(ctx context.Context) Result {
	records, err := t.store.GetAllTrapRecords(ctx)
	if err != nil {
		return fail("failed to list trap records: %v", err)
	}
	return ok(map[string]any{"records": records, "count": len(records)})
}

// GetLinesByUUIDs returns the requested lines, refreshing from the
// remote source when stale.
func (t *Tools) GetLinesByUUIDs(ctx context.Context, lineUUIDs []string, forceRefresh bool) Result {
	if len(lineUUIDs) == 0 {
		return fail("no line uuids given")
	}
	lines, err := t.coordinator.FetchLinesByUUIDs(ctx, lineUUIDs, forceRefresh)
	if err != nil {
		return fail("failed to fetch lines: %v", err)
	}
	return ok(map[string]any{"lines": lines, "count": len(lines)})
}

// GetTrapsByLineUUIDs returns every trap on the requested lines.
func (t *Tools) GetTrapsByLineUUIDs(ctx context.Context, lineUUIDs []string, forceRefresh bool) Result {
	if len(lineUUIDs) == 0 {
		return fail("no line uuids given")
	}
	traps, err := t.coordinator.FetchTrapsByLineUUIDs(ctx, lineUUIDs, forceRefresh)
	if err != nil {
		return fail("failed to fetch traps: %v", err)
	}
	return ok(map[string]any{"traps": traps, "count": len(traps)})
}

// GetLatestRecordsForTraps returns the most recent record per trap.
func (t *Tools) GetLatestRecordsForTraps(ctx context.Context, trapUUIDs []string, forceRefresh bool) Result {
	if len(trapUUIDs) == 0 {
		return fail("no trap uuids given")
	}
	records, err := t.coordinator.FetchLatestRecordsForTraps(ctx, trapUUIDs, forceRefresh)
	if err != nil {
		return fail("failed to fetch trap records: %v", err)
	}
	return ok(map[string]any{"records": records, "count": len(records)})
}

// GetTrapRecordsByTrap returns up to limit records for one trap,
// newest first.
func (t *Tools) GetTrapRecordsByTrap(ctx context.Context, trapUUID string, limit int, forceRefresh bool) Result {
	if trapUUID == "" {
		return fail("no trap uuid given")
	}
	records, err := t.coordinator.FetchTrapRecordsByTrap(ctx, trapUUID, limit, forceRefresh)
	if err != nil {
		return fail("failed to fetch trap records: %v", err)
	}
	return ok(map[string]any{"records": records, "count": len(records)})
}

// SearchTrapsByStatus filters the mirrored traps by overall health.
func (t *Tools) SearchTrapsByStatus(ctx context.Context, status string) Result {
	health := model.ParseHealth(status)
	traps, err := t.store.GetAllTraps(ctx)
	if err != nil {
		return fail("failed to list traps: %v", err)
	}

	matched := make([]model.Trap, 0)
	for _, trap := range traps {
		if trap.OverallHealth == health {
			matched = append(matched, trap)
		}
	}
	return ok(map[string]any{"traps": matched, "count": len(matched), "status": string(health)})
}

// SearchTrapsByType filters the mirrored traps by trap type,
// matching case-insensitively on substring so "DOC" finds DOC200 and
// DOC250 alike.
func (t *Tools) SearchTrapsByType(ctx context.Context, trapType string) Result {
	if trapType == "" {
		return fail("no trap type given")
	}
	traps, err := t.store.GetAllTraps(ctx)
	if err != nil {
		return fail("failed to list traps: %v", err)
	}

	needle := strings.ToLower(trapType)
	matched := make([]model.Trap, 0)
	for _, trap := range traps {
		if strings.Contains(strings.ToLower(trap.TrapType), needle) {
			matched = append(matched, trap)
		}
	}
	return ok(map[string]any{"traps": matched, "count": len(matched), "trap_type": trapType})
}

// UpdateVolunteer stores or replaces a volunteer's preferences.
func (t *Tools) UpdateVolunteer(ctx context.Context, name, preferences string) Result {
	if name == "" {
		return fail("no volunteer name given")
	}
	volunteer := model.Volunteer{Name: name, Preferences: preferences}
	if err := t.store.UpsertVolunteer(ctx, volunteer); err != nil {
		return fail("failed to store volunteer: %v", err)
	}
	t.logger.Info("volunteer updated", zap.String("name", name))
	return ok(map[string]any{"volunteer": volunteer})
}

// GetVolunteers lists every stored volunteer.
func (t *Tools) GetVolunteers(ctx context.Context) Result {
	volunteers, err := t.store.GetVolunteers(ctx)
	if err != nil {
		return fail("failed to list volunteers: %v", err)
	}
	return ok(map[string]any{"volunteers": volunteers, "count": len(volunteers)})
}
