// Package cache coordinates reads between the remote Trap.NZ source
// and the local store. Data is served from the store whenever the
// endpoint category was fetched within the freshness window; otherwise
// the remote source is consulted first and the store refreshed.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/kahurangi/trapnz-mirror/internal/model"
	"github.com/kahurangi/trapnz-mirror/internal/store"
	"github.com/kahurangi/trapnz-mirror/internal/trapnz"
)

// Freshness is tracked per endpoint category, not per entity: one
// successful lines fetch makes every lines read fresh until the
// window lapses.
const (
	categoryLines   = "lines"
	categoryTraps   = "traps"
	categoryRecords = "records"
)

// DefaultFreshnessWindow is how long a category stays fresh after a
// remote fetch.
const DefaultFreshnessWindow = time.Hour

// Snapshot is the result of a full retrieval pass over a set of lines.
type Snapshot struct {
	Lines   []model.Line       `json:"lines"`
	Traps   []model.Trap       `json:"traps"`
	Records []model.TrapRecord `json:"records"`
}

// Coordinator is the caching layer between the remote source and the
// local store. Safe for concurrent use.
type Coordinator struct {
	store     *store.Store
	source    trapnz.Source
	freshness *gocache.Cache
	window    time.Duration
	mu        sync.Mutex
	logger    *zap.Logger
}

func NewCoordinator(st *store.Store, source trapnz.Source, window time.Duration, logger *zap.Logger) *Coordinator {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return &Coordinator{
		store:     st,
		source:    source,
		freshness: gocache.New(window, 2*window),
		window:    window,
		logger:    logger,
	}
}

func (c *Coordinator) needsRefresh(category string, force bool) bool {
	if force {
		return true
	}
	_, fresh := c.freshness.Get(category)
	return !fresh
}

func (c *Coordinator) markFetched(category string) {
	c.freshness.SetDefault(category, time.Now().UTC())
}

// FetchLinesByUUIDs returns the requested lines, refreshing them from
// the remote source first when the lines category is stale or force
// is set. Lines the source does not know are skipped, not errors.
func (c *Coordinator) FetchLinesByUUIDs(ctx context.Context, lineUUIDs []string, force bool) ([]model.Line, error) {
	c.mu.Lock()
	if c.needsRefresh(categoryLines, force) {
		c.refreshLines(ctx, lineUUIDs)
		c.markFetched(categoryLines)
	}
	c.mu.Unlock()

	lines, err := c.store.GetLinesByUUIDs(ctx, lineUUIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read lines from store: %w", err)
	}
	return lines, nil
}

// FetchTrapsByLineUUIDs returns every trap on the requested lines,
// refreshing the traps category first when stale.
func (c *Coordinator) FetchTrapsByLineUUIDs(ctx context.Context, lineUUIDs []string, force bool) ([]model.Trap, error) {
	c.mu.Lock()
	if c.needsRefresh(categoryTraps, force) {
		c.refreshTraps(ctx, lineUUIDs)
		c.markFetched(categoryTraps)
	}
	c.mu.Unlock()

	traps, err := c.store.GetTrapsByLineUUIDs(ctx, lineUUIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read traps from store: %w", err)
	}
	return traps, nil
}

// FetchLatestRecordsForTraps returns the most recent record per
// requested trap, refreshing the records category first when stale.
func (c *Coordinator) FetchLatestRecordsForTraps(ctx context.Context, trapUUIDs []string, force bool) ([]model.TrapRecord, error) {
	c.mu.Lock()
	if c.needsRefresh(categoryRecords, force) {
		c.refreshRecords(ctx, trapUUIDs)
		c.markFetched(categoryRecords)
	}
	c.mu.Unlock()

	records, err := c.store.GetLatestRecordForTraps(ctx, trapUUIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read trap records from store: %w", err)
	}
	return records, nil
}

// RetrieveAll walks the containment chain for the given lines: lines,
// then their traps, then the latest record per trap. The trap set is
// taken from the freshly-read lines, so the snapshot is internally
// consistent.
func (c *Coordinator) RetrieveAll(ctx context.Context, lineUUIDs []string, force bool) (*Snapshot, error) {
	lines, err := c.FetchLinesByUUIDs(ctx, lineUUIDs, force)
	if err != nil {
		return nil, err
	}

	knownLineUUIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		knownLineUUIDs = append(knownLineUUIDs, line.UUID)
	}

	traps, err := c.FetchTrapsByLineUUIDs(ctx, knownLineUUIDs, force)
	if err != nil {
		return nil, err
	}

	trapUUIDs := make([]string, 0, len(traps))
	for _, trap := range traps {
		trapUUIDs = append(trapUUIDs, trap.UUID)
	}

	records, err := c.FetchLatestRecordsForTraps(ctx, trapUUIDs, force)
	if err != nil {
		return nil, err
	}

	c.logger.Info("retrieval pass complete",
		zap.Int("lines", len(lines)),
		zap.Int("traps", len(traps)),
		zap.Int("records", len(records)),
	)
	return &Snapshot{Lines: lines, Traps: traps, Records: records}, nil
}

// refreshLines pulls each requested line from the source and upserts
// it. Source failures are logged and skipped so one bad line cannot
// poison the batch; the store keeps serving whatever it already has.
func (c *Coordinator) refreshLines(ctx context.Context, lineUUIDs []string) {
	for _, lineUUID := range lineUUIDs {
		line, err := c.source.GetLine(ctx, lineUUID)
		if err != nil {
			c.logger.Warn("failed to fetch line from source",
				zap.String("line_uuid", lineUUID), zap.Error(err))
			continue
		}
		if line == nil {
			continue
		}
		if err := c.store.UpsertLine(ctx, line); err != nil {
			c.logger.Warn("failed to store line",
				zap.String("line_uuid", lineUUID), zap.Error(err))
		}
	}
}

func (c *Coordinator) refreshTraps(ctx context.Context, lineUUIDs []string) {
	for _, lineUUID := range lineUUIDs {
		traps, err := c.source.GetTrapsByLine(ctx, lineUUID)
		if err != nil {
			c.logger.Warn("failed to fetch traps from source",
				zap.String("line_uuid", lineUUID), zap.Error(err))
			continue
		}
		for i := range traps {
			if err := c.store.UpsertTrap(ctx, &traps[i]); err != nil {
				c.logger.Warn("failed to store trap",
					zap.String("trap_uuid", traps[i].UUID), zap.Error(err))
			}
		}
	}
}

func (c *Coordinator) refreshRecords(ctx context.Context, trapUUIDs []string) {
	for _, trapUUID := range trapUUIDs {
		records, err := c.source.GetTrapRecords(ctx, trapUUID, 1, "DESC", "date")
		if err != nil {
			c.logger.Warn("failed to fetch trap records from source",
				zap.String("trap_uuid", trapUUID), zap.Error(err))
			continue
		}
		for i := range records {
			if err := c.store.UpsertTrapRecord(ctx, &records[i]); err != nil {
				c.logger.Warn("failed to store trap record",
					zap.String("record_uuid", records[i].UUID), zap.Error(err))
			}
		}
	}
}

// FetchTrapRecordsByTrap returns up to limit records for one trap,
// newest first, refreshing the records category when stale. The
// remote fetch asks for the same limit so history depth matches.
func (c *Coordinator) FetchTrapRecordsByTrap(ctx context.Context, trapUUID string, limit int, force bool) ([]model.TrapRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	c.mu.Lock()
	if c.needsRefresh(categoryRecords, force) {
		records, err := c.source.GetTrapRecords(ctx, trapUUID, limit, "DESC", "date")
		if err != nil {
			c.logger.Warn("failed to fetch trap records from source",
				zap.String("trap_uuid", trapUUID), zap.Error(err))
		}
		for i := range records {
			if err := c.store.UpsertTrapRecord(ctx, &records[i]); err != nil {
				c.logger.Warn("failed to store trap record",
					zap.String("record_uuid", records[i].UUID), zap.Error(err))
			}
		}
		c.markFetched(categoryRecords)
	}
	c.mu.Unlock()

	records, err := c.store.GetTrapRecordsByTrap(ctx, trapUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read trap records from store: %w", err)
	}
	return records, nil
}

// Invalidate clears the freshness stamp for every category, forcing
// the next read of each to consult the remote source.
func (c *Coordinator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freshness.Flush()
	c.logger.Info("freshness stamps cleared")
}
