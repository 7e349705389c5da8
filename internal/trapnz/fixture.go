package trapnz

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kahurangi/trapnz-mirror/internal/model"
	"go.uber.org/zap"
)

// Fixture is the canned Source implementation used in test mode. It
// serves entities from in-memory maps, pre-seeded with one complete
// line/trap/record chain, and exposes mutators so tests can drive
// scenarios without network access.
type Fixture struct {
	mu      sync.RWMutex
	lines   map[string]model.Line
	traps   map[string][]model.Trap       // keyed by line uuid
	records map[string][]model.TrapRecord // keyed by trap uuid
	logger  *zap.Logger
}

// NewFixture creates a fixture source seeded with the sample chain.
func NewFixture(logger *zap.Logger) *Fixture {
	f := &Fixture{
		lines:   make(map[string]model.Line),
		traps:   make(map[string][]model.Trap),
		records: make(map[string][]model.TrapRecord),
		logger:  logger,
	}

	line := SeedLine()
	trap := SeedTrap()
	record := SeedRecord()
	f.lines[line.UUID] = line
	f.traps[line.UUID] = []model.Trap{trap}
	f.records[trap.UUID] = []model.TrapRecord{record}

	return f
}

// GetLine returns the canned line with the given uuid, if any.
func (f *Fixture) GetLine(_ context.Context, lineUUID string) (*model.Line, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	line, ok := f.lines[lineUUID]
	if !ok {
		return nil, nil
	}
	return &line, nil
}

// GetTrapsByLine returns the canned traps for the given line.
func (f *Fixture) GetTrapsByLine(_ context.Context, lineUUID string) ([]model.Trap, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	traps := make([]model.Trap, len(f.traps[lineUUID]))
	copy(traps, f.traps[lineUUID])
	return traps, nil
}

// GetTrapRecords returns up to limit canned records for the given
// trap, sorted by date when sortColumn is "date".
func (f *Fixture) GetTrapRecords(_ context.Context, trapUUID string, limit int, sortOrder, sortColumn string) ([]model.TrapRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	records := make([]model.TrapRecord, len(f.records[trapUUID]))
	copy(records, f.records[trapUUID])

	if sortColumn == "date" || sortColumn == "" {
		desc := strings.EqualFold(sortOrder, "desc")
		sort.SliceStable(records, func(i, j int) bool {
			if desc {
				return records[i].Date.After(records[j].Date)
			}
			return records[i].Date.Before(records[j].Date)
		})
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// AddLine adds or replaces a canned line.
func (f *Fixture) AddLine(line model.Line) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lines[line.UUID] = line
	f.logger.Info("added fixture line", zap.String("line_uuid", line.UUID))
}

// AddTrap adds a canned trap under the given line.
func (f *Fixture) AddTrap(lineUUID string, trap model.Trap) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.traps[lineUUID] = append(f.traps[lineUUID], trap)
	f.logger.Info("added fixture trap",
		zap.String("line_uuid", lineUUID),
		zap.String("trap_uuid", trap.UUID),
	)
}

// AddRecord adds a canned record under the given trap.
func (f *Fixture) AddRecord(trapUUID string, record model.TrapRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records[trapUUID] = append(f.records[trapUUID], record)
	f.logger.Info("added fixture record",
		zap.String("trap_uuid", trapUUID),
		zap.String("record_uuid", record.UUID),
	)
}

// Clear removes all canned data, including the seed chain.
func (f *Fixture) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lines = make(map[string]model.Line)
	f.traps = make(map[string][]model.Trap)
	f.records = make(map[string][]model.TrapRecord)
	f.logger.Info("cleared fixture data")
}
