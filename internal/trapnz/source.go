// Package trapnz provides access to the Trap.NZ REST API. Two
// implementations of Source exist: the live HTTP client and an
// in-memory fixture used for deterministic tests. Selection is made
// by the caller at construction time, never inside this package.
package trapnz

import (
	"context"
	"encoding/json"

	"github.com/kahurangi/trapnz-mirror/internal/model"
)

// Source is the remote data source contract the cache coordinator
// depends on. Absent data is (nil, nil) / (empty, nil), not an error:
// transient remote failures are logged by the implementation and
// reported as "no data" so callers can fall back to the local store.
type Source interface {
	// GetLine returns the line with the given uuid, or nil when the
	// remote has no such line or cannot be reached.
	GetLine(ctx context.Context, lineUUID string) (*model.Line, error)

	// GetTrapsByLine returns every trap on the given line.
	GetTrapsByLine(ctx context.Context, lineUUID string) ([]model.Trap, error)

	// GetTrapRecords returns up to limit records for the given trap,
	// sorted by sortColumn in sortOrder ("asc" or "desc").
	GetTrapRecords(ctx context.Context, trapUUID string, limit int, sortOrder, sortColumn string) ([]model.TrapRecord, error)
}

// listResponse is the paginated envelope the API wraps collections in.
type listResponse struct {
	Total int               `json:"total"`
	Items []json.RawMessage `json:"items"`
}
