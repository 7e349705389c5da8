package trapnz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFixtureSeedChain(t *testing.T) {
	f := NewFixture(zap.NewNop())
	ctx := context.Background()

	line, err := f.GetLine(ctx, SeedLineUUID)
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, "Test Line 1", line.Name)
	assert.Equal(t, SeedProjectUUID, line.Project.UUID)

	traps, err := f.GetTrapsByLine(ctx, SeedLineUUID)
	require.NoError(t, err)
	require.Len(t, traps, 1)
	assert.Equal(t, SeedTrapUUID, traps[0].UUID)

	records, err := f.GetTrapRecords(ctx, SeedTrapUUID, 10, "DESC", "date")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, SeedRecordUUID, records[0].UUID)
}

func TestFixtureUnknownLine(t *testing.T) {
	f := NewFixture(zap.NewNop())

	line, err := f.GetLine(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, line)

	traps, err := f.GetTrapsByLine(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, traps)
}

func TestFixtureRecordSortAndLimit(t *testing.T) {
	f := NewFixture(zap.NewNop())
	base := SeedRecord()
	for i := 0; i < 3; i++ {
		record := base
		record.UUID = base.UUID + string(rune('a'+i))
		record.Date = base.Date.Add(time.Duration(i+1) * time.Hour)
		f.AddRecord(SeedTrapUUID, record)
	}

	records, err := f.GetTrapRecords(context.Background(), SeedTrapUUID, 2, "DESC", "date")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Date.After(records[1].Date))
	assert.Equal(t, base.Date.Add(3*time.Hour), records[0].Date)

	asc, err := f.GetTrapRecords(context.Background(), SeedTrapUUID, 0, "asc", "date")
	require.NoError(t, err)
	require.Len(t, asc, 4)
	assert.Equal(t, SeedRecordUUID, asc[0].UUID)
}

func TestFixtureClear(t *testing.T) {
	f := NewFixture(zap.NewNop())
	f.Clear()

	line, err := f.GetLine(context.Background(), SeedLineUUID)
	require.NoError(t, err)
	assert.Nil(t, line)
}
