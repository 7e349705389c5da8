package tools

import (
	"context"
	"strings"
	"time"
)

const performanceRecordLimit = 100

// GetTrapPerformanceSummary aggregates up to performanceRecordLimit
// of a trap's most recent stored records into catch, battery and
// activity figures. Reads the local store only; pair with a keyed
// getter first if fresh data is needed.
func (t *Tools) GetTrapPerformanceSummary(ctx context.Context, trapUUID string) Result {
	if trapUUID == "" {
		return fail("no trap uuid given")
	}

	records, err := t.store.GetTrapRecordsByTrap(ctx, trapUUID, performanceRecordLimit)
	if err != nil {
		return fail("failed to read trap records: %v", err)
	}
	if len(records) == 0 {
		return fail("no records found for trap %s", trapUUID)
	}

	var (
		possumEvents int
		batterySum   float64
		batteryCount int
		batteryMin   float64
		batteryMax   float64
	)
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.Event), "possum") {
			possumEvents++
		}
		if record.BatteryVoltage == nil {
			continue
		}
		v := *record.BatteryVoltage
		if batteryCount == 0 || v < batteryMin {
			batteryMin = v
		}
		if batteryCount == 0 || v > batteryMax {
			batteryMax = v
		}
		batterySum += v
		batteryCount++
	}

	recent := make([]map[string]any, 0, 10)
	for _, record := range records {
		if len(recent) == 10 {
			break
		}
		entry := map[string]any{
			"date":   record.Date.Format(time.RFC3339),
			"event":  record.Event,
			"status": record.Status,
		}
		if record.BatteryVoltage != nil {
			entry["battery_voltage"] = *record.BatteryVoltage
		}
		recent = append(recent, entry)
	}

	data := map[string]any{
		"trap_uuid":     trapUUID,
		"record_count":  len(records),
		"possum_events": possumEvents,
		"recent_events": recent,
	}
	if batteryCount > 0 {
		data["average_battery"] = batterySum / float64(batteryCount)
		data["min_battery"] = batteryMin
		data["max_battery"] = batteryMax
	}
	return ok(data)
}

// GetLineSummary aggregates the stored health of every trap on a
// line. Reads the local store only.
func (t *Tools) GetLineSummary(ctx context.Context, lineUUID string) Result {
	if lineUUID == "" {
		return fail("no line uuid given")
	}

	lines, err := t.store.GetLinesByUUIDs(ctx, []string{lineUUID})
	if err != nil {
		return fail("failed to read line: %v", err)
	}
	if len(lines) == 0 {
		return fail("line %s not found", lineUUID)
	}
	line := lines[0]

	traps, err := t.store.GetTrapsByLineUUIDs(ctx, []string{lineUUID})
	if err != nil {
		return fail("failed to read traps: %v", err)
	}

	var healthy, totalPossums int
	digests := make([]map[string]any, 0, len(traps))
	for _, trap := range traps {
		if trap.OverallHealth.IsHealthy() {
			healthy++
		}
		totalPossums += trap.Possums
		digests = append(digests, map[string]any{
			"uuid":           trap.UUID,
			"name":           trap.Name,
			"trap_type":      trap.TrapType,
			"overall_health": string(trap.OverallHealth),
			"possums":        trap.Possums,
		})
	}

	healthPercentage := 0.0
	if len(traps) > 0 {
		healthPercentage = float64(healthy) / float64(len(traps)) * 100
	}

	return ok(map[string]any{
		"line_uuid":         line.UUID,
		"line_name":         line.Name,
		"project_name":      line.Project.Name,
		"total_traps":       len(traps),
		"healthy_traps":     healthy,
		"health_percentage": healthPercentage,
		"total_possums":     totalPossums,
		"traps":             digests,
	})
}
