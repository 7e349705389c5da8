package tools

import "context"

// Dispatch routes a named tool invocation with loosely-typed
// arguments, as delivered by the command consumer. Argument values
// follow JSON decoding conventions (numbers arrive as float64).
func (t *Tools) Dispatch(ctx context.Context, name string, args map[string]any) Result {
	switch name {
	case "get_all_lines":
		return t.GetAllLines(ctx)
	case "get_all_traps":
		return t.GetAllTraps(ctx)
	case "get_all_trap_records":
		return t.GetAllTrapRecords(ctx)
	case "get_lines_by_uuids":
		return t.GetLinesByUUIDs(ctx, stringsArg(args, "line_uuids"), boolArg(args, "force_refresh"))
	case "get_traps_by_line_uuids":
		return t.GetTrapsByLineUUIDs(ctx, stringsArg(args, "line_uuids"), boolArg(args, "force_refresh"))
	case "get_latest_records_for_traps":
		return t.GetLatestRecordsForTraps(ctx, stringsArg(args, "trap_uuids"), boolArg(args, "force_refresh"))
	case "get_trap_records_by_trap":
		return t.GetTrapRecordsByTrap(ctx, stringArg(args, "trap_uuid"), intArg(args, "limit"), boolArg(args, "force_refresh"))
	case "search_traps_by_status":
		return t.SearchTrapsByStatus(ctx, stringArg(args, "status"))
	case "search_traps_by_type":
		return t.SearchTrapsByType(ctx, stringArg(args, "trap_type"))
	case "get_trap_performance_summary":
		return t.GetTrapPerformanceSummary(ctx, stringArg(args, "trap_uuid"))
	case "get_line_summary":
		return t.GetLineSummary(ctx, stringArg(args, "line_uuid"))
	case "update_volunteer":
		return t.UpdateVolunteer(ctx, stringArg(args, "name"), stringArg(args, "preferences"))
	case "get_volunteers":
		return t.GetVolunteers(ctx)
	default:
		return fail("unknown tool %q", name)
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func stringsArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}
