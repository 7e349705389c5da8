package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kahurangi/trapnz-mirror/internal/model"
	"go.uber.org/zap"
)

// GetLinesByUUIDs reconstructs the requested lines from rows,
// including each line's fully-populated owning project. Unknown uuids
// are skipped, so the result may be shorter than the request.
func (s *Store) GetLinesByUUIDs(ctx context.Context, uuids []string) ([]model.Line, error) {
	lines := make([]model.Line, 0, len(uuids))
	for _, id := range uuids {
		line, err := s.getLine(ctx, id)
		if err != nil {
			return nil, err
		}
		if line == nil {
			continue
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

// GetAllLines returns every line known to the store, reconstructed
// through the same path as GetLinesByUUIDs.
func (s *Store) GetAllLines(ctx context.Context) ([]model.Line, error) {
	uuids, err := s.selectStrings(ctx, `SELECT uuid FROM lines ORDER BY uuid`)
	if err != nil {
		return nil, err
	}
	return s.GetLinesByUUIDs(ctx, uuids)
}

// GetTrapsByLineUUIDs reconstructs every trap on the requested lines.
//
// Contract: the embedded Project and Line on a trap read this way are
// thin references carrying identity (uuid) only; callers needing full
// parent detail must query the line by that uuid. Tags and
// organisations of the trap itself are likewise not loaded here.
func (s *Store) GetTrapsByLineUUIDs(ctx context.Context, lineUUIDs []string) ([]model.Trap, error) {
	var traps []model.Trap
	for _, lineUUID := range lineUUIDs {
		batch, err := s.getTrapsByLine(ctx, lineUUID)
		if err != nil {
			return nil, err
		}
		traps = append(traps, batch...)
	}
	return traps, nil
}

// GetAllTraps returns every trap known to the store. The id set is
// derived from the store's own rows, so traps never fetched through
// the coordinator cannot appear here.
func (s *Store) GetAllTraps(ctx context.Context) ([]model.Trap, error) {
	lineUUIDs, err := s.selectStrings(ctx, `SELECT DISTINCT line_uuid FROM traps ORDER BY line_uuid`)
	if err != nil {
		return nil, err
	}
	return s.GetTrapsByLineUUIDs(ctx, lineUUIDs)
}

// GetLatestRecordForTraps returns the most recent record per
// requested trap. Traps without records are skipped. Parent
// references on the result are thin (identity only).
func (s *Store) GetLatestRecordForTraps(ctx context.Context, trapUUIDs []string) ([]model.TrapRecord, error) {
	records := make([]model.TrapRecord, 0, len(trapUUIDs))
	for _, trapUUID := range trapUUIDs {
		batch, err := s.getTrapRecords(ctx, trapUUID, 1)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

// GetAllTrapRecords returns the latest record for every trap that has
// records in the store.
func (s *Store) GetAllTrapRecords(ctx context.Context) ([]model.TrapRecord, error) {
	trapUUIDs, err := s.selectStrings(ctx, `SELECT DISTINCT trap_uuid FROM trap_records ORDER BY trap_uuid`)
	if err != nil {
		return nil, err
	}
	return s.GetLatestRecordForTraps(ctx, trapUUIDs)
}

// GetTrapRecordsByTrap returns up to limit records for one trap,
// newest first.
func (s *Store) GetTrapRecordsByTrap(ctx context.Context, trapUUID string, limit int) ([]model.TrapRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.getTrapRecords(ctx, trapUUID, limit)
}

func (s *Store) getLine(ctx context.Context, lineUUID string) (*model.Line, error) {
	query := s.rebind(`
		SELECT uuid, name, project_uuid, is_listed, share_summary_data, curated,
		       contact, contact_organisation, description, websites,
		       created, changed, owner_uuid, owner_username, nid, originating_system
		FROM lines WHERE uuid = ?
	`)

	var (
		line        model.Line
		projectUUID string
		websites    sql.NullString
		created     string
		changed     string
	)
	err := s.db.QueryRowContext(ctx, query, lineUUID).Scan(
		&line.UUID, &line.Name, &projectUUID,
		&line.IsListed, &line.ShareSummaryData, &line.Curated,
		&line.Contact, &line.ContactOrganisation, &line.Description,
		&websites, &created, &changed,
		&line.Meta.Owner.UUID, &line.Meta.Owner.Username,
		&line.Meta.NID, &line.Meta.OriginatingSystem,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query line %s: %w", lineUUID, err)
	}

	line.Websites = unmarshalStrings(websites)
	line.Meta.Created = parseTime(created)
	line.Meta.Changed = parseTime(changed)

	project, err := s.getProject(ctx, projectUUID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		// Orphaned reference; substitute an identity-only placeholder
		// rather than failing the read.
		s.logger.Warn("line references unknown project",
			zap.String("line_uuid", lineUUID),
			zap.String("project_uuid", projectUUID),
		)
		project = &model.Project{UUID: projectUUID}
	}
	line.Project = *project

	if line.Organisations, err = s.getOrganisationsFor(ctx, "line", lineUUID); err != nil {
		return nil, err
	}
	if line.Tags, err = s.getTagsFor(ctx, "line", lineUUID); err != nil {
		return nil, err
	}
	return &line, nil
}

func (s *Store) getProject(ctx context.Context, projectUUID string) (*model.Project, error) {
	query := s.rebind(`
		SELECT uuid, name, location, is_listed, share_summary_data, curated,
		       contact, contact_organisation, description, websites,
		       created, changed, owner_uuid, owner_username, nid, originating_system
		FROM projects WHERE uuid = ?
	`)

	var (
		project  model.Project
		websites sql.NullString
		created  string
		changed  string
	)
	err := s.db.QueryRowContext(ctx, query, projectUUID).Scan(
		&project.UUID, &project.Name, &project.Location,
		&project.IsListed, &project.ShareSummaryData, &project.Curated,
		&project.Contact, &project.ContactOrganisation, &project.Description,
		&websites, &created, &changed,
		&project.Meta.Owner.UUID, &project.Meta.Owner.Username,
		&project.Meta.NID, &project.Meta.OriginatingSystem,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project %s: %w", projectUUID, err)
	}

	project.Websites = unmarshalStrings(websites)
	project.Meta.Created = parseTime(created)
	project.Meta.Changed = parseTime(changed)

	if project.Organisations, err = s.getOrganisationsFor(ctx, "project", projectUUID); err != nil {
		return nil, err
	}
	if project.Tags, err = s.getTagsFor(ctx, "project", projectUUID); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) getTrapsByLine(ctx context.Context, lineUUID string) ([]model.Trap, error) {
	query := s.rebind(`
		SELECT uuid, name, project_uuid, line_uuid, trap_type, elevation,
		       last_check, last_reset, run_time, battery_voltage, bar_state,
		       eye_1, eye_2, ambient_1, ambient_2, life_cycles, all_cycles,
		       cycles_by_eye, bait_cycles, possums, days_between_baiting,
		       bait_run_time_seconds, set_state, runon, prefeed_days,
		       temp_celsius, hard_reboots, last_error, last_error_level,
		       last_reboot_reason, event, rcoms_reason, long_log, short_log,
		       diary, eeprom, rtcbu, extended, set_status, battery_health,
		       eye_1_health, eye_2_health, reboot_reason_health, overall_health,
		       trap_status_reasons, coordinates_lon, coordinates_lat, coordinates_bbox,
		       created, changed, owner_uuid, owner_username, nid, originating_system
		FROM traps WHERE line_uuid = ? ORDER BY name
	`)

	rows, err := s.db.QueryContext(ctx, query, lineUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query traps for line %s: %w", lineUUID, err)
	}
	defer rows.Close()

	var traps []model.Trap
	for rows.Next() {
		trap, err := scanTrap(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trap row: %w", err)
		}
		traps = append(traps, *trap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return traps, nil
}

func scanTrap(rows *sql.Rows) (*model.Trap, error) {
	var (
		trap              model.Trap
		projectUUID       string
		lineUUID          string
		lastCheck         sql.NullString
		lastReset         sql.NullString
		extended          sql.NullString
		setStatus         string
		batteryHealth     string
		eye1Health        string
		eye2Health        string
		rebootHealth      string
		overallHealth     string
		trapStatusReasons sql.NullString
		bbox              sql.NullString
		created           string
		changed           string
	)

	err := rows.Scan(
		&trap.UUID, &trap.Name, &projectUUID, &lineUUID,
		&trap.TrapType, &trap.Elevation,
		&lastCheck, &lastReset, &trap.RunTime, &trap.BatteryVoltage, &trap.BarState,
		&trap.Eye1, &trap.Eye2, &trap.Ambient1, &trap.Ambient2,
		&trap.LifeCycles, &trap.AllCycles, &trap.CyclesByEye, &trap.BaitCycles,
		&trap.Possums, &trap.DaysBetweenBaiting, &trap.BaitRunTimeSeconds,
		&trap.SetState, &trap.Runon, &trap.PrefeedDays,
		&trap.TempCelsius, &trap.HardReboots, &trap.LastError, &trap.LastErrorLevel,
		&trap.LastRebootReason, &trap.Event, &trap.RcomsReason,
		&trap.LongLog, &trap.ShortLog, &trap.Diary, &trap.Eeprom, &trap.Rtcbu,
		&extended, &setStatus, &batteryHealth,
		&eye1Health, &eye2Health, &rebootHealth, &overallHealth,
		&trapStatusReasons, &trap.Coordinates.Lon, &trap.Coordinates.Lat, &bbox,
		&created, &changed,
		&trap.Meta.Owner.UUID, &trap.Meta.Owner.Username,
		&trap.Meta.NID, &trap.Meta.OriginatingSystem,
	)
	if err != nil {
		return nil, err
	}

	// Thin parent references: identity only. Full project/line detail
	// lives behind GetLinesByUUIDs.
	trap.Project = model.Project{UUID: projectUUID}
	trap.Line = model.Line{UUID: lineUUID, Project: model.Project{UUID: projectUUID}}

	trap.LastCheck = parseTimePtr(lastCheck)
	trap.LastReset = parseTimePtr(lastReset)
	trap.Extended = unmarshalMap(extended)
	trap.SetStatus = model.ParseHealth(setStatus)
	trap.BatteryHealth = model.ParseHealth(batteryHealth)
	trap.Eye1Health = model.ParseHealth(eye1Health)
	trap.Eye2Health = model.ParseHealth(eye2Health)
	trap.RebootReasonHealth = model.ParseHealth(rebootHealth)
	trap.OverallHealth = model.ParseHealth(overallHealth)
	trap.TrapStatusReasons = unmarshalStrings(trapStatusReasons)
	trap.Coordinates.BBox = unmarshalFloats(bbox)
	trap.Meta.Created = parseTime(created)
	trap.Meta.Changed = parseTime(changed)

	return &trap, nil
}

func (s *Store) getTrapRecords(ctx context.Context, trapUUID string, limit int) ([]model.TrapRecord, error) {
	query := s.rebind(`
		SELECT uuid, trap_uuid, project_uuid, line_uuid, date, event, status,
		       rssi, battery_voltage, snr, sensor_id, sensor_provider,
		       created, changed, owner_uuid, owner_username, nid, originating_system
		FROM trap_records
		WHERE trap_uuid = ?
		ORDER BY date DESC
		LIMIT ?
	`)

	rows, err := s.db.QueryContext(ctx, query, trapUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records for trap %s: %w", trapUUID, err)
	}
	defer rows.Close()

	var records []model.TrapRecord
	for rows.Next() {
		var (
			record         model.TrapRecord
			recTrapUUID    string
			projectUUID    string
			lineUUID       string
			date           string
			rssi           sql.NullFloat64
			battery        sql.NullFloat64
			snr            sql.NullFloat64
			sensorID       sql.NullString
			sensorProvider sql.NullString
			created        string
			changed        string
		)
		err := rows.Scan(
			&record.UUID, &recTrapUUID, &projectUUID, &lineUUID,
			&date, &record.Event, &record.Status,
			&rssi, &battery, &snr, &sensorID, &sensorProvider,
			&created, &changed,
			&record.Meta.Owner.UUID, &record.Meta.Owner.Username,
			&record.Meta.NID, &record.Meta.OriginatingSystem,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trap record row: %w", err)
		}

		thinProject := model.Project{UUID: projectUUID}
		thinLine := model.Line{UUID: lineUUID, Project: thinProject}
		record.Project = thinProject
		record.Line = thinLine
		record.Trap = model.Trap{UUID: recTrapUUID, Project: thinProject, Line: thinLine}

		record.Date = parseTime(date)
		record.RSSI = floatPtr(rssi)
		record.BatteryVoltage = floatPtr(battery)
		record.SNR = floatPtr(snr)
		record.SensorID = stringPtr(sensorID)
		record.SensorProvider = stringPtr(sensorProvider)
		record.Meta.Created = parseTime(created)
		record.Meta.Changed = parseTime(changed)

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return records, nil
}

func (s *Store) getOrganisationsFor(ctx context.Context, owner, ownerUUID string) ([]model.Organisation, error) {
	query := s.rebind(fmt.Sprintf(`
		SELECT o.uuid, o.name
		FROM organisations o
		JOIN %s_organisations j ON o.uuid = j.organisation_uuid
		WHERE j.%s_uuid = ?
		ORDER BY o.name
	`, owner, owner))

	rows, err := s.db.QueryContext(ctx, query, ownerUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query organisations for %s %s: %w", owner, ownerUUID, err)
	}
	defer rows.Close()

	var orgs []model.Organisation
	for rows.Next() {
		var org model.Organisation
		if err := rows.Scan(&org.UUID, &org.Name); err != nil {
			return nil, fmt.Errorf("failed to scan organisation row: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return orgs, nil
}

func (s *Store) getTagsFor(ctx context.Context, owner, ownerUUID string) ([]model.Tag, error) {
	query := s.rebind(fmt.Sprintf(`
		SELECT t.uuid, t.tid, t.name
		FROM tags t
		JOIN %s_tags j ON t.uuid = j.tag_uuid
		WHERE j.%s_uuid = ?
		ORDER BY t.name
	`, owner, owner))

	rows, err := s.db.QueryContext(ctx, query, ownerUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags for %s %s: %w", owner, ownerUUID, err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.UUID, &tag.TID, &tag.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return tags, nil
}

func (s *Store) selectStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return values, nil
}
