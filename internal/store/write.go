package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kahurangi/trapnz-mirror/internal/model"
)

// UpsertProject stores a project, its organisations and tags, and the
// join rows, replacing any previous version with the same uuid.
func (s *Store) UpsertProject(ctx context.Context, project *model.Project) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.upsertProjectTx(ctx, tx, project)
	})
}

// UpsertLine stores a line together with its owning project.
func (s *Store) UpsertLine(ctx context.Context, line *model.Line) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.upsertLineTx(ctx, tx, line)
	})
}

// UpsertTrap stores a trap together with its owning line and project.
func (s *Store) UpsertTrap(ctx context.Context, trap *model.Trap) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.upsertTrapTx(ctx, tx, trap)
	})
}

// UpsertTrapRecord stores one record row. Parent trap, line and
// project rows are created from the record's embedded references if
// they are missing; existing parent rows are left untouched.
func (s *Store) UpsertTrapRecord(ctx context.Context, record *model.TrapRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.upsertTrapRecordTx(ctx, tx, record)
	})
}

func (s *Store) upsertProjectTx(ctx context.Context, tx *sql.Tx, project *model.Project) error {
	query := s.rebind(`
		INSERT INTO projects (
			uuid, name, location, is_listed, share_summary_data, curated,
			contact, contact_organisation, description, websites,
			created, changed, owner_uuid, owner_username, nid, originating_system
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (uuid) DO UPDATE SET
			name = excluded.name,
			location = excluded.location,
			is_listed = excluded.is_listed,
			share_summary_data = excluded.share_summary_data,
			curated = excluded.curated,
			contact = excluded.contact,
			contact_organisation = excluded.contact_organisation,
			description = excluded.description,
			websites = excluded.websites,
			created = excluded.created,
			changed = excluded.changed,
			owner_uuid = excluded.owner_uuid,
			owner_username = excluded.owner_username,
			nid = excluded.nid,
			originating_system = excluded.originating_system
	`)

	_, err := tx.ExecContext(ctx, query,
		project.UUID, project.Name, project.Location,
		project.IsListed, project.ShareSummaryData, project.Curated,
		project.Contact, project.ContactOrganisation, project.Description,
		marshalJSON(project.Websites),
		formatTime(project.Meta.Created), formatTime(project.Meta.Changed),
		project.Meta.Owner.UUID, project.Meta.Owner.Username,
		project.Meta.NID, project.Meta.OriginatingSystem,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert project %s: %w", project.UUID, err)
	}

	if err := s.upsertOwnedRelationsTx(ctx, tx, "project", project.UUID, project.Organisations, project.Tags); err != nil {
		return err
	}
	return nil
}

func (s *Store) upsertLineTx(ctx context.Context, tx *sql.Tx, line *model.Line) error {
	// The embedded project is authoritative at fetch time; store it so
	// line reads can reconstruct it in full.
	if err := s.upsertProjectTx(ctx, tx, &line.Project); err != nil {
		return err
	}
	return s.upsertLineRowTx(ctx, tx, line)
}

// upsertLineRowTx writes the line row and its relations without
// touching the project row.
func (s *Store) upsertLineRowTx(ctx context.Context, tx *sql.Tx, line *model.Line) error {
	query := s.rebind(`
		INSERT INTO lines (
			uuid, name, project_uuid, is_listed, share_summary_data, curated,
			contact, contact_organisation, description, websites,
			created, changed, owner_uuid, owner_username, nid, originating_system
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (uuid) DO UPDATE SET
			name = excluded.name,
			project_uuid = excluded.project_uuid,
			is_listed = excluded.is_listed,
			share_summary_data = excluded.share_summary_data,
			curated = excluded.curated,
			contact = excluded.contact,
			contact_organisation = excluded.contact_organisation,
			description = excluded.description,
			websites = excluded.websites,
			created = excluded.created,
			changed = excluded.changed,
			owner_uuid = excluded.owner_uuid,
			owner_username = excluded.owner_username,
			nid = excluded.nid,
			originating_system = excluded.originating_system
	`)

	_, err := tx.ExecContext(ctx, query,
		line.UUID, line.Name, line.Project.UUID,
		line.IsListed, line.ShareSummaryData, line.Curated,
		line.Contact, line.ContactOrganisation, line.Description,
		marshalJSON(line.Websites),
		formatTime(line.Meta.Created), formatTime(line.Meta.Changed),
		line.Meta.Owner.UUID, line.Meta.Owner.Username,
		line.Meta.NID, line.Meta.OriginatingSystem,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert line %s: %w", line.UUID, err)
	}

	return s.upsertOwnedRelationsTx(ctx, tx, "line", line.UUID, line.Organisations, line.Tags)
}

func (s *Store) upsertTrapTx(ctx context.Context, tx *sql.Tx, trap *model.Trap) error {
	if err := s.upsertLineTx(ctx, tx, &trap.Line); err != nil {
		return err
	}
	return s.upsertTrapRowTx(ctx, tx, trap)
}

// upsertTrapRowTx writes the trap row and its relations without
// touching the line or project rows.
func (s *Store) upsertTrapRowTx(ctx context.Context, tx *sql.Tx, trap *model.Trap) error {
	query := s.rebind(`
		INSERT INTO traps (
			uuid, name, project_uuid, line_uuid, trap_type, elevation,
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
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
		ON CONFLICT (uuid) DO UPDATE SET
			name = excluded.name,
			project_uuid = excluded.project_uuid,
			line_uuid = excluded.line_uuid,
			trap_type = excluded.trap_type,
			elevation = excluded.elevation,
			last_check = excluded.last_check,
			last_reset = excluded.last_reset,
			run_time = excluded.run_time,
			battery_voltage = excluded.battery_voltage,
			bar_state = excluded.bar_state,
			eye_1 = excluded.eye_1,
			eye_2 = excluded.eye_2,
			ambient_1 = excluded.ambient_1,
			ambient_2 = excluded.ambient_2,
			life_cycles = excluded.life_cycles,
			all_cycles = excluded.all_cycles,
			cycles_by_eye = excluded.cycles_by_eye,
			bait_cycles = excluded.bait_cycles,
			possums = excluded.possums,
			days_between_baiting = excluded.days_between_baiting,
			bait_run_time_seconds = excluded.bait_run_time_seconds,
			set_state = excluded.set_state,
			runon = excluded.runon,
			prefeed_days = excluded.prefeed_days,
			temp_celsius = excluded.temp_celsius,
			hard_reboots = excluded.hard_reboots,
			last_error = excluded.last_error,
			last_error_level = excluded.last_error_level,
			last_reboot_reason = excluded.last_reboot_reason,
			event = excluded.event,
			rcoms_reason = excluded.rcoms_reason,
			long_log = excluded.long_log,
			short_log = excluded.short_log,
			diary = excluded.diary,
			eeprom = excluded.eeprom,
			rtcbu = excluded.rtcbu,
			extended = excluded.extended,
			set_status = excluded.set_status,
			battery_health = excluded.battery_health,
			eye_1_health = excluded.eye_1_health,
			eye_2_health = excluded.eye_2_health,
			reboot_reason_health = excluded.reboot_reason_health,
			overall_health = excluded.overall_health,
			trap_status_reasons = excluded.trap_status_reasons,
			coordinates_lon = excluded.coordinates_lon,
			coordinates_lat = excluded.coordinates_lat,
			coordinates_bbox = excluded.coordinates_bbox,
			created = excluded.created,
			changed = excluded.changed,
			owner_uuid = excluded.owner_uuid,
			owner_username = excluded.owner_username,
			nid = excluded.nid,
			originating_system = excluded.originating_system
	`)

	_, err := tx.ExecContext(ctx, query,
		trap.UUID, trap.Name, trap.Project.UUID, trap.Line.UUID,
		trap.TrapType, trap.Elevation,
		formatTimePtr(trap.LastCheck), formatTimePtr(trap.LastReset),
		trap.RunTime, trap.BatteryVoltage, trap.BarState,
		trap.Eye1, trap.Eye2, trap.Ambient1, trap.Ambient2,
		trap.LifeCycles, trap.AllCycles, trap.CyclesByEye, trap.BaitCycles,
		trap.Possums, trap.DaysBetweenBaiting, trap.BaitRunTimeSeconds,
		trap.SetState, trap.Runon, trap.PrefeedDays, trap.TempCelsius,
		trap.HardReboots, trap.LastError, trap.LastErrorLevel,
		trap.LastRebootReason, trap.Event, trap.RcomsReason,
		trap.LongLog, trap.ShortLog, trap.Diary, trap.Eeprom, trap.Rtcbu,
		marshalJSON(trap.Extended),
		string(trap.SetStatus), string(trap.BatteryHealth),
		string(trap.Eye1Health), string(trap.Eye2Health),
		string(trap.RebootReasonHealth), string(trap.OverallHealth),
		marshalJSON(trap.TrapStatusReasons),
		trap.Coordinates.Lon, trap.Coordinates.Lat,
		marshalJSON(trap.Coordinates.BBox),
		formatTime(trap.Meta.Created), formatTime(trap.Meta.Changed),
		trap.Meta.Owner.UUID, trap.Meta.Owner.Username,
		trap.Meta.NID, trap.Meta.OriginatingSystem,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert trap %s: %w", trap.UUID, err)
	}

	return s.upsertOwnedRelationsTx(ctx, tx, "trap", trap.UUID, trap.Organisations, trap.Tags)
}

func (s *Store) upsertTrapRecordTx(ctx context.Context, tx *sql.Tx, record *model.TrapRecord) error {
	// A record can arrive before its trap was ever fetched in full.
	// Placeholder parent rows keep the foreign keys satisfied; a later
	// trap or line fetch overwrites them with real data.
	if err := s.ensureParentRowsTx(ctx, tx, record); err != nil {
		return err
	}

	query := s.rebind(`
		INSERT INTO trap_records (
			uuid, trap_uuid, project_uuid, line_uuid, date, event, status,
			rssi, battery_voltage, snr, sensor_id, sensor_provider,
			created, changed, owner_uuid, owner_username, nid, originating_system
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (uuid) DO UPDATE SET
			trap_uuid = excluded.trap_uuid,
			project_uuid = excluded.project_uuid,
			line_uuid = excluded.line_uuid,
			date = excluded.date,
			event = excluded.event,
			status = excluded.status,
			rssi = excluded.rssi,
			battery_voltage = excluded.battery_voltage,
			snr = excluded.snr,
			sensor_id = excluded.sensor_id,
			sensor_provider = excluded.sensor_provider,
			created = excluded.created,
			changed = excluded.changed,
			owner_uuid = excluded.owner_uuid,
			owner_username = excluded.owner_username,
			nid = excluded.nid,
			originating_system = excluded.originating_system
	`)

	_, err := tx.ExecContext(ctx, query,
		record.UUID, record.Trap.UUID, record.Project.UUID, record.Line.UUID,
		formatTime(record.Date), record.Event, record.Status,
		record.RSSI, record.BatteryVoltage, record.SNR,
		record.SensorID, record.SensorProvider,
		formatTime(record.Meta.Created), formatTime(record.Meta.Changed),
		record.Meta.Owner.UUID, record.Meta.Owner.Username,
		record.Meta.NID, record.Meta.OriginatingSystem,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert trap record %s: %w", record.UUID, err)
	}
	return nil
}

// ensureParentRowsTx makes sure the project, line and trap a record
// points at all have rows, creating them from the record's embedded
// references when absent. Existing rows are never overwritten: the
// embedded references on a record may be thin, and a full fetch of
// the parent is the only thing allowed to replace real data.
func (s *Store) ensureParentRowsTx(ctx context.Context, tx *sql.Tx, record *model.TrapRecord) error {
	exists, err := s.rowExistsTx(ctx, tx, "projects", record.Project.UUID)
	if err != nil {
		return err
	}
	if !exists {
		project := record.Project
		if err := s.upsertProjectTx(ctx, tx, &project); err != nil {
			return err
		}
	}

	exists, err = s.rowExistsTx(ctx, tx, "lines", record.Line.UUID)
	if err != nil {
		return err
	}
	if !exists {
		line := record.Line
		if line.Project.UUID == "" {
			line.Project.UUID = record.Project.UUID
		}
		if err := s.upsertLineRowTx(ctx, tx, &line); err != nil {
			return err
		}
	}

	exists, err = s.rowExistsTx(ctx, tx, "traps", record.Trap.UUID)
	if err != nil {
		return err
	}
	if !exists {
		trap := record.Trap
		if trap.Project.UUID == "" {
			trap.Project.UUID = record.Project.UUID
		}
		if trap.Line.UUID == "" {
			trap.Line.UUID = record.Line.UUID
		}
		if err := s.upsertTrapRowTx(ctx, tx, &trap); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) rowExistsTx(ctx context.Context, tx *sql.Tx, table, uuid string) (bool, error) {
	query := s.rebind(fmt.Sprintf(`SELECT 1 FROM %s WHERE uuid = ?`, table))
	var one int
	err := tx.QueryRowContext(ctx, query, uuid).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s %s: %w", table, uuid, err)
	}
	return true, nil
}

// upsertOwnedRelationsTx stores the organisations and tags owned by
// one entity plus the corresponding join rows. Organisation and tag
// rows are shared across owners; re-storing the same uuid never
// creates a duplicate.
func (s *Store) upsertOwnedRelationsTx(ctx context.Context, tx *sql.Tx, owner, ownerUUID string, orgs []model.Organisation, tags []model.Tag) error {
	orgUpsert := s.rebind(`
		INSERT INTO organisations (uuid, name) VALUES (?, ?)
		ON CONFLICT (uuid) DO UPDATE SET name = excluded.name
	`)
	orgJoin := s.rebind(fmt.Sprintf(`
		INSERT INTO %s_organisations (%s_uuid, organisation_uuid) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, owner, owner))

	for _, org := range orgs {
		if _, err := tx.ExecContext(ctx, orgUpsert, org.UUID, org.Name); err != nil {
			return fmt.Errorf("failed to upsert organisation %s: %w", org.UUID, err)
		}
		if _, err := tx.ExecContext(ctx, orgJoin, ownerUUID, org.UUID); err != nil {
			return fmt.Errorf("failed to link organisation %s to %s %s: %w", org.UUID, owner, ownerUUID, err)
		}
	}

	tagUpsert := s.rebind(`
		INSERT INTO tags (uuid, tid, name) VALUES (?, ?, ?)
		ON CONFLICT (uuid) DO UPDATE SET tid = excluded.tid, name = excluded.name
	`)
	tagJoin := s.rebind(fmt.Sprintf(`
		INSERT INTO %s_tags (%s_uuid, tag_uuid) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, owner, owner))

	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx, tagUpsert, tag.UUID, tag.TID, tag.Name); err != nil {
			return fmt.Errorf("failed to upsert tag %s: %w", tag.UUID, err)
		}
		if _, err := tx.ExecContext(ctx, tagJoin, ownerUUID, tag.UUID); err != nil {
			return fmt.Errorf("failed to link tag %s to %s %s: %w", tag.UUID, owner, ownerUUID, err)
		}
	}
	return nil
}
