package store

import (
	"context"
	"fmt"
)

// schemaStatements creates every table the mirror needs. The DDL is
// kept to the portable subset both sqlite and postgres accept.
// Timestamps are stored as RFC 3339 UTC text so lexical order matches
// chronological order in either engine.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT,
		is_listed BOOLEAN,
		share_summary_data BOOLEAN,
		curated BOOLEAN,
		contact TEXT,
		contact_organisation TEXT,
		description TEXT,
		websites TEXT,
		created TEXT,
		changed TEXT,
		owner_uuid TEXT,
		owner_username TEXT,
		nid INTEGER,
		originating_system TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS organisations (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		uuid TEXT PRIMARY KEY,
		tid INTEGER,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lines (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		project_uuid TEXT REFERENCES projects (uuid),
		is_listed BOOLEAN,
		share_summary_data BOOLEAN,
		curated BOOLEAN,
		contact TEXT,
		contact_organisation TEXT,
		description TEXT,
		websites TEXT,
		created TEXT,
		changed TEXT,
		owner_uuid TEXT,
		owner_username TEXT,
		nid INTEGER,
		originating_system TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS traps (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		project_uuid TEXT REFERENCES projects (uuid),
		line_uuid TEXT REFERENCES lines (uuid),
		trap_type TEXT,
		elevation REAL,
		last_check TEXT,
		last_reset TEXT,
		run_time INTEGER,
		battery_voltage REAL,
		bar_state TEXT,
		eye_1 INTEGER,
		eye_2 INTEGER,
		ambient_1 INTEGER,
		ambient_2 INTEGER,
		life_cycles INTEGER,
		all_cycles INTEGER,
		cycles_by_eye INTEGER,
		bait_cycles INTEGER,
		possums INTEGER,
		days_between_baiting INTEGER,
		bait_run_time_seconds INTEGER,
		set_state BOOLEAN,
		runon INTEGER,
		prefeed_days INTEGER,
		temp_celsius REAL,
		hard_reboots INTEGER,
		last_error TEXT,
		last_error_level TEXT,
		last_reboot_reason TEXT,
		event TEXT,
		rcoms_reason TEXT,
		long_log TEXT,
		short_log TEXT,
		diary TEXT,
		eeprom TEXT,
		rtcbu TEXT,
		extended TEXT,
		set_status TEXT,
		battery_health TEXT,
		eye_1_health TEXT,
		eye_2_health TEXT,
		reboot_reason_health TEXT,
		overall_health TEXT,
		trap_status_reasons TEXT,
		coordinates_lon REAL,
		coordinates_lat REAL,
		coordinates_bbox TEXT,
		created TEXT,
		changed TEXT,
		owner_uuid TEXT,
		owner_username TEXT,
		nid INTEGER,
		originating_system TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS trap_records (
		uuid TEXT PRIMARY KEY,
		trap_uuid TEXT REFERENCES traps (uuid),
		project_uuid TEXT REFERENCES projects (uuid),
		line_uuid TEXT REFERENCES lines (uuid),
		date TEXT,
		event TEXT,
		status TEXT,
		rssi REAL,
		battery_voltage REAL,
		snr REAL,
		sensor_id TEXT,
		sensor_provider TEXT,
		created TEXT,
		changed TEXT,
		owner_uuid TEXT,
		owner_username TEXT,
		nid INTEGER,
		originating_system TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS project_organisations (
		project_uuid TEXT REFERENCES projects (uuid),
		organisation_uuid TEXT REFERENCES organisations (uuid),
		PRIMARY KEY (project_uuid, organisation_uuid)
	)`,
	`CREATE TABLE IF NOT EXISTS project_tags (
		project_uuid TEXT REFERENCES projects (uuid),
		tag_uuid TEXT REFERENCES tags (uuid),
		PRIMARY KEY (project_uuid, tag_uuid)
	)`,
	`CREATE TABLE IF NOT EXISTS line_organisations (
		line_uuid TEXT REFERENCES lines (uuid),
		organisation_uuid TEXT REFERENCES organisations (uuid),
		PRIMARY KEY (line_uuid, organisation_uuid)
	)`,
	`CREATE TABLE IF NOT EXISTS line_tags (
		line_uuid TEXT REFERENCES lines (uuid),
		tag_uuid TEXT REFERENCES tags (uuid),
		PRIMARY KEY (line_uuid, tag_uuid)
	)`,
	`CREATE TABLE IF NOT EXISTS trap_organisations (
		trap_uuid TEXT REFERENCES traps (uuid),
		organisation_uuid TEXT REFERENCES organisations (uuid),
		PRIMARY KEY (trap_uuid, organisation_uuid)
	)`,
	`CREATE TABLE IF NOT EXISTS trap_tags (
		trap_uuid TEXT REFERENCES traps (uuid),
		tag_uuid TEXT REFERENCES tags (uuid),
		PRIMARY KEY (trap_uuid, tag_uuid)
	)`,
	`CREATE TABLE IF NOT EXISTS volunteers (
		name TEXT PRIMARY KEY,
		preferences TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_traps_line_uuid ON traps (line_uuid)`,
	`CREATE INDEX IF NOT EXISTS idx_trap_records_trap_uuid ON trap_records (trap_uuid)`,
	`CREATE INDEX IF NOT EXISTS idx_trap_records_date ON trap_records (trap_uuid, date)`,
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
