// Package model holds the typed Trap.NZ entities mirrored by this
// service. Entities are decoded from API payloads at the remote
// boundary (see decode.go) and reconstructed from rows by the store.
package model

import (
	"encoding/json"
	"time"
)

// Owner identifies the user that created an entity upstream.
type Owner struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}

// Meta carries the upstream bookkeeping fields embedded in every
// top-level entity. Informational only; nothing references it.
type Meta struct {
	Created           time.Time `json:"created"`
	Changed           time.Time `json:"changed"`
	Owner             Owner     `json:"owner"`
	NID               int       `json:"nid"`
	OriginatingSystem string    `json:"originating_system"`
}

// Coordinates is a GeoJSON-style point with bounding box. The wire
// shape is {"coordinates": [lon, lat], "bbox": [...]}; it is flattened
// to named fields here and to lon/lat columns in the store.
type Coordinates struct {
	Lon  float64
	Lat  float64
	BBox []float64
}

type coordinatesWire struct {
	Coordinates []float64 `json:"coordinates"`
	BBox        []float64 `json:"bbox"`
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var raw coordinatesWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Coordinates) >= 2 {
		c.Lon = raw.Coordinates[0]
		c.Lat = raw.Coordinates[1]
	}
	c.BBox = raw.BBox
	return nil
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal(coordinatesWire{
		Coordinates: []float64{c.Lon, c.Lat},
		BBox:        c.BBox,
	})
}

// Tag is a label shared across projects, lines and traps. Identity is
// the uuid; tid is the upstream numeric id.
type Tag struct {
	TID  int    `json:"tid"`
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// Organisation is a group that owns or co-manages entities.
type Organisation struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// Project is the root of the containment hierarchy.
type Project struct {
	UUID                string         `json:"uuid"`
	Name                string         `json:"name"`
	Location            string         `json:"location"`
	Tags                []Tag          `json:"tags"`
	IsListed            bool           `json:"is_listed"`
	ShareSummaryData    bool           `json:"share_summary_data"`
	Curated             bool           `json:"curated"`
	Organisations       []Organisation `json:"organisations"`
	Contact             string         `json:"contact"`
	ContactOrganisation string         `json:"contact_organisation"`
	Description         string         `json:"description"`
	Websites            []string       `json:"websites"`
	Meta                Meta           `json:"meta"`
}

// Line is a trap line. It belongs to exactly one Project, embedded as
// an owned value.
type Line struct {
	UUID                string         `json:"uuid"`
	Name                string         `json:"name"`
	Project             Project        `json:"project"`
	Tags                []Tag          `json:"tags"`
	IsListed            bool           `json:"is_listed"`
	ShareSummaryData    bool           `json:"share_summary_data"`
	Curated             bool           `json:"curated"`
	Organisations       []Organisation `json:"organisations"`
	Contact             string         `json:"contact"`
	ContactOrganisation string         `json:"contact_organisation"`
	Description         string         `json:"description"`
	Websites            []string       `json:"websites"`
	Meta                Meta           `json:"meta"`
}

// Trap is a single pest-control device with its telemetry snapshot.
// It belongs to exactly one Line and, transitively, one Project; both
// are embedded as owned values. When a Trap is reconstructed from the
// store the embedded Project and Line carry identity (uuid) only; see
// the store contract.
type Trap struct {
	UUID                string         `json:"uuid"`
	Name                string         `json:"name"`
	Project             Project        `json:"project"`
	Line                Line           `json:"line"`
	Tags                []Tag          `json:"tags"`
	IsListed            bool           `json:"is_listed"`
	ShareSummaryData    bool           `json:"share_summary_data"`
	Curated             bool           `json:"curated"`
	Organisations       []Organisation `json:"organisations"`
	Contact             string         `json:"contact"`
	ContactOrganisation string         `json:"contact_organisation"`
	Description         string         `json:"description"`
	Websites            []string       `json:"websites"`
	Meta                Meta           `json:"meta"`

	TrapType           string            `json:"trap_type"`
	Coordinates        Coordinates       `json:"coordinates"`
	Elevation          float64           `json:"elevation"`
	LastCheck          *time.Time        `json:"last_check"`
	LastReset          *time.Time        `json:"last_reset"`
	RunTime            int               `json:"run_time"`
	BatteryVoltage     float64           `json:"battery_voltage"`
	BarState           string            `json:"bar_state"`
	Eye1               int               `json:"eye_1"`
	Eye2               int               `json:"eye_2"`
	Ambient1           int               `json:"ambient_1"`
	Ambient2           int               `json:"ambient_2"`
	LifeCycles         int               `json:"life_cycles"`
	AllCycles          int               `json:"all_cycles"`
	CyclesByEye        int               `json:"cycles_by_eye"`
	BaitCycles         int               `json:"bait_cycles"`
	Possums            int               `json:"possums"`
	DaysBetweenBaiting int               `json:"days_between_baiting"`
	BaitRunTimeSeconds int               `json:"bait_run_time_seconds"`
	SetState           bool              `json:"set_state"`
	Runon              int               `json:"runon"`
	PrefeedDays        int               `json:"prefeed_days"`
	TempCelsius        float64           `json:"temp_celsius"`
	HardReboots        int               `json:"hard_reboots"`
	LastError          string            `json:"last_error"`
	LastErrorLevel     string            `json:"last_error_level"`
	LastRebootReason   string            `json:"last_reboot_reason"`
	Event              string            `json:"event"`
	RcomsReason        string            `json:"rcoms_reason"`
	LongLog            string            `json:"long_log"`
	ShortLog           string            `json:"short_log"`
	Diary              string            `json:"diary"`
	Eeprom             string            `json:"eeprom"`
	Rtcbu              string            `json:"rtcbu"`
	Extended           map[string]any    `json:"extended"`
	SetStatus          Health            `json:"set_status"`
	BatteryHealth      Health            `json:"battery_health"`
	Eye1Health         Health            `json:"eye_1_health"`
	Eye2Health         Health            `json:"eye_2_health"`
	RebootReasonHealth Health            `json:"reboot_reason_health"`
	OverallHealth      Health            `json:"overall_health"`
	TrapStatusReasons  []string          `json:"trap_status_reasons"`
}

// TrapRecord is one timestamped telemetry observation from a Trap.
// Date is the natural ordering key. The embedded Trap, Project and
// Line are owned values; reconstructed records carry thin references
// (identity only).
type TrapRecord struct {
	UUID    string  `json:"uuid"`
	Trap    Trap    `json:"trap"`
	Project Project `json:"project"`
	Line    Line    `json:"line"`
	Meta    Meta    `json:"meta"`

	Date           time.Time `json:"date"`
	Event          string    `json:"event"`
	Status         string    `json:"status"`
	RSSI           *float64  `json:"rssi"`
	BatteryVoltage *float64  `json:"battery_voltage"`
	SNR            *float64  `json:"snr"`
	SensorID       *string   `json:"sensor_id"`
	SensorProvider *string   `json:"sensor_provider"`
}

// Volunteer is a human coordinator, keyed by name. Preferences is an
// opaque JSON document owned by the agent layer; the store never
// parses it.
type Volunteer struct {
	Name        string `json:"name"`
	Preferences string `json:"preferences"`
}
