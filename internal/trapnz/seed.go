package trapnz

import (
	"time"

	"github.com/kahurangi/trapnz-mirror/internal/model"
)

// Seed identifiers for the sample chain every fixture starts with.
// Tests across packages key off these.
const (
	SeedLineUUID    = "test-line-1"
	SeedTrapUUID    = "test-trap-1"
	SeedRecordUUID  = "test-record-1"
	SeedProjectUUID = "test-project-1"
)

func seedTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func seedMeta(nid int) model.Meta {
	return model.Meta{
		Created:           seedTime("2025-01-10T00:00:00Z"),
		Changed:           seedTime("2025-01-10T00:00:00Z"),
		Owner:             model.Owner{UUID: "test-owner", Username: "testuser"},
		NID:               nid,
		OriginatingSystem: "test",
	}
}

// SeedProject returns the sample project.
func SeedProject() model.Project {
	return model.Project{
		UUID:                SeedProjectUUID,
		Name:                "Test Project 1",
		Location:            "Test Location",
		Tags:                []model.Tag{{TID: 1, Name: "test", UUID: "test-tag-1"}},
		IsListed:            true,
		ShareSummaryData:    true,
		Curated:             false,
		Organisations:       []model.Organisation{{Name: "Test Org", UUID: "test-org-1"}},
		Contact:             "test@example.com",
		ContactOrganisation: "Test Org",
		Description:         "Test project description",
		Websites:            []string{"https://test.example.com"},
		Meta:                seedMeta(1),
	}
}

// SeedLine returns the sample line, owned by the sample project.
func SeedLine() model.Line {
	return model.Line{
		UUID:                SeedLineUUID,
		Name:                "Test Line 1",
		Project:             SeedProject(),
		Tags:                []model.Tag{{TID: 2, Name: "line-test", UUID: "test-tag-2"}},
		IsListed:            true,
		ShareSummaryData:    true,
		Curated:             false,
		Organisations:       []model.Organisation{{Name: "Test Org", UUID: "test-org-1"}},
		Contact:             "test@example.com",
		ContactOrganisation: "Test Org",
		Description:         "Test line description",
		Websites:            []string{"https://test.example.com"},
		Meta:                seedMeta(1),
	}
}

// SeedTrap returns the sample trap, owned by the sample line.
func SeedTrap() model.Trap {
	lastCheck := seedTime("2025-01-10T12:00:00Z")
	lastReset := seedTime("2025-01-10T10:00:00Z")

	return model.Trap{
		UUID:                SeedTrapUUID,
		Name:                "Test Trap 1",
		Project:             SeedProject(),
		Line:                SeedLine(),
		Tags:                []model.Tag{{TID: 3, Name: "trap-test", UUID: "test-tag-3"}},
		IsListed:            true,
		ShareSummaryData:    true,
		Curated:             false,
		Organisations:       []model.Organisation{{Name: "Test Org", UUID: "test-org-1"}},
		Contact:             "test@example.com",
		ContactOrganisation: "Test Org",
		Description:         "Test trap description",
		Websites:            []string{"https://test.example.com"},
		Meta:                seedMeta(1),

		TrapType: "DOC200",
		Coordinates: model.Coordinates{
			Lon:  174.0,
			Lat:  -41.0,
			BBox: []float64{173.9, -41.1, 174.1, -40.9},
		},
		Elevation:          100.0,
		LastCheck:          &lastCheck,
		LastReset:          &lastReset,
		RunTime:            7200,
		BatteryVoltage:     12.5,
		BarState:           "Set",
		Eye1:               1,
		Eye2:               1,
		Ambient1:           20,
		Ambient2:           20,
		LifeCycles:         50,
		AllCycles:          100,
		CyclesByEye:        25,
		BaitCycles:         10,
		Possums:            5,
		DaysBetweenBaiting: 30,
		BaitRunTimeSeconds: 3600,
		SetState:           true,
		Runon:              1,
		PrefeedDays:        3,
		TempCelsius:        18.5,
		HardReboots:        0,
		LastError:          "None",
		LastErrorLevel:     "Success",
		LastRebootReason:   "None",
		Event:              "Heartbeat",
		RcomsReason:        "NORMAL",
		LongLog:            "Test log entry",
		ShortLog:           "Test",
		Diary:              "Test diary entry",
		Eeprom:             "Test eeprom data",
		Rtcbu:              "Test rtcbu data",
		Extended:           map[string]any{"test_key": "test_value"},
		SetStatus:          model.HealthGreen,
		BatteryHealth:      model.HealthGreen,
		Eye1Health:         model.HealthGreen,
		Eye2Health:         model.HealthGreen,
		RebootReasonHealth: model.HealthGreen,
		OverallHealth:      model.HealthGreen,
		TrapStatusReasons:  []string{"not set"},
	}
}

// SeedRecord returns the sample trap record, owned by the sample trap.
func SeedRecord() model.TrapRecord {
	rssi := -45.0
	battery := 12.5
	snr := 15.0
	sensorID := "test-sensor-1"
	sensorProvider := "test-provider"

	return model.TrapRecord{
		UUID:    SeedRecordUUID,
		Trap:    SeedTrap(),
		Project: SeedProject(),
		Line:    SeedLine(),
		Meta: model.Meta{
			Created:           seedTime("2025-01-10T12:00:00Z"),
			Changed:           seedTime("2025-01-10T12:00:00Z"),
			Owner:             model.Owner{UUID: "test-owner", Username: "testuser"},
			NID:               1,
			OriginatingSystem: "test",
		},
		Date:           seedTime("2025-01-10T12:00:00Z"),
		Event:          "Heartbeat",
		Status:         "Set",
		RSSI:           &rssi,
		BatteryVoltage: &battery,
		SNR:            &snr,
		SensorID:       &sensorID,
		SensorProvider: &sensorProvider,
	}
}
