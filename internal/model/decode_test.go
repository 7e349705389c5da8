package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validLineJSON = `{
	"uuid": "line-1",
	"name": "Ridge Line",
	"project": {
		"uuid": "project-1",
		"name": "Sanctuary",
		"meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}
	},
	"tags": [{"tid": 7, "name": "priority", "uuid": "tag-1"}],
	"meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}
}`

func TestDecodeLine(t *testing.T) {
	line, err := DecodeLine([]byte(validLineJSON))
	require.NoError(t, err)
	assert.Equal(t, "line-1", line.UUID)
	assert.Equal(t, "Sanctuary", line.Project.Name)
	require.Len(t, line.Tags, 1)
	assert.Equal(t, 7, line.Tags[0].TID)
}

func TestDecodeLineMissingName(t *testing.T) {
	payload := `{
		"uuid": "line-1",
		"project": {"uuid": "project-1", "name": "Sanctuary", "meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}},
		"meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}
	}`

	_, err := DecodeLine([]byte(payload))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "line.name", vErr.Field)
}

func TestDecodeLineMissingProjectUUID(t *testing.T) {
	payload := `{
		"uuid": "line-1",
		"name": "Ridge Line",
		"project": {"name": "Sanctuary"},
		"meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}
	}`

	_, err := DecodeLine([]byte(payload))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "line.project.uuid", vErr.Field)
}

func TestDecodeLineBadTag(t *testing.T) {
	payload := `{
		"uuid": "line-1",
		"name": "Ridge Line",
		"project": {"uuid": "project-1", "name": "Sanctuary", "meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}},
		"tags": [{"tid": 7, "uuid": "tag-1"}],
		"meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}
	}`

	_, err := DecodeLine([]byte(payload))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "line.tags[0].name", vErr.Field)
}

func TestDecodeTrapTypeMismatch(t *testing.T) {
	payload := `{
		"uuid": "trap-1",
		"name": "T01",
		"battery_voltage": "twelve"
	}`

	_, err := DecodeTrap([]byte(payload))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Field, "battery_voltage")
}

func TestDecodeTrapProjectConsistency(t *testing.T) {
	payload := `{
		"uuid": "trap-1",
		"name": "T01",
		"project": {"uuid": "project-1", "name": "Sanctuary", "meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}},
		"line": {
			"uuid": "line-1",
			"name": "Ridge Line",
			"project": {"uuid": "project-OTHER", "name": "Elsewhere", "meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}},
			"meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}
		},
		"meta": {"created": "2025-01-10T00:00:00Z", "changed": "2025-01-10T00:00:00Z"}
	}`

	_, err := DecodeTrap([]byte(payload))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "trap.line.project.uuid", vErr.Field)
}

func TestDecodeTrapRecordInconsistentLine(t *testing.T) {
	payload := `{
		"uuid": "record-1",
		"date": "2025-01-10T12:00:00Z",
		"trap": {"uuid": "trap-1", "line": {"uuid": "line-1"}},
		"line": {"uuid": "line-OTHER"},
		"project": {"uuid": "project-1"},
		"meta": {"created": "2025-01-10T12:00:00Z", "changed": "2025-01-10T12:00:00Z"}
	}`

	_, err := DecodeTrapRecord([]byte(payload))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "record.line.uuid", vErr.Field)
}

func TestDecodeTrapRecordMissingDate(t *testing.T) {
	payload := `{
		"uuid": "record-1",
		"trap": {"uuid": "trap-1"},
		"line": {"uuid": "line-1"},
		"project": {"uuid": "project-1"},
		"meta": {"created": "2025-01-10T12:00:00Z", "changed": "2025-01-10T12:00:00Z"}
	}`

	_, err := DecodeTrapRecord([]byte(payload))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "record.date", vErr.Field)
}

func TestDecodeNotJSON(t *testing.T) {
	_, err := DecodeLine([]byte(`not json`))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.NotEmpty(t, vErr.Reason)
}

func TestHealthParsing(t *testing.T) {
	assert.Equal(t, HealthGreen, ParseHealth("green"))
	assert.Equal(t, HealthAmber, ParseHealth(" Amber "))
	assert.Equal(t, HealthRed, ParseHealth("RED"))
	assert.Equal(t, HealthUnknown, ParseHealth("purple"))
	assert.Equal(t, HealthUnknown, ParseHealth(""))
}

func TestHealthUnmarshalNormalises(t *testing.T) {
	var h Health
	require.NoError(t, json.Unmarshal([]byte(`"GREEN"`), &h))
	assert.Equal(t, HealthGreen, h)

	require.NoError(t, json.Unmarshal([]byte(`"broken"`), &h))
	assert.Equal(t, HealthUnknown, h)
}

func TestCoordinatesJSON(t *testing.T) {
	var c Coordinates
	require.NoError(t, json.Unmarshal(
		[]byte(`{"coordinates": [174.0, -41.0], "bbox": [173.9, -41.1, 174.1, -40.9]}`), &c))
	assert.Equal(t, 174.0, c.Lon)
	assert.Equal(t, -41.0, c.Lat)
	assert.Equal(t, []float64{173.9, -41.1, 174.1, -40.9}, c.BBox)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"coordinates": [174, -41], "bbox": [173.9, -41.1, 174.1, -40.9]}`, string(out))
}

func TestCoordinatesShortArray(t *testing.T) {
	var c Coordinates
	require.NoError(t, json.Unmarshal([]byte(`{"coordinates": []}`), &c))
	assert.Zero(t, c.Lon)
	assert.Zero(t, c.Lat)
}
