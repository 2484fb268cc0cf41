package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calib_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseFile(t *testing.T) {
	path := writeTempCSV(t, `id,FieldId,HeliostatId,SunPosE,SunPosN,SunPosU,LastScore,IsDeleted,CreatedAt,UpdatedAt
1,1,11034,0.0,-1.0,0.0,0.95,0,2022-06-01T09:30:00,2022-06-01T09:35:00
2,1,20215,1.0,0.0,0.0,0.87,1,2022-06-01 13:15:00,
`)

	records, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.EqualValues(t, 1, first.ID)
	require.Equal(t, 11034, first.HeliostatID)
	require.Equal(t, 1, first.FieldID)
	require.Equal(t, 0.95, first.LastScore)
	require.False(t, first.IsDeleted)
	require.Equal(t, 9, first.CreatedAt.Hour())
	require.Equal(t, 35, first.UpdatedAt.Minute())
	// Sun due south on the horizon
	require.InDelta(t, 0, first.Azimuth, 1e-9)
	require.InDelta(t, 0, first.Elevation, 1e-9)

	second := records[1]
	require.True(t, second.IsDeleted)
	require.Equal(t, 13, second.CreatedAt.Hour())
	// UpdatedAt falls back to CreatedAt when the cell is empty
	require.Equal(t, second.CreatedAt, second.UpdatedAt)
	// Sun due east
	require.InDelta(t, 90, second.Azimuth, 1e-9)
}

func TestParseFileRFC3339(t *testing.T) {
	path := writeTempCSV(t, `id,HeliostatId,CreatedAt
7,10125,2022-09-05T12:30:45Z
`)

	records, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, time.Date(2022, 9, 5, 12, 30, 45, 0, time.UTC), records[0].CreatedAt)
}

func TestParseFileMalformedTimestamp(t *testing.T) {
	path := writeTempCSV(t, `id,HeliostatId,CreatedAt
1,11034,2022-06-01T09:30:00
2,11034,not-a-timestamp
`)

	_, err := ParseFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "row 3")
	require.Contains(t, err.Error(), "CreatedAt")
}

func TestParseFileMissingRequiredColumn(t *testing.T) {
	path := writeTempCSV(t, `id,SensorName,Value
1,foo,1.0
`)

	_, err := ParseFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "HeliostatId")
}

func TestParseFileMalformedNumber(t *testing.T) {
	path := writeTempCSV(t, `id,HeliostatId,SunPosE,CreatedAt
1,11034,not-a-number,2022-06-01T09:30:00
`)

	_, err := ParseFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "SunPosE")
}

func TestParseFileEmpty(t *testing.T) {
	path := writeTempCSV(t, "")

	_, err := ParseFile(path)
	require.Error(t, err)
}

func TestParseFileSkipsBlankRows(t *testing.T) {
	path := writeTempCSV(t, `id,HeliostatId,CreatedAt
1,11034,2022-06-01T09:30:00

2,11034,2022-06-01T10:30:00
`)

	records, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
}
