package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []Row {
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("UTC+8", 8*3600))
	out := in.Add(8*time.Hour + 30*time.Minute)
	hours := 8.5
	return []Row{
		{
			Date:         "2024-03-01",
			UserName:     "Alice, Jr.",
			UserEmail:    "alice@company.com",
			CheckInTime:  &in,
			CheckOutTime: &out,
			Status:       "late",
			TotalHours:   &hours,
		},
		{Date: "2024-02-29", UserName: "Bob", UserEmail: "bob@company.com", Status: "absent"},
	}
}

func TestCSV(t *testing.T) {
	data, err := CSV(sampleRows())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{
		"2024-03-01", "Alice, Jr.", "alice@company.com",
		"2024-03-01T01:00:00.000Z", "2024-03-01T09:30:00.000Z", "late", "8.5",
	}, records[1])
	assert.Equal(t, []string{"2024-02-29", "Bob", "bob@company.com", "", "", "absent", ""}, records[2])
}

func TestCSVEmpty(t *testing.T) {
	data, err := CSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "date,userName,userEmail,checkInTime,checkOutTime,status,totalHours\n", string(data))
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sampleRows())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "alice@company.com", rows[1][2])
	assert.Equal(t, "8.5", rows[1][6])
	assert.Equal(t, "absent", rows[2][5])
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "attendance-20240301.csv", Filename(now, "csv"))
	assert.Equal(t, "attendance-20240301.xlsx", Filename(now, "xlsx"))
}
