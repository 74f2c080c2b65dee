package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbook(t *testing.T) {
	rows := []Row{
		{
			ExternalID:  "D-1042",
			DonorID:     "MTF-7781",
			UNOSID:      "U-33",
			Age:         "54",
			Status:      "REVIEW",
			Documents:   3,
			Flags:       []string{"INFECTIOUS DISEASE: HBsAg (Positive)", "INFECTION MARKERS: Sepsis"},
			LastUpdated: time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC),
		},
		{ExternalID: "D-2000", Status: "ELIGIBLE"},
	}

	b, err := BuildWorkbook(rows)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Screening")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{
		"External ID", "Donor ID", "UNOS ID", "Age", "Status", "Documents", "Flags", "Last Updated",
	}, got[0])
	assert.Equal(t, "D-1042", got[1][0])
	assert.Equal(t, "REVIEW", got[1][4])
	assert.Equal(t, "3", got[1][5])
	assert.Equal(t, "INFECTIOUS DISEASE: HBsAg (Positive); INFECTION MARKERS: Sepsis", got[1][6])
	assert.Equal(t, "2026-08-12 09:30", got[1][7])
	assert.Equal(t, "D-2000", got[2][0])
}

func TestBuildWorkbookEmpty(t *testing.T) {
	b, err := BuildWorkbook(nil)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Screening")
	require.NoError(t, err)
	require.Len(t, got, 1)
}
