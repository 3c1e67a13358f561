package jobs

import (
	"field-verify/internal/excel"
	"field-verify/internal/proximity"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeVisits(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(excel.VisitsSheet)
	require.NoError(t, err)
	rows := [][]interface{}{
		{"Farm", "Target Lat", "Target Lon", "Measured Lat", "Measured Lon", "Accuracy"},
		{"F1", 13.0827, 80.2707, 13.0827, 80.2707, 5},
		{"F2", 13.0827, 80.2707, 13.0917, 80.2707, 5},
		{"F3", 13.0827, 80.2707, 13.0833, 80.2707, 5},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(excel.VisitsSheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestRunAudit(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "visits.xlsx")
	writeVisits(t, input)

	job := NewJob()
	RunAudit(job, input, dir, proximity.Default())

	snap := job.Snapshot(true)
	require.Equal(t, StatusDone, snap.Status, "logs: %v", snap.Logs)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 3, snap.Result.Rows)
	assert.Equal(t, 2, snap.Result.Open)
	assert.Equal(t, "visits_audit.xlsx", snap.Result.Filename)
	assert.Equal(t, 100, snap.Progress)
	assert.NotEmpty(t, snap.Logs)

	_, err := os.Stat(filepath.Join(dir, snap.Result.Filename))
	assert.NoError(t, err)

	f, err := excel.OpenFile(filepath.Join(dir, snap.Result.Filename))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(excel.AuditSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "excellent", rows[1][7])
	assert.Equal(t, "too_far", rows[2][7])
	assert.Equal(t, "acceptable", rows[3][7])
	assert.Equal(t, "4", rows[3][10])
}

func TestRunAudit_MissingFile(t *testing.T) {
	job := NewJob()
	RunAudit(job, filepath.Join(t.TempDir(), "missing.xlsx"), t.TempDir(), proximity.Default())

	snap := job.Snapshot(true)
	assert.Equal(t, StatusError, snap.Status)
	assert.Contains(t, snap.Error, "Could not open workbook")
	assert.Contains(t, snap.Logs[len(snap.Logs)-1], "[ERROR]")
}

func TestStore(t *testing.T) {
	s := NewStore()
	j := NewJob()
	s.Add(j)
	assert.Same(t, j, s.Get(j.ID))
	assert.Nil(t, s.Get("nope"))
}

func TestSetProgress(t *testing.T) {
	j := NewJob()
	j.SetProgress(25, 100, "quarter")
	snap := j.Snapshot(true)
	assert.Equal(t, 25, snap.Progress)
	assert.Contains(t, snap.Logs[0], "quarter")

	assert.Nil(t, j.Snapshot(false).Logs)
}

func TestSetProgress_NeverGoesBackwards(t *testing.T) {
	j := NewJob()
	j.SetProgress(1500, 2000, "")
	j.SetProgress(1000, 2000, "")
	assert.Equal(t, 75, j.Snapshot(false).Progress)

	j.SetProgress(2000, 2000, "")
	assert.Equal(t, 100, j.Snapshot(false).Progress)
}
