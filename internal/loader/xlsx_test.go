package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"datadash/internal/models"
)

func workbookBytes(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadXLSX(t *testing.T) {
	data := workbookBytes(t, "Vendors", [][]interface{}{
		{"name", "city", "capacity"},
		{"Acme", "Pune", 120},
		{"Globex", "Mumbai", 80},
	})

	ds, err := LoadXLSX(data)
	require.NoError(t, err)

	assert.Equal(t, "Vendors", ds.Sheet)
	assert.Equal(t, []string{"Vendors"}, ds.Sheets)
	assert.Equal(t, []string{"name", "city", "capacity"}, ds.Cols)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "Acme", ds.Rows[0].Get("name").String())
	assert.Equal(t, models.Number(120), ds.Rows[0].Get("capacity"))
}

func TestLoadXLSXEmptyWorkbook(t *testing.T) {
	data := workbookBytes(t, "Empty", [][]interface{}{{"only", "headers"}})
	_, err := LoadXLSX(data)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestLoadXLSXGarbage(t *testing.T) {
	_, err := LoadXLSX([]byte("not a workbook"))
	assert.Error(t, err)
}
