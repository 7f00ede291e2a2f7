package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"SurveyInsight/src/config"
	"SurveyInsight/src/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	name := f.GetSheetName(0)
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(name, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func surveyRows() [][]interface{} {
	return [][]interface{}{
		{"Edad", "Genero (F/M/O)", "", "Facebook", "Facebook", "Activo"},
		{20, "f", nil, 2.5, ".5", true},
		{nil, nil, nil, "abc", 3, false},
		{22, " m ", nil, nil, nil, nil},
	}
}

func TestLoadExcelize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.xlsx")
	writeWorkbook(t, path, surveyRows())

	tbl, err := Load(path, config.EngineExcelize)
	require.NoError(t, err)

	assert.Equal(t, []string{"Edad", "Genero (F/M/O)", "Unnamed: 2", "Facebook", "Facebook.1", "Activo"}, tbl.Headers)
	require.Equal(t, 3, tbl.Nrow())

	assert.Equal(t, sheet.NumberValue(20), tbl.Rows[0][0])
	assert.Equal(t, sheet.StringValue("f"), tbl.Rows[0][1])
	assert.Equal(t, sheet.EmptyValue(), tbl.Rows[0][2])
	assert.Equal(t, sheet.NumberValue(2.5), tbl.Rows[0][3])
	assert.Equal(t, sheet.StringValue(".5"), tbl.Rows[0][4])
	assert.Equal(t, sheet.BoolValue(true), tbl.Rows[0][5])

	assert.True(t, tbl.Rows[1][0].IsMissing())
	assert.Equal(t, sheet.StringValue("abc"), tbl.Rows[1][3])
	assert.Equal(t, sheet.BoolValue(false), tbl.Rows[1][5])

	assert.Equal(t, sheet.StringValue(" m "), tbl.Rows[2][1])
	assert.True(t, tbl.Rows[2][5].IsMissing())
}

func TestLoadExcelizeDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dates.xlsx")
	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	writeWorkbook(t, path, [][]interface{}{
		{"Instagram"},
		{when},
		{1.5},
	})

	tbl, err := Load(path, config.EngineExcelize)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Nrow())

	assert.Equal(t, sheet.Date, tbl.Rows[0][0].Kind)
	assert.True(t, when.Equal(tbl.Rows[0][0].Time))
	assert.Equal(t, sheet.NumberValue(1.5), tbl.Rows[1][0])
}

func TestLoadXLSXEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.xlsx")
	writeWorkbook(t, path, surveyRows())

	tbl, err := Load(path, config.EngineXLSX)
	require.NoError(t, err)

	assert.Equal(t, []string{"Edad", "Genero (F/M/O)", "Unnamed: 2", "Facebook", "Facebook.1", "Activo"}, tbl.Headers)
	require.GreaterOrEqual(t, tbl.Nrow(), 3)

	assert.Equal(t, sheet.NumberValue(20), tbl.Rows[0][0])
	assert.Equal(t, sheet.StringValue("f"), tbl.Rows[0][1])
	assert.Equal(t, sheet.NumberValue(2.5), tbl.Rows[0][3])
	assert.Equal(t, sheet.StringValue(".5"), tbl.Rows[0][4])
	assert.Equal(t, sheet.StringValue("abc"), tbl.Rows[1][3])
	assert.True(t, tbl.Rows[1][0].IsMissing())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.xlsx"), config.EngineExcelize)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Path, "missing.xlsx")

	garbage := filepath.Join(dir, "garbage.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("not a workbook"), 0o644))
	_, err = Load(garbage, config.EngineExcelize)
	require.ErrorAs(t, err, &loadErr)
	_, err = Load(garbage, config.EngineXLSX)
	require.ErrorAs(t, err, &loadErr)

	empty := filepath.Join(dir, "empty.xlsx")
	writeWorkbook(t, empty, nil)
	_, err = Load(empty, config.EngineExcelize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoHeader))
}

func TestNormalizeHeaders(t *testing.T) {
	assert.Equal(t,
		[]string{"A", "Unnamed: 1", "A.1", " A ", "  ", "B"},
		normalizeHeaders([]string{"A", "", "A", " A ", "  ", "B"}))
}

func TestIsDateFormat(t *testing.T) {
	custom := func(s string) *string { return &s }

	assert.True(t, isDateFormat(14, nil))
	assert.True(t, isDateFormat(22, nil))
	assert.False(t, isDateFormat(2, nil))
	assert.True(t, isDateFormat(164, custom("dd/mm/yyyy")))
	assert.True(t, isDateFormat(164, custom("[h]:mm")))
	assert.False(t, isDateFormat(164, custom(`0.00" hrs"`)))
	assert.False(t, isDateFormat(164, custom("[Red]0.00")))
}
