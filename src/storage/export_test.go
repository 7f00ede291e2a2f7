package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]interface{}{"Si", nil, "No"}, series.String, "Estatus"),
		series.New([]float64{2, 0.125, math.NaN()}, series.Float, "Facebook"),
		series.New([]int{20, 21, 22}, series.Int, "Edad"),
	)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "2.0", FormatFloat(2))
	assert.Equal(t, "0.125", FormatFloat(0.125))
	assert.Equal(t, "-3.5", FormatFloat(-3.5))
	assert.Equal(t, "", FormatFloat(math.NaN()))
}

func TestDataFrameRecords(t *testing.T) {
	headers, records := DataFrameRecords(sampleFrame())

	assert.Equal(t, []string{"Estatus", "Facebook", "Edad"}, headers)
	assert.Equal(t, [][]string{
		{"Si", "2.0", "20"},
		{"", "0.125", "21"},
		{"No", "", "22"},
	}, records)
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	path, err := w.WriteDataFrame("out/clean.csv", sampleFrame())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "clean.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Estatus,Facebook,Edad\nSi,2.0,20\n,0.125,21\nNo,,22\n", string(data))

	_, err = w.WriteCSV("out/clean.csv", WriteOptions{Records: [][]string{{"x", "1.0", "23"}}, Append: true})
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No,,22\nx,1.0,23\n")
}

func TestWriteCSVWithBOM(t *testing.T) {
	w := NewCSVWriter(t.TempDir(), nil)
	path, err := w.WriteCSV("bom.csv", WriteOptions{Headers: []string{"a"}, BOMPrefix: true})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF, 'a', '\n'}, data)
}

func TestSaveToExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.xlsx")
	require.NoError(t, SaveToExcel(sampleFrame(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Estatus", "Facebook", "Edad"}, rows[0])
	assert.Equal(t, []string{"Si", "2", "20"}, rows[1])
	assert.Equal(t, "0.125", rows[2][1])
}
