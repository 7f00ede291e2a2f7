package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"SurveyInsight/src/chart"
	"SurveyInsight/src/config"
	"SurveyInsight/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeSurvey(t *testing.T, path string) {
	t.Helper()
	rows := [][]interface{}{
		{"Edad", "Genero (F/M/O)", "Foraneo(Si/No)", "Regular(Si/No)", "Sist. Operatvo",
			"Facebook", "Instagram", "TikTok", "Youtube", "X", "Spotify", "WhatsApp", "Unnamed: 12"},
		{20, "f", "si", "SI", "Android", 2, ".5", 3, 1, 0, 1, 4, nil},
		{"21", "M", "No", "no", "IOS", "abc", 1.5, 2, 2, 0.5, 0, 3, nil},
		{19, " o ", "SI", "Si ", "ios", 1, 2, 4, 0.5, 0, 2, 5, nil},
		{nil, nil, "no", nil, "Android", nil, nil, nil, nil, nil, nil, nil, nil},
		{23, "F", "no", "No", " Android ", 3, 2.5, 1, 3, 1, 1.5, 2, nil},
	}

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

func testPipeline(t *testing.T, root string, mutate func(*config.Config)) (*Pipeline, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.InputPath = ""
	cfg.OutputDir = filepath.Join(root, "outputs")
	cfg.LogName = filepath.Join(root, "logs", "app.log")
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	logger, err := storage.NewFileLogger(cfg.LogName, "debug")
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	p := NewPipeline(cfg, config.DefaultSchema(), logger, root)
	var out bytes.Buffer
	p.out = &out
	p.now = func() time.Time { return time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC) }
	return p, &out
}

func TestPipelineRun(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "datasets"), 0o755))
	writeSurvey(t, filepath.Join(root, "datasets", "CDE.xlsx"))

	p, out := testPipeline(t, root, func(c *config.Config) { c.ExportXLSX = true })
	res, ok := p.Run()
	require.True(t, ok)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, filepath.Join(root, "datasets", "CDE.xlsx"), res.Input)
	assert.Equal(t, 4, res.Records)

	outDir := filepath.Join(root, "outputs")
	for _, name := range []string{
		CleanCSVFile, StatsCSVFile, CleanXLSXFile, ReportFile,
		chart.BoxplotsFile, chart.CorrelationFile, chart.StatusFile, chart.RankingFile, chart.OSFile,
	} {
		info, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
	assert.Len(t, res.Files, 9)

	clean, err := os.ReadFile(filepath.Join(outDir, CleanCSVFile))
	require.NoError(t, err)
	header := strings.SplitN(string(clean), "\n", 2)[0]
	assert.Equal(t, "Edad,Genero,Foraneo,Estatus,Sistema_Operativo,Facebook,Instagram,TikTok,Youtube,Twitter_X,Spotify,WhatsApp", header)

	stats, err := os.ReadFile(filepath.Join(outDir, StatsCSVFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(stats), "App,Media,Mediana,Desv_Est,Min,Max,Q1,Q3,Skewness,Kurtosis,CV_%\nFacebook,"))

	text, err := os.ReadFile(filepath.Join(outDir, ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(text), "Analysis date: 2026-05-04 10:30")
	assert.Contains(t, string(text), "Records analyzed: 4")
	assert.Contains(t, out.String(), "MOST USED APPS RANKING")

	assert.NotEmpty(t, res.Log)
}

func TestPipelineRunWithXLSXEngine(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "survey.xlsx")
	writeSurvey(t, input)

	p, _ := testPipeline(t, root, func(c *config.Config) {
		c.InputPath = input
		c.ReaderEngine = config.EngineXLSX
	})
	res, ok := p.Run()
	require.True(t, ok)
	assert.Equal(t, 4, res.Records)
	assert.NoFileExists(t, filepath.Join(root, "outputs", CleanXLSXFile))
}

func TestPipelineInputNotFound(t *testing.T) {
	root := t.TempDir()
	p, _ := testPipeline(t, root, func(c *config.Config) { c.InputPath = "nowhere.xlsx" })

	res, ok := p.Run()
	assert.False(t, ok)
	assert.Nil(t, res)

	logged, err := os.ReadFile(filepath.Join(root, "logs", "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logged), "input spreadsheet not found")
	assert.Contains(t, string(logged), "run_id")
}

func TestPipelineCorruptInput(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "CDE.xlsx")
	require.NoError(t, os.WriteFile(input, []byte("not a workbook"), 0o644))

	p, _ := testPipeline(t, root, nil)
	_, ok := p.Run()
	assert.False(t, ok)

	logged, err := os.ReadFile(filepath.Join(root, "logs", "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logged), "could not load spreadsheet")
}
