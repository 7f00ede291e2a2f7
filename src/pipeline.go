package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"SurveyInsight/src/chart"
	"SurveyInsight/src/config"
	"SurveyInsight/src/datasource/file"
	"SurveyInsight/src/processor"
	"SurveyInsight/src/report"
	"SurveyInsight/src/storage"
	"SurveyInsight/src/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Output file names.
const (
	CleanCSVFile  = "datos_limpios.csv"
	StatsCSVFile  = "estadisticas_descriptivas.csv"
	CleanXLSXFile = "datos_limpios.xlsx"
	ReportFile    = "reporte_ejecutivo.txt"
)

// Pipeline runs load, clean, analyze and the output writers for one input
// spreadsheet. Runs are serialized.
type Pipeline struct {
	cfg    *config.Config
	schema config.Schema
	logger *storage.Logger
	root   string
	out    io.Writer
	now    func() time.Time
	mu     sync.Mutex
}

// RunResult lists what a successful run produced.
type RunResult struct {
	RunID   string
	Input   string
	Records int
	Files   []string
	Log     processor.Log
}

// NewPipeline returns a pipeline resolving relative probe paths against
// root ("" means the working directory). The report is echoed to stdout.
func NewPipeline(cfg *config.Config, schema config.Schema, logger *storage.Logger, root string) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		schema: schema.WithDefaults(),
		logger: logger,
		root:   root,
		out:    os.Stdout,
		now:    time.Now,
	}
}

// ResolveInput finds the spreadsheet the pipeline reads.
func (p *Pipeline) ResolveInput() (string, error) {
	locator := file.NewLocator(p.root, p.schema.FileName, p.schema.ProbePaths)
	return locator.Resolve(p.cfg.InputPath)
}

// Run executes one full pipeline. It never panics: any error or panic is
// logged with a stack trace and reported as ok == false.
func (p *Pipeline) Run() (res *RunResult, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Fatal("pipeline panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			res, ok = nil, false
		}
		if err := p.logger.CheckRotate(p.cfg.LogMaxSize); err != nil {
			p.logger.Warning("log rotation failed", zap.Error(err))
		}
	}()

	logger.Info("pipeline started", zap.String("mode", p.cfg.Mode))
	res, err := p.run(logger)
	if err != nil {
		p.reportFailure(logger, err)
		return nil, false
	}
	res.RunID = runID
	logger.Info("pipeline finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("records", res.Records),
		zap.Strings("files", res.Files))
	return res, true
}

func (p *Pipeline) reportFailure(logger *storage.Logger, err error) {
	var loadErr *file.LoadError
	switch {
	case errors.Is(err, file.ErrNotFound):
		logger.Error("input spreadsheet not found",
			zap.Error(err),
			zap.Strings("hints", []string{
				"set input_path in config/config.json or SURVEY_INPUT_PATH",
				"place " + p.schema.FileName + " in the working directory or in datasets/",
			}))
	case errors.As(err, &loadErr):
		logger.Error("could not load spreadsheet",
			zap.String("path", loadErr.Path),
			zap.Error(loadErr.Err))
	default:
		logger.Error("pipeline failed", zap.Error(err), zap.Stack("stack"))
	}
}

func (p *Pipeline) run(logger *storage.Logger) (*RunResult, error) {
	input, err := p.ResolveInput()
	if err != nil {
		return nil, err
	}
	warning, err := file.Validate(input)
	if err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}
	if warning != "" {
		logger.Warning(warning, zap.String("path", input))
	}
	logger.Info("input resolved", zap.String("path", input))

	outDir, err := file.EnsureOutputDir(p.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}

	raw, err := file.Load(input, p.cfg.ReaderEngine)
	if err != nil {
		return nil, err
	}
	logger.Info("spreadsheet loaded",
		zap.String("engine", p.cfg.ReaderEngine),
		zap.Int("rows", raw.Nrow()),
		zap.Int("columns", raw.Ncol()))

	df, cleanLog, err := processor.NewCleaner(p.schema, logger).Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}

	metrics, err := processor.NewDataProcessor(df, p.schema.AppColumns).CalculateMetrics()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	logger.Info("clean table ready",
		zap.Any("total_records", metrics["total_records"]),
		zap.Any("total_columns", metrics["total_columns"]),
		zap.Any("app_columns", metrics["app_columns"]),
		zap.Any("missing_app_cells", metrics["missing_app_cells"]))

	analyzer := processor.NewAnalyzer(df, p.schema)
	apps := utils.PresentColumns(df, p.schema.AppColumns)
	if err := p.logComparisons(logger, analyzer, apps); err != nil {
		return nil, err
	}

	res := &RunResult{Input: input, Records: df.Nrow(), Log: cleanLog}

	writer := storage.NewCSVWriter(outDir, logger)
	cleanPath, err := writer.WriteDataFrame(CleanCSVFile, df)
	if err != nil {
		return nil, fmt.Errorf("export clean table: %w", err)
	}
	statsPath, err := writer.WriteDataFrame(StatsCSVFile, analyzer.StatsFrame(apps))
	if err != nil {
		return nil, fmt.Errorf("export statistics: %w", err)
	}
	res.Files = append(res.Files, cleanPath, statsPath)

	if p.cfg.ExportXLSX {
		xlsxPath := filepath.Join(outDir, CleanXLSXFile)
		if err := storage.SaveToExcel(df, xlsxPath); err != nil {
			return nil, fmt.Errorf("export clean table: %w", err)
		}
		res.Files = append(res.Files, xlsxPath)
	}

	charts, err := chart.NewVisualizer(df, analyzer, logger).CreateAll(outDir, apps)
	res.Files = append(res.Files, charts...)
	if err != nil {
		return nil, fmt.Errorf("charts: %w", err)
	}

	text := report.Executive(df, analyzer, apps, filepath.Base(input), p.now())
	reportPath := filepath.Join(outDir, ReportFile)
	if err := report.WriteExecutive(reportPath, text); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, reportPath)
	logger.Info("executive report saved", zap.String("path", reportPath))
	fmt.Fprintln(p.out, text)

	return res, nil
}

// logComparisons records the per-status and per-OS breakdowns.
func (p *Pipeline) logComparisons(logger *storage.Logger, analyzer *processor.Analyzer, apps []string) error {
	byStatus, err := analyzer.CompareByStatus(apps)
	if err != nil {
		return fmt.Errorf("compare by status: %w", err)
	}
	for _, app := range apps {
		groups := byStatus[app]
		names := make([]string, 0, len(groups))
		for g := range groups {
			names = append(names, g)
		}
		sort.Strings(names)
		for _, g := range names {
			s := groups[g]
			logger.Debug("status comparison",
				zap.String("app", app),
				zap.String("status", g),
				zap.Float64("mean", processor.Round(s.Mean, 3)),
				zap.Float64("median", processor.Round(s.Median, 3)),
				zap.Int("count", s.Count))
		}
	}

	for _, leader := range analyzer.TopAppByOS(apps) {
		logger.Info("leading app",
			zap.String("os", leader.OS),
			zap.String("app", leader.App),
			zap.Float64("mean_hours", leader.MeanHours),
			zap.Int("users", leader.Users))
	}
	return nil
}
