package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron"
)

// Run modes.
const (
	ModeOnce     = "once"
	ModeWatch    = "watch"
	ModeSchedule = "schedule"
)

// Spreadsheet reader engines.
const (
	EngineExcelize = "excelize"
	EngineXLSX     = "xlsx"
)

// Config holds the run settings read from config.json.
type Config struct {
	InputPath     string   `json:"input_path"`     // configured spreadsheet path
	OutputDir     string   `json:"output_dir"`     // directory for charts, report and CSVs
	ReaderEngine  string   `json:"reader_engine"`  // excelize | xlsx
	ExportXLSX    bool     `json:"export_xlsx"`    // also write the clean table as xlsx
	LogName       string   `json:"log_name"`       // log file path
	LogMaxSize    string   `json:"log_max_size"`   // e.g. "10 * 1024 * 1024"
	LogLevel      string   `json:"log_level"`      // debug | info | warning | error
	Mode          string   `json:"mode"`           // once | watch | schedule
	Schedule      string   `json:"schedule"`       // cron spec for schedule mode
	WatchDebounce Duration `json:"watch_debounce"` // quiet period before a watch-triggered run
}

// Default returns the settings used when config.json is absent.
func Default() *Config {
	return &Config{
		InputPath:     "datasets/CDE.xlsx",
		OutputDir:     "outputs",
		ReaderEngine:  EngineExcelize,
		LogName:       "app.log",
		LogMaxSize:    "10 * 1024 * 1024",
		LogLevel:      "info",
		Mode:          ModeOnce,
		Schedule:      "@every 1h",
		WatchDebounce: Duration(2 * time.Second),
	}
}

// Validate checks the settings that the driver relies on.
func (c *Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeOnce, ModeWatch, ModeSchedule:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	switch c.ReaderEngine {
	case EngineExcelize, EngineXLSX:
	default:
		errs = append(errs, fmt.Errorf("unknown reader engine %q", c.ReaderEngine))
	}
	if c.Mode == ModeSchedule {
		if c.Schedule == "" {
			errs = append(errs, errors.New("schedule mode needs a cron spec"))
		} else if _, err := cron.Parse(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("schedule %q: %w", c.Schedule, err))
		}
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if len(errs) > 0 {
		return combineErrors(errs)
	}
	return nil
}

// LoadConfig reads config.json and dataconfig.json from jsonFolder. A file
// that does not exist leaves the corresponding defaults in place; a file that
// exists but cannot be parsed is an error.
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *Schema, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read data config: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	schemaChan := make(chan *Schema, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseSchema(dataConfigData, schemaChan, errChan)

	cfg, schema, err := waitForResults(cfgChan, schemaChan, errChan)
	if err != nil {
		return nil, nil, err
	}
	return cfg, schema, nil
}

// readFile returns nil data for a missing file.
func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	cfg := Default()
	if len(data) > 0 {
		if err := json.Unmarshal(data, cfg); err != nil {
			errChan <- fmt.Errorf("parse config: %w", err)
			return
		}
	}
	resultChan <- cfg
}

func parseSchema(data []byte, resultChan chan<- *Schema, errChan chan<- error) {
	var schema Schema
	if len(data) > 0 {
		if err := json.Unmarshal(data, &schema); err != nil {
			errChan <- fmt.Errorf("parse data config: %w", err)
			return
		}
	}
	schema = schema.WithDefaults()
	resultChan <- &schema
}

func waitForResults(
	cfgChan <-chan *Config,
	schemaChan <-chan *Schema,
	errChan <-chan error,
) (*Config, *Schema, error) {
	var (
		cfg    *Config
		schema *Schema
		errs   []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case s := <-schemaChan:
			schema = s
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, combineErrors(errs)
	}
	if cfg == nil || schema == nil {
		return nil, nil, errors.New("configuration only partially loaded")
	}
	return cfg, schema, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msg := "configuration has multiple errors:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// Duration wraps time.Duration so it reads from and writes to JSON as "2s".
type Duration time.Duration

// UnmarshalJSON parses a Go duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON renders the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
