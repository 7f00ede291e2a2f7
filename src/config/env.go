package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. SURVEY_OUTPUT_DIR.
const EnvPrefix = "SURVEY"

type envOverrides struct {
	InputPath    string `envconfig:"INPUT_PATH"`
	OutputDir    string `envconfig:"OUTPUT_DIR"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	Mode         string `envconfig:"MODE"`
	ReaderEngine string `envconfig:"READER_ENGINE"`
}

// ApplyEnv loads the given .env files (missing ones are skipped) and then
// overrides cfg with any SURVEY_* variable that is set. Variables already in
// the environment win over .env entries.
func ApplyEnv(cfg *Config, envFiles ...string) error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	var o envOverrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if o.InputPath != "" {
		cfg.InputPath = o.InputPath
	}
	if o.OutputDir != "" {
		cfg.OutputDir = o.OutputDir
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.Mode != "" {
		cfg.Mode = o.Mode
	}
	if o.ReaderEngine != "" {
		cfg.ReaderEngine = o.ReaderEngine
	}
	return nil
}
