package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no candidate path holds the spreadsheet.
var ErrNotFound = errors.New("spreadsheet not found")

// Locator finds the input spreadsheet.
type Locator struct {
	Root       string   // directory probes and the search start from
	FileName   string   // file searched for recursively
	ProbePaths []string // relative paths tried in order
}

// NewLocator returns a locator rooted at root ("" means the working directory).
func NewLocator(root, fileName string, probes []string) *Locator {
	return &Locator{Root: root, FileName: fileName, ProbePaths: probes}
}

// Resolve returns the configured path when it exists, else the first probe
// path that exists, else the first file named l.FileName found below Root.
// Every tried candidate is listed in the error.
func (l *Locator) Resolve(configured string) (string, error) {
	var tried []string

	if configured != "" {
		p := l.abs(configured)
		if isFile(p) {
			return p, nil
		}
		tried = append(tried, p)
	}

	for _, probe := range l.ProbePaths {
		p := l.abs(probe)
		if isFile(p) {
			return p, nil
		}
		tried = append(tried, p)
	}

	if l.FileName != "" {
		if p, ok := l.search(); ok {
			return p, nil
		}
		tried = append(tried, filepath.Join(l.root(), "**", l.FileName))
	}

	return "", fmt.Errorf("%w; tried: %s", ErrNotFound, strings.Join(tried, ", "))
}

func (l *Locator) search() (string, bool) {
	var found string
	_ = filepath.WalkDir(l.root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != l.root() && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == l.FileName && d.Type().IsRegular() {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}

func (l *Locator) root() string {
	if l.Root == "" {
		return "."
	}
	return l.Root
}

func (l *Locator) abs(p string) string {
	if filepath.IsAbs(p) || l.Root == "" {
		return p
	}
	return filepath.Join(l.Root, p)
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Validate checks that path is an existing regular file. An extension other
// than .xlsx or .xls is not an error; it is returned as a warning.
func Validate(path string) (warning string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return "", nil
	default:
		return fmt.Sprintf("unexpected extension %q, expected .xlsx or .xls", filepath.Ext(path)), nil
	}
}

// ensureDir creates dirPath if needed.
func ensureDir(dirPath string) error {
	if info, err := os.Stat(dirPath); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", dirPath)
	}
	return os.MkdirAll(dirPath, 0o755)
}

// EnsureOutputDir creates the output directory and returns its absolute path.
func EnsureOutputDir(dir string) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}
