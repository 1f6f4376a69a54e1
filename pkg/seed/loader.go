// Package seed bulk-loads an engine at startup from command scripts on disk.
// Scripts use the command line protocol; only ADD and DEL lines are applied.
// Nothing is ever written back.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/bastiangx/typeahead/pkg/command"
	"github.com/bastiangx/typeahead/pkg/typeahead"
	"github.com/charmbracelet/log"
)

// DefaultPattern matches seed_0001.txt, seed_0002.txt, ...
const DefaultPattern = "seed_*.txt"

var fileNumber = regexp.MustCompile(`(\d+)[^\d]*$`)

// FileInfo describes one seed script.
type FileInfo struct {
	Number   int
	Filename string
	Size     int64
}

// Stats summarizes a Load.
type Stats struct {
	Files    int
	Lines    int
	Applied  int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Loader replays seed scripts into an engine.
type Loader struct {
	dirPath string
	pattern string
	engine  typeahead.IEngine
	logger  *log.Logger
}

// NewLoader creates a loader for scripts in dirPath matching pattern.
func NewLoader(dirPath, pattern string, engine typeahead.IEngine, logger *log.Logger) *Loader {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		dirPath: dirPath,
		pattern: pattern,
		engine:  engine,
		logger:  logger,
	}
}

// Files lists the matching scripts ordered by the number in their name,
// then by name.
func (l *Loader) Files() ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(l.dirPath, l.pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for seed files: %w", err)
	}

	var files []FileInfo
	for _, path := range matches {
		stat, err := os.Stat(path)
		if err != nil || !stat.Mode().IsRegular() {
			l.logger.Warnf("Skipping seed candidate %s", path)
			continue
		}
		info := FileInfo{Number: -1, Filename: path, Size: stat.Size()}
		if m := fileNumber.FindStringSubmatch(filepath.Base(path)); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				info.Number = n
			}
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Number != files[j].Number {
			return files[i].Number < files[j].Number
		}
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

// Load applies every seed script in order. A missing or empty directory
// is not an error. Bad lines are skipped; unreadable files abort the load.
func (l *Loader) Load(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	files, err := l.Files()
	if err != nil {
		return stats, err
	}
	if len(files) == 0 {
		l.logger.Debugf("No seed files matching %s in %s", l.pattern, l.dirPath)
		return stats, nil
	}

	runner := command.NewRunner(l.engine, l.logger).MutationsOnly()
	for _, f := range files {
		sum, err := l.loadFile(ctx, runner, f)
		stats.Files++
		stats.Lines += sum.Lines
		stats.Applied += sum.Applied
		stats.Skipped += sum.Skipped
		stats.Failed += sum.Failed
		if err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("seed file %s: %w", f.Filename, err)
		}
		l.logger.Debugf("Seed file %s applied: %d commands", filepath.Base(f.Filename), sum.Applied)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func (l *Loader) loadFile(ctx context.Context, runner *command.Runner, f FileInfo) (command.Summary, error) {
	file, err := os.Open(f.Filename)
	if err != nil {
		return command.Summary{}, err
	}
	defer file.Close()
	return runner.Run(ctx, file, io.Discard)
}
