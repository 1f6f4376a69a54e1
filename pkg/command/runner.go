package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bastiangx/typeahead/pkg/typeahead"
	"github.com/charmbracelet/log"
)

const maxLineSize = 1 << 20

// Summary counts what a Run did with its input.
type Summary struct {
	Lines   int
	Applied int
	Skipped int
	Failed  int
}

// Runner streams protocol lines into an engine.
type Runner struct {
	engine       typeahead.IEngine
	logger       *log.Logger
	allowQueries bool
}

// NewRunner creates a runner that executes every command kind.
func NewRunner(engine typeahead.IEngine, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		engine:       engine,
		logger:       logger,
		allowQueries: true,
	}
}

// MutationsOnly makes the runner skip QUERY and WQUERY lines.
func (r *Runner) MutationsOnly() *Runner {
	r.allowQueries = false
	return r
}

// Run executes every line of in until EOF or ctx is done, writing query
// output to out. Bad lines are logged and skipped; only read, write and
// context errors stop the run.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Summary, error) {
	var sum Summary
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Lines++

		cmd, err := Parse(scanner.Text())
		if err != nil {
			sum.Skipped++
			if errors.Is(err, ErrMalformed) {
				r.logger.Warn("Skipping malformed line", "line", sum.Lines, "err", err)
			} else {
				r.logger.Debug("Ignoring non-command line", "line", sum.Lines)
			}
			continue
		}

		if !r.allowQueries && (cmd.Kind == KindQuery || cmd.Kind == KindWeightedQuery) {
			sum.Skipped++
			r.logger.Debug("Skipping query", "line", sum.Lines)
			continue
		}

		output, hasOutput, err := Execute(r.engine, cmd)
		if err != nil {
			sum.Failed++
			r.logger.Warn("Command failed", "line", sum.Lines, "cmd", cmd.Kind, "err", err)
			if hasQueryKind(cmd) {
				output, hasOutput = "", true
			}
		} else {
			sum.Applied++
		}

		if hasOutput {
			if _, err := fmt.Fprintln(out, output); err != nil {
				return sum, fmt.Errorf("writing output: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return sum, fmt.Errorf("reading input: %w", err)
	}
	return sum, nil
}

// failed queries still print an empty line so output stays aligned with
// the query lines of the input
func hasQueryKind(cmd Command) bool {
	return cmd.Kind == KindQuery || cmd.Kind == KindWeightedQuery
}
