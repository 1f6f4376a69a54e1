// Package cli runs the engine behind the plain-text command protocol on stdin/stdout.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/command"
	"github.com/bastiangx/typeahead/pkg/typeahead"
	"github.com/charmbracelet/log"
)

// InputHandler feeds protocol lines from a reader into the engine and
// writes query results to a writer, one line per query.
type InputHandler struct {
	engine    typeahead.IEngine
	runner    *command.Runner
	logger    *log.Logger
	showStats bool
}

// NewInputHandler handles initialization of the InputHandler
func NewInputHandler(engine typeahead.IEngine, showStats bool, logger *log.Logger) *InputHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &InputHandler{
		engine:    engine,
		runner:    command.NewRunner(engine, logger),
		logger:    logger,
		showStats: showStats,
	}
}

// Start processes input until EOF or ctx is done.
func (h *InputHandler) Start(ctx context.Context, in io.Reader, out io.Writer) error {
	start := time.Now()
	sum, err := h.runner.Run(ctx, in, out)
	elapsed := time.Since(start)

	h.logger.Debug("Input done",
		"lines", sum.Lines,
		"applied", sum.Applied,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"took", elapsed)

	if h.showStats {
		h.printStats()
	}
	return err
}

func (h *InputHandler) printStats() {
	st := h.engine.Stats()
	h.logger.Printf("items: %8s", utils.FormatWithCommas(st.Items))
	h.logger.Printf("created: %6s", utils.FormatWithCommas(int(st.Created)))
	h.logger.Printf("terms: %8s", utils.FormatWithCommas(st.Terms))
	h.logger.Printf("nodes: %8s", utils.FormatWithCommas(st.Nodes))
}
