package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes one plain-mode submission
type RunnerConfig struct {
	Title     string            // e.g., "Owner Registration"
	Command   string            // e.g., "bhkiosk register owner --plain"
	Params    map[string]string // Shown in the header
	StepNames []string          // Progress steps, in order
	Output    io.Writer         // Default: os.Stdout
}

// Runner prints the header, progress lines and result box around an
// operation.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	output   io.Writer
	width    int
}

// NewRunner creates a runner sized to the terminal
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()
	return &Runner{
		config:   config,
		header:   NewHeader(config.Title, config.Command, config.Params).SetWidth(width),
		progress: NewProgress("", config.StepNames...).SetWidth(width),
		output:   config.Output,
		width:    width,
	}
}

// SetWidth overrides the detected terminal width
func (r *Runner) SetWidth(width int) *Runner {
	r.width = width
	r.header.SetWidth(width)
	r.progress.SetWidth(width)
	return r
}

// Operation does the work and returns details for the success box
type Operation func(onStep StepCallback) (map[string]string, error)

// PrintHeader prints the banner on its own. Run prints it too unless it was
// already printed.
func (r *Runner) PrintHeader() {
	if r.header == nil {
		return
	}
	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)
	r.header = nil
}

// Run executes op and prints its outcome. A failed operation is rendered
// with NewSubmitFailure and its error returned unchanged.
func (r *Runner) Run(ctx context.Context, op Operation) (map[string]string, error) {
	r.PrintHeader()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	details, err := op(r.stepCallback())
	duration := time.Since(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		_, _ = fmt.Fprintln(r.output, NewSubmitFailure(err).SetWidth(r.width).Render())
		return nil, err
	}

	if details == nil {
		details = make(map[string]string)
	}
	details["Duration"] = duration.String()
	_, _ = fmt.Fprintln(r.output, NewSuccessResult(r.config.Title+" saved", details).SetWidth(r.width).Render())
	return details, nil
}

func (r *Runner) stepCallback() StepCallback {
	return func(number int, status StepStatus, message string) {
		if number < 1 || number > r.progress.Total() {
			return
		}
		r.progress.UpdateStep(number, status, message)

		line := r.progress.renderStepLine(r.progress.Steps[number-1])
		if status.finished() {
			_, _ = fmt.Fprintln(r.output, line)
		} else if status == StepRunning {
			_, _ = fmt.Fprint(r.output, line+"\r")
		}
	}
}
