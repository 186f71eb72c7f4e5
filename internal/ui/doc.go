// Package ui provides line-mode terminal output and prompts for bhkiosk.
//
// The full-screen kiosk lives in internal/wizard/tui. This package covers
// the plain mode used over SSH or on terminals without a pointer: fields are
// asked one at a time with survey, and the submission is reported with
// lipgloss boxes.
//
// # Components
//
//   - Header: banner with the step title, command and parameters
//   - Progress: step list with a bar (bubbles/progress)
//   - Result: saved, warning and failure boxes
//   - Runner: header → progress → result around one submission
//   - Prompter: survey-backed questions, replaceable in tests
//
// # Usage Pattern
//
//	store := step.NewStore()
//	if err := ui.FillForm(ctx, ui.NewSurveyPrompter(), store); err != nil {
//	    return err
//	}
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     step.Title,
//	    Command:   "bhkiosk register owner --plain",
//	    StepNames: []string{"Check entries", "Send to registration server"},
//	})
//	_, err := runner.Run(ctx, func(onStep ui.StepCallback) (map[string]string, error) {
//	    ...
//	})
//
// # Logging Integration
//
// Zap logging stays silent unless BHKIOSK_LOG_LEVEL or --log-level is set,
// so the curated output is not interleaved with log lines.
package ui
