package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/bhkiosk/internal/config"
	"github.com/muurk/bhkiosk/internal/logging"
	"github.com/muurk/bhkiosk/internal/registration"
	"github.com/muurk/bhkiosk/internal/ui"
	"github.com/muurk/bhkiosk/internal/wizard"
)

// newPrompter is replaced in tests
var newPrompter = ui.NewSurveyPrompter

var registerCmd = &cobra.Command{
	Use:       "register owner|boarder|rooms",
	Short:     "Run one registration step",
	ValidArgs: []string{"owner", "boarder", "rooms"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Long: `Run a single registration step.

By default the step opens in the full-screen kiosk. With --plain the fields
are asked one per line, for maintenance terminals and SSH sessions.`,
	Example: `  # Owner registration in the kiosk
  bhkiosk register owner

  # Boarder registration on a plain terminal
  bhkiosk register boarder --plain --house 3

  # Room setup for 6 rooms without the review prompt
  bhkiosk register rooms --plain --rooms 6 --yes`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().Bool("plain", false, "Ask for each field on its own line instead of the full-screen kiosk")
	registerCmd.Flags().BoolP("yes", "y", false, "Submit without the review prompt (--plain only)")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	step, err := stepFor(args[0], cfg)
	if err != nil {
		return err
	}

	if plain, _ := cmd.Flags().GetBool("plain"); !plain {
		return startKiosk(cmd.Context(), cfg, step.ID)
	}

	if err := setupLogging(cfg, false); err != nil {
		return err
	}
	defer logging.Sync()

	ctx := cmd.Context()
	baseURL, err := resolveBackend(ctx, cfg, newScanner(cfg))
	if err != nil {
		return err
	}
	client := registration.NewClient(baseURL)
	client.SetTimeout(cfg.Timeout())

	yes, _ := cmd.Flags().GetBool("yes")
	return registerPlain(ctx, plainRun{
		Out:         cmd.OutOrStdout(),
		Prompter:    newPrompter(),
		Backend:     client,
		Step:        step,
		BaseURL:     client.BaseURL,
		SkipConfirm: yes,
	})
}

// stepFor builds the named step for the configured boarding house
func stepFor(name string, cfg *config.Config) (wizard.Step, error) {
	switch wizard.StepID(name) {
	case wizard.StepOwner:
		return wizard.OwnerStep(), nil
	case wizard.StepBoarder:
		return wizard.BoarderStep(cfg.Kiosk.BoardingHouseID), nil
	case wizard.StepRooms:
		return wizard.RoomsStep(cfg.Kiosk.BoardingHouseID, cfg.Kiosk.Rooms), nil
	default:
		return wizard.Step{}, fmt.Errorf("unknown step %q (want owner, boarder or rooms)", name)
	}
}

// plainRun is one line-mode registration
type plainRun struct {
	Out         io.Writer
	Prompter    ui.Prompter
	Backend     wizard.Backend
	Step        wizard.Step
	BaseURL     string
	SkipConfirm bool
}

// registerPlain prompts for every field, confirms and submits the step once.
// Cancelling at a prompt is not an error.
func registerPlain(ctx context.Context, run plainRun) error {
	printer := ui.NewPrinter(run.Out)
	params := map[string]string{"server": run.BaseURL}
	if run.Step.BoardingHouse > 0 {
		params["house"] = strconv.Itoa(run.Step.BoardingHouse)
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:     run.Step.Title,
		Command:   "bhkiosk register " + string(run.Step.ID) + " --plain",
		Params:    params,
		StepNames: []string{"Check entries", "Send to registration server"},
		Output:    run.Out,
	})
	runner.PrintHeader()

	store := run.Step.NewStore()
	if err := ui.FillForm(ctx, run.Prompter, store); err != nil {
		if errors.Is(err, ui.ErrAborted) {
			printer.Println("Registration cancelled. Nothing was sent.")
			return nil
		}
		return err
	}

	if !run.SkipConfirm {
		ok, err := ui.ConfirmSubmit(ctx, run.Prompter, printer, run.Step.Title, store)
		if errors.Is(err, ui.ErrAborted) || (err == nil && !ok) {
			printer.Println("Nothing was sent.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	nav := wizard.NewNavigator(run.Backend)
	_, err := runner.Run(ctx, func(onStep ui.StepCallback) (map[string]string, error) {
		onStep(1, ui.StepRunning, "")
		if invalid := store.Revalidate(); len(invalid) > 0 {
			onStep(1, ui.StepFailed, fmt.Sprintf("%d invalid", len(invalid)))
			onStep(2, ui.StepSkipped, "")
			return nil, registration.NewValidationError(invalid)
		}
		onStep(1, ui.StepComplete, fmt.Sprintf("%d fields", len(store.Names())))

		onStep(2, ui.StepRunning, "")
		next, err := nav.Submit(ctx, run.Step, store)
		if err != nil {
			onStep(2, ui.StepFailed, registration.ShortMessage(err))
			return nil, err
		}
		onStep(2, ui.StepComplete, "")
		return resultDetails(next), nil
	})
	return err
}

// resultDetails describes a successful submission for the result box
func resultDetails(next wizard.NextStepInput) map[string]string {
	details := make(map[string]string)
	switch p := next.Payload.(type) {
	case registration.OwnerRecord:
		details = p.Details()
	case registration.TenantRecord:
		details = p.Details()
	case []registration.RoomRecord:
		beds := 0
		for _, r := range p {
			beds += r.Capacity
		}
		details["Rooms"] = strconv.Itoa(len(p))
		details["Beds"] = strconv.Itoa(beds)
	}
	if next.Key != "" {
		details[next.Key] = next.ID.String()
	}
	if next.Route != "" {
		details["Next"] = next.Route
	}
	return details
}
