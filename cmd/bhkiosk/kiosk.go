package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/bhkiosk/internal/config"
	"github.com/muurk/bhkiosk/internal/discovery"
	"github.com/muurk/bhkiosk/internal/keypad"
	"github.com/muurk/bhkiosk/internal/logging"
	"github.com/muurk/bhkiosk/internal/ui"
	"github.com/muurk/bhkiosk/internal/wizard"
	"github.com/muurk/bhkiosk/internal/wizard/tui"
)

func runKiosk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return startKiosk(cmd.Context(), cfg, "")
}

// startKiosk runs the full-screen kiosk, optionally opening one step directly
func startKiosk(ctx context.Context, cfg *config.Config, step wizard.StepID) error {
	if !ui.IsInteractive() {
		return errors.New("the kiosk needs an interactive terminal; use 'bhkiosk register <step> --plain' instead")
	}

	if err := setupLogging(cfg, true); err != nil {
		return err
	}
	defer logging.Sync()

	var scanner *discovery.Scanner
	if cfg.Backend.Discover {
		scanner = discovery.NewScanner()
		scanner.Timeout = cfg.DiscoverTimeout()
	}

	model := tui.NewAppModel(tui.Options{
		KioskName:       cfg.Kiosk.Name,
		BoardingHouseID: cfg.Kiosk.BoardingHouseID,
		Rooms:           cfg.Kiosk.Rooms,
		BackendURL:      cfg.Backend.URL,
		Timeout:         cfg.Timeout(),
		Scanner:         scanner,
		StartStep:       step,
	})
	program := tui.NewProgram(model)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Keypad.Enabled {
		srv := keypad.New(keypad.Config{Listen: cfg.Keypad.Listen}, tui.KeypadSink(program.Send))
		go func() {
			if err := srv.Start(ctx); err != nil {
				logging.Error("Keypad server stopped", zap.Error(err))
			}
		}()
	}

	logging.Info("Kiosk starting",
		zap.String("kiosk", cfg.Kiosk.Name),
		zap.Int("boarding_house", cfg.Kiosk.BoardingHouseID),
		zap.String("backend", cfg.Backend.URL),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running kiosk: %w", err)
	}
	return nil
}
