// Bhkiosk is the boarding house registration kiosk.
//
// It runs a full-screen, touch friendly registration wizard for boarding
// house owners and boarders, submitting each step to the registration REST
// backend. A line-mode variant is available for maintenance terminals.
//
// Usage:
//
//	bhkiosk [command] [flags]
//
// Running without arguments launches the kiosk.
// See 'bhkiosk --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muurk/bhkiosk/internal/config"
	"github.com/muurk/bhkiosk/internal/logging"
	"github.com/muurk/bhkiosk/internal/version"
)

func init() {
	// Query the terminal background before any program starts so the OSC 11
	// reply does not land in the input loop.
	_ = lipgloss.HasDarkBackground()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cfgFile is the --config flag; empty means the default location
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bhkiosk",
	Short: "Boarding House Registration Kiosk",
	Long: `A registration kiosk for boarding houses.

Owners register themselves and their rooms, boarders register their
details, and every step is submitted to the registration server.

If no command is specified, the full-screen kiosk launches.`,
	Version:      version.Version,
	SilenceUsage: true,
	RunE:         runKiosk,
}

// flagKeys maps persistent flags to their configuration keys
var flagKeys = map[string]string{
	"backend-url":   "backend.url",
	"timeout":       "backend.timeout_seconds",
	"discover":      "backend.discover",
	"kiosk-name":    "kiosk.name",
	"house":         "kiosk.boarding_house_id",
	"rooms":         "kiosk.rooms",
	"keypad":        "keypad.enabled",
	"keypad-listen": "keypad.listen",
	"log-level":     "log.level",
	"log-file":      "log.file",
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	addConfigFlags(rootCmd)
	rootCmd.AddCommand(versionCmd)
}

// addConfigFlags defines the flags loadConfig layers over the config file
func addConfigFlags(cmd *cobra.Command) {
	defaults := config.NewConfig()
	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/bhkiosk/config.yaml)")
	flags.String("backend-url", defaults.Backend.URL, "Registration server base URL")
	flags.Int("timeout", defaults.Backend.TimeoutSeconds, "Request timeout in seconds")
	flags.Bool("discover", defaults.Backend.Discover, "Find the registration server over mDNS")
	flags.String("kiosk-name", defaults.Kiosk.Name, "Name shown in the kiosk header")
	flags.Int("house", defaults.Kiosk.BoardingHouseID, "Boarding house id boarders and rooms belong to")
	flags.Int("rooms", defaults.Kiosk.Rooms, "Number of rooms in the room setup step")
	flags.Bool("keypad", defaults.Keypad.Enabled, "Accept remote keypads over WebSocket")
	flags.String("keypad-listen", defaults.Keypad.Listen, "Remote keypad listen address")
	flags.String("log-level", "", "Log level (debug, info, warn, error); empty disables logging")
	flags.String("log-file", "", "Log file (the kiosk defaults to the state directory)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bhkiosk %s\n", version.Full())
	},
}

// loadConfig layers the configuration: defaults, then the config file, then
// BHKIOSK_* environment variables, then flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	for key, value := range config.Defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("BHKIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := configPath()
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		// No file, defaults and environment only
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	cfg := config.NewConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// --discover on its own means "find the server", not "use the default URL"
	if cmd.Flags().Changed("discover") && !cmd.Flags().Changed("backend-url") && cfg.Backend.Discover {
		cfg.Backend.URL = ""
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n%w", errors.Join(errs...))
	}
	return cfg, nil
}

// setupLogging starts the logger. Full-screen commands log to a file so
// output does not corrupt the screen.
func setupLogging(cfg *config.Config, fullScreen bool) error {
	opts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
	if fullScreen && opts.File == "" && (opts.Level != "" || os.Getenv(logging.LogLevelEnvVar) != "") {
		path, err := config.DefaultLogPath()
		if err != nil {
			return err
		}
		opts.File = path
	}
	return logging.InitializeWithOptions(opts)
}
