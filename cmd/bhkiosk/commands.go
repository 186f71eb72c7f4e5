package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/bhkiosk/internal/config"
	"github.com/muurk/bhkiosk/internal/discovery"
	"github.com/muurk/bhkiosk/internal/logging"
	"github.com/muurk/bhkiosk/internal/mockapi"
	"github.com/muurk/bhkiosk/internal/registration"
	"github.com/muurk/bhkiosk/internal/ui"
)

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(mockBackendCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

// discoverCmd lists registration servers on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find registration servers on the network",
	Long: `Find registration servers using mDNS/DNS-SD discovery.

Servers advertise _http._tcp with a TXT record of service=bhregistry, or an
instance name starting with bhregistry.`,
	Example: `  # Browse for the configured discover timeout (default 5s)
  bhkiosk discover

  # Browse longer on a busy network
  bhkiosk discover --wait 15`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().Int("wait", 0, "Browse time in seconds (default: backend.discover_timeout)")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg, false); err != nil {
		return err
	}
	defer logging.Sync()

	scanner := discovery.NewScanner()
	scanner.Timeout = cfg.DiscoverTimeout()
	if wait, _ := cmd.Flags().GetInt("wait"); wait > 0 {
		scanner.Timeout = time.Duration(wait) * time.Second
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Searching for registration servers (timeout: %s)...\n\n", scanner.Timeout)

	backends, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	printBackends(out, backends)
	return nil
}

func printBackends(out io.Writer, backends []*discovery.Backend) {
	if len(backends) == 0 {
		fmt.Fprintln(out, "No registration servers found.")
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Check the registration server is running")
		fmt.Fprintln(out, "  - Check the kiosk is on the same network")
		fmt.Fprintln(out, "  - Try increasing --wait on slow networks")
		fmt.Fprintln(out, "  - Use --backend-url to set the address directly")
		return
	}

	fmt.Fprintf(out, "Found %d server(s):\n\n", len(backends))
	for i, b := range backends {
		fmt.Fprintf(out, "%d. %s\n", i+1, b.Instance)
		fmt.Fprintf(out, "   URL:   %s\n", b.BaseURL())
		if house := b.BoardingHouse(); house > 0 {
			fmt.Fprintf(out, "   House: %d\n", house)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "Use 'bhkiosk --backend-url <url>' to start the kiosk with a server")
}

// resolveBackend returns the configured server URL, or finds one over mDNS
// when the URL is empty and discovery is enabled
func resolveBackend(ctx context.Context, cfg *config.Config, scanner *discovery.Scanner) (string, error) {
	if cfg.Backend.URL != "" {
		return cfg.Backend.URL, nil
	}
	if scanner == nil {
		return "", errors.New("no registration server configured; set --backend-url or enable --discover")
	}
	backend, err := scanner.Find(ctx)
	if err != nil {
		return "", fmt.Errorf("finding registration server: %w", err)
	}
	logging.Info("Discovered registration server", zap.String("url", backend.BaseURL()))
	return backend.BaseURL(), nil
}

func newScanner(cfg *config.Config) *discovery.Scanner {
	if !cfg.Backend.Discover {
		return nil
	}
	scanner := discovery.NewScanner()
	scanner.Timeout = cfg.DiscoverTimeout()
	return scanner
}

// pingCmd checks the registration server answers
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the registration server is reachable",
	Example: `  bhkiosk ping
  bhkiosk ping --backend-url http://192.168.1.20:8000`,
	RunE: runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg, false); err != nil {
		return err
	}
	defer logging.Sync()

	baseURL, err := resolveBackend(cmd.Context(), cfg, newScanner(cfg))
	if err != nil {
		return err
	}
	return ping(cmd.Context(), ui.NewPrinter(cmd.OutOrStdout()), baseURL, cfg.Timeout())
}

func ping(ctx context.Context, printer *ui.Printer, baseURL string, timeout time.Duration) error {
	client := registration.NewClient(baseURL)
	client.SetTimeout(timeout)

	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		printer.PrintSubmitError(err)
		return err
	}

	printer.PrintSuccess("Registration server reachable", map[string]string{
		"URL":     client.BaseURL,
		"Latency": time.Since(start).Round(time.Millisecond).String(),
	})
	return nil
}

// mockBackendCmd serves the in-memory backend
var mockBackendCmd = &cobra.Command{
	Use:   "mock-backend",
	Short: "Run an in-memory registration server for demos",
	Long: `Run an in-memory registration server implementing the owner, tenant
and rooms endpoints. Records are kept until the server stops.`,
	Example: `  # Serve on :8000
  bhkiosk mock-backend

  # Accept only boarding house 3 and announce the server over mDNS
  bhkiosk mock-backend --houses 3 --advertise`,
	RunE: runMockBackend,
}

func init() {
	mockBackendCmd.Flags().String("listen", ":8000", "Listen address")
	mockBackendCmd.Flags().IntSlice("houses", nil, "Boarding house ids to accept (default: any)")
	mockBackendCmd.Flags().Bool("advertise", false, "Announce the server over mDNS")
	mockBackendCmd.Flags().String("instance", discovery.ServiceName+"-mock", "mDNS instance name")
}

func runMockBackend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if err := setupLogging(cfg, false); err != nil {
		return err
	}
	defer logging.Sync()

	listen, _ := cmd.Flags().GetString("listen")
	houses, _ := cmd.Flags().GetIntSlice("houses")

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listen, err)
	}

	if advertise, _ := cmd.Flags().GetBool("advertise"); advertise {
		instance, _ := cmd.Flags().GetString("instance")
		_, portStr, _ := net.SplitHostPort(listener.Addr().String())
		port, _ := strconv.Atoi(portStr)
		house := 0
		if len(houses) == 1 {
			house = houses[0]
		}
		ad, err := discovery.Advertise(instance, port, house)
		if err != nil {
			_ = listener.Close()
			return err
		}
		defer ad.Stop()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Mock registration server listening on %s\n", listener.Addr())
	return serveMock(cmd.Context(), listener, houses)
}

// serveMock serves the mock backend on listener until ctx is done
func serveMock(ctx context.Context, listener net.Listener, houses []int) error {
	backend := mockapi.New()
	backend.Houses = houses

	srv := &http.Server{Handler: backend.Router(), ReadHeaderTimeout: 10 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		owners, tenants, rooms := backend.Counts()
		logging.Info("Mock backend stopping",
			zap.Int("owners", owners),
			zap.Int("tenants", tenants),
			zap.Int("rooms", rooms),
		)
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the kiosk configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.CreateDefaultConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after layering the config file, BHKIOSK_*
environment variables and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.GetConfigPath()
}
