package main

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/bhkiosk/internal/config"
	"github.com/muurk/bhkiosk/internal/mockapi"
	"github.com/muurk/bhkiosk/internal/registration"
	"github.com/muurk/bhkiosk/internal/ui"
	"github.com/muurk/bhkiosk/internal/wizard"
)

// loadWith runs loadConfig on a fresh command parsed from args
func loadWith(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	t.Cleanup(func() { cfgFile = "" })

	var cfg *config.Config
	var loadErr error
	cmd := &cobra.Command{
		Use:           "test",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loadErr = loadConfig(cmd)
			return nil
		},
	}
	addConfigFlags(cmd)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return cfg, loadErr
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfig_Layering(t *testing.T) {
	path := writeConfig(t, `version: 1
backend:
  url: http://10.0.0.5:8000
kiosk:
  name: Front desk
  boarding_house_id: 2
  rooms: 6
`)
	t.Setenv("BHKIOSK_KIOSK_NAME", "Lobby")

	cfg, err := loadWith(t, "--config", path, "--house", "9")
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8000", cfg.Backend.URL, "file")
	assert.Equal(t, 6, cfg.Kiosk.Rooms, "file")
	assert.Equal(t, "Lobby", cfg.Kiosk.Name, "environment beats file")
	assert.Equal(t, 9, cfg.Kiosk.BoardingHouseID, "flag beats file")
	assert.Equal(t, 15, cfg.Backend.TimeoutSeconds, "default")
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadWith(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.NewConfig(), cfg)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadWith(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--rooms", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kiosk.rooms")
}

func TestLoadConfig_DiscoverClearsDefaultURL(t *testing.T) {
	absent := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := loadWith(t, "--config", absent, "--discover")
	require.NoError(t, err)
	assert.Empty(t, cfg.Backend.URL)
	assert.True(t, cfg.Backend.Discover)

	cfg, err = loadWith(t, "--config", absent, "--discover", "--backend-url", "http://10.0.0.7:8000")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.7:8000", cfg.Backend.URL)
}

func TestStepFor(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Kiosk.BoardingHouseID = 4
	cfg.Kiosk.Rooms = 2

	step, err := stepFor("rooms", cfg)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepRooms, step.ID)
	assert.Equal(t, 4, step.BoardingHouse)
	assert.Len(t, step.Fields, 4)

	step, err = stepFor("boarder", cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, step.BoardingHouse)

	_, err = stepFor("guardian", cfg)
	assert.Error(t, err)
}

func TestResolveBackend(t *testing.T) {
	cfg := config.NewConfig()
	url, err := resolveBackend(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Backend.URL, url)

	cfg.Backend.URL = ""
	_, err = resolveBackend(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, newScanner(cfg))
}

// scriptedPrompter answers prompts in order; "" takes the default and "^C"
// aborts
type scriptedPrompter struct {
	answers []string
	confirm bool
	asked   []string
}

func (p *scriptedPrompter) Input(_ context.Context, cfg ui.InputConfig) (string, error) {
	p.asked = append(p.asked, cfg.Message)
	if len(p.answers) == 0 {
		return cfg.Default, nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	switch answer {
	case "^C":
		return "", ui.ErrAborted
	case "":
		return cfg.Default, nil
	}
	return answer, nil
}

func (p *scriptedPrompter) Confirm(context.Context, ui.ConfirmConfig) (bool, error) {
	return p.confirm, nil
}

func newMockServer(t *testing.T) (*mockapi.Backend, *registration.Client) {
	t.Helper()
	backend := mockapi.New()
	server := httptest.NewServer(backend.Router())
	t.Cleanup(server.Close)
	return backend, registration.NewClient(server.URL)
}

func TestRegisterPlain_Owner(t *testing.T) {
	backend, client := newMockServer(t)
	prompter := &scriptedPrompter{answers: []string{"juan", "dela cruz", "", "09171234567"}, confirm: true}
	var out bytes.Buffer

	err := registerPlain(context.Background(), plainRun{
		Out:      &out,
		Prompter: prompter,
		Backend:  client,
		Step:     wizard.OwnerStep(),
		BaseURL:  client.BaseURL,
	})
	require.NoError(t, err)

	owners, _, _ := backend.Counts()
	assert.Equal(t, 1, owners)
	assert.Equal(t, []string{"First Name:", "Last Name:", "Address (optional):", "Contact Number:"}, prompter.asked)
	assert.Contains(t, out.String(), "SAVED")
	assert.Contains(t, out.String(), "Juan Dela Cruz")
	assert.Contains(t, out.String(), "Review Owner Registration")
}

func TestRegisterPlain_Rooms(t *testing.T) {
	backend, client := newMockServer(t)
	var out bytes.Buffer

	err := registerPlain(context.Background(), plainRun{
		Out:         &out,
		Prompter:    &scriptedPrompter{answers: []string{"", "2", "", "3"}},
		Backend:     client,
		Step:        wizard.RoomsStep(1, 2),
		BaseURL:     client.BaseURL,
		SkipConfirm: true,
	})
	require.NoError(t, err)

	_, _, rooms := backend.Counts()
	assert.Equal(t, 2, rooms)
	assert.NotContains(t, out.String(), "Review")
}

func TestRegisterPlain_DeclinedSendsNothing(t *testing.T) {
	backend, client := newMockServer(t)
	var out bytes.Buffer

	err := registerPlain(context.Background(), plainRun{
		Out:      &out,
		Prompter: &scriptedPrompter{answers: []string{"juan", "dela cruz", "", "09171234567"}},
		Backend:  client,
		Step:     wizard.OwnerStep(),
		BaseURL:  client.BaseURL,
	})
	require.NoError(t, err)

	owners, _, _ := backend.Counts()
	assert.Zero(t, owners)
	assert.Contains(t, out.String(), "Nothing was sent.")
}

func TestRegisterPlain_Aborted(t *testing.T) {
	backend, client := newMockServer(t)
	var out bytes.Buffer

	err := registerPlain(context.Background(), plainRun{
		Out:      &out,
		Prompter: &scriptedPrompter{answers: []string{"juan", "^C"}, confirm: true},
		Backend:  client,
		Step:     wizard.OwnerStep(),
		BaseURL:  client.BaseURL,
	})
	require.NoError(t, err)

	owners, _, _ := backend.Counts()
	assert.Zero(t, owners)
	assert.Contains(t, out.String(), "Registration cancelled")
}

func TestRegisterPlain_InvalidEntriesNotSent(t *testing.T) {
	backend, client := newMockServer(t)
	var out bytes.Buffer

	err := registerPlain(context.Background(), plainRun{
		Out:         &out,
		Prompter:    &scriptedPrompter{answers: []string{"juan", "dela cruz", "", "12345"}},
		Backend:     client,
		Step:        wizard.OwnerStep(),
		BaseURL:     client.BaseURL,
		SkipConfirm: true,
	})
	require.Error(t, err)
	assert.True(t, registration.IsValidationError(err))

	owners, _, _ := backend.Counts()
	assert.Zero(t, owners)
	assert.Contains(t, out.String(), "FAILED")
}

func TestRegisterPlain_ServerError(t *testing.T) {
	backend, client := newMockServer(t)
	backend.SetFailure(503)
	var out bytes.Buffer

	err := registerPlain(context.Background(), plainRun{
		Out:         &out,
		Prompter:    &scriptedPrompter{answers: []string{"juan", "dela cruz", "", "09171234567"}},
		Backend:     client,
		Step:        wizard.OwnerStep(),
		BaseURL:     client.BaseURL,
		SkipConfirm: true,
	})
	require.Error(t, err)
	assert.True(t, registration.IsBackendRejected(err))
	assert.Contains(t, out.String(), "Registration server error (HTTP 503)")
}

func TestResultDetails(t *testing.T) {
	details := resultDetails(wizard.NextStepInput{
		Route:   wizard.RouteGuardian,
		Key:     wizard.KeyTenantID,
		ID:      42,
		Payload: registration.TenantRecord{FirstName: "Ana", LastName: "Santos", Age: 19},
	})
	assert.Equal(t, "42", details[wizard.KeyTenantID])
	assert.Equal(t, wizard.RouteGuardian, details["Next"])
	assert.Equal(t, "Ana Santos", details["Name"])

	details = resultDetails(wizard.NextStepInput{
		Route:   wizard.RouteDone,
		Payload: []registration.RoomRecord{{RoomNumber: "Room 1", Capacity: 2}, {RoomNumber: "Room 2", Capacity: 3}},
	})
	assert.Equal(t, "2", details["Rooms"])
	assert.Equal(t, "5", details["Beds"])
}

func TestPing(t *testing.T) {
	_, client := newMockServer(t)
	var out bytes.Buffer

	require.NoError(t, ping(context.Background(), ui.NewPrinter(&out), client.BaseURL, time.Second))
	assert.Contains(t, out.String(), "Registration server reachable")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closed := "http://" + listener.Addr().String()
	require.NoError(t, listener.Close())

	out.Reset()
	err = ping(context.Background(), ui.NewPrinter(&out), closed, time.Second)
	require.Error(t, err)
	assert.True(t, registration.IsTransportError(err))
	assert.Contains(t, out.String(), "FAILED")
}

func TestServeMock(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveMock(ctx, listener, []int{3}) }()

	client := registration.NewClient("http://" + listener.Addr().String())
	id, err := client.CreateOwner(context.Background(), registration.OwnerRecord{
		FirstName: "Juan",
		LastName:  "Dela Cruz",
		Contact:   "09171234567",
	})
	require.NoError(t, err)
	assert.Equal(t, registration.ID(1), id)

	err = client.CreateRooms(context.Background(), []registration.RoomRecord{{RoomNumber: "Room 1", Capacity: 2, BoardingHouse: 4}})
	assert.True(t, registration.IsBackendRejected(err), "house 4 is not served")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("mock backend did not stop")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bhkiosk", "config.yaml")
	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })

	var out bytes.Buffer
	configInitCmd.SetOut(&out)
	require.NoError(t, configInitCmd.RunE(configInitCmd, nil))
	assert.Contains(t, out.String(), path)
	assert.FileExists(t, path)

	assert.Error(t, configInitCmd.RunE(configInitCmd, nil), "existing file is not overwritten")

	out.Reset()
	configShowCmd.SetOut(&out)
	require.NoError(t, configShowCmd.RunE(configShowCmd, nil))
	assert.Contains(t, out.String(), "boarding_house_id: 1")
	assert.Contains(t, out.String(), "url: http://127.0.0.1:8000")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "bhkiosk ")
}
