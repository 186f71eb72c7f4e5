// Package config provides the kiosk configuration file.
//
// The configuration is a versioned YAML file stored in platform-appropriate
// locations:
//   - Linux: $XDG_CONFIG_HOME/bhkiosk/config.yaml or $HOME/.config/bhkiosk/config.yaml
//   - macOS: $HOME/.config/bhkiosk/config.yaml
//   - Windows: %LOCALAPPDATA%\bhkiosk\config.yaml
//
// # Example
//
//	version: 1
//	backend:
//	  url: http://192.168.1.20:8000
//	  timeout_seconds: 15
//	  discover: false
//	  discover_timeout: 5
//	kiosk:
//	  name: Dela Cruz Boarding House
//	  boarding_house_id: 3
//	  rooms: 6
//	keypad:
//	  enabled: true
//	  listen: ":8765"
//
// The CLI layers this file under BHKIOSK_* environment variables and flags;
// Defaults exposes the same values as dotted keys for that purpose.
//
// # Thread Safety
//
// Save is protected by a mutex and writes atomically through a temporary file.
package config
