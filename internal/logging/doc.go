// Package logging provides structured logging for the bhkiosk binary.
//
// This package wraps a global zap logger with convenience functions for the
// events the kiosk cares about: backend requests, step submissions and remote
// keypad traffic.
//
// # Silent by Default
//
// Logging is off unless a level is given, either with --log-level or the
// BHKIOSK_LOG_LEVEL environment variable. The full-screen kiosk owns the
// terminal, so when it runs with logging on, output goes to a file
// (--log-file or BHKIOSK_LOG_FILE):
//
//	if err := logging.InitializeWithOptions(logging.Options{
//	    Level: "debug",
//	    File:  "/var/log/bhkiosk/kiosk.log",
//	}); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Personal Data
//
// Registration forms hold names, addresses and phone numbers. None of the
// helpers here take field values; submissions are logged by step name and
// field count only, and keypad key values only appear at debug level.
//
// # Structured Logging
//
//	logging.Info("Backend discovered",
//	    zap.String("instance", "bhregistry"),
//	    zap.String("url", "http://192.168.1.20:8000"),
//	)
package logging
