package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "BHKIOSK_LOG_LEVEL"

// LogFileEnvVar redirects log output to a file. The full-screen kiosk
// sets this so log lines never land on the terminal it is drawing.
const LogFileEnvVar = "BHKIOSK_LOG_FILE"

// Options controls logger construction.
type Options struct {
	Level string // "debug", "info", "warn", "error"; empty means silent
	File  string // Log file path; empty means stdout
}

// Initialize creates a new logger with the specified level writing to stdout.
// If level is empty, it checks BHKIOSK_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	return InitializeWithOptions(Options{Level: level})
}

// InitializeFromEnv initializes the logger from BHKIOSK_LOG_LEVEL and
// BHKIOSK_LOG_FILE.
func InitializeFromEnv() error {
	return InitializeWithOptions(Options{})
}

// InitializeWithOptions creates the global logger. Empty option fields fall
// back to their environment variables.
func InitializeWithOptions(opts Options) error {
	if opts.Level == "" {
		opts.Level = os.Getenv(LogLevelEnvVar)
	}
	if opts.File == "" {
		opts.File = os.Getenv(LogFileEnvVar)
	}

	if opts.Level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(opts.Level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		// No color codes in files.
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.OutputPaths = []string{opts.File}
		config.ErrorOutputPaths = []string{opts.File}
	}

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogRequest logs an outgoing backend request
func LogRequest(requestID, method, url string, bodySize int) {
	Info("Backend request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("body_bytes", bodySize),
	)
}

// LogResponse logs a backend response
func LogResponse(requestID string, statusCode int, elapsed time.Duration) {
	Info("Backend response",
		zap.String("request_id", requestID),
		zap.Int("status_code", statusCode),
		zap.Duration("elapsed", elapsed),
	)
}

// LogRequestFailed logs a request that never produced a response
func LogRequestFailed(requestID, kind string, err error) {
	Warn("Backend request failed",
		zap.String("request_id", requestID),
		zap.String("kind", kind),
		zap.Error(err),
	)
}

// LogSubmission logs the outcome of a wizard step submission.
// Field values are never logged; they are personal data.
func LogSubmission(step string, fieldCount int, err error) {
	if err != nil {
		Warn("Step submission failed",
			zap.String("step", step),
			zap.Int("fields", fieldCount),
			zap.Error(err),
		)
		return
	}
	Info("Step submitted",
		zap.String("step", step),
		zap.Int("fields", fieldCount),
	)
}

// LogConnection logs a keypad connection event
func LogConnection(remoteAddr, sessionID, event string) {
	Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("session_id", sessionID),
		zap.String("event", event),
	)
}

// LogKeypadEvent logs a decoded remote keypad message. Key values are only
// logged at debug level.
func LogKeypadEvent(sessionID, eventType, detail string) {
	fields := []zap.Field{
		zap.String("session_id", sessionID),
		zap.String("type", eventType),
	}
	if GetLogger().Core().Enabled(zapcore.DebugLevel) {
		fields = append(fields, zap.String("detail", detail))
	}
	Debug("Keypad event", fields...)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
