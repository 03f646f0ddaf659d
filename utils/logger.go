package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger. It stays a no-op logger until InitLogger runs so that
// packages used from tests do not write to stdout.
var Logger = zerolog.Nop()

// InitLogger configures the global console logger.
func InitLogger(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(zerolog.InfoLevel)

	if debug {
		Logger = Logger.Level(zerolog.DebugLevel)
	}

	Logger.Info().Msg("logger initialised")
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// LogApiRequest records an incoming API request.
func LogApiRequest(method, url string, params interface{}, headers map[string]string) {
	if auth := headers["Authorization"]; len(auth) > 15 {
		headers["Authorization"] = auth[:15] + "..."
	}

	Logger.Info().
		Str("method", method).
		Str("url", url).
		Interface("params", params).
		Interface("headers", headers).
		Msg("api request")
}

// LogApiResponse records the outcome of an API request.
func LogApiResponse(method, url string, statusCode int, responseTime time.Duration) {
	event := Logger.Info()
	if statusCode >= 400 {
		event = Logger.Error()
	}
	event.
		Str("method", method).
		Str("url", url).
		Int("statusCode", statusCode).
		Dur("responseTime", responseTime).
		Msg("api response")
}

// LogInfo records an informational message with context.
func LogInfo(context map[string]interface{}, message string) {
	Logger.Info().
		Interface("context", context).
		Msg(message)
}

// LogError records an error with structured context.
func LogError(message string, err error, context map[string]interface{}) {
	Logger.Error().
		Err(err).
		Interface("context", context).
		Msg(message)
}

// LogDbOperation records a storage write at debug level.
func LogDbOperation(operation string, collection string, count int) {
	Logger.Debug().
		Str("operation", operation).
		Str("collection", collection).
		Int("count", count).
		Msg("db operation")
}
