package logger

import (
	"context"
	"io"
	"os"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RequestIDKey is the gin/context key holding the request ID.
const RequestIDKey = "request_id"

var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Configure(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Getenv("LOG_FILE"))
}

// Configure sets level, formatter and output of the shared logger.
// An empty file keeps output on stdout only.
func Configure(level, format, file string) {
	switch strings.ToLower(level) {
	case "debug":
		Logger.SetLevel(logrus.DebugLevel)
	case "warn":
		Logger.SetLevel(logrus.WarnLevel)
	case "error":
		Logger.SetLevel(logrus.ErrorLevel)
	default:
		Logger.SetLevel(logrus.InfoLevel)
	}

	if strings.ToLower(format) == "text" {
		Logger.SetFormatter(&formatter.Formatter{
			NoColors:        true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			HideKeys:        false,
			FieldsOrder:     []string{RequestIDKey, "component"},
		})
	} else {
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	writers := []io.Writer{os.Stdout}
	if file != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   file,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}
	Logger.SetOutput(io.MultiWriter(writers...))
}

// WithFields creates a new entry with the given fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithField creates a new entry with a single field
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithError creates a new entry with an error field
func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}

type requestIDCtxKey struct{}

// ContextWithRequestID returns a copy of ctx carrying the request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

// RequestID returns the request ID carried by ctx, or "" when there is none.
// A *gin.Context works too, since it resolves RequestIDKey from its keys.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDCtxKey{}).(string); ok && id != "" {
		return id
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithContext creates an entry tagged with the request ID carried by ctx
func WithContext(ctx context.Context) *logrus.Entry {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return Logger.WithField(RequestIDKey, requestID)
}

// Info logs an info message
func Info(msg string) {
	Logger.Info(msg)
}

// Error logs an error message
func Error(msg string) {
	Logger.Error(msg)
}

// Debug logs a debug message
func Debug(msg string) {
	Logger.Debug(msg)
}

// Warn logs a warning message
func Warn(msg string) {
	Logger.Warn(msg)
}
