package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/OCAP2/orbat/internal/mission"
)

// SlogManager manages slog-based logging fanned out to console, file and
// any extra handlers such as GELF.
type SlogManager struct {
	logger   *slog.Logger
	console  io.Writer
	provider ContextProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{console: os.Stdout}
}

// SetConsole replaces stdout as the console output. Call before Setup.
func (m *SlogManager) SetConsole(w io.Writer) {
	m.console = w
}

// SetContextProvider sets attributes added to every record. Call before Setup.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.provider = p
}

// MissionContextProvider tags records with the loaded battle and current frame.
func MissionContextProvider(ctx *mission.Context) ContextProvider {
	return func() []slog.Attr {
		return []slog.Attr{
			slog.String("battle", ctx.GetBattle().Name),
			slog.Uint64("frame", ctx.Frame()),
		}
	}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system with console, optional file and
// extra handlers. Nil writers and handlers are skipped.
func (m *SlogManager) Setup(file io.Writer, level string, extra ...slog.Handler) {
	lvl := parseLevel(level)

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	// Build list of handlers
	var handlers []slog.Handler

	// Console handler
	if m.console != nil {
		handlers = append(handlers, slog.NewTextHandler(m.console, handlerOpts))
	}

	// File handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	}

	handlers = append(handlers, extra...)

	// Combine all handlers
	var handler slog.Handler = NewMultiHandler(handlers...)
	if m.provider != nil {
		handler = NewContextHandler(handler, m.provider)
	}

	m.logger = slog.New(handler)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// WriteLog writes a log entry with the specified function name, data, and level.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}

	lvl := parseLevel(level)

	switch lvl {
	case slog.LevelDebug:
		m.logger.Debug(data, "function", functionName)
	case slog.LevelInfo:
		m.logger.Info(data, "function", functionName)
	case slog.LevelWarn:
		m.logger.Warn(data, "function", functionName)
	case slog.LevelError:
		m.logger.Error(data, "function", functionName)
	default:
		m.logger.Info(data, "function", functionName)
	}
}

