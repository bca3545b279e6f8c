package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the log level
type Level int

const (
	LevelDebug Level = iota // Debug information (only shown with --verbose)
	LevelInfo               // Important steps
	LevelTool               // Tool call related
	LevelAgent              // Agent response
	LevelWarn               // Recoverable problems
	LevelError              // Error messages
)

// ParseLevel maps a config string onto a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "tool":
		return LevelTool
	case "agent":
		return LevelAgent
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ANSI color codes for terminal output
const (
	ColorReset   = "\033[0m"
	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorMagenta = "\033[35m"
	ColorCyan    = "\033[36m"
	ColorGray    = "\033[90m"
	ColorBold    = "\033[1m"
)

// Logger provides structured logging for the orchestrator. It writes either
// colored console sections or, in JSON mode, one zerolog event per line.
type Logger struct {
	writer    io.Writer
	level     Level
	showTime  bool
	colorMode bool
	fields    map[string]string
	mu        *sync.Mutex
	zl        *zerolog.Logger
}

// NewLogger creates a new console Logger instance
func NewLogger(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		writer:    w,
		level:     level,
		showTime:  true,
		colorMode: true,
		mu:        &sync.Mutex{},
	}
}

// NewJSONLogger creates a Logger that emits JSON lines through zerolog.
func NewJSONLogger(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stdout
	}
	zl := zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()
	return &Logger{
		writer: w,
		level:  level,
		mu:     &sync.Mutex{},
		zl:     &zl,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(io.Discard, LevelError+1)
}

func zerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level < LevelWarn:
		return zerolog.InfoLevel
	case level == LevelWarn:
		return zerolog.WarnLevel
	case level == LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// SetColorMode enables or disables colored output
func (l *Logger) SetColorMode(enabled bool) {
	l.colorMode = enabled
}

// SetShowTime enables or disables timestamp display
func (l *Logger) SetShowTime(enabled bool) {
	l.showTime = enabled
}

// With returns a child logger that tags every line with key=value.
func (l *Logger) With(key, value string) *Logger {
	child := *l
	child.fields = make(map[string]string, len(l.fields)+1)
	for k, v := range l.fields {
		child.fields[k] = v
	}
	child.fields[key] = value
	if l.zl != nil {
		zl := l.zl.With().Str(key, value).Logger()
		child.zl = &zl
	}
	return &child
}

// Debug logs debug information (only shown in verbose mode)
func (l *Logger) Debug(format string, args ...any) {
	if l.level > LevelDebug {
		return
	}
	if l.zl != nil {
		l.zl.Debug().Msgf(format, args...)
		return
	}
	l.log(ColorGray, "DEBUG", format, args...)
}

// Info logs general information
func (l *Logger) Info(format string, args ...any) {
	if l.level > LevelInfo {
		return
	}
	if l.zl != nil {
		l.zl.Info().Msgf(format, args...)
		return
	}
	l.log(ColorBlue, "INFO", format, args...)
}

// Warn logs recoverable problems
func (l *Logger) Warn(format string, args ...any) {
	if l.level > LevelWarn {
		return
	}
	if l.zl != nil {
		l.zl.Warn().Msgf(format, args...)
		return
	}
	l.log(ColorYellow, "WARN", format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...any) {
	if l.level > LevelError {
		return
	}
	if l.zl != nil {
		l.zl.Error().Msgf(format, args...)
		return
	}
	l.log(ColorRed, "ERROR", format, args...)
}

// AgentResponse logs the model's plain-text answer
func (l *Logger) AgentResponse(content string) {
	if l.level > LevelAgent {
		return
	}
	if l.zl != nil {
		l.zl.Info().Str("content", content).Msg("model answer")
		return
	}
	l.printSection(ColorGreen, "💬 Agent Response", content)
}

// ToolCall logs a tool call with its parameters
func (l *Logger) ToolCall(toolName string, params string) {
	if l.level > LevelTool {
		return
	}
	if l.zl != nil {
		l.zl.Info().Str("tool", toolName).Str("params", strings.TrimSpace(params)).Msg("tool call")
		return
	}
	formattedParams := l.formatJSON(params)
	l.printSection(ColorCyan, fmt.Sprintf("🔧 Tool Call: %s", toolName), formattedParams)
}

// ToolResult logs a tool execution result
func (l *Logger) ToolResult(toolName string, success bool, output string, duration time.Duration) {
	if l.level > LevelTool {
		return
	}

	displayOutput := clip(output)

	if l.zl != nil {
		l.zl.Info().
			Str("tool", toolName).
			Bool("success", success).
			Dur("duration", duration).
			Str("output", displayOutput).
			Msg("tool result")
		return
	}

	status := "✅ Success"
	color := ColorGreen
	if !success {
		status = "❌ Failed"
		color = ColorRed
	}

	header := fmt.Sprintf("📊 Tool Result: %s [%s] (%s)", toolName, status, duration)
	l.printSection(color, header, displayOutput)
}

// clip limits output to maximum 2 lines and 500 characters
func clip(output string) string {
	const maxLines = 2
	const maxLength = 500

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	displayOutput := output
	truncatedLines := false

	if len(lines) > maxLines {
		displayOutput = strings.Join(lines[:maxLines], "\n")
		truncatedLines = true
	}

	if len(displayOutput) > maxLength {
		displayOutput = displayOutput[:maxLength] + "..."
	} else if truncatedLines {
		displayOutput += "\n..."
	}
	return displayOutput
}

// SessionStart logs the beginning of an orchestration run
func (l *Logger) SessionStart(task string) {
	if l.level > LevelError {
		return
	}
	if l.zl != nil {
		l.zl.Info().Str("task", task).Msg("run started")
		return
	}
	l.printBanner(ColorCyan, "🚀 Session Started", task)
}

// SessionEnd logs the completion of a run with statistics
func (l *Logger) SessionEnd(duration time.Duration, toolCallCount int, outcome string) {
	if l.level > LevelError {
		return
	}
	if l.zl != nil {
		l.zl.Info().
			Dur("duration", duration).
			Int("tool_calls", toolCallCount).
			Str("outcome", outcome).
			Msg("run finished")
		return
	}
	summary := fmt.Sprintf("Duration: %s | Tool Calls: %d | Outcome: %s",
		duration.Round(time.Millisecond), toolCallCount, outcome)
	l.printBanner(ColorGreen, "✨ Session Completed", summary)
}

// Progress displays a progress bar
func (l *Logger) Progress(current, total int, message string) {
	if l.level > LevelInfo {
		return
	}
	if l.zl != nil {
		l.zl.Info().Int("step", current).Int("budget", total).Msg(message)
		return
	}

	bar := l.progressBar(current, total, 30)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.writer, "%s [%d/%d] %s\n", bar, current, total, message)
}

// log is the core console logging method
func (l *Logger) log(color, level, format string, args ...any) {
	timestamp := ""
	if l.showTime {
		timestamp = time.Now().Format("15:04:05") + " "
	}

	msg := fmt.Sprintf(format, args...)
	if tags := l.tags(); tags != "" {
		msg = tags + " " + msg
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.colorMode {
		fmt.Fprintf(l.writer, "%s%s[%s]%s %s\n",
			color, timestamp, level, ColorReset, msg)
	} else {
		fmt.Fprintf(l.writer, "%s[%s] %s\n", timestamp, level, msg)
	}
}

func (l *Logger) tags() string {
	if len(l.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + l.fields[k]
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// printSection prints a formatted section with header and content
func (l *Logger) printSection(color, header, content string) {
	separator := strings.Repeat("─", 60)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.colorMode {
		fmt.Fprintf(l.writer, "\n%s%s%s%s\n", ColorBold, color, header, ColorReset)
		fmt.Fprintf(l.writer, "%s%s%s\n", color, separator, ColorReset)
		fmt.Fprintf(l.writer, "%s\n", content)
		fmt.Fprintf(l.writer, "%s%s%s\n\n", color, separator, ColorReset)
	} else {
		fmt.Fprintf(l.writer, "\n%s\n%s\n%s\n%s\n\n", header, separator, content, separator)
	}
}

// printBanner prints a prominent banner for session start/end
func (l *Logger) printBanner(color, title, subtitle string) {
	separator := strings.Repeat("═", 70)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.colorMode {
		fmt.Fprintf(l.writer, "\n%s%s%s%s\n", ColorBold, color, separator, ColorReset)
		fmt.Fprintf(l.writer, "%s%s  %s%s\n", ColorBold, color, title, ColorReset)
		if subtitle != "" {
			fmt.Fprintf(l.writer, "%s  %s%s\n", color, subtitle, ColorReset)
		}
		fmt.Fprintf(l.writer, "%s%s%s%s\n\n", ColorBold, color, separator, ColorReset)
	} else {
		fmt.Fprintf(l.writer, "\n%s\n  %s\n", separator, title)
		if subtitle != "" {
			fmt.Fprintf(l.writer, "  %s\n", subtitle)
		}
		fmt.Fprintf(l.writer, "%s\n\n", separator)
	}
}

// progressBar generates a progress bar string
func (l *Logger) progressBar(current, total, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	if percent > 1 {
		percent = 1
	}
	filled := int(percent * float64(width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if l.colorMode {
		return fmt.Sprintf("%s%s%s %.0f%%", ColorCyan, bar, ColorReset, percent*100)
	}
	return fmt.Sprintf("%s %.0f%%", bar, percent*100)
}

// formatJSON formats JSON strings adaptively based on length
// Short JSON (< 80 chars) stays compact, long JSON gets pretty-printed
func (l *Logger) formatJSON(jsonStr string) string {
	compact := strings.TrimSpace(jsonStr)

	if len(compact) < 80 {
		return compact
	}

	var obj any
	if err := json.Unmarshal([]byte(compact), &obj); err != nil {
		return compact
	}

	pretty, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return compact
	}

	return string(pretty)
}
