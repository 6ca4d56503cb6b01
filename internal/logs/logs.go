package logs

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. Init replaces its configuration.
var Logger = logrus.New()

type Options struct {
	Level  string // debug|info|warn|error
	Format string // text|json
	File   string // optional rotated log file, written in addition to stdout
	// ErrorFile receives one line per error-level entry.
	ErrorFile string
}

// Init configures Logger. Unknown levels fall back to info.
func Init(opts Options) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	switch strings.ToLower(opts.Format) {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // MB
			MaxBackups: 5,
		})
	}
	Logger.SetOutput(out)

	Logger.ReplaceHooks(make(logrus.LevelHooks))
	if opts.ErrorFile != "" {
		h, err := NewErrorFileHook(opts.ErrorFile)
		if err != nil {
			return err
		}
		Logger.AddHook(h)
	}
	return nil
}

// ErrorFileHook appends error entries to a flat file, one line each.
type ErrorFileHook struct {
	mu sync.Mutex
	w  io.Writer
}

func NewErrorFileHook(path string) (*ErrorFileHook, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log %s: %w", path, err)
	}
	return &ErrorFileHook{w: f}, nil
}

func (h *ErrorFileHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *ErrorFileHook) Fire(e *logrus.Entry) error {
	line := FormatErrorLine(e.Message, e.Data)
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

// FormatErrorLine renders "message key=value ..." with keys sorted and
// newlines flattened so every failure stays on one line.
func FormatErrorLine(msg string, fields logrus.Fields) string {
	var b strings.Builder
	b.WriteString(msg)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(b.String())
}
