package fonts

import (
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// logger reports font planning and download activity on stderr. Its
// level comes from CRYOSNAP_FONT_LOG, then CRYOSNAP_LOG, default
// info.
var logger = newLogger()

func newLogger() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{Prefix: "cryosnap"})
	l.SetLevel(configuredLogLevel())
	return l
}

// logOff silences the logger entirely.
const logOff = log.Level(math.MaxInt32)

func parseLogLevel(value string) (log.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "off", "none", "0", "false", "no":
		return logOff, true
	case "error", "err", "1":
		return log.ErrorLevel, true
	case "warn", "warning", "2":
		return log.WarnLevel, true
	case "info", "3":
		return log.InfoLevel, true
	case "debug", "dbg", "4", "trace", "5":
		return log.DebugLevel, true
	}
	return 0, false
}

func configuredLogLevel() log.Level {
	e := readEnv()
	for _, value := range []string{e.FontLog, e.Log} {
		if value == "" {
			continue
		}
		if level, ok := parseLogLevel(value); ok {
			return level
		}
	}
	return log.InfoLevel
}

// SetLogOutput redirects the package logger; tests pass io.Discard.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

// WarnPlanFailure reports a script-plan failure. Planning is
// best-effort; callers degrade to an empty plan after calling this.
func WarnPlanFailure(err error) {
	logger.Warn("font plan failed", "err", err)
}
