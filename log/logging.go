package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tevino/abool"
)

// concept
/*
- Logging function:
  - check if file-based levelling enabled
    - if yes, check if level is active on this file
  - check if level is active
  - send data to backend via big buffered channel
- Backend:
  - wait until there is time for writing logs
  - write logs
  - console: log everything to stderr, stdout is reserved for results
- Channel overbuffering protection:
  - if buffer is full, trigger write
*/

// Severity describes a log level.
type Severity uint32

// Message describes a log level message and is implemented
// by logLine.
type Message interface {
	Text() string
	Severity() Severity
	Time() time.Time
	File() string
	LineNumber() int
}

type logLine struct {
	msg       string
	level     Severity
	timestamp time.Time
	file      string
	line      int
}

func (ll *logLine) Text() string {
	return ll.msg
}

func (ll *logLine) Severity() Severity {
	return ll.level
}

func (ll *logLine) Time() time.Time {
	return ll.timestamp
}

func (ll *logLine) File() string {
	return ll.file
}

func (ll *logLine) LineNumber() int {
	return ll.line
}

// Equal returns whether both lines carry the same message at the same location.
func (ll *logLine) Equal(ol *logLine) bool {
	switch {
	case ll.msg != ol.msg:
		return false
	case ll.file != ol.file:
		return false
	case ll.line != ol.line:
		return false
	case ll.level != ol.level:
		return false
	}
	return true
}

// Log Levels.
const (
	TraceLevel    Severity = 1
	DebugLevel    Severity = 2
	InfoLevel     Severity = 3
	WarningLevel  Severity = 4
	ErrorLevel    Severity = 5
	CriticalLevel Severity = 6
)

var (
	logBuffer             chan *logLine
	forceEmptyingOfBuffer = make(chan struct{})

	logLevelInt = uint32(InfoLevel)
	logLevel    = &logLevelInt

	pkgLevelsActive = abool.NewBool(false)
	pkgLevels       = make(map[string]Severity)
	pkgLevelsLock   sync.Mutex

	logsWaiting     = make(chan struct{}, 1)
	logsWaitingFlag = abool.NewBool(false)

	shutdownFlag      = abool.NewBool(false)
	shutdownSignal    = make(chan struct{})
	shutdownWaitGroup sync.WaitGroup

	initializing  = abool.NewBool(false)
	started       = abool.NewBool(false)
	startedSignal = make(chan struct{})

	outputLock sync.Mutex
	output     io.Writer = os.Stderr

	// ErrInvalidLevel is returned by Start if the configured log level is unknown.
	ErrInvalidLevel = errors.New("invalid log level")
)

func init() {
	logBuffer = make(chan *logLine, 1024)
}

// SetPkgLevels sets individual log levels for packages. Only effective after Start().
func SetPkgLevels(levels map[string]Severity) {
	pkgLevelsLock.Lock()
	pkgLevels = levels
	pkgLevelsLock.Unlock()
	pkgLevelsActive.Set()
}

// UnSetPkgLevels removes all individual log levels for packages.
func UnSetPkgLevels() {
	pkgLevelsActive.UnSet()
}

// GetLogLevel returns the current log level.
func GetLogLevel() Severity {
	return Severity(atomic.LoadUint32(logLevel))
}

// SetLogLevel sets a new log level. Only effective after Start().
func SetLogLevel(level Severity) {
	atomic.StoreUint32(logLevel, uint32(level))
}

// ParseLevel returns the level severity of a log level name.
func ParseLevel(level string) Severity {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warning":
		return WarningLevel
	case "error":
		return ErrorLevel
	case "critical":
		return CriticalLevel
	}
	return 0
}

// ParsePkgLevels parses a comma separated list of package levels, eg. "modules=trace,run=debug".
func ParsePkgLevels(definition string) (map[string]Severity, error) {
	levels := make(map[string]Severity)
	if definition == "" {
		return levels, nil
	}

	for _, pair := range strings.Split(definition, ",") {
		splitted := strings.Split(pair, "=")
		if len(splitted) != 2 {
			return nil, fmt.Errorf("%w: malformed package level %q", ErrInvalidLevel, pair)
		}
		level := ParseLevel(splitted[1])
		if level == 0 {
			return nil, fmt.Errorf("%w: unknown level in package level %q", ErrInvalidLevel, pair)
		}
		levels[splitted[0]] = level
	}

	return levels, nil
}

// Start starts the logging system. Must be called in order to see logs.
func Start() (err error) {
	if !initializing.SetToIf(false, true) {
		return nil
	}

	initialLogLevel := ParseLevel(logLevelFlag)
	if initialLogLevel == 0 {
		err = fmt.Errorf("%w: %q, falling back to level info", ErrInvalidLevel, logLevelFlag)
		initialLogLevel = InfoLevel
	}
	SetLogLevel(initialLogLevel)

	if pkgLogLevelsFlag != "" {
		levels, pkgErr := ParsePkgLevels(pkgLogLevelsFlag)
		if pkgErr != nil {
			err = pkgErr
		} else {
			SetPkgLevels(levels)
		}
	}

	shutdownWaitGroup.Add(1)
	go writer()

	started.Set()
	close(startedSignal)

	return err
}

// Shutdown writes remaining log lines and then stops the log system.
func Shutdown() {
	if shutdownFlag.SetToIf(false, true) {
		close(shutdownSignal)
	}
	shutdownWaitGroup.Wait()
}
