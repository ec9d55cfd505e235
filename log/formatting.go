package log

import (
	"fmt"
	"sync"
)

var (
	counter     uint16
	counterLock sync.Mutex
)

const (
	maxCount   uint16 = 999
	timeFormat        = "060102 15:04:05.000"
)

func (s Severity) String() string {
	switch s {
	case TraceLevel:
		return "TRAC"
	case DebugLevel:
		return "DEBU"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARN"
	case ErrorLevel:
		return "ERRO"
	case CriticalLevel:
		return "CRIT"
	default:
		return "NONE"
	}
}

func nextCount() uint16 {
	counterLock.Lock()
	defer counterLock.Unlock()

	counter++
	if counter > maxCount {
		counter = 1
	}
	return counter
}

func formatLine(line *logLine, duplicates uint64, useColor bool) string {
	colorStart := ""
	colorEnd := ""
	if useColor {
		colorStart = line.level.color()
		colorEnd = endColor()
	}

	count := nextCount()

	if line.line == 0 {
		return fmt.Sprintf(
			"%s%s ? %s %s %03d%s%s %s",
			colorStart,
			line.timestamp.Format(timeFormat),
			rightArrow,
			line.level.String(),
			count,
			formatDuplicates(duplicates),
			colorEnd,
			line.msg,
		)
	}

	fLen := len(line.file)
	fPartStart := fLen - 10
	if fPartStart < 0 {
		fPartStart = 0
	}
	return fmt.Sprintf(
		"%s%s %s:%03d %s %s %03d%s%s %s",
		colorStart,
		line.timestamp.Format(timeFormat),
		line.file[fPartStart:],
		line.line,
		rightArrow,
		line.level.String(),
		count,
		formatDuplicates(duplicates),
		colorEnd,
		line.msg,
	)
}

func formatDuplicates(duplicates uint64) string {
	if duplicates == 0 {
		return ""
	}
	return fmt.Sprintf(" [%dx]", duplicates+1)
}
