package log

import (
	"fmt"
	"io"
	"time"
)

// SetOutput replaces the writer log lines are written to.
func SetOutput(w io.Writer) {
	outputLock.Lock()
	defer outputLock.Unlock()
	output = w
}

func writeLine(line *logLine, duplicates uint64) {
	outputLock.Lock()
	defer outputLock.Unlock()

	fmt.Fprintln(output, formatLine(line, duplicates, true))
}

func writer() {
	defer shutdownWaitGroup.Done()

	var (
		line       *logLine
		lastLine   *logLine
		duplicates uint64
	)

	for {
		// wait until logs need to be processed
		select {
		case <-logsWaiting:
			logsWaitingFlag.UnSet()
		case <-forceEmptyingOfBuffer:
		case <-shutdownSignal:
			finalizeWriting(lastLine, duplicates)
			return
		}

		// write all the logs!
	writeLoop:
		for {
			select {
			case line = <-logBuffer:
				// look-ahead for dupes
				if lastLine != nil && line.Equal(lastLine) {
					duplicates++
					continue writeLoop
				}
				// write actual line
				if lastLine != nil && duplicates > 0 {
					writeLine(lastLine, duplicates)
					duplicates = 0
				}
				writeLine(line, 0)
				lastLine = line
			case <-time.After(10 * time.Millisecond):
				// flush pending duplicates once the burst is over
				if lastLine != nil && duplicates > 0 {
					writeLine(lastLine, duplicates)
					duplicates = 0
				}
				lastLine = nil
				break writeLoop
			case <-shutdownSignal:
				finalizeWriting(lastLine, duplicates)
				return
			}
		}
	}
}

func finalizeWriting(lastLine *logLine, duplicates uint64) {
	if lastLine != nil && duplicates > 0 {
		writeLine(lastLine, duplicates)
	}

	for {
		select {
		case line := <-logBuffer:
			writeLine(line, 0)
		case <-time.After(10 * time.Millisecond):
			writeLine(&logLine{
				msg:       "===== LOGGING STOPPED =====",
				level:     WarningLevel,
				timestamp: time.Now(),
			}, 0)
			return
		}
	}
}
