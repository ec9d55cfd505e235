package run

import (
	"bufio"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/Kaccad/Juicyscore-test/host"
	"github.com/Kaccad/Juicyscore-test/log"
)

// inputSignals emulates signals and window events from the lines of r.
// Signal names are sent to signalCh, any other word is dispatched as an event
// on the window, with the rest of the line as its text.
func inputSignals(r io.Reader, signalCh chan<- os.Signal, win *host.Window) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "SIGHUP":
			signalCh <- syscall.SIGHUP
		case "SIGINT":
			signalCh <- syscall.SIGINT
		case "SIGQUIT":
			signalCh <- syscall.SIGQUIT
		case "SIGTERM":
			signalCh <- syscall.SIGTERM
		case "SIGUSR1":
			signalCh <- sigUSR1
		default:
			eventType, text, _ := strings.Cut(line, " ")
			var data map[string]interface{}
			if text != "" {
				data = map[string]interface{}{
					"text": text,
				}
			}
			if win.Dispatch(eventType, data) == 0 {
				log.Debugf("run: nobody is listening for %s events yet", eventType)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warningf("run: failed to read input: %s", err)
	}
}
