package run

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kaccad/Juicyscore-test/api"
	"github.com/Kaccad/Juicyscore-test/config"
	"github.com/Kaccad/Juicyscore-test/host"
	"github.com/Kaccad/Juicyscore-test/info"
	"github.com/Kaccad/Juicyscore-test/log"
	"github.com/Kaccad/Juicyscore-test/metrics"
	"github.com/Kaccad/Juicyscore-test/modules"
)

var (
	printStackOnExit   bool
	enableInputSignals bool

	sigUSR1 = syscall.Signal(0xa) // dummy for windows

	errShutdown = errors.New("shutdown requested")
)

func init() {
	flag.BoolVar(&printStackOnExit, "print-stack-on-exit", false, "prints the stack before of shutting down")
	flag.BoolVar(&enableInputSignals, "input-signals", false, "emulate signals and window events (eg. \"copy <text>\") using stdin")
}

// Run executes the full program lifecycle, including signal handling. Call
// it from main with os.Exit(run.Run()).
func Run() int {
	if !flag.Parsed() {
		flag.Parse()
	}

	if info.ShowVersion() {
		fmt.Println(info.FullVersion())
		return 0
	}
	if err := info.CheckVersion(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}

	// Start logging first. Errors are about invalid levels and not fatal.
	if err := log.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start logging: %s\n", err)
	}
	defer log.Shutdown()
	log.Infof("run: starting %s %s", info.GetInfo().Name, info.Version())

	if err := RegisterConfig(); err != nil {
		log.Criticalf("run: failed to register config: %s", err)
		return 1
	}
	if err := config.Load(); err != nil {
		log.Criticalf("run: failed to load config: %s", err)
		return 1
	}
	applyLogLevel()
	metrics.Register()

	scope := &modules.Scope{
		Win: host.NewWindow(),
		Doc: host.SystemDocument(),
		Nav: host.NewNavigator(userAgent()),
	}

	inst, err := newInstance(os.Stdout, scope)
	if err != nil {
		log.Criticalf("run: %s", err)
		return 1
	}

	// catch interrupt for clean shutdown
	signalCh := make(chan os.Signal, 1)
	if enableInputSignals {
		go inputSignals(os.Stdin, signalCh, scope.Win)
	}
	signal.Notify(
		signalCh,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		sigUSR1,
	)

	err = inst.run(context.Background(), signalCh, api.ListenAddress(), func() {
		shutdownWatchdogs(signalCh)
	})
	if err != nil {
		log.Errorf("run: %s", err)
		return 1
	}
	return 0
}

type instance struct {
	scope  *modules.Scope
	queues []*modules.Queue
	hub    *api.Hub
}

func newInstance(out io.Writer, scope *modules.Scope, opts ...modules.QueueOption) (*instance, error) {
	format, err := getResultsFormat()
	if err != nil {
		return nil, err
	}

	hub := api.NewHub()
	sink := NewSink(out, format, hub.Publish)
	queues, err := BuildQueues(scope, sink.For, opts...)
	if err != nil {
		return nil, err
	}

	return &instance{
		scope:  scope,
		queues: queues,
		hub:    hub,
	}, nil
}

// run starts the queues and the API and blocks until a shutdown signal is
// received, ctx is canceled or the API fails. The queues are always stopped
// before the API.
func (inst *instance) run(ctx context.Context, signalCh <-chan os.Signal, apiAddress string, onInterrupt func()) error {
	if err := StartQueues(inst.queues); err != nil {
		_ = StopQueues(inst.queues)
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if apiAddress != "" {
		srv := api.NewServer(&backend{
			win:    inst.scope.Win,
			queues: inst.queues,
		}, inst.hub)
		group.Go(func() error {
			return srv.Serve(groupCtx, apiAddress)
		})
	}
	group.Go(func() error {
		err := waitForShutdown(groupCtx, signalCh, onInterrupt)
		if stopErr := StopQueues(inst.queues); stopErr != nil {
			log.Warningf("run: %s", stopErr)
		}
		log.Info("run: queues stopped")
		return err
	})

	err := group.Wait()
	inst.hub.Close()
	if errors.Is(err, errShutdown) {
		return nil
	}
	return err
}

func waitForShutdown(ctx context.Context, signalCh <-chan os.Signal, onInterrupt func()) error {
	for {
		select {
		case sig := <-signalCh:
			// only print and continue to wait if SIGUSR1
			if sig == sigUSR1 {
				_ = pprof.Lookup("goroutine").WriteTo(os.Stderr, 1)
				continue
			}

			fmt.Fprintln(os.Stderr, " <INTERRUPT>")
			log.Warning("run: program was interrupted, shutting down.")
			if onInterrupt != nil {
				onInterrupt()
			}
			return errShutdown

		case <-ctx.Done():
			return nil
		}
	}
}

// shutdownWatchdogs forces an exit after repeated interrupts or when shutting
// down takes too long.
func shutdownWatchdogs(signalCh <-chan os.Signal) {
	forceCnt := 5
	// catch signals during shutdown
	go func() {
		for {
			<-signalCh
			forceCnt--
			if forceCnt > 0 {
				fmt.Fprintf(os.Stderr, " <INTERRUPT> again, but already shutting down. %d more to force.\n", forceCnt)
			} else {
				fmt.Fprintln(os.Stderr, "===== FORCED EXIT =====")
				printStackTo(os.Stderr)
				os.Exit(1)
			}
		}
	}()

	if printStackOnExit {
		printStackTo(os.Stdout)
	}

	go func() {
		time.Sleep(1 * time.Minute)
		fmt.Fprintln(os.Stderr, "===== TAKING TOO LONG FOR SHUTDOWN =====")
		printStackTo(os.Stderr)
		os.Exit(1)
	}()
}

func userAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s)", info.GetInfo().Name, info.Version(), runtime.GOOS, runtime.GOARCH)
}

func printStackTo(writer io.Writer) {
	fmt.Fprintln(writer, "=== PRINTING TRACES ===")
	fmt.Fprintln(writer, "=== GOROUTINES ===")
	_ = pprof.Lookup("goroutine").WriteTo(writer, 1)
	fmt.Fprintln(writer, "=== BLOCKING ===")
	_ = pprof.Lookup("block").WriteTo(writer, 1)
	fmt.Fprintln(writer, "=== MUTEXES ===")
	_ = pprof.Lookup("mutex").WriteTo(writer, 1)
	fmt.Fprintln(writer, "=== END TRACES ===")
}
