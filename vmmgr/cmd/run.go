package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sarchlab/vmmgr/mem/mem"
	"github.com/sarchlab/vmmgr/mem/trace"
	"github.com/sarchlab/vmmgr/mem/vm"
	"github.com/sarchlab/vmmgr/mem/vm/addresstranslator"
	"github.com/sarchlab/vmmgr/monitoring"
	"github.com/sarchlab/vmmgr/simulation"
)

type runOptions struct {
	backingStore string
	record       string
	monitor      bool
	monitorPort  int
	openBrowser  bool
	quiet        bool
	verbose      bool
}

func run(
	ctx context.Context,
	stdout, stderr io.Writer,
	addressFile string,
	opts *runOptions,
) error {
	addrs, err := readAddresses(addressFile, stderr)
	if err != nil {
		return err
	}

	store, err := mem.OpenFileBackingStore(opts.backingStore)
	if err != nil {
		return fmt.Errorf("open backing store: %w", err)
	}
	defer store.Close()

	s, err := buildSimulation(store, stderr, opts)
	if err != nil {
		return err
	}

	if opts.openBrowser && s.MonitorURL() != "" {
		err = monitoring.OpenInBrowser(s.MonitorURL())
		if err != nil {
			fmt.Fprintf(stderr, "Warning: cannot open browser: %v\n", err)
		}
	}

	runErr := s.Run(ctx, addrs, func(t addresstranslator.Translation) {
		if !opts.quiet {
			printTranslation(stdout, t)
		}
	})

	if runErr == nil || errors.Is(runErr, context.Canceled) {
		printSummary(stdout, s.Summary())
	}

	err = s.Terminate()
	if err != nil {
		return errors.Join(runErr, fmt.Errorf("close recording: %w", err))
	}

	if runErr != nil {
		return runErr
	}

	if s.GetMonitor() != nil {
		fmt.Fprintf(stderr,
			"Run finished. Monitoring continues at %s, press Ctrl+C to exit.\n",
			s.MonitorURL())

		return serveUntilDone(ctx, s.GetMonitor())
	}

	return nil
}

func serveUntilDone(ctx context.Context, m *monitoring.Monitor) error {
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.StopServer(stopCtx)
	if err != nil {
		return fmt.Errorf("stop monitoring server: %w", err)
	}

	return nil
}

func readAddresses(path string, stderr io.Writer) ([]vm.LogicalAddress, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open address file: %w", err)
	}
	defer f.Close()

	addrs, stopped, err := trace.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read address file %s: %w", path, err)
	}

	if stopped != "" {
		fmt.Fprintf(stderr,
			"Warning: stopped reading %s at malformed token %q\n",
			path, stopped)
	}

	return addrs, nil
}

func buildSimulation(
	store mem.BackingStore,
	stderr io.Writer,
	opts *runOptions,
) (*simulation.Simulation, error) {
	b := simulation.MakeBuilder().WithBackingStore(store)

	if opts.record != "" {
		b = b.WithRecording(opts.record)
	}

	if opts.monitor {
		b = b.WithMonitoring().WithMonitorPort(opts.monitorPort)
	}

	if opts.verbose {
		b = b.WithTranslationLogger(log.New(stderr, "", 0))
	}

	return b.Build()
}
