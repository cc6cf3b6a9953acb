// Package simulation assembles an address translator with its optional
// recording and monitoring services and drives it over an address list.
package simulation

import (
	"context"
	"strconv"

	"github.com/sarchlab/vmmgr/datarecording"
	"github.com/sarchlab/vmmgr/mem/vm"
	"github.com/sarchlab/vmmgr/mem/vm/addresstranslator"
	"github.com/sarchlab/vmmgr/mem/vm/stats"
	"github.com/sarchlab/vmmgr/monitoring"
	"github.com/sarchlab/vmmgr/sim"
	"github.com/sarchlab/vmmgr/tracing"
)

// A Simulation provides the services required to run a translation.
type Simulation struct {
	id         string
	translator *addresstranslator.Comp

	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	dbTracer     *tracing.DBTracer

	monitor    *monitoring.Monitor
	monitorURL string

	components    []sim.Named
	compNameIndex map[string]int
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Translator returns the address translator being driven.
func (s *Simulation) Translator() *addresstranslator.Comp {
	return s.translator
}

// GetDataRecorder returns the data recorder, or nil if recording is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c sim.Named) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) sim.Named {
	index, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[index]
}

// Components returns all the registered components.
func (s *Simulation) Components() []sim.Named {
	return s.components
}

// Run translates the addresses in order and passes every result to
// onTranslated. It stops at the first translation error or when ctx is
// cancelled between two addresses.
func (s *Simulation) Run(
	ctx context.Context,
	addrs []vm.LogicalAddress,
	onTranslated func(addresstranslator.Translation),
) error {
	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar("Translation", uint64(len(addrs)))
		defer s.monitor.CompleteProgressBar(bar)
	}

	for _, addr := range addrs {
		err := ctx.Err()
		if err != nil {
			return err
		}

		if bar != nil {
			bar.IncrementInProgress(1)
		}

		t, err := s.translate(addr)
		if err != nil {
			return err
		}

		if bar != nil {
			bar.MoveInProgressToFinished(1)
		}

		if onTranslated != nil {
			onTranslated(t)
		}
	}

	return nil
}

func (s *Simulation) translate(
	addr vm.LogicalAddress,
) (t addresstranslator.Translation, err error) {
	if s.monitor == nil {
		return s.translator.Translate(addr)
	}

	err = s.monitor.Guard(func() error {
		t, err = s.translator.Translate(addr)
		return err
	})

	return t, err
}

// Summary returns the statistics of the addresses translated so far.
func (s *Simulation) Summary() stats.Summary {
	return s.translator.Stats().Summary()
}

// Terminate records the final statistics and closes the recording. The
// monitoring server keeps serving until its StopServer is called.
func (s *Simulation) Terminate() error {
	if s.dataRecorder == nil {
		return nil
	}

	summary := s.Summary()
	s.dbTracer.RecordSummary(summary)
	s.execRecorder.Set("Addresses Translated",
		strconv.FormatUint(summary.Count, 10))
	s.execRecorder.End()

	err := s.dataRecorder.Close()
	s.dataRecorder = nil

	return err
}
