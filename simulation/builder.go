package simulation

import (
	"errors"
	"fmt"
	"log"

	"github.com/rs/xid"
	"github.com/sarchlab/vmmgr/datarecording"
	"github.com/sarchlab/vmmgr/mem/mem"
	"github.com/sarchlab/vmmgr/mem/vm"
	"github.com/sarchlab/vmmgr/mem/vm/addresstranslator"
	"github.com/sarchlab/vmmgr/monitoring"
	"github.com/sarchlab/vmmgr/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	backingStore   mem.BackingStore
	numTLBEntries  int
	recordOn       bool
	outputFileName string
	monitorOn      bool
	monitorPort    int
	logger         *log.Logger
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		numTLBEntries: 16,
	}
}

// WithBackingStore sets where the content of faulting pages comes from.
func (b Builder) WithBackingStore(s mem.BackingStore) Builder {
	b.backingStore = s
	return b
}

// WithNumTLBEntries sets the capacity of the TLB.
func (b Builder) WithNumTLBEntries(n int) Builder {
	b.numTLBEntries = n
	return b
}

// WithRecording records every translation into an SQLite database. An empty
// file name lets the recorder pick a unique one.
func (b Builder) WithRecording(filename string) Builder {
	b.recordOn = true
	b.outputFileName = filename

	return b
}

// WithMonitoring starts the monitoring server when the simulation is built.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithTranslationLogger logs every translation and TLB event to the logger.
func (b Builder) WithTranslationLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.backingStore == nil {
		panic("simulation requires a backing store")
	}

	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation. It fails if the recording database cannot be
// created or the monitoring server cannot listen.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	s := &Simulation{
		id:            xid.New().String(),
		compNameIndex: make(map[string]int),
	}

	s.translator = addresstranslator.MakeBuilder().
		WithBackingStore(b.backingStore).
		WithNumTLBEntries(b.numTLBEntries).
		Build("VMM")

	s.RegisterComponent(s.translator)
	s.RegisterComponent(s.translator.TLB())
	s.RegisterComponent(s.translator.FrameAllocator())

	if b.logger != nil {
		tracing.CollectTrace(s.translator, tracing.NewLogTracer(b.logger))
		s.translator.TLB().AcceptHook(
			vm.NewTLBTracer(b.logger.Writer(), s.translator))
	}

	if b.recordOn {
		err := b.buildRecording(s)
		if err != nil {
			return nil, err
		}
	}

	if b.monitorOn {
		err := b.buildMonitor(s)
		if err != nil {
			return nil, abortRecording(s, err)
		}
	}

	return s, nil
}

func (b Builder) buildRecording(s *Simulation) error {
	recorder, err := datarecording.New(b.outputFileName)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}

	s.dataRecorder = recorder
	s.execRecorder = datarecording.NewExecRecorder(recorder)
	s.execRecorder.Start()
	s.execRecorder.Set("Simulation ID", s.id)

	s.dbTracer = tracing.NewDBTracer(recorder)
	tracing.CollectTrace(s.translator, s.dbTracer)

	return nil
}

// abortRecording closes a recording that was opened by a failed build.
func abortRecording(s *Simulation, cause error) error {
	if s.dataRecorder == nil {
		return cause
	}

	s.execRecorder.Set("Build Error", cause.Error())
	s.execRecorder.End()

	err := s.dataRecorder.Close()
	s.dataRecorder = nil
	if err != nil {
		return errors.Join(cause, fmt.Errorf("close recording: %w", err))
	}

	return cause
}

func (b Builder) buildMonitor(s *Simulation) error {
	s.monitor = monitoring.NewMonitor()
	if b.monitorPort > 0 {
		s.monitor.WithPortNumber(b.monitorPort)
	}

	for _, c := range s.components {
		s.monitor.RegisterComponent(c)
	}

	s.monitor.RegisterStats(s.translator.Stats())

	url, err := s.monitor.StartServer()
	if err != nil {
		return err
	}

	s.monitorURL = url

	return nil
}
