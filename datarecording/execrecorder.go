package datarecording

import (
	"os"
	"strings"
	"time"
)

const execInfoTable = "exec_info"

type execInfo struct {
	Property string
	Value    string
}

// An ExecRecorder records how and when the program was run.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

// NewExecRecorder creates the exec_info table in the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(execInfoTable, execInfo{})

	return &ExecRecorder{
		recorder: recorder,
	}
}

// Start notes the start time, the command line, and the working directory.
func (e *ExecRecorder) Start() {
	e.Set("Start Time", now())
	e.Set("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Set("Working Directory", cwd)
}

// Set adds a free-form property of the run.
func (e *ExecRecorder) Set(property, value string) {
	e.entries = append(e.entries, execInfo{Property: property, Value: value})
}

// End writes the properties along with the end time.
func (e *ExecRecorder) End() {
	e.Set("End Time", now())

	for _, entry := range e.entries {
		e.recorder.InsertData(execInfoTable, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
