package vm

import (
	"fmt"
	"io"

	"github.com/sarchlab/vmmgr/sim"
)

// A TimeTeller reports the logical clock of the translation loop.
type TimeTeller interface {
	Now() uint64
}

// A TLBTracer write logs for what happened in a TLB
type TLBTracer struct {
	timeTeller TimeTeller
	writer     io.Writer
}

// NewTLBTracer produce a new TLBTracer, injecting the dependency of a writer.
func NewTLBTracer(w io.Writer, timeTeller TimeTeller) *TLBTracer {
	t := new(TLBTracer)
	t.writer = w
	t.timeTeller = timeTeller

	return t
}

// Func prints the tlb trace information. The hook item is the event name and
// the detail is the page involved.
func (t *TLBTracer) Func(ctx sim.HookCtx) {
	what, ok := ctx.Item.(string)
	if !ok {
		return
	}

	domain := "TLB"
	if named, ok := ctx.Domain.(sim.Named); ok {
		domain = named.Name()
	}

	_, err := fmt.Fprintf(t.writer,
		"%d,%s,%s,%v\n",
		t.timeTeller.Now(),
		domain,
		what,
		ctx.Detail)
	if err != nil {
		panic(err)
	}
}
