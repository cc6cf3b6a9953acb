// Package tracing turns the translations performed by an address translator
// into records.
package tracing

import (
	"github.com/sarchlab/vmmgr/mem/vm/addresstranslator"
	"github.com/sarchlab/vmmgr/sim"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	sim.Named
	sim.Hookable
}

// A Tracer receives every completed translation.
type Tracer interface {
	Translated(t addresstranslator.Translation)
}
