package cmd

import (
	"fmt"
	"io"

	"github.com/sarchlab/vmmgr/mem/vm/addresstranslator"
	"github.com/sarchlab/vmmgr/mem/vm/stats"
)

func printTranslation(w io.Writer, t addresstranslator.Translation) {
	fmt.Fprintf(w, "Virtual address: %d Physical address: %d Value: %d\n",
		t.Logical, t.Physical, t.Value)
}

func printSummary(w io.Writer, s stats.Summary) {
	fmt.Fprintf(w, "\nStatistics:\n")
	fmt.Fprintf(w, "-----------------\n")
	fmt.Fprintf(w, "TLB hits = %d\n", s.Hits)
	fmt.Fprintf(w, "TLB hit rate = %.2f%%\n", s.HitRate)
	fmt.Fprintf(w, "Number of Translated Addresses = %d\n", s.Count)
	fmt.Fprintf(w, "Page Faults = %d\n", s.Faults)
	fmt.Fprintf(w, "Page Fault Rate = %.2f%%\n\n", s.FaultRate)
}
